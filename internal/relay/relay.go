// Package relay implements the key relay of spec.md §4.4: posting
// synthetic key-down/up events, with modifiers, to a focused PID. The
// planning logic (which events, in which order, carrying which flags) is
// kept pure Go so it can be exercised without macOS; posting those
// planned events onto the system is a thin darwin-cgo layer grounded in
// app/os_macos.go's CFTypeRef-wrapping cgo style, adapted from window-op
// calls to CGEventPost calls.
package relay

import (
	"fmt"

	"github.com/cortesi/hotki/internal/chord"
	"github.com/cortesi/hotki/internal/keycode"
)

// modifierOrder is the fixed down-order for multi-modifier chords;
// key-up posts modifier-ups in the reverse of this order. It matches
// keycode.Modifiers.String's canonical rendering order so the relay's
// wire behavior and the config layer's display of a chord describe the
// same modifier precedence.
var modifierOrder = []keycode.Modifiers{keycode.Command, keycode.Shift, keycode.Control, keycode.Option}

// EventKind tags a planned synthetic event.
type EventKind int

const (
	ModifierDown EventKind = iota
	ModifierUp
	KeyDown
	KeyUp
)

// PlannedEvent is one synthetic CGEvent to post.
type PlannedEvent struct {
	Kind       EventKind
	Keycode    int
	Flags      keycode.Modifiers
	Tagged     bool // EVENT_SOURCE_USER_DATA=HOTK_TAG
	AutoRepeat bool // KEYBOARD_EVENT_AUTOREPEAT=1
}

// Chord is the minimal shape relay planning needs from a parsed chord.
type Chord struct {
	Mods keycode.Modifiers
	Key  keycode.Key
}

// presentModifiers returns, in modifierOrder, the individual modifier
// bits set in m.
func presentModifiers(m keycode.Modifiers) []keycode.Modifiers {
	var out []keycode.Modifiers
	for _, bit := range modifierOrder {
		if m.Contain(bit) {
			out = append(out, bit)
		}
	}
	return out
}

// PlanKeyDown returns the ordered synthetic events for key_down(pid,
// chord, is_repeat), per spec.md §4.4: on a non-repeat down, modifier-
// downs are posted first (in modifierOrder), then the key-down carrying
// the CG flags bits for every present modifier. A repeat down skips the
// modifier-downs (they are already down from the initial press) and sets
// AutoRepeat on the key event.
func PlanKeyDown(c Chord, isRepeat bool, tagged bool) []PlannedEvent {
	var plan []PlannedEvent
	if !isRepeat {
		for _, bit := range presentModifiers(c.Mods) {
			plan = append(plan, PlannedEvent{
				Kind:    ModifierDown,
				Keycode: keycode.ModifierKeycodes(bit, keycode.SideGeneric),
				Flags:   c.Mods,
				Tagged:  tagged,
			})
		}
	}
	code, _ := keycode.Lookup(c.Key)
	plan = append(plan, PlannedEvent{
		Kind:       KeyDown,
		Keycode:    code,
		Flags:      c.Mods,
		Tagged:     tagged,
		AutoRepeat: isRepeat,
	})
	return plan
}

// PlanKeyUp returns the ordered synthetic events for key_up(pid, chord):
// the key-up first, then modifier-ups in the reverse of PlanKeyDown's
// modifier-down order, so a key_down immediately followed by key_up
// leaves no modifier-down residual (spec.md §8).
func PlanKeyUp(c Chord, tagged bool) []PlannedEvent {
	code, _ := keycode.Lookup(c.Key)
	plan := []PlannedEvent{{
		Kind:    KeyUp,
		Keycode: code,
		Flags:   c.Mods,
		Tagged:  tagged,
	}}
	mods := presentModifiers(c.Mods)
	for i := len(mods) - 1; i >= 0; i-- {
		plan = append(plan, PlannedEvent{
			Kind:    ModifierUp,
			Keycode: keycode.ModifierKeycodes(mods[i], keycode.SideGeneric),
			Flags:   c.Mods,
			Tagged:  tagged,
		})
	}
	return plan
}

// Poster posts a single planned event to a target PID. The darwin
// implementation wraps CGEventCreateKeyboardEvent/CGEventPostToPid; other
// platforms have no implementation since the engine is macOS-resident.
type Poster interface {
	Post(pid int, ev PlannedEvent) error
}

// Relay posts planned key-down/up sequences to a target PID, tagging
// events with HOTK_TAG unless running in unlabeled mode (spec.md §4.4,
// §8's synthetic-event-filtering contract).
type Relay struct {
	poster   Poster
	unlabeled bool
}

// New constructs a Relay. unlabeled disables HOTK_TAG tagging, matching
// the engine's "unlabeled mode" escape hatch for environments where the
// tag would collide with another tool's injected events.
func New(poster Poster, unlabeled bool) *Relay {
	return &Relay{poster: poster, unlabeled: unlabeled}
}

// KeyDown posts the planned key-down sequence for chord to pid.
func (r *Relay) KeyDown(pid int, c Chord, isRepeat bool) error {
	for _, ev := range PlanKeyDown(c, isRepeat, !r.unlabeled) {
		if err := r.poster.Post(pid, ev); err != nil {
			return err
		}
	}
	return nil
}

// KeyUp posts the planned key-up sequence for chord to pid.
func (r *Relay) KeyUp(pid int, c Chord) error {
	for _, ev := range PlanKeyUp(c, !r.unlabeled) {
		if err := r.poster.Post(pid, ev); err != nil {
			return err
		}
	}
	return nil
}

// ForRepeater adapts Relay to the internal/repeater.Relay interface,
// which addresses chords by their canonical string form rather than the
// parsed Chord struct (repeater only ever re-plays a chord it already
// validated out of a binding's config).
type ForRepeater struct{ Relay *Relay }

// KeyDown parses chordStr and posts the planned key-down sequence.
func (a ForRepeater) KeyDown(pid int, chordStr string, isRepeat bool) error {
	c, err := chord.Parse(chordStr)
	if err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	return a.Relay.KeyDown(pid, Chord{Mods: c.Mods, Key: c.Key}, isRepeat)
}

// KeyUp parses chordStr and posts the planned key-up sequence.
func (a ForRepeater) KeyUp(pid int, chordStr string) error {
	c, err := chord.Parse(chordStr)
	if err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	return a.Relay.KeyUp(pid, Chord{Mods: c.Mods, Key: c.Key})
}
