// Package config defines the binding tree, attribute model, and action
// schema the core consumes from the (out of scope) scripting front end,
// per spec.md §3. The shape is a strict, statically-typed schema rather
// than the dynamic DSL the original implementation embeds: the teacher
// pack's own event-type enums (e.g. zjrosen-perles/internal/pubsub's
// EventType-tagged Event[T], klique/config/planstate's tagged plan state)
// ground the choice of an explicit Kind enum over an interface per
// variant, which plays more naturally with Go's lack of sum types.
package config

import (
	"fmt"
	"regexp"
)

// ActionKind tags the variant of an Action.
type ActionKind int

const (
	ActionShell ActionKind = iota
	ActionRelay
	ActionKeys
	ActionPop
	ActionExit
	ActionReloadConfig
	ActionClearNotifications
	ActionShowDetails
	ActionThemeNext
	ActionThemePrev
	ActionThemeSet
	ActionShowHudRoot
	ActionSetVolume
	ActionChangeVolume
	ActionMute
	ActionUserStyle
	ActionFullscreen
	ActionPlace
	ActionPlaceMove
	ActionRaise
	ActionHide
)

// NotifyKind classifies a notification emitted by shell action outcomes.
type NotifyKind int

const (
	NotifyInfo NotifyKind = iota
	NotifyWarn
	NotifyError
)

// Direction is a focus-navigation / grid-move direction.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// Toggle is a tri-state requested transition: explicit on/off, or flip
// the current state.
type Toggle int

const (
	ToggleFlip Toggle = iota
	ToggleOn
	ToggleOff
)

// GridSpec names a grid cell target for a place action.
type GridSpec struct {
	Cols, Rows, Col, Row int
}

// RaiseTarget optionally filters which window a raise action targets.
type RaiseTarget struct {
	App   string
	Title string
}

// Action is a tagged-variant action, adapted from spec.md §3's Action
// enum into a single struct carrying only the fields relevant to Kind.
type Action struct {
	Kind ActionKind

	// ActionShell
	ShellCommand string
	OkNotify     NotifyKind
	ErrNotify    NotifyKind

	// ActionRelay
	RelayChord string

	// ActionKeys
	SubKeys *Keys

	// ActionShowDetails, ActionMute, ActionUserStyle, ActionFullscreen, ActionHide
	Toggle Toggle

	// ActionThemeSet
	ThemeName string

	// ActionSetVolume
	Volume uint8

	// ActionChangeVolume
	VolumeDelta int8

	// ActionFullscreen
	FullscreenKind string

	// ActionPlace
	Grid GridSpec

	// ActionPlaceMove
	MoveDirection Direction

	// ActionRaise
	Raise RaiseTarget
}

// Attributes is the per-binding option bag of spec.md §3. Pointer fields
// are nil when unset so merge can distinguish "unset" from "false"/"zero".
type Attributes struct {
	NoExit           *bool
	Global           *bool
	Hide             *bool
	HudOnly          *bool
	MatchApp         *string
	MatchTitle       *string
	Repeat           *bool
	RepeatDelayMs    *int
	RepeatIntervalMs *int
	Capture          *bool
	StyleOverlay     *string // never inherited; see MergedWith

	compiledApp   *regexp.Regexp
	compiledTitle *regexp.Regexp
}

// MergedWith returns the attributes resulting from merging parent
// (outer) and child (inner, this receiver) attributes: child's Some wins
// field by field, except StyleOverlay which always comes from the child
// (spec.md §3, §8: "attribute inheritance is associative... except for
// style_overlay which is always taken from the child").
func (child Attributes) MergedWith(parent Attributes) Attributes {
	out := parent
	if child.NoExit != nil {
		out.NoExit = child.NoExit
	}
	if child.Global != nil {
		out.Global = child.Global
	}
	if child.Hide != nil {
		out.Hide = child.Hide
	}
	if child.HudOnly != nil {
		out.HudOnly = child.HudOnly
	}
	if child.MatchApp != nil {
		out.MatchApp = child.MatchApp
		out.compiledApp = child.compiledApp
	}
	if child.MatchTitle != nil {
		out.MatchTitle = child.MatchTitle
		out.compiledTitle = child.compiledTitle
	}
	if child.Repeat != nil {
		out.Repeat = child.Repeat
	}
	if child.RepeatDelayMs != nil {
		out.RepeatDelayMs = child.RepeatDelayMs
	}
	if child.RepeatIntervalMs != nil {
		out.RepeatIntervalMs = child.RepeatIntervalMs
	}
	if child.Capture != nil {
		out.Capture = child.Capture
	}
	// style_overlay is never inherited: always the child's (possibly nil).
	out.StyleOverlay = child.StyleOverlay
	return out
}

// EffectiveNoExit returns the effective noexit flag, defaulting to false.
func (a Attributes) EffectiveNoExit() bool {
	return a.NoExit != nil && *a.NoExit
}

// EffectiveRepeat returns the effective repeat flag. Per spec.md §3:
// "Effective repeat defaults to the effective noexit."
func (a Attributes) EffectiveRepeat() bool {
	if a.Repeat != nil {
		return *a.Repeat
	}
	return a.EffectiveNoExit()
}

// EffectiveGlobal, EffectiveHide, EffectiveHudOnly, EffectiveCapture each
// default to false when unset.
func (a Attributes) EffectiveGlobal() bool  { return a.Global != nil && *a.Global }
func (a Attributes) EffectiveHide() bool    { return a.Hide != nil && *a.Hide }
func (a Attributes) EffectiveHudOnly() bool { return a.HudOnly != nil && *a.HudOnly }
func (a Attributes) EffectiveCapture() bool { return a.Capture != nil && *a.Capture }

// MatchesGuard reports whether a's match_app/match_title guards (when
// present and compiled) match the given focus context. A guard that is
// absent is vacuously satisfied.
func (a Attributes) MatchesGuard(app, title string) bool {
	if a.compiledApp != nil && !a.compiledApp.MatchString(app) {
		return false
	}
	if a.compiledTitle != nil && !a.compiledTitle.MatchString(title) {
		return false
	}
	return true
}

// CompileGuards compiles MatchApp/MatchTitle into regexes, returning a
// ValidationError naming the failing pattern.
func (a *Attributes) CompileGuards() error {
	if a.MatchApp != nil {
		re, err := regexp.Compile(*a.MatchApp)
		if err != nil {
			return ValidationError{Message: fmt.Sprintf("invalid match_app %q: %v", *a.MatchApp, err)}
		}
		a.compiledApp = re
	}
	if a.MatchTitle != nil {
		re, err := regexp.Compile(*a.MatchTitle)
		if err != nil {
			return ValidationError{Message: fmt.Sprintf("invalid match_title %q: %v", *a.MatchTitle, err)}
		}
		a.compiledTitle = re
	}
	return nil
}

// Binding is a single chord -> action mapping with its attribute bag, per
// spec.md §3.
type Binding struct {
	ChordStr    string
	Description string
	Action      Action
	Attrs       Attributes
}

// Keys is an ordered list of bindings forming one mode.
type Keys struct {
	Bindings []Binding
}

// Style is the (opaque to the core) rendering style payload; its fields
// are not specified further since HUD rendering is a non-goal (§1). It is
// modeled as a name->value overlay bag so layering (base + user + mode
// chain + per-binding overlay) is a simple map merge.
type Style map[string]string

// Layer merges override on top of base, override's keys winning.
func (s Style) Layer(override Style) Style {
	out := make(Style, len(s)+len(override))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// ServerTunables holds server-wide runtime knobs the Config carries that
// aren't per-binding.
type ServerTunables struct {
	ExitIfNoClients bool
}

// Config is the root configuration the backend consumes: an immutable
// binding tree, base style, optional raw user overlay, and tunables.
type Config struct {
	Root        *Keys
	BaseStyle   Style
	UserOverlay Style
	Tunables    ServerTunables
	Themes      map[string]Style
}

// ValidationWarning is a non-fatal finding surfaced as a Warn effect
// (spec.md scenario S1).
type ValidationWarning struct {
	Message string
}

func (w ValidationWarning) Error() string { return w.Message }

// ValidationError is a fatal configuration problem (§7).
type ValidationError struct {
	Message string
	Line    int
	Col     int
	Excerpt string
}

func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("config: %s (line %d, col %d): %s", e.Message, e.Line, e.Col, e.Excerpt)
	}
	return "config: " + e.Message
}

// Validate walks the binding tree compiling guards and detecting
// duplicate chords without differentiating guards within a single Keys
// node (spec.md §3, §8 scenario S1): the first-defined binding wins and a
// ValidationWarning is returned for every duplicate binding, in addition
// to compiling every guard regex.
func Validate(c *Config) ([]ValidationWarning, error) {
	if c.Root == nil {
		return nil, ValidationError{Message: "root keys node is nil"}
	}
	var warnings []ValidationWarning
	if err := validateKeys(c.Root, &warnings); err != nil {
		return warnings, err
	}
	return warnings, nil
}

func validateKeys(k *Keys, warnings *[]ValidationWarning) error {
	type seenGuard struct {
		app, title string
	}
	seen := map[string][]seenGuard{}
	for i := range k.Bindings {
		b := &k.Bindings[i]
		if err := b.Attrs.CompileGuards(); err != nil {
			return err
		}
		key := b.ChordStr
		var app, title string
		if b.Attrs.MatchApp != nil {
			app = *b.Attrs.MatchApp
		}
		if b.Attrs.MatchTitle != nil {
			title = *b.Attrs.MatchTitle
		}
		dupGuardless := false
		for _, g := range seen[key] {
			if g.app == app && g.title == title {
				dupGuardless = true
				break
			}
		}
		if dupGuardless {
			*warnings = append(*warnings, ValidationWarning{
				Message: fmt.Sprintf("Duplicate chord '%s' ignored", key),
			})
			continue
		}
		seen[key] = append(seen[key], seenGuard{app: app, title: title})
		if b.Action.Kind == ActionKeys && b.Action.SubKeys != nil {
			if err := validateKeys(b.Action.SubKeys, warnings); err != nil {
				return err
			}
		}
	}
	return nil
}

// FirstEffective returns the first binding in k matching chordStr with a
// guard matching (app, title), per the duplicate-suppression rule (first
// defined wins; Validate only warns about later duplicates with identical
// guards and leaves them in place, and they are shadowed here because the
// search stops at the first match; bindings with differing guards are
// evaluated in source order).
func (k *Keys) FirstEffective(chordStr, app, title string) (*Binding, int, bool) {
	for i := range k.Bindings {
		b := &k.Bindings[i]
		if b.ChordStr == chordStr && b.Attrs.MatchesGuard(app, title) {
			return b, i, true
		}
	}
	return nil, 0, false
}
