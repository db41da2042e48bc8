// Package chord implements the Chord type: a parsed key + modifier
// gesture, per spec.md §3. Parsing and canonical rendering build on
// internal/keycode, which in turn adapts gioui.org/io/key's Modifiers
// model to macOS scancodes.
package chord

import (
	"fmt"
	"strings"

	"github.com/cortesi/hotki/internal/keycode"
)

// Chord is a modifier set plus a single key. Equality ignores the order
// modifiers were specified in, since Mods is a bitmask.
type Chord struct {
	Mods keycode.Modifiers
	Key  keycode.Key
}

var modAliases = map[string]keycode.Modifiers{
	"cmd": keycode.Command, "command": keycode.Command,
	"shift": keycode.Shift,
	"ctrl":  keycode.Control, "control": keycode.Control,
	"alt": keycode.Option, "opt": keycode.Option, "option": keycode.Option,
}

// Parse parses a chord string like "cmd+shift+0". The key component may
// appear anywhere in the '+'-separated list; exactly one non-modifier
// token must be present.
func Parse(s string) (Chord, error) {
	parts := strings.Split(s, "+")
	var c Chord
	keySeen := false
	for _, raw := range parts {
		p := strings.ToLower(strings.TrimSpace(raw))
		if p == "" {
			return Chord{}, fmt.Errorf("chord: empty component in %q", s)
		}
		if bit, ok := modAliases[p]; ok {
			c.Mods |= bit
			continue
		}
		if keySeen {
			return Chord{}, fmt.Errorf("chord: multiple keys in %q", s)
		}
		if _, ok := keycode.Lookup(keycode.Key(p)); !ok {
			return Chord{}, fmt.Errorf("chord: unknown key %q in %q", p, s)
		}
		c.Key = keycode.Key(p)
		keySeen = true
	}
	if !keySeen {
		return Chord{}, fmt.Errorf("chord: no key in %q", s)
	}
	return c, nil
}

// MustParse parses s, panicking on error. Intended for static binding
// tables built from an already-validated Config.
func MustParse(s string) Chord {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Equal reports whether c and c2 identify the same gesture. Modifier
// comparison is by bitmask, so ordering in the source string never
// matters.
func (c Chord) Equal(c2 Chord) bool {
	return c.Mods == c2.Mods && c.Key == c2.Key
}

// String renders c in canonical "mod+mod+key" form.
func (c Chord) String() string {
	mods := c.Mods.String()
	if mods == "" {
		return string(c.Key)
	}
	return mods + "+" + string(c.Key)
}

// ID is a value suitable for use as a map key identifying a chord.
func (c Chord) ID() string { return c.String() }
