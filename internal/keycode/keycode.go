// Package keycode maps macOS HID scancodes and CoreGraphics modifier flag
// bits to the semantic key/modifier model the rest of hotki operates on.
// The Modifiers bitmask and Name type are adapted from gioui.org/io/key's
// Modifiers/Name types, generalized from the teacher's GUI-event model to
// the OS-level scancode + CG event flag model this engine intercepts.
package keycode

import "strings"

// Modifiers is a bitmask of modifier keys, generic (side-independent) by
// default. The bit positions match the CoreGraphics event flag positions
// named in spec.md §4.4: shift=1<<17, control=1<<18, option=1<<19,
// command=1<<20. Keeping the same bit positions means a Modifiers value
// can be OR'd directly into a synthetic CGEventFlags value without
// remapping.
type Modifiers uint32

const (
	Shift   Modifiers = 1 << 17
	Control Modifiers = 1 << 18
	Option  Modifiers = 1 << 19
	Command Modifiers = 1 << 20
)

var allMods = []struct {
	bit  Modifiers
	name string
}{
	{Command, "cmd"},
	{Shift, "shift"},
	{Control, "ctrl"},
	{Option, "alt"},
}

// Contain reports whether m contains every bit set in m2.
func (m Modifiers) Contain(m2 Modifiers) bool { return m&m2 == m2 }

// String renders m in canonical "cmd+shift" form, independent of input
// order, so two Modifiers values with the same bits render identically.
func (m Modifiers) String() string {
	var parts []string
	for _, e := range allMods {
		if m.Contain(e.bit) {
			parts = append(parts, e.name)
		}
	}
	return strings.Join(parts, "+")
}

// Side distinguishes generic (either side), left, or right modifier
// variants. Chord parsing accepts no side-specific modifier names, so
// the relay always posts SideGeneric modifier keycodes.
type Side uint8

const (
	SideGeneric Side = iota
	SideLeft
	SideRight
)

// Key identifies a single semantic key, independent of modifiers.
type Key string

// Virtual keycode table (macOS HID usage / Carbon virtual keycodes), the
// subset spec.md's chord grammar needs to parse and relay. Values match
// the well-known macOS kVK_* constants.
const (
	vkA = 0x00
	vkS = 0x01
	vkD = 0x02
	vkF = 0x03
	vkZ = 0x06
	vkX = 0x07
	vkC = 0x08
	vkV = 0x09
	vkB = 0x0B
	vkQ = 0x0C
	vkW = 0x0D
	vkE = 0x0E
	vkR = 0x0F
	vkY = 0x10
	vkT = 0x11
	vk1 = 0x12
	vk2 = 0x13
	vk3 = 0x14
	vk4 = 0x15
	vk6 = 0x16
	vk5 = 0x17
	vk9 = 0x19
	vk7 = 0x1A
	vk8 = 0x1C
	vk0 = 0x1D
	vkO = 0x1F
	vkU = 0x20
	vkI = 0x22
	vkP = 0x23
	vkL = 0x25
	vkJ = 0x26
	vkK = 0x28
	vkN = 0x2D
	vkM = 0x2E

	vkReturn    = 0x24
	vkTab       = 0x30
	vkSpace     = 0x31
	vkDelete    = 0x33
	vkEscape    = 0x35
	vkLeft      = 0x7B
	vkRight     = 0x7C
	vkDown      = 0x7D
	vkUp        = 0x7E
	vkF1        = 0x7A
	vkF2        = 0x78
	vkF3        = 0x63
	vkF4        = 0x76
	vkF5        = 0x60
	vkF6        = 0x61
	vkF7        = 0x62
	vkF8        = 0x64
	vkF9        = 0x65
	vkF10       = 0x6D
	vkF11       = 0x67
	vkF12       = 0x6F
	vkLeftCmd   = 0x37
	vkRightCmd  = 0x36
	vkLeftShift = 0x38
	vkRightShft = 0x3C
	vkLeftCtrl  = 0x3B
	vkRightCtrl = 0x3E
	vkLeftOpt   = 0x3A
	vkRightOpt  = 0x3D
)

var nameToCode = map[Key]int{
	"a": vkA, "s": vkS, "d": vkD, "f": vkF, "z": vkZ, "x": vkX, "c": vkC,
	"v": vkV, "b": vkB, "q": vkQ, "w": vkW, "e": vkE, "r": vkR, "y": vkY,
	"t": vkT, "0": vk0, "1": vk1, "2": vk2, "3": vk3, "4": vk4, "5": vk5,
	"6": vk6, "7": vk7, "8": vk8, "9": vk9, "o": vkO, "u": vkU, "i": vkI,
	"p": vkP, "l": vkL, "j": vkJ, "k": vkK, "n": vkN, "m": vkM,
	"return": vkReturn, "enter": vkReturn, "tab": vkTab, "space": vkSpace,
	"delete": vkDelete, "escape": vkEscape, "esc": vkEscape,
	"left": vkLeft, "right": vkRight, "down": vkDown, "up": vkUp,
	"f1": vkF1, "f2": vkF2, "f3": vkF3, "f4": vkF4, "f5": vkF5, "f6": vkF6,
	"f7": vkF7, "f8": vkF8, "f9": vkF9, "f10": vkF10, "f11": vkF11, "f12": vkF12,
}

var codeToName = func() map[int]Key {
	m := make(map[int]Key, len(nameToCode))
	for name, code := range nameToCode {
		if name == "enter" || name == "esc" {
			continue // canonical names win over aliases
		}
		m[code] = name
	}
	return m
}()

// ModifierKeycodes maps a generic modifier bit to its left/right virtual
// keycodes, used by the key relay to post the correct modifier-down event
// (§4.4: "Generic modifier implies left-side virtual keycode; explicit
// right-variant implies right-side").
func ModifierKeycodes(m Modifiers, side Side) int {
	switch m {
	case Command:
		if side == SideRight {
			return vkRightCmd
		}
		return vkLeftCmd
	case Shift:
		if side == SideRight {
			return vkRightShft
		}
		return vkLeftShift
	case Control:
		if side == SideRight {
			return vkRightCtrl
		}
		return vkLeftCtrl
	case Option:
		if side == SideRight {
			return vkRightOpt
		}
		return vkLeftOpt
	}
	return -1
}

// Lookup returns the virtual keycode for a key name, and whether it was
// found.
func Lookup(name Key) (int, bool) {
	c, ok := nameToCode[Key(strings.ToLower(string(name)))]
	return c, ok
}

// NameForCode returns the canonical key name for a virtual keycode.
func NameForCode(code int) (Key, bool) {
	n, ok := codeToName[code]
	return n, ok
}
