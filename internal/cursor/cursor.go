// Package cursor implements the binding resolver and cursor model of
// spec.md §4.2: the mode-path state machine, chord resolution with
// guards, attribute inheritance, ensure-context clamping, and HUD
// projection. There is no direct analog in the teacher (gioui-gio is a
// GUI toolkit with no mode-tree concept); this package is grounded
// instead in the pack's own hierarchical-state-machine idioms —
// kastheco-klique's config/planfsm package, which also models a path of
// indices into a nested structure with guarded transitions — adapted
// from a linear plan-step FSM to a stack-like mode path.
package cursor

import "github.com/cortesi/hotki/internal/config"

// Focus is the window focus context a cursor resolves guards against.
type Focus struct {
	App, Title string
	PID        int
}

// Cursor is the current mode path plus HUD-viewing state, per spec.md §3.
type Cursor struct {
	Path           []uint32
	ViewingRoot    bool
	OverrideTheme  string
	UserUIDisabled bool
	Focus          Focus
}

// Push returns a new Cursor with index appended to Path.
func (c Cursor) Push(index uint32) Cursor {
	np := make([]uint32, len(c.Path)+1)
	copy(np, c.Path)
	np[len(c.Path)] = index
	c.Path = np
	return c
}

// Pop returns a new Cursor with the last path element removed. Popping
// an empty path is a no-op, matching the root having no parent to pop to.
func (c Cursor) Pop() Cursor {
	if len(c.Path) == 0 {
		return c
	}
	np := make([]uint32, len(c.Path)-1)
	copy(np, c.Path[:len(c.Path)-1])
	c.Path = np
	return c
}

// nodeAt walks root along path, returning the Keys node at that path and
// the merged effective attributes of every keys(_) binding entered along
// the way (root's own attributes are the zero value, since root has no
// parent binding). ok is false if any path element is out of range or
// does not reference a keys(_) action.
func nodeAt(root *config.Keys, path []uint32) (node *config.Keys, merged config.Attributes, ok bool) {
	node = root
	for _, idx := range path {
		if int(idx) >= len(node.Bindings) {
			return nil, config.Attributes{}, false
		}
		b := node.Bindings[idx]
		if b.Action.Kind != config.ActionKeys || b.Action.SubKeys == nil {
			return nil, config.Attributes{}, false
		}
		merged = b.Attrs.MergedWith(merged)
		node = b.Action.SubKeys
	}
	return node, merged, true
}

// CurrentNode returns the Keys node the cursor currently points at.
func (c Cursor) CurrentNode(root *config.Keys) (*config.Keys, bool) {
	n, _, ok := nodeAt(root, c.Path)
	return n, ok
}

// EnsureContext walks from the leaf of loc.Path back toward the root,
// popping any entry whose index no longer points at a keys(_) action, or
// whose merged effective guard no longer matches the new focus, per
// spec.md §4.2. It only ever pops, never pushes, and returns whether the
// path changed.
func EnsureContext(root *config.Keys, c Cursor, focus Focus) (Cursor, bool) {
	orig := len(c.Path)
	for len(c.Path) > 0 {
		if validPrefix(root, c.Path, focus) {
			break
		}
		c = c.Pop()
	}
	return c, len(c.Path) != orig
}

// validPrefix reports whether every prefix of path references a keys(_)
// binding whose merged guard matches focus.
func validPrefix(root *config.Keys, path []uint32, focus Focus) bool {
	node := root
	var merged config.Attributes
	for _, idx := range path {
		if int(idx) >= len(node.Bindings) {
			return false
		}
		b := node.Bindings[idx]
		if b.Action.Kind != config.ActionKeys || b.Action.SubKeys == nil {
			return false
		}
		merged = b.Attrs.MergedWith(merged)
		if !merged.MatchesGuard(focus.App, focus.Title) {
			return false
		}
		node = b.Action.SubKeys
	}
	return true
}

// Resolved is the outcome of resolving a chord against a cursor.
type Resolved struct {
	Found        bool
	Action       config.Action
	Attrs        config.Attributes
	EnteredIndex *int // set when Action.Kind == ActionKeys
}

// Resolve implements spec.md §4.2's resolution order: first the current
// mode scope, then each ancestor nearest-outward among bindings whose
// effective attrs are global and whose guards match.
func Resolve(root *config.Keys, c Cursor, chordStr string) Resolved {
	node, scopeAttrs, ok := nodeAt(root, c.Path)
	if !ok {
		return Resolved{}
	}
	if b, idx, found := node.FirstEffective(chordStr, c.Focus.App, c.Focus.Title); found {
		merged := b.Attrs.MergedWith(scopeAttrs)
		if merged.MatchesGuard(c.Focus.App, c.Focus.Title) {
			r := Resolved{Found: true, Action: b.Action, Attrs: merged}
			if b.Action.Kind == config.ActionKeys {
				r.EnteredIndex = &idx
			}
			return r
		}
	}
	// Ancestors, nearest-outward: only bindings with effective global=true.
	for depth := len(c.Path) - 1; depth >= 0; depth-- {
		ancestorNode, ancestorAttrs, ok := nodeAt(root, c.Path[:depth])
		if !ok {
			continue
		}
		b, idx, found := ancestorNode.FirstEffective(chordStr, c.Focus.App, c.Focus.Title)
		if !found {
			continue
		}
		merged := b.Attrs.MergedWith(ancestorAttrs)
		if !merged.EffectiveGlobal() {
			continue
		}
		if !merged.MatchesGuard(c.Focus.App, c.Focus.Title) {
			continue
		}
		r := Resolved{Found: true, Action: b.Action, Attrs: merged}
		if b.Action.Kind == config.ActionKeys {
			r.EnteredIndex = &idx
		}
		return r
	}
	return Resolved{}
}

// HudVisible reports whether the HUD should be shown for c, per
// spec.md §4.2: "loc.viewing_root or !loc.path.is_empty()".
func (c Cursor) HudVisible() bool {
	return c.ViewingRoot || len(c.Path) != 0
}

// HudRow is one row of the flattened HUD binding list.
type HudRow struct {
	Chord  string
	Desc   string
	Attrs  config.Attributes
	IsMode bool
}

// HudKeys implements spec.md §4.2's hud_keys projection: current scope
// then ancestor globals, top-first, skipping hidden/hud_only-when-not-
// visible/guard-mismatched/duplicate-chord entries (first wins).
func HudKeys(root *config.Keys, c Cursor) []HudRow {
	visible := c.HudVisible()
	var rows []HudRow
	seen := map[string]bool{}

	add := func(node *config.Keys, scopeAttrs config.Attributes, globalOnly bool) {
		for _, b := range node.Bindings {
			merged := b.Attrs.MergedWith(scopeAttrs)
			if globalOnly && !merged.EffectiveGlobal() {
				continue
			}
			if merged.EffectiveHide() {
				continue
			}
			if merged.EffectiveHudOnly() && !visible {
				continue
			}
			if !merged.MatchesGuard(c.Focus.App, c.Focus.Title) {
				continue
			}
			if seen[b.ChordStr] {
				continue
			}
			seen[b.ChordStr] = true
			rows = append(rows, HudRow{
				Chord:  b.ChordStr,
				Desc:   b.Description,
				Attrs:  merged,
				IsMode: b.Action.Kind == config.ActionKeys,
			})
		}
	}

	if node, scopeAttrs, ok := nodeAt(root, c.Path); ok {
		add(node, scopeAttrs, false)
	}
	for depth := len(c.Path) - 1; depth >= 0; depth-- {
		if ancestorNode, ancestorAttrs, ok := nodeAt(root, c.Path[:depth]); ok {
			add(ancestorNode, ancestorAttrs, true)
		}
	}
	return rows
}

// CurrentCapture reports whether the mode currently entered has an
// effective capture=true attribute, per spec.md §4.1's capture-all
// overlay (scenario S5): the overlay is a property of the binding tree
// at the cursor's current path, not of any single resolved chord.
func CurrentCapture(root *config.Keys, c Cursor) bool {
	_, merged, ok := nodeAt(root, c.Path)
	if !ok {
		return false
	}
	return merged.EffectiveCapture()
}

// AutoPopEmpty reports whether the node at c's current path is an empty,
// non-root mode that should auto-pop after render (spec.md §8 boundary
// behavior, scenario S2).
func AutoPopEmpty(root *config.Keys, c Cursor) bool {
	if len(c.Path) == 0 {
		return false
	}
	node, _, ok := nodeAt(root, c.Path)
	return ok && len(node.Bindings) == 0
}
