package cursor

import (
	"testing"

	"github.com/cortesi/hotki/internal/config"
)

func strp(s string) *string { return &s }

// S2 — auto-pop empty child mode.
func TestAutoPopEmptyChildMode(t *testing.T) {
	root := &config.Keys{
		Bindings: []config.Binding{
			{ChordStr: "a", Description: "child", Action: config.Action{Kind: config.ActionKeys, SubKeys: &config.Keys{}}},
		},
	}
	c := Cursor{}
	r := Resolve(root, c, "a")
	if !r.Found || r.EnteredIndex == nil {
		t.Fatalf("expected to resolve into mode, got %+v", r)
	}
	c = c.Push(uint32(*r.EnteredIndex))
	if AutoPopEmpty(root, c) != true {
		t.Fatal("expected auto-pop of empty child mode")
	}
	c = c.Pop()
	if len(c.Path) != 0 {
		t.Fatalf("expected depth 0 after pop, got %d", len(c.Path))
	}
}

// S3 — orphan child pop on focus change.
func TestOrphanChildPopOnFocusChange(t *testing.T) {
	childA := &config.Keys{Bindings: []config.Binding{{ChordStr: "x", Description: "only-in-a"}}}
	childB := &config.Keys{Bindings: []config.Binding{{ChordStr: "y", Description: "only-in-b"}}}
	root := &config.Keys{
		Bindings: []config.Binding{
			{ChordStr: "a", Description: "child-a", Action: config.Action{Kind: config.ActionKeys, SubKeys: childA}, Attrs: config.Attributes{MatchApp: strp("^A$")}},
			{ChordStr: "a", Description: "child-b", Action: config.Action{Kind: config.ActionKeys, SubKeys: childB}, Attrs: config.Attributes{MatchApp: strp("^B$")}},
		},
	}
	if _, err := config.Validate(&config.Config{Root: root}); err != nil {
		t.Fatal(err)
	}

	focusA := Focus{App: "A"}
	c := Cursor{Focus: focusA}
	r := Resolve(root, c, "a")
	if !r.Found || r.EnteredIndex == nil || *r.EnteredIndex != 0 {
		t.Fatalf("expected to enter child-a at index 0, got %+v", r)
	}
	c = c.Push(uint32(*r.EnteredIndex))
	if len(c.Path) != 1 {
		t.Fatalf("expected depth 1, got %d", len(c.Path))
	}

	focusB := Focus{App: "B"}
	c.Focus = focusB
	newC, changed := EnsureContext(root, c, focusB)
	if !changed {
		t.Fatal("expected ensure_context to detect the orphaned child-a")
	}
	if len(newC.Path) != 0 {
		t.Fatalf("expected pop to depth 0 since child-a no longer matches B, got %d", len(newC.Path))
	}

	// Re-enter from root under focus B: should land on child-b.
	newC.Focus = focusB
	r2 := Resolve(root, newC, "a")
	if !r2.Found || r2.EnteredIndex == nil || *r2.EnteredIndex != 1 {
		t.Fatalf("expected to enter child-b at index 1 under focus B, got %+v", r2)
	}
}

func TestEnsureContextOnlyPopsNeverPushes(t *testing.T) {
	child := &config.Keys{Bindings: []config.Binding{{ChordStr: "x", Description: "leaf"}}}
	root := &config.Keys{
		Bindings: []config.Binding{
			{ChordStr: "a", Action: config.Action{Kind: config.ActionKeys, SubKeys: child}},
		},
	}
	c := Cursor{Path: []uint32{0}}
	newC, changed := EnsureContext(root, c, Focus{})
	if changed {
		t.Fatal("did not expect a change when guard still matches")
	}
	if len(newC.Path) != 1 {
		t.Fatal("ensure_context must never push")
	}
}

func TestHudKeysSkipsHiddenAndDuplicates(t *testing.T) {
	hideTrue := true
	root := &config.Keys{
		Bindings: []config.Binding{
			{ChordStr: "a", Description: "visible"},
			{ChordStr: "b", Description: "hidden", Attrs: config.Attributes{Hide: &hideTrue}},
			{ChordStr: "a", Description: "dup-ignored-by-hud", Attrs: config.Attributes{MatchApp: strp("^Other$")}},
		},
	}
	if _, err := config.Validate(&config.Config{Root: root}); err != nil {
		t.Fatal(err)
	}
	rows := HudKeys(root, Cursor{ViewingRoot: true, Focus: Focus{App: "Other"}})
	if len(rows) != 1 || rows[0].Chord != "a" || rows[0].Desc != "visible" {
		t.Fatalf("unexpected hud rows: %+v", rows)
	}
}

func TestHudVisible(t *testing.T) {
	if (Cursor{}).HudVisible() {
		t.Fatal("root cursor with ViewingRoot=false and empty path should not be hud-visible")
	}
	if !(Cursor{ViewingRoot: true}).HudVisible() {
		t.Fatal("ViewingRoot=true should be hud-visible")
	}
	if !(Cursor{Path: []uint32{0}}).HudVisible() {
		t.Fatal("non-empty path should be hud-visible")
	}
}
