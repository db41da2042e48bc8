package config

import "testing"

func truep(b bool) *bool { return &b }
func strp(s string) *string { return &s }

func TestMergedWithChildWins(t *testing.T) {
	parent := Attributes{NoExit: truep(true)}
	child := Attributes{NoExit: truep(false), Global: truep(true)}
	merged := child.MergedWith(parent)
	if merged.EffectiveNoExit() {
		t.Fatal("expected child NoExit=false to win")
	}
	if !merged.EffectiveGlobal() {
		t.Fatal("expected child Global=true to be present")
	}
}

func TestStyleOverlayNeverInherited(t *testing.T) {
	parent := Attributes{StyleOverlay: strp("parent-style")}
	child := Attributes{}
	merged := child.MergedWith(parent)
	if merged.StyleOverlay != nil {
		t.Fatalf("expected style overlay to reset to child's nil, got %v", merged.StyleOverlay)
	}
}

func TestEffectiveRepeatDefaultsToNoExit(t *testing.T) {
	a := Attributes{NoExit: truep(true)}
	if !a.EffectiveRepeat() {
		t.Fatal("expected effective repeat to default to noexit=true")
	}
	b := Attributes{NoExit: truep(true), Repeat: truep(false)}
	if b.EffectiveRepeat() {
		t.Fatal("expected explicit repeat=false to override noexit default")
	}
}

func TestValidateDuplicateChordWarning(t *testing.T) {
	cfg := &Config{
		Root: &Keys{
			Bindings: []Binding{
				{ChordStr: "a", Description: "first", Action: Action{Kind: ActionShell, ShellCommand: "true"}},
				{ChordStr: "a", Description: "second", Action: Action{Kind: ActionShell, ShellCommand: "true"}},
			},
		},
	}
	warnings, err := Validate(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 || warnings[0].Message != `Duplicate chord 'a' ignored` {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	b, _, ok := cfg.Root.FirstEffective("a", "TestApp", "")
	if !ok || b.Description != "first" {
		t.Fatalf("expected first-defined binding to win, got %+v", b)
	}
}

func TestValidateAllowsGuardedDuplicates(t *testing.T) {
	cfg := &Config{
		Root: &Keys{
			Bindings: []Binding{
				{ChordStr: "a", Description: "for-A", Attrs: Attributes{MatchApp: strp("^A$")}},
				{ChordStr: "a", Description: "for-B", Attrs: Attributes{MatchApp: strp("^B$")}},
			},
		},
	}
	warnings, err := Validate(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings for differently-guarded duplicates, got %+v", warnings)
	}
}

func TestMatchesGuardRegex(t *testing.T) {
	a := Attributes{MatchApp: strp("^Safari$")}
	if err := a.CompileGuards(); err != nil {
		t.Fatal(err)
	}
	if !a.MatchesGuard("Safari", "") {
		t.Fatal("expected match")
	}
	if a.MatchesGuard("Chrome", "") {
		t.Fatal("expected no match")
	}
}
