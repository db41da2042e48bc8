package chord

import (
	"testing"

	"github.com/cortesi/hotki/internal/keycode"
)

func TestParseOrderIndependence(t *testing.T) {
	a, err := Parse("cmd+shift+0")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("shift+cmd+0")
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) {
		t.Fatalf("expected %v == %v", a, b)
	}
}

func TestParseRejectsMultipleKeys(t *testing.T) {
	if _, err := Parse("a+b"); err == nil {
		t.Fatal("expected error for two keys")
	}
}

func TestParseRejectsNoKey(t *testing.T) {
	if _, err := Parse("cmd+shift"); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestParseUnknownKey(t *testing.T) {
	if _, err := Parse("cmd+nope"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestStringCanonical(t *testing.T) {
	c := Chord{Mods: keycode.Shift | keycode.Command, Key: "0"}
	if got := c.String(); got != "cmd+shift+0" {
		t.Fatalf("unexpected canonical form: %q", got)
	}
}

func TestEqualityIgnoresMapDuplicateKeys(t *testing.T) {
	m := map[string]bool{}
	a := MustParse("cmd+a")
	b := MustParse("a+cmd")
	m[a.ID()] = true
	if !m[b.ID()] {
		t.Fatal("expected ID() to collapse to the same map key")
	}
}
