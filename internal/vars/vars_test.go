package vars

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScanAddsNewNamesOnly(t *testing.T) {
	tbl := NewTable()
	tbl.Set("ENTITY", String("User"))

	added := Scan("src/{MODULE}/{ENTITY}/{MODULE}.ts", tbl)
	if diff := cmp.Diff([]string{"MODULE"}, added); diff != "" {
		t.Errorf("Scan() added mismatch (-want +got):\n%s", diff)
	}
	if got := tbl.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	if v, _ := tbl.Get("ENTITY"); v.String() != "User" {
		t.Errorf("existing value changed to %q", v.String())
	}
}

func TestScanIgnoresMalformedTokens(t *testing.T) {
	tbl := NewTable()
	added := Scan("a/{}/{with-dash}/{ ok }/{OK_1}", tbl)
	if diff := cmp.Diff([]string{"OK_1"}, added); diff != "" {
		t.Errorf("Scan() mismatch (-want +got):\n%s", diff)
	}
}

func TestScanIsMonotonic(t *testing.T) {
	tbl := NewTable()
	Scan("{A}/{B}", tbl)
	before := tbl.Names()
	Scan("nothing here", tbl)
	Scan("{B}/{C}", tbl)
	if diff := cmp.Diff(append(before, "C"), tbl.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestOrder(t *testing.T) {
	paths := []string{
		"template/{MODULE}/{ENTITY}/Controller.ts",
		"template/{Alpha}/x",
	}
	got := Order([]string{"ENTITY", "UNUSED", "MODULE", "Alpha"}, paths)
	want := []string{"Alpha", "MODULE", "ENTITY", "UNUSED"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Order() mismatch (-want +got):\n%s", diff)
	}
}

func TestDepth(t *testing.T) {
	paths := []string{"a/b/{X}/c", "{X}-suffix/d"}
	if got := Depth("X", paths); got != 0 {
		t.Errorf("Depth(X) = %d, want 0", got)
	}
	if got := Depth("Y", paths); got != math.MaxInt {
		t.Errorf("Depth(Y) = %d, want MaxInt", got)
	}
}

func TestTemplaterSubstitutesTruthyValues(t *testing.T) {
	tbl := NewTable()
	tbl.Set("MODULE", String("billing"))
	tbl.Set("ENTITY", String(""))
	tbl.Set("FLAG", Bool(true))
	tbl.Set("OFF", Bool(false))

	tp := Templater{Exists: func(string) bool { return false }}
	got := tp.Apply("src/{MODULE}/{ENTITY}/{FLAG}/{OFF}/{MISSING}.ts", tbl)
	want := "src/billing/{ENTITY}/true/{OFF}/{MISSING}.ts"
	if got != want {
		t.Errorf("Apply() = %q, want %q", got, want)
	}
}

func TestTemplaterStopsWhenPathExists(t *testing.T) {
	tbl := NewTable()
	tbl.Set("MODULE", String("billing"))
	tbl.Set("ENTITY", String("Invoice"))

	existing := map[string]bool{"src/billing/{ENTITY}.ts": true}
	tp := Templater{Exists: func(p string) bool { return existing[p] }}

	got := tp.Apply("src/{MODULE}/{ENTITY}.ts", tbl)
	if got != "src/billing/{ENTITY}.ts" {
		t.Errorf("Apply() = %q, want literal segment kept", got)
	}

	existing = map[string]bool{"src/{MODULE}/{ENTITY}.ts": true}
	if got := tp.Apply("src/{MODULE}/{ENTITY}.ts", tbl); got != "src/{MODULE}/{ENTITY}.ts" {
		t.Errorf("Apply() = %q, want path untouched", got)
	}
}

func TestValueSubstitution(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		text string
		ok   bool
	}{
		{"unset", Value{}, "", false},
		{"empty", String(""), "", false},
		{"text", String("x"), "x", true},
		{"true", Bool(true), "true", true},
		{"false", Bool(false), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, ok := tt.v.Substitution()
			if text != tt.text || ok != tt.ok {
				t.Errorf("Substitution() = (%q, %v), want (%q, %v)", text, ok, tt.text, tt.ok)
			}
		})
	}
}

func TestHint(t *testing.T) {
	got := Hint("ENTITY", "/repo/.puzzle/pieces/add/template/{ENTITY}/api/v1/Controller.ts")
	want := ".../add/template/{ENTITY}/api/v1/..."
	if got != want {
		t.Errorf("Hint() = %q, want %q", got, want)
	}
	if got := Hint("ENTITY", "{ENTITY}/x"); got != "{ENTITY}/x" {
		t.Errorf("Hint() = %q, want unchanged short path", got)
	}
}

func TestUnresolvedAndSnapshot(t *testing.T) {
	tbl := NewTable()
	Scan("{A}/{B}/{C}", tbl)
	tbl.Set("B", String("b"))
	tbl.Set("C", Bool(true))

	if diff := cmp.Diff([]string{"A"}, tbl.Unresolved()); diff != "" {
		t.Errorf("Unresolved() mismatch (-want +got):\n%s", diff)
	}
	want := map[string]any{"B": "b", "C": true}
	if diff := cmp.Diff(want, tbl.Snapshot()); diff != "" {
		t.Errorf("Snapshot() mismatch (-want +got):\n%s", diff)
	}
}
