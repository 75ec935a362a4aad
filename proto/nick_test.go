package proto

import "testing"

func TestEqualFold(t *testing.T) {
	if !EqualFold("Alice", "alice") {
		t.Fatal("expected fold match")
	}
	if !EqualFold("Alice[away]", "alice{away}") {
		t.Fatal("expected extended fold match")
	}
}

func TestContainsFoldSubstring(t *testing.T) {
	if !ContainsFold("malice", "alice") {
		t.Fatal("expected substring match (documented false-positive behavior)")
	}
}

func TestStripPrefix(t *testing.T) {
	cases := map[string]string{
		"@bob":   "bob",
		"+carol": "carol",
		"alice":  "alice",
		"~dave":  "dave",
	}
	for in, want := range cases {
		if got := StripPrefix(in); got != want {
			t.Fatalf("StripPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList("#a,#b,#c")
	want := []string{"#a", "#b", "#c"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}
