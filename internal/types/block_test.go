package types

import (
	"encoding/json"
	"testing"
)

func TestBlockKindText(t *testing.T) {
	for k := KindFunction; k <= KindGeneric; k++ {
		text, err := k.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", k, err)
		}
		var back BlockKind
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if back != k {
			t.Errorf("expected %v, got %v", k, back)
		}
	}

	if BlockKind(99).String() != "unknown" {
		t.Errorf("expected unknown for out of range kind")
	}
	var k BlockKind
	if err := k.UnmarshalText([]byte("lambda")); err == nil {
		t.Error("expected error for unknown kind name")
	}
}

func TestBlockJSON(t *testing.T) {
	b := &Block{Kind: KindForLoop, Label: "for loop", FilePath: "/x.c", StartLine: 1, EndLine: 5}
	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"kind":"for_loop","label":"for loop","start_line":1,"end_line":5}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestBlockKindGroups(t *testing.T) {
	if !KindDoLoop.IsLoop() || KindIf.IsLoop() {
		t.Error("IsLoop misclassified")
	}
	if !KindSwitch.IsConditional() || !KindElse.IsConditional() || KindGeneric.IsConditional() {
		t.Error("IsConditional misclassified")
	}
}

func TestBlockRanges(t *testing.T) {
	outer := &Block{FilePath: "/a.c", StartLine: 1, EndLine: 10}
	inner := &Block{FilePath: "/a.c", StartLine: 3, EndLine: 4}
	same := &Block{FilePath: "/a.c", StartLine: 1, EndLine: 10}
	other := &Block{FilePath: "/b.c", StartLine: 3, EndLine: 4}

	if !outer.Encloses(inner) {
		t.Error("expected outer to enclose inner")
	}
	if inner.Encloses(outer) || outer.Encloses(same) || outer.Encloses(other) || outer.Encloses(outer) {
		t.Error("unexpected enclosure")
	}
	if !outer.Contains(10) || outer.Contains(11) {
		t.Error("Contains is not inclusive of the range")
	}
	if inner.Lines() != 2 {
		t.Errorf("expected 2 lines, got %d", inner.Lines())
	}
}

func TestIsSourceFile(t *testing.T) {
	tests := map[string]bool{
		"/src/main.c":    true,
		"/src/util.H":    true,
		"/src/thing.cpp": true,
		"/src/readme.md": false,
		"/src/Makefile":  false,
	}
	for path, want := range tests {
		if got := IsSourceFile(path); got != want {
			t.Errorf("IsSourceFile(%q) = %v, want %v", path, got, want)
		}
	}
}
