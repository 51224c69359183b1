package parser

import (
	"testing"

	"github.com/jarredhawkins/cblocks/internal/types"
)

func TestConditionalMatcher(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantKind  types.BlockKind
		wantLabel string
		wantNil   bool
	}{
		{
			name:      "if",
			line:      "if (i == 5) {",
			wantKind:  types.KindIf,
			wantLabel: "if statement",
		},
		{
			name:      "else if after closer",
			line:      "} else if (i == 6) {",
			wantKind:  types.KindElseIf,
			wantLabel: "else if statement",
		},
		{
			name:      "else if with extra spaces",
			line:      "else   if (x) {",
			wantKind:  types.KindElseIf,
			wantLabel: "else if statement",
		},
		{
			name:      "bare else",
			line:      "} else {",
			wantKind:  types.KindElse,
			wantLabel: "else statement",
		},
		{
			name:      "switch",
			line:      "switch (c) {",
			wantKind:  types.KindSwitch,
			wantLabel: "switch statement",
		},
		{
			name:    "if without brace",
			line:    "if (x)",
			wantNil: true,
		},
		{
			name:    "identifier ending in if",
			line:    "elif (x) {",
			wantNil: true,
		},
	}

	matcher := &ConditionalMatcher{}
	ctx := &ParseContext{FilePath: "/test/test.c", LineNum: 1}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := matcher.Match(tt.line, ctx)
			if tt.wantNil {
				if result != nil {
					t.Errorf("expected nil, got %+v", result)
				}
				return
			}
			if result == nil {
				t.Fatal("expected result, got nil")
			}
			if result.Kind != tt.wantKind {
				t.Errorf("expected kind %v, got %v", tt.wantKind, result.Kind)
			}
			if result.Label != tt.wantLabel {
				t.Errorf("expected label %q, got %q", tt.wantLabel, result.Label)
			}
		})
	}
}
