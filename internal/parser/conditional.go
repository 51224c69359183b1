package parser

import (
	"regexp"

	"github.com/jarredhawkins/cblocks/internal/types"
)

// if (x) {
// } else if (y) {
// switch (c) {
// } else {
var conditionalPattern = regexp.MustCompile(`\b(?:(else\s+if|if|switch)\s*\(.*\)|(else))\s*\{`)

// ConditionalMatcher recognizes if/else/switch bodies
type ConditionalMatcher struct{}

func (m *ConditionalMatcher) Name() string  { return "conditional" }
func (m *ConditionalMatcher) Priority() int { return 80 }

func (m *ConditionalMatcher) Match(line string, ctx *ParseContext) *MatchResult {
	match := conditionalPattern.FindStringSubmatch(line)
	if match == nil {
		return nil
	}

	var kind types.BlockKind
	var keyword string
	switch {
	case match[2] != "":
		kind, keyword = types.KindElse, "else"
	case match[1] == "if":
		kind, keyword = types.KindIf, "if"
	case match[1] == "switch":
		kind, keyword = types.KindSwitch, "switch"
	default:
		// "else   if" collapses to a single space
		kind, keyword = types.KindElseIf, "else if"
	}

	return &MatchResult{
		Kind:  kind,
		Label: keyword + " statement",
	}
}
