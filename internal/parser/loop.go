package parser

import (
	"regexp"

	"github.com/jarredhawkins/cblocks/internal/types"
)

// for (i = 0; i < n; i++) {
// while (node != NULL) {
// do {
var loopPattern = regexp.MustCompile(`\b(?:(for|while)\s*\(.*\)|(do))\s*\{`)

// LoopMatcher recognizes for/while/do loop bodies
type LoopMatcher struct{}

func (m *LoopMatcher) Name() string  { return "loop" }
func (m *LoopMatcher) Priority() int { return 90 }

func (m *LoopMatcher) Match(line string, ctx *ParseContext) *MatchResult {
	match := loopPattern.FindStringSubmatch(line)
	if match == nil {
		return nil
	}

	keyword := match[1]
	if keyword == "" {
		keyword = match[2]
	}

	var kind types.BlockKind
	switch keyword {
	case "for":
		kind = types.KindForLoop
	case "while":
		kind = types.KindWhileLoop
	default:
		kind = types.KindDoLoop
	}

	return &MatchResult{
		Kind:  kind,
		Label: keyword + " loop",
	}
}
