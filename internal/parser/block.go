package parser

import (
	"strings"

	"github.com/jarredhawkins/cblocks/internal/types"
)

// BlockMatcher is the fallback for any other line that opens a brace:
// bare compound statements, struct/enum bodies, initializers, case blocks.
type BlockMatcher struct{}

func (m *BlockMatcher) Name() string  { return "block" }
func (m *BlockMatcher) Priority() int { return 10 } // Always last

func (m *BlockMatcher) Match(line string, ctx *ParseContext) *MatchResult {
	if !strings.Contains(line, "{") {
		return nil
	}
	return &MatchResult{
		Kind:  types.KindGeneric,
		Label: "block",
	}
}
