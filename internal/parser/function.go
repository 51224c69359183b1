package parser

import (
	"regexp"
	"strings"

	"github.com/jarredhawkins/cblocks/internal/types"
)

// int add(int a, int b) {
// static const char *name(void)
// unsigned long hash(const char *s) { return 0; }
//
// Group 1 holds the return type tokens, group 2 the function name and group 3
// the optional opening brace plus anything after it.
var functionPattern = regexp.MustCompile(
	`^((?:[A-Za-z_]\w*[\s*]+)+?)\**([A-Za-z_]\w*)\s*\([^;{}]*\)\s*(\{.*)?$`,
)

var identPattern = regexp.MustCompile(`[A-Za-z_]\w*`)

// Control keywords that look like a type or name to functionPattern,
// e.g. "else if (x) {".
var controlKeywords = map[string]struct{}{
	"if": {}, "else": {}, "for": {}, "while": {}, "do": {}, "switch": {},
	"case": {}, "return": {}, "sizeof": {}, "goto": {},
}

// FunctionMatcher recognizes function definition headers
type FunctionMatcher struct{}

func (m *FunctionMatcher) Name() string  { return "function" }
func (m *FunctionMatcher) Priority() int { return 100 }

func (m *FunctionMatcher) Match(line string, ctx *ParseContext) *MatchResult {
	match := functionPattern.FindStringSubmatch(line)
	if match == nil {
		return nil
	}

	name := match[2]
	if isControlKeyword(name) {
		return nil
	}
	for _, tok := range identPattern.FindAllString(match[1], -1) {
		if isControlKeyword(tok) {
			return nil
		}
	}

	return &MatchResult{
		Kind:    types.KindFunction,
		Label:   name,
		Pending: !strings.Contains(match[3], "{"),
	}
}

func isControlKeyword(word string) bool {
	_, ok := controlKeywords[word]
	return ok
}
