package parser

import "strings"

// filterLine suppresses comment and preprocessor lines. It returns the trimmed
// content and true when the line should be classified.
//
// Granularity is the whole line: a line that opens or closes a block comment is
// skipped entirely, including any code before "/*" or after "*/".
func filterLine(state *scanState, raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)

	if state.inComment {
		if strings.Contains(trimmed, "*/") {
			state.inComment = false
		}
		return "", false
	}

	if strings.Contains(trimmed, "/*") {
		if !strings.Contains(trimmed, "*/") {
			state.inComment = true
		}
		return "", false
	}

	if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") {
		return "", false
	}

	return trimmed, true
}
