package types

import (
	"fmt"
	"path/filepath"
	"strings"
)

// BlockKind categorizes brace-delimited blocks
type BlockKind int

const (
	KindFunction BlockKind = iota
	KindForLoop
	KindWhileLoop
	KindDoLoop
	KindIf
	KindElseIf
	KindElse
	KindSwitch
	KindGeneric // Any other compound statement
)

var kindNames = [...]string{
	KindFunction:  "function",
	KindForLoop:   "for_loop",
	KindWhileLoop: "while_loop",
	KindDoLoop:    "do_loop",
	KindIf:        "if",
	KindElseIf:    "else_if",
	KindElse:      "else",
	KindSwitch:    "switch",
	KindGeneric:   "block",
}

func (k BlockKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// MarshalText encodes the kind by name so JSON reports stay readable
func (k BlockKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("invalid block kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText decodes a kind name produced by MarshalText
func (k *BlockKind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = BlockKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown block kind %q", text)
}

// IsLoop reports whether the kind is a for/while/do loop
func (k BlockKind) IsLoop() bool {
	return k == KindForLoop || k == KindWhileLoop || k == KindDoLoop
}

// IsConditional reports whether the kind is an if/else/switch body
func (k BlockKind) IsConditional() bool {
	switch k {
	case KindIf, KindElseIf, KindElse, KindSwitch:
		return true
	}
	return false
}

// SourceLine is one physical line of input
type SourceLine struct {
	Num  int // 1-indexed
	Text string
}

// Block is a completed brace-delimited region
type Block struct {
	Kind      BlockKind `json:"kind"`
	Label     string    `json:"label,omitempty"` // Function name, or "for loop", "if statement", "block"
	FilePath  string    `json:"-"`
	StartLine int       `json:"start_line"` // 1-indexed, inclusive
	EndLine   int       `json:"end_line"`   // 1-indexed, inclusive
}

// Contains reports whether line falls inside the block's range
func (b *Block) Contains(line int) bool {
	return line >= b.StartLine && line <= b.EndLine
}

// Lines returns the number of physical lines the block spans
func (b *Block) Lines() int {
	return b.EndLine - b.StartLine + 1
}

// Encloses reports whether other lies within b and is not b itself
func (b *Block) Encloses(other *Block) bool {
	if b == other || b.FilePath != other.FilePath {
		return false
	}
	if b.StartLine == other.StartLine && b.EndLine == other.EndLine {
		return false
	}
	return b.StartLine <= other.StartLine && other.EndLine <= b.EndLine
}

// Reference represents a textual occurrence of an identifier
type Reference struct {
	FilePath string
	Line     int    // 1-indexed
	Column   int    // 0-indexed
	Length   int    // Length of the matched text
	LineText string // Full line text for display
}

// IsSourceFile checks if a file is C or C++ source
func IsSourceFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c", ".h", ".cc", ".cpp", ".cxx", ".hh", ".hpp", ".hxx":
		return true
	}
	return false
}

// SkipDir reports whether a directory should be left out of walks and watches
func SkipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules" || name == "build"
}
