package parser

import (
	"sort"

	"github.com/jarredhawkins/cblocks/internal/types"
)

// ParseContext provides context for matching
type ParseContext struct {
	FilePath string // Path of the file being scanned
	LineNum  int    // Current line number (1-indexed)
	Depth    int    // Number of currently open blocks
}

// MatchResult describes a block opener recognized on a line
type MatchResult struct {
	Kind  types.BlockKind
	Label string
	// Pending marks a function header whose opening brace has not appeared yet
	// (brace on the following line).
	Pending bool
}

// Matcher recognizes one kind of block-opening line
type Matcher interface {
	// Name returns plugin identifier
	Name() string

	// Match tests if line opens a block of this kind
	// Returns nil if no match
	Match(line string, ctx *ParseContext) *MatchResult

	// Priority for ordering (higher = earlier)
	Priority() int
}

// Registry holds all registered matchers
type Registry struct {
	matchers []Matcher
	sorted   bool
}

// NewRegistry creates a new empty registry
func NewRegistry() *Registry {
	return &Registry{
		matchers: make([]Matcher, 0),
	}
}

// Register adds a matcher to the registry
func (r *Registry) Register(m Matcher) {
	r.matchers = append(r.matchers, m)
	r.sorted = false
}

// Matchers returns all registered matchers in priority order
func (r *Registry) Matchers() []Matcher {
	if !r.sorted {
		sort.SliceStable(r.matchers, func(i, j int) bool {
			return r.matchers[i].Priority() > r.matchers[j].Priority()
		})
		r.sorted = true
	}
	return r.matchers
}

// Classify runs the matchers in priority order and returns the first hit
func (r *Registry) Classify(line string, ctx *ParseContext) *MatchResult {
	for _, matcher := range r.Matchers() {
		if result := matcher.Match(line, ctx); result != nil {
			return result
		}
	}
	return nil
}

// RegisterDefaults adds the default C block matchers to the registry
func RegisterDefaults(r *Registry) {
	r.Register(&FunctionMatcher{})
	r.Register(&LoopMatcher{})
	r.Register(&ConditionalMatcher{})
	r.Register(&BlockMatcher{})
}

// NewDefaultRegistry returns a registry populated by RegisterDefaults
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
