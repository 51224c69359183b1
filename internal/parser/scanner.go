package parser

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jarredhawkins/cblocks/internal/types"
)

// Mode selects how blocks are tracked
type Mode int

const (
	// ModeAllBlocks tracks every nested block kind on a stack
	ModeAllBlocks Mode = iota
	// ModeFunctionsOnly tracks one top-level function at a time by brace balance
	ModeFunctionsOnly
)

// ErrUnknownMode is returned by ParseMode for unrecognized names
var ErrUnknownMode = errors.New("unknown scan mode")

func (m Mode) String() string {
	switch m {
	case ModeAllBlocks:
		return "all"
	case ModeFunctionsOnly:
		return "functions"
	default:
		return "unknown"
	}
}

// ParseMode converts a mode name to a Mode
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "all", "blocks", "stack":
		return ModeAllBlocks, nil
	case "functions", "function", "single":
		return ModeFunctionsOnly, nil
	}
	return ModeAllBlocks, fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// maxLineSize bounds a single line read by ScanReader
const maxLineSize = 1024 * 1024

// Scanner finds brace-delimited blocks in C source, line by line
type Scanner struct {
	registry *Registry
	mode     Mode
}

// NewScanner creates a new scanner with the given registry
func NewScanner(registry *Registry, mode Mode) *Scanner {
	return &Scanner{
		registry: registry,
		mode:     mode,
	}
}

// Mode returns the tracking mode the scanner was built with
func (s *Scanner) Mode() Mode {
	return s.mode
}

// openBlock is a stack entry waiting for its closing brace
type openBlock struct {
	startLine int
	kind      types.BlockKind
	label     string
}

// scanState is owned by a single scan and discarded when it ends.
type scanState struct {
	inComment bool

	// Stack mode
	stack []openBlock

	// Single-target mode
	inFunction bool
	braceSeen  bool
	balance    int
	current    openBlock

	// Function header seen without its opening brace (stack mode)
	pending *openBlock
}

// scanRun drives one scan over one input
type scanRun struct {
	scanner *Scanner
	state   scanState
	ctx     ParseContext
	blocks  []*types.Block
}

func (s *Scanner) newRun(filePath string) *scanRun {
	return &scanRun{
		scanner: s,
		ctx:     ParseContext{FilePath: filePath},
	}
}

func (r *scanRun) feed(line types.SourceLine) {
	content, ok := filterLine(&r.state, line.Text)
	if !ok {
		return
	}

	r.ctx.LineNum = line.Num
	if r.scanner.mode == ModeFunctionsOnly {
		r.stepFunction(content)
	} else {
		r.stepStack(content)
	}
}

// stepStack pushes at most one opener and pops at most one closer per line,
// in that order.
func (r *scanRun) stepStack(content string) {
	st := &r.state
	r.ctx.Depth = len(st.stack)

	pushed := false
	if st.pending != nil {
		switch {
		case strings.HasPrefix(content, "{"):
			st.stack = append(st.stack, *st.pending)
			pushed = true
			st.pending = nil
		case isDeclaration(content):
			// K&R parameter declarations between header and brace
			return
		default:
			st.pending = nil
		}
	}

	if !pushed {
		if result := r.scanner.registry.Classify(content, &r.ctx); result != nil {
			open := openBlock{startLine: r.ctx.LineNum, kind: result.Kind, label: result.Label}
			if result.Pending {
				st.pending = &open
			} else {
				st.stack = append(st.stack, open)
			}
		}
	}

	if strings.Contains(content, "}") && len(st.stack) > 0 {
		top := st.stack[len(st.stack)-1]
		st.stack = st.stack[:len(st.stack)-1]
		r.emit(top)
	}
}

// stepFunction follows one function body by brace balance.
func (r *scanRun) stepFunction(content string) {
	st := &r.state

	if st.inFunction && !st.braceSeen {
		switch {
		case strings.HasPrefix(content, "{"):
		case isDeclaration(content):
			return
		default:
			// The header was not followed by a body; treat this line afresh
			st.inFunction = false
		}
	}

	if !st.inFunction {
		r.ctx.Depth = 0
		result := r.scanner.registry.Classify(content, &r.ctx)
		if result == nil || result.Kind != types.KindFunction {
			return
		}
		st.inFunction = true
		st.braceSeen = false
		st.balance = 0
		st.current = openBlock{startLine: r.ctx.LineNum, kind: result.Kind, label: result.Label}
	}

	opens := strings.Count(content, "{")
	if opens > 0 {
		st.braceSeen = true
	}
	st.balance += opens - strings.Count(content, "}")

	if st.braceSeen && st.balance <= 0 {
		r.emit(st.current)
		st.inFunction = false
	}
}

func (r *scanRun) emit(open openBlock) {
	r.blocks = append(r.blocks, &types.Block{
		Kind:      open.kind,
		Label:     open.label,
		FilePath:  r.ctx.FilePath,
		StartLine: open.startLine,
		EndLine:   r.ctx.LineNum,
	})
}

// finish returns the completed blocks. Blocks still open are dropped.
func (r *scanRun) finish() []*types.Block {
	return r.blocks
}

// isDeclaration matches a brace-free statement such as "int a;"
func isDeclaration(content string) bool {
	return strings.HasSuffix(content, ";") && !strings.ContainsAny(content, "{}")
}

// ScanLines scans pre-split lines and returns completed blocks in close order
func (s *Scanner) ScanLines(filePath string, lines []types.SourceLine) []*types.Block {
	run := s.newRun(filePath)
	for _, line := range lines {
		run.feed(line)
	}
	return run.finish()
}

// Parse scans the file content and returns completed blocks in close order
func (s *Scanner) Parse(filePath string, content []byte) []*types.Block {
	run := s.newRun(filePath)
	for i, line := range strings.Split(string(content), "\n") {
		run.feed(types.SourceLine{Num: i + 1, Text: line})
	}
	return run.finish()
}

// ScanReader scans r until EOF or ctx is cancelled. On cancellation it returns
// the blocks completed so far together with ctx.Err().
func (s *Scanner) ScanReader(ctx context.Context, filePath string, r io.Reader) ([]*types.Block, error) {
	run := s.newRun(filePath)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	for sc.Scan() {
		select {
		case <-ctx.Done():
			return run.finish(), ctx.Err()
		default:
		}

		lineNum++
		run.feed(types.SourceLine{Num: lineNum, Text: sc.Text()})
	}
	if err := sc.Err(); err != nil {
		return run.finish(), fmt.Errorf("read %s line %d: %w", filePath, lineNum+1, err)
	}

	return run.finish(), nil
}

// ParseFile reads and scans a C source file
func (s *Scanner) ParseFile(ctx context.Context, filePath string) ([]*types.Block, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return s.ScanReader(ctx, filePath, f)
}
