package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	"go.lsp.dev/jsonrpc2"

	"github.com/jarredhawkins/cblocks/internal/index"
	"github.com/jarredhawkins/cblocks/internal/types"
)

// Server implements the LSP server
type Server struct {
	index     *index.Index
	documents *DocumentStore
	version   string

	exitOnce sync.Once
	exited   chan struct{}
}

// NewServer creates a new LSP server
func NewServer(idx *index.Index, version string) *Server {
	return &Server{
		index:     idx,
		documents: NewDocumentStore(),
		version:   version,
		exited:    make(chan struct{}),
	}
}

// Serve runs the LSP server on the given reader/writer until the client
// disconnects, sends exit, or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stream := jsonrpc2.NewStream(&readWriteCloser{in, out})
	conn := jsonrpc2.NewConn(stream)

	conn.Go(ctx, s.handler)

	select {
	case <-ctx.Done():
		conn.Close()
		return ctx.Err()
	case <-s.exited:
		return conn.Close()
	case <-conn.Done():
		return conn.Err()
	}
}

func (s *Server) handler(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	log.Printf("LSP request: %s", req.Method())

	switch req.Method() {
	case "initialize":
		return s.handleInitialize(ctx, reply, req)
	case "initialized":
		return reply(ctx, nil, nil)
	case "shutdown":
		return reply(ctx, nil, nil)
	case "exit":
		s.exitOnce.Do(func() { close(s.exited) })
		return nil
	case "textDocument/definition":
		return s.handleDefinition(ctx, reply, req)
	case "textDocument/references":
		return s.handleReferences(ctx, reply, req)
	case "textDocument/documentSymbol":
		return s.handleDocumentSymbol(ctx, reply, req)
	case "textDocument/foldingRange":
		return s.handleFoldingRange(ctx, reply, req)
	case "textDocument/hover":
		return s.handleHover(ctx, reply, req)
	case "textDocument/didOpen":
		return s.handleDidOpen(ctx, reply, req)
	case "textDocument/didChange":
		return s.handleDidChange(ctx, reply, req)
	case "textDocument/didClose":
		return s.handleDidClose(ctx, reply, req)
	default:
		return reply(ctx, nil, &jsonrpc2.Error{
			Code:    jsonrpc2.MethodNotFound,
			Message: "method not supported: " + req.Method(),
		})
	}
}

func invalidParams(ctx context.Context, reply jsonrpc2.Replier, err error) error {
	return reply(ctx, nil, &jsonrpc2.Error{
		Code:    jsonrpc2.InvalidParams,
		Message: err.Error(),
	})
}

func (s *Server) handleInitialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	result := InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: &TextDocumentSyncOptions{
				OpenClose: true,
				Change:    TextDocumentSyncKindFull,
			},
			DefinitionProvider:     true,
			ReferencesProvider:     true,
			DocumentSymbolProvider: true,
			FoldingRangeProvider:   true,
			HoverProvider:          true,
		},
		ServerInfo: &ServerInfo{
			Name:    "cblocks",
			Version: s.version,
		},
	}
	return reply(ctx, result, nil)
}

func (s *Server) handleDefinition(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params TextDocumentPositionParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return invalidParams(ctx, reply, err)
	}

	uri := params.TextDocument.URI
	filePath := uriToPath(uri)
	line := int(params.Position.Line)
	char := int(params.Position.Character)

	content := s.getDocumentContent(uri)
	if content == "" {
		return reply(ctx, nil, nil)
	}

	word := extractWordAt(content, line, char)
	if word == "" {
		return reply(ctx, nil, nil)
	}

	log.Printf("definition request for word: %s at %s:%d:%d", word, filePath, line, char)

	fns := s.index.FindFunctionsInFile(word, filePath)
	if len(fns) == 0 {
		return reply(ctx, nil, nil)
	}

	locations := make([]Location, len(fns))
	for i, fn := range fns {
		locations[i] = blockToLocation(fn, s.linesOf(fn.FilePath))
	}
	if len(locations) == 1 {
		return reply(ctx, locations[0], nil)
	}
	return reply(ctx, locations, nil)
}

func (s *Server) handleReferences(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params ReferenceParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return invalidParams(ctx, reply, err)
	}

	uri := params.TextDocument.URI
	line := int(params.Position.Line)
	char := int(params.Position.Character)

	content := s.getDocumentContent(uri)
	if content == "" {
		return reply(ctx, nil, nil)
	}

	word := extractWordAt(content, line, char)
	if word == "" {
		return reply(ctx, nil, nil)
	}

	log.Printf("references request for word: %s", word)

	// Name positions of the function definitions
	declarations := make(map[string]Location)
	for _, fn := range s.index.FindFunctions(word) {
		loc := blockToLocation(fn, s.linesOf(fn.FilePath))
		declarations[locationKey(loc)] = loc
	}

	seen := make(map[string]struct{})
	locations := []Location{}

	for _, ref := range s.index.FindReferences(word) {
		loc := referenceToLocation(ref)
		key := locationKey(loc)
		if _, exists := seen[key]; exists {
			continue
		}
		if _, isDecl := declarations[key]; isDecl && !params.Context.IncludeDeclaration {
			continue
		}
		seen[key] = struct{}{}
		locations = append(locations, loc)
	}

	// Declarations the text search missed, e.g. macro-built names
	if params.Context.IncludeDeclaration {
		for key, loc := range declarations {
			if _, exists := seen[key]; exists {
				continue
			}
			seen[key] = struct{}{}
			locations = append(locations, loc)
		}
	}

	return reply(ctx, locations, nil)
}

func locationKey(loc Location) string {
	return fmt.Sprintf("%s:%d:%d", loc.URI, loc.Range.Start.Line, loc.Range.Start.Character)
}

func (s *Server) handleDocumentSymbol(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params DocumentSymbolParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return invalidParams(ctx, reply, err)
	}

	path, lines, ok := s.ensureIndexed(params.TextDocument.URI)
	if !ok {
		return reply(ctx, []DocumentSymbol{}, nil)
	}

	return reply(ctx, buildDocumentSymbols(s.index.BlocksInFile(path), lines), nil)
}

func (s *Server) handleFoldingRange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params FoldingRangeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return invalidParams(ctx, reply, err)
	}

	path, _, ok := s.ensureIndexed(params.TextDocument.URI)
	if !ok {
		return reply(ctx, []FoldingRange{}, nil)
	}

	ranges := []FoldingRange{}
	for _, b := range s.index.BlocksInFile(path) {
		if b.Lines() < 2 {
			continue
		}
		ranges = append(ranges, FoldingRange{
			StartLine: uint32(b.StartLine - 1),
			EndLine:   uint32(b.EndLine - 1),
			Kind:      "region",
		})
	}
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].StartLine < ranges[j].StartLine
	})

	return reply(ctx, ranges, nil)
}

func (s *Server) handleHover(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params TextDocumentPositionParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return invalidParams(ctx, reply, err)
	}

	path, lines, ok := s.ensureIndexed(params.TextDocument.URI)
	if !ok {
		return reply(ctx, nil, nil)
	}

	blocks := s.index.EnclosingBlocks(path, int(params.Position.Line)+1)
	if len(blocks) == 0 {
		return reply(ctx, nil, nil)
	}

	var sb strings.Builder
	for _, b := range blocks {
		fmt.Fprintf(&sb, "- %s, lines %d-%d\n", describeBlock(b), b.StartLine, b.EndLine)
	}

	r := blockRange(blocks[0], lines)
	return reply(ctx, Hover{
		Contents: MarkupContent{Kind: "markdown", Value: sb.String()},
		Range:    &r,
	}, nil)
}

func describeBlock(b *types.Block) string {
	if b.Kind == types.KindFunction {
		return "function `" + b.Label + "`"
	}
	return b.Label
}

func (s *Server) handleDidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}

	doc := params.TextDocument
	s.documents.Open(doc.URI, doc.Version, doc.Text)
	s.indexBuffer(doc.URI, doc.Text)
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}

	if len(params.ContentChanges) == 0 {
		return reply(ctx, nil, nil)
	}

	// Full sync mode - just take the last content
	uri := params.TextDocument.URI
	text := params.ContentChanges[len(params.ContentChanges)-1].Text
	if !s.documents.Update(uri, params.TextDocument.Version, text) {
		if s.documents.IsOpen(uri) {
			log.Printf("ignoring stale change for %s (version %d)", uri, params.TextDocument.Version)
			return reply(ctx, nil, nil)
		}
		s.documents.Open(uri, params.TextDocument.Version, text)
	}
	s.indexBuffer(uri, text)
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params DidCloseTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}

	uri := params.TextDocument.URI
	s.documents.Close(uri)

	// Unsaved edits are discarded; go back to what is on disk
	path := uriToPath(uri)
	if types.IsSourceFile(path) {
		if err := s.index.UpdateFile(path); err != nil {
			log.Printf("failed to reindex %s: %v", path, err)
		}
	}
	return reply(ctx, nil, nil)
}

func (s *Server) indexBuffer(uri, text string) {
	path := uriToPath(uri)
	if !types.IsSourceFile(path) {
		return
	}
	s.index.AddContent(path, []byte(text))
}

// ensureIndexed makes sure the blocks of uri are in the index and returns the
// file path together with its lines.
func (s *Server) ensureIndexed(uri string) (string, []string, bool) {
	path := uriToPath(uri)
	if s.index.HasFile(path) {
		return path, s.linesOf(path), true
	}

	content := s.getDocumentContent(uri)
	if content == "" {
		return path, nil, false
	}
	s.index.AddContent(path, []byte(content))
	return path, strings.Split(content, "\n"), true
}

// linesOf returns the lines of an indexed file
func (s *Server) linesOf(path string) []string {
	if content, ok := s.documents.Get(pathToURI(path)); ok {
		return strings.Split(content, "\n")
	}
	if content, ok := s.index.Content(path); ok {
		return strings.Split(content, "\n")
	}
	return nil
}

func (s *Server) getDocumentContent(uri string) string {
	// Check open documents first
	if content, ok := s.documents.Get(uri); ok {
		return content
	}

	path := uriToPath(uri)
	if content, ok := s.index.Content(path); ok {
		return content
	}

	// Fall back to reading from disk
	content, err := os.ReadFile(path)
	if err != nil {
		log.Printf("failed to read file %s: %v", path, err)
		return ""
	}
	return string(content)
}

// buildDocumentSymbols nests blocks by containment. Siblings are ordered by
// start line.
func buildDocumentSymbols(blocks []*types.Block, lines []string) []DocumentSymbol {
	sorted := make([]*types.Block, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StartLine != sorted[j].StartLine {
			return sorted[i].StartLine < sorted[j].StartLine
		}
		return sorted[i].Lines() > sorted[j].Lines()
	})

	type node struct {
		block    *types.Block
		children []*node
	}

	var roots []*node
	var stack []*node
	for _, b := range sorted {
		for len(stack) > 0 && !stack[len(stack)-1].block.Encloses(b) {
			stack = stack[:len(stack)-1]
		}
		n := &node{block: b}
		if len(stack) == 0 {
			roots = append(roots, n)
		} else {
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, n)
		}
		stack = append(stack, n)
	}

	var convert func(nodes []*node) []DocumentSymbol
	convert = func(nodes []*node) []DocumentSymbol {
		out := make([]DocumentSymbol, 0, len(nodes))
		for _, n := range nodes {
			sym := DocumentSymbol{
				Name:           n.block.Label,
				Detail:         n.block.Kind.String(),
				Kind:           SymbolKindNamespace,
				Range:          blockRange(n.block, lines),
				SelectionRange: selectionRange(n.block, lines),
			}
			if n.block.Kind == types.KindFunction {
				sym.Kind = SymbolKindFunction
			}
			if len(n.children) > 0 {
				sym.Children = convert(n.children)
			}
			out = append(out, sym)
		}
		return out
	}

	return convert(roots)
}

// readWriteCloser wraps reader and writer into a ReadWriteCloser
type readWriteCloser struct {
	io.Reader
	io.Writer
}

func (rwc *readWriteCloser) Close() error {
	if c, ok := rwc.Reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
