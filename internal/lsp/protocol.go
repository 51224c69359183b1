package lsp

import (
	"strings"

	"github.com/jarredhawkins/cblocks/internal/types"
)

// LSP Protocol types - minimal set for block navigation

// TextDocumentSyncKind defines how text document changes are synced
type TextDocumentSyncKind int

const (
	TextDocumentSyncKindNone        TextDocumentSyncKind = 0
	TextDocumentSyncKindFull        TextDocumentSyncKind = 1
	TextDocumentSyncKindIncremental TextDocumentSyncKind = 2
)

// SymbolKind is the LSP symbol kind enumeration (subset)
type SymbolKind int

const (
	SymbolKindNamespace SymbolKind = 3
	SymbolKindFunction  SymbolKind = 12
)

// Position in a text document
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range in a text document
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location represents a location in a resource
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// TextDocumentIdentifier identifies a text document
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// VersionedTextDocumentIdentifier identifies a versioned text document
type VersionedTextDocumentIdentifier struct {
	TextDocumentIdentifier
	Version int `json:"version"`
}

// TextDocumentItem represents an open text document
type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

// TextDocumentPositionParams is a parameter for requests that require a position
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// ReferenceContext includes info about reference requests
type ReferenceContext struct {
	IncludeDeclaration bool `json:"includeDeclaration"`
}

// ReferenceParams for textDocument/references
type ReferenceParams struct {
	TextDocumentPositionParams
	Context ReferenceContext `json:"context"`
}

// DocumentSymbolParams for textDocument/documentSymbol
type DocumentSymbolParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DocumentSymbol is one node of the hierarchical outline
type DocumentSymbol struct {
	Name           string           `json:"name"`
	Detail         string           `json:"detail,omitempty"`
	Kind           SymbolKind       `json:"kind"`
	Range          Range            `json:"range"`
	SelectionRange Range            `json:"selectionRange"`
	Children       []DocumentSymbol `json:"children,omitempty"`
}

// FoldingRangeParams for textDocument/foldingRange
type FoldingRangeParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// FoldingRange covers whole lines; character offsets are omitted
type FoldingRange struct {
	StartLine uint32 `json:"startLine"`
	EndLine   uint32 `json:"endLine"`
	Kind      string `json:"kind,omitempty"`
}

// MarkupContent is rendered by the client
type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Hover result for textDocument/hover
type Hover struct {
	Contents MarkupContent `json:"contents"`
	Range    *Range        `json:"range,omitempty"`
}

// TextDocumentSyncOptions defines text document sync options
type TextDocumentSyncOptions struct {
	OpenClose bool                 `json:"openClose,omitempty"`
	Change    TextDocumentSyncKind `json:"change,omitempty"`
}

// ServerCapabilities defines what the server can do
type ServerCapabilities struct {
	TextDocumentSync       *TextDocumentSyncOptions `json:"textDocumentSync,omitempty"`
	DefinitionProvider     bool                     `json:"definitionProvider,omitempty"`
	ReferencesProvider     bool                     `json:"referencesProvider,omitempty"`
	DocumentSymbolProvider bool                     `json:"documentSymbolProvider,omitempty"`
	FoldingRangeProvider   bool                     `json:"foldingRangeProvider,omitempty"`
	HoverProvider          bool                     `json:"hoverProvider,omitempty"`
}

// ServerInfo contains information about the server
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializeResult is the result of the initialize request
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}

// DidOpenTextDocumentParams for textDocument/didOpen
type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// TextDocumentContentChangeEvent describes changes to a text document
type TextDocumentContentChangeEvent struct {
	Text string `json:"text"`
}

// DidChangeTextDocumentParams for textDocument/didChange
type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

// DidCloseTextDocumentParams for textDocument/didClose
type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// Helper functions

// uriToPath converts a file:// URI to a file path
func uriToPath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		return strings.TrimPrefix(uri, "file://")
	}
	return uri
}

// pathToURI converts a file path to a file:// URI
func pathToURI(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	return "file://" + path
}

// lineAt returns 1-indexed line n of content, or "" when out of range
func lineAt(lines []string, n int) string {
	if n < 1 || n > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[n-1], "\r")
}

// blockRange spans from the start of the opening line to the end of the closing line
func blockRange(b *types.Block, lines []string) Range {
	return Range{
		Start: Position{Line: uint32(b.StartLine - 1)},
		End: Position{
			Line:      uint32(b.EndLine - 1),
			Character: uint32(len(lineAt(lines, b.EndLine))),
		},
	}
}

// selectionRange points at a function's name, or at the whole opening line
// for other blocks.
func selectionRange(b *types.Block, lines []string) Range {
	text := lineAt(lines, b.StartLine)
	line := uint32(b.StartLine - 1)

	if b.Kind == types.KindFunction {
		if col := indexWord(text, b.Label); col >= 0 {
			return Range{
				Start: Position{Line: line, Character: uint32(col)},
				End:   Position{Line: line, Character: uint32(col + len(b.Label))},
			}
		}
	}
	return Range{
		Start: Position{Line: line},
		End:   Position{Line: line, Character: uint32(len(text))},
	}
}

// blockToLocation converts a block to an LSP Location on its name
func blockToLocation(b *types.Block, lines []string) Location {
	return Location{
		URI:   pathToURI(b.FilePath),
		Range: selectionRange(b, lines),
	}
}

// referenceToLocation converts a trigram hit to an LSP Location
func referenceToLocation(ref *types.Reference) Location {
	return Location{
		URI: pathToURI(ref.FilePath),
		Range: Range{
			Start: Position{
				Line:      uint32(ref.Line - 1), // LSP is 0-indexed
				Character: uint32(ref.Column),
			},
			End: Position{
				Line:      uint32(ref.Line - 1),
				Character: uint32(ref.Column + ref.Length),
			},
		},
	}
}

// indexWord finds word in text at identifier boundaries
func indexWord(text, word string) int {
	if word == "" {
		return -1
	}
	offset := 0
	for {
		i := strings.Index(text[offset:], word)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(word)
		if (start == 0 || !isWordChar(text[start-1])) && (end == len(text) || !isWordChar(text[end])) {
			return start
		}
		offset = start + 1
	}
}

// extractWordAt extracts the C identifier at the given position in the content
func extractWordAt(content string, line, char int) string {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}

	lineText := strings.TrimRight(lines[line], "\r")
	if char < 0 || char >= len(lineText) {
		// Try to find the last word if char is at/past end
		if char >= len(lineText) && len(lineText) > 0 {
			char = len(lineText) - 1
		} else {
			return ""
		}
	}

	// Cursor just past an identifier, e.g. on the "(" of "add("
	if !isWordChar(lineText[char]) && char > 0 && isWordChar(lineText[char-1]) {
		char--
	}

	start := char
	for start > 0 && isWordChar(lineText[start-1]) {
		start--
	}

	end := char
	for end < len(lineText) && isWordChar(lineText[end]) {
		end++
	}

	if start == end {
		return ""
	}

	word := lineText[start:end]
	if word[0] >= '0' && word[0] <= '9' {
		return ""
	}
	return word
}

// isWordChar returns true if c is a valid C identifier character
func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '_'
}
