package lsp

import (
	"sync"
)

// DocumentStore holds the buffers the client has open. Open buffers take
// precedence over disk content.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// Document represents an open text document
type Document struct {
	URI     string
	Path    string
	Version int
	Content string
}

// NewDocumentStore creates a new document store
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs: make(map[string]*Document),
	}
}

// Open adds or replaces a document
func (ds *DocumentStore) Open(uri string, version int, content string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.docs[uri] = &Document{
		URI:     uri,
		Path:    uriToPath(uri),
		Version: version,
		Content: content,
	}
}

// Update replaces a document's content. Stale versions are ignored and it
// reports whether the update was applied.
func (ds *DocumentStore) Update(uri string, version int, content string) bool {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	doc, ok := ds.docs[uri]
	if !ok || (version != 0 && version < doc.Version) {
		return false
	}
	doc.Version = version
	doc.Content = content
	return true
}

// Close removes a document
func (ds *DocumentStore) Close(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	delete(ds.docs, uri)
}

// Get returns a document's content
func (ds *DocumentStore) Get(uri string) (string, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	if doc, ok := ds.docs[uri]; ok {
		return doc.Content, true
	}
	return "", false
}

// IsOpen checks if a document is open
func (ds *DocumentStore) IsOpen(uri string) bool {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	_, ok := ds.docs[uri]
	return ok
}
