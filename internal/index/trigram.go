package index

import (
	"bufio"
	"regexp"
	"strings"
	"sync"

	"github.com/jarredhawkins/cblocks/internal/types"
)

// TrigramIndex provides identifier search across the indexed sources
type TrigramIndex struct {
	mu sync.RWMutex

	// Inverted index: trigram -> set of file paths
	trigrams map[string]map[string]struct{}

	// File content kept for verifying candidates
	files map[string]string
}

// NewTrigramIndex creates a new trigram index
func NewTrigramIndex() *TrigramIndex {
	return &TrigramIndex{
		trigrams: make(map[string]map[string]struct{}),
		files:    make(map[string]string),
	}
}

// AddFile indexes a file's content, replacing any earlier content for path
func (t *TrigramIndex) AddFile(path string, content []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.removeLocked(path)

	contentStr := string(content)
	t.files[path] = contentStr

	for i := 0; i <= len(contentStr)-3; i++ {
		tri := contentStr[i : i+3]
		if t.trigrams[tri] == nil {
			t.trigrams[tri] = make(map[string]struct{})
		}
		t.trigrams[tri][path] = struct{}{}
	}
}

// RemoveFile removes a file from the index
func (t *TrigramIndex) RemoveFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(path)
}

func (t *TrigramIndex) removeLocked(path string) {
	content, ok := t.files[path]
	if !ok {
		return
	}
	delete(t.files, path)

	for i := 0; i <= len(content)-3; i++ {
		tri := content[i : i+3]
		if files, ok := t.trigrams[tri]; ok {
			delete(files, path)
			if len(files) == 0 {
				delete(t.trigrams, tri)
			}
		}
	}
}

// Content returns the indexed text of path
func (t *TrigramIndex) Content(path string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	content, ok := t.files[path]
	return content, ok
}

// Search finds whole-word occurrences of name in all indexed files
func (t *TrigramIndex) Search(name string) []*types.Reference {
	if name == "" {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	candidates := t.findCandidates(name)
	if len(candidates) == 0 {
		return nil
	}

	pattern := wordPattern(name)

	var refs []*types.Reference
	for path := range candidates {
		refs = append(refs, searchContent(path, t.files[path], pattern)...)
	}
	return refs
}

// SearchFile finds whole-word occurrences of name in one file
func (t *TrigramIndex) SearchFile(path, name string) []*types.Reference {
	if name == "" {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	content, ok := t.files[path]
	if !ok {
		return nil
	}
	return searchContent(path, content, wordPattern(name))
}

// findCandidates uses trigram intersection to find candidate files
func (t *TrigramIndex) findCandidates(pattern string) map[string]struct{} {
	if len(pattern) < 3 {
		// Too short for trigrams, every file is a candidate
		result := make(map[string]struct{}, len(t.files))
		for path := range t.files {
			result[path] = struct{}{}
		}
		return result
	}

	var candidates map[string]struct{}

	for i := 0; i <= len(pattern)-3; i++ {
		files, ok := t.trigrams[pattern[i:i+3]]
		if !ok {
			return nil
		}

		if candidates == nil {
			candidates = make(map[string]struct{}, len(files))
			for path := range files {
				candidates[path] = struct{}{}
			}
		} else {
			for path := range candidates {
				if _, ok := files[path]; !ok {
					delete(candidates, path)
				}
			}
		}

		if len(candidates) == 0 {
			return nil
		}
	}

	return candidates
}

// searchContent verifies matches line by line
func searchContent(path, content string, pattern *regexp.Regexp) []*types.Reference {
	var refs []*types.Reference

	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0

	for sc.Scan() {
		lineNum++
		line := sc.Text()

		for _, match := range pattern.FindAllStringIndex(line, -1) {
			refs = append(refs, &types.Reference{
				FilePath: path,
				Line:     lineNum,
				Column:   match[0],
				Length:   match[1] - match[0],
				LineText: line,
			})
		}
	}

	return refs
}

// wordPattern matches name as a whole C identifier
func wordPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
}
