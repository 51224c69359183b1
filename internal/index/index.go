package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/jarredhawkins/cblocks/internal/parser"
	"github.com/jarredhawkins/cblocks/internal/types"
)

const (
	defaultWorkers   = 8
	defaultCacheSize = 1024
)

// Options tunes index building
type Options struct {
	Workers   int // Files scanned concurrently (default 8)
	CacheSize int // Scan results kept by content hash (default 1024)
}

// Index provides block lookup across a tree of C sources
type Index struct {
	mu sync.RWMutex

	// File index: FilePath -> blocks in close order
	byFile map[string][]*types.Block

	// Function index: name -> function blocks
	functions map[string][]*types.Block

	// Trigram index for identifier search
	trigram *TrigramIndex

	// Scan results keyed by path, mode and content hash
	cache *lru.Cache[string, []*types.Block]

	rootPath string
	scanner  *parser.Scanner
	workers  int
}

// New creates a new index for the given root path
func New(rootPath string, scanner *parser.Scanner, opts Options) (*Index, error) {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}

	cache, err := lru.New[string, []*types.Block](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create scan cache: %w", err)
	}

	return &Index{
		byFile:    make(map[string][]*types.Block),
		functions: make(map[string][]*types.Block),
		trigram:   NewTrigramIndex(),
		cache:     cache,
		rootPath:  rootPath,
		scanner:   scanner,
		workers:   opts.Workers,
	}, nil
}

// Build performs the initial indexing of the root path
func (idx *Index) Build(ctx context.Context) error {
	return idx.AddTree(ctx, idx.rootPath)
}

// AddTree indexes every C source under dir. Unreadable files are logged and
// skipped; cancellation stops the walk and returns ctx.Err().
func (idx *Index) AddTree(ctx context.Context, dir string) error {
	log.Printf("building index for %s", dir)

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			if path != dir && types.SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if types.IsSourceFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("found %d source files", len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)

	for _, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := idx.AddFile(file); err != nil {
				log.Printf("failed to index %s: %v", file, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	log.Printf("indexed %d blocks in %d files", idx.BlockCount(), idx.FileCount())
	return nil
}

// AddFile reads and indexes a single file
func (idx *Index) AddFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	idx.AddContent(path, content)
	return nil
}

// AddContent indexes content under path, replacing what was there before.
// Used for files on disk and for unsaved editor buffers alike.
func (idx *Index) AddContent(path string, content []byte) {
	key := idx.cacheKey(path, content)
	blocks, ok := idx.cache.Get(key)
	if !ok {
		blocks = idx.scanner.Parse(path, content)
		idx.cache.Add(key, blocks)
	}

	idx.mu.Lock()
	idx.removeLocked(path)
	idx.byFile[path] = blocks
	for _, b := range blocks {
		if b.Kind == types.KindFunction {
			idx.functions[b.Label] = append(idx.functions[b.Label], b)
		}
	}
	idx.mu.Unlock()

	idx.trigram.AddFile(path, content)
}

func (idx *Index) cacheKey(path string, content []byte) string {
	sum := sha256.Sum256(content)
	return path + "\x00" + idx.scanner.Mode().String() + "\x00" + hex.EncodeToString(sum[:])
}

// RemoveFile removes all blocks from a file
func (idx *Index) RemoveFile(path string) {
	idx.mu.Lock()
	idx.removeLocked(path)
	idx.mu.Unlock()

	idx.trigram.RemoveFile(path)
}

func (idx *Index) removeLocked(path string) {
	blocks, ok := idx.byFile[path]
	if !ok {
		return
	}
	delete(idx.byFile, path)

	for _, b := range blocks {
		if b.Kind != types.KindFunction {
			continue
		}
		existing := idx.functions[b.Label]
		filtered := make([]*types.Block, 0, len(existing))
		for _, fn := range existing {
			if fn.FilePath != path {
				filtered = append(filtered, fn)
			}
		}
		if len(filtered) == 0 {
			delete(idx.functions, b.Label)
		} else {
			idx.functions[b.Label] = filtered
		}
	}
}

// UpdateFile re-reads a file from disk
func (idx *Index) UpdateFile(path string) error {
	if err := idx.AddFile(path); err != nil {
		idx.RemoveFile(path)
		return err
	}
	return nil
}

// FindFunctions returns function blocks with the given name
func (idx *Index) FindFunctions(name string) []*types.Block {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	fns := idx.functions[name]
	if len(fns) == 0 {
		return nil
	}
	result := make([]*types.Block, len(fns))
	copy(result, fns)
	sortBlocks(result)
	return result
}

// FindFunctionsInFile returns functions matching the name, those in filePath first
func (idx *Index) FindFunctionsInFile(name, filePath string) []*types.Block {
	all := idx.FindFunctions(name)
	if len(all) == 0 {
		return nil
	}

	var sameFile, otherFiles []*types.Block
	for _, b := range all {
		if b.FilePath == filePath {
			sameFile = append(sameFile, b)
		} else {
			otherFiles = append(otherFiles, b)
		}
	}

	return append(sameFile, otherFiles...)
}

// EnclosingBlocks returns the blocks in filePath containing line, innermost first
func (idx *Index) EnclosingBlocks(filePath string, line int) []*types.Block {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var result []*types.Block
	for _, b := range idx.byFile[filePath] {
		if b.Contains(line) {
			result = append(result, b)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Lines() != result[j].Lines() {
			return result[i].Lines() < result[j].Lines()
		}
		return result[i].StartLine > result[j].StartLine
	})
	return result
}

// FindReferences finds whole-word occurrences of name using trigram search
func (idx *Index) FindReferences(name string) []*types.Reference {
	refs := idx.trigram.Search(name)
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].FilePath != refs[j].FilePath {
			return refs[i].FilePath < refs[j].FilePath
		}
		if refs[i].Line != refs[j].Line {
			return refs[i].Line < refs[j].Line
		}
		return refs[i].Column < refs[j].Column
	})
	return refs
}

// Content returns the text path was last indexed with
func (idx *Index) Content(path string) (string, bool) {
	return idx.trigram.Content(path)
}

// BlocksInFile returns the blocks of a file in close order
func (idx *Index) BlocksInFile(path string) []*types.Block {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	blocks := idx.byFile[path]
	result := make([]*types.Block, len(blocks))
	copy(result, blocks)
	return result
}

// HasFile reports whether path has been indexed
func (idx *Index) HasFile(path string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.byFile[path]
	return ok
}

// Files returns the indexed file paths in lexical order
func (idx *Index) Files() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	files := make([]string, 0, len(idx.byFile))
	for path := range idx.byFile {
		files = append(files, path)
	}
	sort.Strings(files)
	return files
}

// BlockCount returns the total number of indexed blocks
func (idx *Index) BlockCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	count := 0
	for _, blocks := range idx.byFile {
		count += len(blocks)
	}
	return count
}

// FileCount returns the number of indexed files
func (idx *Index) FileCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byFile)
}

// RootPath returns the root path of the index
func (idx *Index) RootPath() string {
	return idx.rootPath
}

// sortBlocks orders by file then start line
func sortBlocks(blocks []*types.Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].FilePath != blocks[j].FilePath {
			return blocks[i].FilePath < blocks[j].FilePath
		}
		return blocks[i].StartLine < blocks[j].StartLine
	})
}
