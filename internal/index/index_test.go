package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarredhawkins/cblocks/internal/parser"
	"github.com/jarredhawkins/cblocks/internal/types"
)

const mathSource = `int add(int a, int b) {
    return a + b;
}

int sum(int *xs, int n) {
    int total = 0;
    for (int i = 0; i < n; i++) {
        if (xs[i] > 0) {
            total = add(total, xs[i]);
        }
    }
    return total;
}
`

const mainSource = `int add(int a, int b);

int main(void) {
    return add(1, 2);
}
`

func newTestIndex(t *testing.T, root string, mode parser.Mode) *Index {
	t.Helper()
	scanner := parser.NewScanner(parser.NewDefaultRegistry(), mode)
	idx, err := New(root, scanner, Options{Workers: 2, CacheSize: 16})
	require.NoError(t, err)
	return idx
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNew_Defaults(t *testing.T) {
	idx, err := New("/src", parser.NewScanner(parser.NewDefaultRegistry(), parser.ModeAllBlocks), Options{})
	require.NoError(t, err)
	assert.Equal(t, defaultWorkers, idx.workers)
	assert.Equal(t, "/src", idx.RootPath())
	assert.Zero(t, idx.FileCount())
}

func TestBuild_WalksSourceFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "math.c"), mathSource)
	writeFile(t, filepath.Join(root, "app", "main.c"), mainSource)
	writeFile(t, filepath.Join(root, "README.md"), "int ignored(void) {\n}\n")
	writeFile(t, filepath.Join(root, ".git", "hook.c"), "int hidden(void) {\n}\n")
	writeFile(t, filepath.Join(root, "vendor", "lib.c"), "int vendored(void) {\n}\n")

	idx := newTestIndex(t, root, parser.ModeAllBlocks)
	require.NoError(t, idx.Build(context.Background()))

	assert.Equal(t, []string{
		filepath.Join(root, "app", "main.c"),
		filepath.Join(root, "math.c"),
	}, idx.Files())
	assert.Equal(t, 2, idx.FileCount())
	// add, if, for, sum in math.c plus main in main.c
	assert.Equal(t, 5, idx.BlockCount())
	assert.Empty(t, idx.FindFunctions("hidden"))
	assert.Empty(t, idx.FindFunctions("vendored"))
}

func TestBuild_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "math.c"), mathSource)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	idx := newTestIndex(t, root, parser.ModeAllBlocks)
	err := idx.Build(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFindFunctions(t *testing.T) {
	idx := newTestIndex(t, "/src", parser.ModeAllBlocks)
	idx.AddContent("/src/math.c", []byte(mathSource))
	idx.AddContent("/src/alt.c", []byte("static int add(int x, int y) {\n    return x + y;\n}\n"))

	fns := idx.FindFunctions("add")
	require.Len(t, fns, 2)
	assert.Equal(t, "/src/alt.c", fns[0].FilePath)
	assert.Equal(t, "/src/math.c", fns[1].FilePath)
	assert.Equal(t, 1, fns[1].StartLine)
	assert.Equal(t, 3, fns[1].EndLine)

	// The prototype in main.c is not a definition
	idx.AddContent("/src/main.c", []byte(mainSource))
	assert.Len(t, idx.FindFunctions("add"), 2)

	inFile := idx.FindFunctionsInFile("add", "/src/math.c")
	require.Len(t, inFile, 2)
	assert.Equal(t, "/src/math.c", inFile[0].FilePath)

	assert.Nil(t, idx.FindFunctions("missing"))
}

func TestAddContent_Replaces(t *testing.T) {
	idx := newTestIndex(t, "/src", parser.ModeAllBlocks)
	idx.AddContent("/src/math.c", []byte(mathSource))
	require.Len(t, idx.FindFunctions("sum"), 1)

	idx.AddContent("/src/math.c", []byte("int product(int a, int b) {\n    return a * b;\n}\n"))

	assert.Nil(t, idx.FindFunctions("sum"))
	assert.Nil(t, idx.FindFunctions("add"))
	require.Len(t, idx.FindFunctions("product"), 1)
	assert.Equal(t, 1, idx.BlockCount())
}

func TestAddContent_CachedByContent(t *testing.T) {
	idx := newTestIndex(t, "/src", parser.ModeAllBlocks)
	idx.AddContent("/src/math.c", []byte(mathSource))
	first := idx.BlocksInFile("/src/math.c")

	idx.AddContent("/src/math.c", []byte(mathSource))
	second := idx.BlocksInFile("/src/math.c")

	require.Len(t, second, len(first))
	for i := range first {
		assert.Same(t, first[i], second[i])
	}
	assert.Equal(t, 1, idx.cache.Len())
}

func TestRemoveFile(t *testing.T) {
	idx := newTestIndex(t, "/src", parser.ModeAllBlocks)
	idx.AddContent("/src/math.c", []byte(mathSource))
	idx.AddContent("/src/main.c", []byte(mainSource))

	idx.RemoveFile("/src/math.c")

	assert.False(t, idx.HasFile("/src/math.c"))
	assert.True(t, idx.HasFile("/src/main.c"))
	assert.Nil(t, idx.FindFunctions("add"))
	assert.Empty(t, idx.BlocksInFile("/src/math.c"))

	refs := idx.FindReferences("add")
	for _, ref := range refs {
		assert.Equal(t, "/src/main.c", ref.FilePath)
	}
}

func TestUpdateFile_MissingRemoves(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "math.c")
	writeFile(t, path, mathSource)

	idx := newTestIndex(t, root, parser.ModeAllBlocks)
	require.NoError(t, idx.UpdateFile(path))
	assert.True(t, idx.HasFile(path))

	require.NoError(t, os.Remove(path))
	err := idx.UpdateFile(path)
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.False(t, idx.HasFile(path))
}

func TestEnclosingBlocks(t *testing.T) {
	idx := newTestIndex(t, "/src", parser.ModeAllBlocks)
	idx.AddContent("/src/math.c", []byte(mathSource))

	blocks := idx.EnclosingBlocks("/src/math.c", 9)
	require.Len(t, blocks, 3)
	assert.Equal(t, types.KindIf, blocks[0].Kind)
	assert.Equal(t, types.KindForLoop, blocks[1].Kind)
	assert.Equal(t, types.KindFunction, blocks[2].Kind)
	assert.Equal(t, "sum", blocks[2].Label)

	assert.Empty(t, idx.EnclosingBlocks("/src/math.c", 4))
	assert.Empty(t, idx.EnclosingBlocks("/src/other.c", 9))
}

func TestFunctionsOnlyMode(t *testing.T) {
	idx := newTestIndex(t, "/src", parser.ModeFunctionsOnly)
	idx.AddContent("/src/math.c", []byte(mathSource))

	blocks := idx.BlocksInFile("/src/math.c")
	require.Len(t, blocks, 2)
	for _, b := range blocks {
		assert.Equal(t, types.KindFunction, b.Kind)
	}
	assert.Equal(t, "add", blocks[0].Label)
	assert.Equal(t, "sum", blocks[1].Label)
}

func TestFindReferences(t *testing.T) {
	idx := newTestIndex(t, "/src", parser.ModeAllBlocks)
	idx.AddContent("/src/math.c", []byte(mathSource))
	idx.AddContent("/src/main.c", []byte(mainSource))

	refs := idx.FindReferences("add")
	require.Len(t, refs, 4)

	assert.Equal(t, "/src/main.c", refs[0].FilePath)
	assert.Equal(t, 1, refs[0].Line)
	assert.Equal(t, "/src/main.c", refs[1].FilePath)
	assert.Equal(t, 4, refs[1].Line)
	assert.Equal(t, "/src/math.c", refs[2].FilePath)
	assert.Equal(t, 1, refs[2].Line)
	assert.Equal(t, "/src/math.c", refs[3].FilePath)
	assert.Equal(t, 9, refs[3].Line)
}
