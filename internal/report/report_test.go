package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarredhawkins/cblocks/internal/types"
)

func sampleFiles() []FileBlocks {
	return []FileBlocks{
		{
			Path: "math.c",
			Blocks: []*types.Block{
				{Kind: types.KindFunction, Label: "add", FilePath: "math.c", StartLine: 1, EndLine: 3},
				{Kind: types.KindForLoop, Label: "for loop", FilePath: "math.c", StartLine: 7, EndLine: 11},
			},
		},
		{Path: "empty.c"},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"text", FormatText},
		{"TABLE", FormatTable},
		{" json ", FormatJSON},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFormat("yaml")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLine(t *testing.T) {
	files := sampleFiles()
	assert.Equal(t, "Function 'add' from line 1 to line 3", Line(files[0].Blocks[0]))
	assert.Equal(t, "for loop from line 7 to line 11", Line(files[0].Blocks[1]))
}

func TestWrite_TextSingleFile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, sampleFiles()[:1]))

	assert.Equal(t, "Function 'add' from line 1 to line 3\nfor loop from line 7 to line 11\n", buf.String())
}

func TestWrite_TextMultipleFiles(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, sampleFiles()))

	want := "math.c:\n" +
		"Function 'add' from line 1 to line 3\n" +
		"for loop from line 7 to line 11\n" +
		"\n" +
		"empty.c:\n"
	assert.Equal(t, want, buf.String())
}

func TestWrite_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatTable, sampleFiles()))

	out := buf.String()
	assert.Contains(t, out, "math.c")
	assert.Contains(t, out, "for_loop")
	assert.Contains(t, out, "add")
	assert.Contains(t, out, "11")
	assert.NotContains(t, out, "empty.c")
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleFiles()))

	var got map[string][]map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	require.Len(t, got["math.c"], 2)
	assert.Equal(t, "function", got["math.c"][0]["kind"])
	assert.Equal(t, "add", got["math.c"][0]["label"])
	assert.EqualValues(t, 1, got["math.c"][0]["start_line"])
	assert.EqualValues(t, 3, got["math.c"][0]["end_line"])

	empty, ok := got["empty.c"]
	require.True(t, ok)
	assert.Empty(t, empty)
	assert.Contains(t, buf.String(), `"empty.c": []`)
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, Format(42), nil)
	require.ErrorIs(t, err, ErrUnknownFormat)
}
