// Package report renders scanned blocks for the command line.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/jarredhawkins/cblocks/internal/types"
)

// Format selects an output renderer
type Format int

const (
	FormatText Format = iota
	FormatTable
	FormatJSON
)

// ErrUnknownFormat is returned by ParseFormat for unrecognized names
var ErrUnknownFormat = errors.New("unknown output format")

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatTable:
		return "table"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseFormat converts a format name to a Format
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text":
		return FormatText, nil
	case "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FileBlocks pairs a file with the blocks found in it, in close order
type FileBlocks struct {
	Path   string
	Blocks []*types.Block
}

// Write renders files to w in the given format
func Write(w io.Writer, format Format, files []FileBlocks) error {
	switch format {
	case FormatText:
		return writeText(w, files)
	case FormatTable:
		return writeTable(w, files)
	case FormatJSON:
		return writeJSON(w, files)
	}
	return fmt.Errorf("%w: %d", ErrUnknownFormat, int(format))
}

// Line formats one block the way the line reports read:
// "Function 'add' from line 1 to line 3" or "for loop from line 7 to line 11".
func Line(b *types.Block) string {
	if b.Kind == types.KindFunction {
		return fmt.Sprintf("Function '%s' from line %d to line %d", b.Label, b.StartLine, b.EndLine)
	}
	return fmt.Sprintf("%s from line %d to line %d", b.Label, b.StartLine, b.EndLine)
}

func writeText(w io.Writer, files []FileBlocks) error {
	headers := len(files) > 1
	for i, f := range files {
		if headers {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "%s:\n", f.Path); err != nil {
				return err
			}
		}
		for _, b := range f.Blocks {
			if _, err := fmt.Fprintln(w, Line(b)); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeTable(w io.Writer, files []FileBlocks) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Kind", "Label", "Start", "End"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})

	total := 0
	for _, f := range files {
		for _, b := range f.Blocks {
			table.Append([]string{
				f.Path,
				b.Kind.String(),
				b.Label,
				strconv.Itoa(b.StartLine),
				strconv.Itoa(b.EndLine),
			})
			total++
		}
	}

	table.SetFooter([]string{fmt.Sprintf("Files %d", len(files)), "", "", "Blocks", strconv.Itoa(total)})
	table.Render()
	return nil
}

func writeJSON(w io.Writer, files []FileBlocks) error {
	out := make(map[string][]*types.Block, len(files))
	for _, f := range files {
		blocks := f.Blocks
		if blocks == nil {
			blocks = []*types.Block{}
		}
		out[f.Path] = blocks
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
