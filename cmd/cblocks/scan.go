package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jarredhawkins/cblocks/internal/index"
	"github.com/jarredhawkins/cblocks/internal/parser"
	"github.com/jarredhawkins/cblocks/internal/report"
)

func newScanCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Print the blocks found in files and directories",
		Long: `Scan C source files and print every completed block.

Directories are walked recursively for .c/.h (and C++) sources, skipping
hidden, vendor, node_modules and build directories. Files named explicitly
are scanned whatever their extension and must be readable.
With no paths the configured root (CBLOCKS_ROOT or the current directory)
is scanned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if len(args) == 0 {
				args = []string{cfg.Root}
			}

			scanner := parser.NewScanner(parser.NewDefaultRegistry(), cfg.ScanMode())
			idx, err := index.New(cfg.Root, scanner, index.Options{
				Workers:   cfg.Workers,
				CacheSize: cfg.CacheSize,
			})
			if err != nil {
				return err
			}

			for _, path := range args {
				info, err := os.Stat(path)
				if err != nil {
					return fmt.Errorf("scan %s: %w", path, err)
				}
				if info.IsDir() {
					if err := idx.AddTree(cmd.Context(), path); err != nil {
						return fmt.Errorf("scan %s: %w", path, err)
					}
					continue
				}
				if err := idx.AddFile(path); err != nil {
					return fmt.Errorf("scan %s: %w", path, err)
				}
			}

			files := make([]report.FileBlocks, 0, idx.FileCount())
			for _, path := range idx.Files() {
				files = append(files, report.FileBlocks{Path: path, Blocks: idx.BlocksInFile(path)})
			}

			return report.Write(cmd.OutOrStdout(), cfg.OutputFormat(), files)
		},
	}
	cmd.Flags().StringP("format", "f", "", "output format: text, table or json (default text)")

	return cmd
}
