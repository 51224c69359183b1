package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jarredhawkins/cblocks/internal/index"
	"github.com/jarredhawkins/cblocks/internal/lsp"
	"github.com/jarredhawkins/cblocks/internal/parser"
	"github.com/jarredhawkins/cblocks/internal/watcher"
)

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the language server on stdio",
		Long: `Index every C source under the root, keep the index current as files
change, and answer LSP requests (document symbols, folding ranges, hover,
definition and references) on stdin/stdout until the client exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			log.Printf("cblocks %s starting, root=%s mode=%s", version, cfg.Root, cfg.Mode)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			scanner := parser.NewScanner(parser.NewDefaultRegistry(), cfg.ScanMode())
			idx, err := index.New(cfg.Root, scanner, index.Options{
				Workers:   cfg.Workers,
				CacheSize: cfg.CacheSize,
			})
			if err != nil {
				return err
			}
			if err := idx.Build(ctx); err != nil {
				return err
			}

			w, err := watcher.New(cfg.Root, cfg.DebounceMs, func(changed, removed []string) {
				for _, path := range removed {
					idx.RemoveFile(path)
				}
				for _, path := range changed {
					if err := idx.UpdateFile(path); err != nil {
						log.Printf("failed to update file %s: %v", path, err)
					}
				}
			})
			if err != nil {
				return err
			}
			defer w.Close()

			if err := w.Start(); err != nil {
				return err
			}

			server := lsp.NewServer(idx, version)
			err = server.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				return err
			}

			log.Println("cblocks shutdown complete")
			return nil
		},
	}
	cmd.Flags().String("root", "", "root path of the C project (defaults to CBLOCKS_ROOT or the current directory)")

	return cmd
}
