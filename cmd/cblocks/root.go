package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jarredhawkins/cblocks/internal/config"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

// options carries the resolved configuration between cobra hooks
type options struct {
	cfg     *config.Config
	logFile *os.File
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "cblocks",
		Short: "Find brace-delimited blocks in C sources",
		Long: `cblocks scans C source files line by line and reports the blocks it finds:
function bodies, loops, conditionals and bare compound statements, each with
its label and line range.

It can print results for files and directories (scan) or serve them to an
editor over the Language Server Protocol (serve).

Settings are read from .env and CBLOCKS_* environment variables; flags win.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			opts.cfg = cfg
			return opts.setupLogging(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if opts.logFile != nil {
				return opts.logFile.Close()
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("mode", "", "block tracking mode: all or functions (default all)")
	flags.String("log", "", "log file path (defaults to stderr)")
	flags.Bool("debug", false, "enable debug logging")
	flags.Int("workers", config.DefaultWorkers, "files scanned concurrently")

	cmd.AddCommand(newScanCmd(opts), newServeCmd(opts), newVersionCmd())
	return cmd
}

// applyFlags overrides config values with flags given on the command line
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Mode, _ = flags.GetString("mode")
	}
	if flags.Changed("log") {
		cfg.LogFile, _ = flags.GetString("log")
	}
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Lookup("format") != nil && flags.Changed("format") {
		cfg.Format, _ = flags.GetString("format")
	}
	if flags.Lookup("root") != nil && flags.Changed("root") {
		cfg.Root, _ = flags.GetString("root")
	}
}

// setupLogging sends log output to the configured file, or to stderr. The
// scan command stays quiet unless asked, since its results go to stdout.
func (o *options) setupLogging(cmd *cobra.Command) error {
	log.SetFlags(log.LstdFlags)
	if o.cfg.Debug {
		log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	}

	switch {
	case o.cfg.LogFile != "":
		f, err := os.OpenFile(o.cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		o.logFile = f
		log.SetOutput(f)
	case cmd.Name() == "scan" && !o.cfg.Debug:
		log.SetOutput(io.Discard)
	default:
		log.SetOutput(cmd.ErrOrStderr())
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "cblocks %s\n", version)
			return err
		},
	}
}
