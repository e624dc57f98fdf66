// Package cli implements the dataexporter command line.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Ning0612/dataexporter/internal/config"
	"github.com/Ning0612/dataexporter/internal/logger"
	"github.com/Ning0612/dataexporter/internal/service"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// globals holds the persistent flags and the state built from them
type globals struct {
	configFile string
	verbose    bool

	cfg *config.Config
}

// NewRootCommand builds the dataexporter command tree
func NewRootCommand() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "dataexporter",
		Short: "Export per-user file metadata",
		Long: `dataexporter walks a user's storage tree and writes a manifest with the
relative path, ETag, permissions and type of every node that lives on the
user's home storage.

Use "dataexporter [command] --help" for more information about a command.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup()
		},
	}

	root.PersistentFlags().StringVar(&g.configFile, "config", "", "config file (default: ./config.yaml or $HOME/.config/dataexporter/config.yaml)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newExportCommand(g))
	root.AddCommand(newHistoryCommand(g))
	root.CompletionOptions.DisableDefaultCmd = true

	return root
}

func (g *globals) setup() error {
	cfg, err := config.Load(g.configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if g.verbose {
		cfg.Logging.Level = "debug"
	}

	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Debug("configuration loaded", "backend", cfg.Filesystem.Type, "state", cfg.State.DataDir)

	g.cfg = cfg
	return nil
}

func (g *globals) openService() (*service.ExportService, error) {
	if g.cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return service.NewExportService(g.cfg)
}

// Run executes the command line args and flushes the logger afterwards
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	defer logger.Shutdown()
	return root.ExecuteContext(ctx)
}
