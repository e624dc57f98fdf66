package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ning0612/dataexporter/internal/core/nodeiter"
	"github.com/Ning0612/dataexporter/internal/export"
	"github.com/Ning0612/dataexporter/internal/logger"
	"github.com/Ning0612/dataexporter/internal/progress"
	"github.com/Ning0612/dataexporter/internal/service"
)

type exportOptions struct {
	user         string
	trashBin     bool
	trashBinOnly bool
	output       string
	format       string
	childFirst   bool
	progress     int
}

func newExportCommand(g *globals) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the file metadata of a user",
		Long: `Walk the home folder of a user and write a manifest of its nodes.

Nodes on a different storage than the home folder (external mounts, shares)
are not exported. The manifest goes to stdout unless --output is given.

Examples:
  # Print a JSON manifest
  dataexporter export --user alice

  # Include the trash bin and write YAML to a file
  dataexporter export --user alice --trashbin --output alice.yaml --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.user, "user", "u", "", "user to export (required)")
	cmd.Flags().BoolVar(&opts.trashBin, "trashbin", false, "also export the trash bin")
	cmd.Flags().BoolVar(&opts.trashBinOnly, "trashbin-only", false, "export only the trash bin")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "manifest file (default: stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "manifest format json|yaml (default: output.format from config)")
	cmd.Flags().BoolVar(&opts.childFirst, "child-first", false, "list folders after their contents")
	cmd.Flags().IntVar(&opts.progress, "progress", 0, "print progress to stderr every N nodes (0 disables)")
	_ = cmd.MarkFlagRequired("user")
	cmd.MarkFlagsMutuallyExclusive("trashbin", "trashbin-only")

	return cmd
}

func (o *exportOptions) scope() export.Scope {
	switch {
	case o.trashBinOnly:
		return export.ScopeTrashBin
	case o.trashBin:
		return export.ScopeAll
	default:
		return export.ScopeFiles
	}
}

// resolveFormat prefers the flag, then the output file extension, then the
// configured default
func (o *exportOptions) resolveFormat(configured string) (export.Format, error) {
	if o.format != "" {
		return export.ParseFormat(o.format)
	}
	switch filepath.Ext(o.output) {
	case ".yaml", ".yml":
		return export.FormatYAML, nil
	case ".json":
		return export.FormatJSON, nil
	}
	return export.ParseFormat(configured)
}

func runExport(cmd *cobra.Command, g *globals, opts *exportOptions) error {
	format, err := opts.resolveFormat(g.cfg.Output.Format)
	if err != nil {
		return err
	}

	svc, err := g.openService()
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Get().Warn("failed to close export service", "error", err)
		}
	}()

	if opts.progress > 0 {
		svc.SetProgressReporter(progress.NewWriterReporter(cmd.ErrOrStderr(), opts.progress))
	}

	mode := nodeiter.SelfFirst
	if opts.childFirst {
		mode = nodeiter.ChildFirst
	}

	manifest, err := svc.Export(cmd.Context(), service.ExportRequest{
		UserID: opts.user,
		Scope:  opts.scope(),
		Mode:   mode,
	})
	if err != nil {
		// a partial manifest is recorded in the history but never written
		return fmt.Errorf("export of %s failed: %w", opts.user, err)
	}

	if opts.output == "" {
		return export.Encode(cmd.OutOrStdout(), manifest, format)
	}

	if err := export.WriteFile(opts.output, manifest, format); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d records to %s\n", manifest.Records(), opts.output)
	return nil
}
