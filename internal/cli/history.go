package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ning0612/dataexporter/internal/logger"
	"github.com/Ning0612/dataexporter/internal/state"
)

type historyOptions struct {
	user  string
	limit int
}

func newHistoryCommand(g *globals) *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past export runs",
		Long: `List recorded export runs, newest first.

Examples:
  # Last 20 runs of every user
  dataexporter history

  # Last 5 runs of alice
  dataexporter history --user alice --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.user, "user", "u", "", "only show runs of this user")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "maximum number of runs")

	return cmd
}

func runHistory(cmd *cobra.Command, g *globals, opts *historyOptions) error {
	if opts.limit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", opts.limit)
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

	records, err := svc.History(opts.user, opts.limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No export runs recorded.")
		return nil
	}
	return PrintTable(cmd.OutOrStdout(), historyTable(records))
}

// historyTable renders export records as table rows
type historyTable []state.ExportRecord

func (h historyTable) Headers() []string {
	return []string{"Run", "User", "Scope", "Status", "Records", "Started", "Duration", "Error"}
}

func (h historyTable) Rows() [][]string {
	rows := make([][]string, 0, len(h))
	for _, r := range h {
		rows = append(rows, []string{
			r.RunID,
			r.UserID,
			r.Scope,
			string(r.Status),
			strconv.Itoa(r.Records),
			r.StartTime.Local().Format(time.DateTime),
			r.Duration().Round(time.Millisecond).String(),
			truncate(r.Error, 60),
		})
	}
	return rows
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
