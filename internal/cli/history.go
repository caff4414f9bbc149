package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cargomend/cargomend/internal/db"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show past runs, or the fixes applied during one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, cleanup, err := openDB()
		if err != nil {
			return err
		}
		defer cleanup()

		if len(args) == 1 {
			runID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", args[0], err)
			}
			return printFixEvents(cmd, d, runID)
		}
		return printRuns(cmd, d)
	},
}

func printRuns(cmd *cobra.Command, d *db.DB) error {
	runs, err := d.GetRunHistory()
	if err != nil {
		return fmt.Errorf("get run history: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-6s %-15s %-5s %-10s %-20s %s\n",
		"ID", "OUTCOME", "ITERS", "DURATION", "TIMESTAMP", "DIR")
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 80))
	for _, r := range runs {
		fmt.Fprintf(w, "%-6d %-15s %-5d %-10s %-20s %s\n",
			r.ID, r.Outcome, r.Iterations,
			fmt.Sprintf("%dms", r.DurationMs), r.Timestamp, r.Dir)
	}
	return nil
}

func printFixEvents(cmd *cobra.Command, d *db.DB, runID int) error {
	events, err := d.GetFixEvents(runID)
	if err != nil {
		return fmt.Errorf("get fix events: %w", err)
	}
	if len(events) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No fixes recorded for run %d.\n", runID)
		return nil
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-5s %-30s %-6s %-8s %s\n", "ITER", "FILE", "LINE", "CODE", "ACTION")
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 60))
	for _, e := range events {
		fmt.Fprintf(w, "%-5d %-30s %-6d %-8s %s\n", e.Iteration, e.File, e.Line, e.Code, e.Action)
	}
	return nil
}

// openDB opens and migrates the history DB, returning it with a cleanup func.
func openDB() (*db.DB, func(), error) {
	dbPath, err := db.DefaultDBPath()
	if err != nil {
		return nil, nil, err
	}
	d, err := db.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if err := d.Migrate(); err != nil {
		d.Close()
		return nil, nil, err
	}
	return d, func() { d.Close() }, nil
}
