package cli

import (
	"fmt"
	"strings"

	"github.com/cargomend/cargomend/internal/analytics"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate fix and outcome statistics from run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, cleanup, err := openDB()
		if err != nil {
			return err
		}
		defer cleanup()

		w := cmd.OutOrStdout()

		outcomes, err := analytics.QueryOutcomeStats(d)
		if err != nil {
			return err
		}
		if len(outcomes) == 0 {
			fmt.Fprintln(w, "No finished runs recorded.")
			return nil
		}
		fmt.Fprintln(w, "Outcomes:")
		fmt.Fprintf(w, "  %-15s %-6s %s\n", "OUTCOME", "RUNS", "AVG ITERS")
		fmt.Fprintf(w, "  %s\n", strings.Repeat("-", 35))
		for _, s := range outcomes {
			fmt.Fprintf(w, "  %-15s %-6d %.1f\n", s.Outcome, s.Count, s.AvgIterations)
		}

		codes, err := analytics.QueryCodeCounts(d)
		if err != nil {
			return err
		}
		if len(codes) > 0 {
			fmt.Fprintln(w, "\nFixes by error code:")
			fmt.Fprintf(w, "  %-8s %-8s %s\n", "CODE", "ACTION", "COUNT")
			fmt.Fprintf(w, "  %s\n", strings.Repeat("-", 30))
			for _, c := range codes {
				fmt.Fprintf(w, "  %-8s %-8s %d\n", c.Code, c.Action, c.Count)
			}
		}
		return nil
	},
}
