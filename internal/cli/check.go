package cli

import (
	"fmt"
	"strings"

	"github.com/cargomend/cargomend/internal/check"
	"github.com/cargomend/cargomend/internal/diag"
	"github.com/cargomend/cargomend/internal/fix"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [dir]",
	Short: "Run the build-check once and show classified diagnostics, without patching",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		cfg, err := loadRunConfig(cmd)
		if err != nil {
			return err
		}

		invoker := check.NewInvoker(&check.ExecRunner{}, cfg.Mend.Command, cfg.Mend.TimeoutDuration())
		res, err := invoker.Check(dir)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if res.Succeeded {
			successColor.Fprintln(w, "Build is clean.")
			return nil
		}

		diags := diag.Parse(res.Stdout)
		rules := ruleTable(cfg)
		plan := fix.Classify(diags, rules)

		if len(diags) == 0 {
			failColor.Fprintln(w, "Build failed with no structured diagnostics. Printing stderr:")
			fmt.Fprintln(w, res.Stderr)
		} else {
			fmt.Fprintf(w, "%-8s %-30s %-6s %s\n", "CODE", "FILE", "LINE", "ACTION")
			fmt.Fprintf(w, "%s\n", strings.Repeat("-", 60))
			for _, d := range diags {
				action := "(no rule)"
				if a, ok := rules[d.Code]; ok {
					action = string(a)
				}
				fmt.Fprintf(w, "%-8s %-30s %-6d %s\n", d.Code, d.File, d.Line, action)
			}
		}

		if plan.Empty() {
			fmt.Fprintln(w, "\nNo automatic fix would apply.")
		} else {
			fmt.Fprintf(w, "\n%d files would be patched.\n", len(plan))
		}

		cmd.SilenceUsage = true
		return fmt.Errorf("build check failed (exit code %d)", res.ExitCode)
	},
}

func init() {
	checkCmd.Flags().String("config", "", "Path to a cargomend config file")
	checkCmd.Flags().String("command", "", "Override the build-check command")
	checkCmd.Flags().String("target", "", "Override the target identifier")
}
