package cli

import (
	"fmt"
	"time"

	"github.com/cargomend/cargomend/internal/check"
	"github.com/cargomend/cargomend/internal/config"
	"github.com/cargomend/cargomend/internal/db"
	"github.com/cargomend/cargomend/internal/fix"
	"github.com/cargomend/cargomend/internal/loop"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	failColor    = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow, color.Bold)
)

var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Run the fix loop until the build is clean or no fix applies",
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

		noHistory, _ := cmd.Flags().GetBool("no-history")
		recordHistory := cfg.Mend.HistoryEnabled() && !noHistory

		invoker := check.NewInvoker(&check.ExecRunner{}, cfg.Mend.Command, cfg.Mend.TimeoutDuration())
		applier := fix.NewApplier(cfg.Mend.Target)
		rules := ruleTable(cfg)

		var recorder loop.Recorder
		var store *db.DB
		var runID int64
		if recordHistory {
			store, runID, err = beginHistoryRun(dir, cfg.Mend.Command)
			if err != nil {
				return err
			}
			defer store.Close()
			recorder = &runRecorder{d: store, runID: runID}
		}

		engine := loop.NewEngine(invoker, applier, rules, cfg.Mend.IterationCap(), recorder, cmd.OutOrStdout())

		start := time.Now()
		summary, err := engine.Run(dir)
		if err != nil {
			return err
		}
		if store != nil {
			_ = store.FinishRun(runID, string(summary.Outcome), summary.Iterations,
				int(time.Since(start).Milliseconds()))
		}

		return reportSummary(cmd, summary)
	},
}

// reportSummary prints the terminal outcome. A run that did not end green is
// an error so the process exits non-zero.
func reportSummary(cmd *cobra.Command, summary *loop.Summary) error {
	w := cmd.OutOrStdout()
	switch summary.Outcome {
	case loop.OutcomeSuccess:
		successColor.Fprintln(w, "Success! No errors.")
		return nil
	case loop.OutcomeNoFix:
		failColor.Fprintln(w, "No automatic fixes available. Printing stderr:")
		fmt.Fprintln(w, summary.Stderr)
		cmd.SilenceUsage = true
		return fmt.Errorf("stopped: no automatic fixes available")
	case loop.OutcomeStalled:
		warnColor.Fprintln(w, "Fixes are not landing (same fix set produced twice). Printing stderr:")
		fmt.Fprintln(w, summary.Stderr)
		cmd.SilenceUsage = true
		return fmt.Errorf("stopped: fix loop stalled after %d iterations", summary.Iterations)
	case loop.OutcomeMaxIterations:
		warnColor.Fprintln(w, "Iteration cap reached. Printing stderr:")
		fmt.Fprintln(w, summary.Stderr)
		cmd.SilenceUsage = true
		return fmt.Errorf("stopped: iteration cap reached (%d)", summary.Iterations)
	default:
		return fmt.Errorf("unknown outcome %q", summary.Outcome)
	}
}

// loadRunConfig loads the effective config and applies flag overrides.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("command") {
		cfg.Mend.Command, _ = cmd.Flags().GetString("command")
	}
	if cmd.Flags().Changed("target") {
		cfg.Mend.Target, _ = cmd.Flags().GetString("target")
	}
	if cmd.Flags().Changed("max-iterations") {
		n, _ := cmd.Flags().GetInt("max-iterations")
		cfg.Mend.MaxIterations = &n
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(cmd.ErrOrStderr(), e.Error())
		}
		return nil, fmt.Errorf("invalid configuration (%d problems)", len(errs))
	}
	return cfg, nil
}

// ruleTable converts the config's string rule table to classifier actions.
// Validate has already rejected unknown action names.
func ruleTable(cfg *config.Config) map[string]fix.Action {
	rules := make(map[string]fix.Action, len(cfg.Mend.Rules))
	for code, action := range cfg.Mend.Rules {
		rules[code] = fix.Action(action)
	}
	return rules
}

// beginHistoryRun opens the history store and inserts the run row.
func beginHistoryRun(dir string, command string) (*db.DB, int64, error) {
	dbPath, err := db.DefaultDBPath()
	if err != nil {
		return nil, 0, err
	}
	store, err := db.Open(dbPath)
	if err != nil {
		return nil, 0, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, 0, err
	}
	runID, err := store.BeginRun(dir, command)
	if err != nil {
		store.Close()
		return nil, 0, err
	}
	return store, runID, nil
}

// runRecorder adapts the history store to the loop's Recorder interface.
// Recording is best-effort: a failed insert never interrupts the loop.
type runRecorder struct {
	d     *db.DB
	runID int64
}

func (r *runRecorder) RecordFix(iteration int, file string, line int, code string, action string) {
	_ = r.d.LogFixEvent(r.runID, iteration, file, line, code, action)
}

func init() {
	runCmd.Flags().String("config", "", "Path to a cargomend config file")
	runCmd.Flags().String("command", "", "Override the build-check command")
	runCmd.Flags().String("target", "", "Override the target identifier")
	runCmd.Flags().Int("max-iterations", 0, "Override the iteration cap (0 = unbounded)")
	runCmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
}
