package cli

import (
	"fmt"

	"github.com/cargomend/cargomend/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config after defaults are applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")

		var cfg *config.Config
		var err error
		if path != "" {
			cfg, err = config.Load(path)
		} else {
			cfg, err = config.LoadDefault()
		}
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(args[0])
		if err != nil {
			return err
		}
		errs := config.Validate(cfg)
		if len(errs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Config is valid.")
			return nil
		}
		for _, e := range errs {
			fmt.Fprintln(cmd.OutOrStdout(), e.Error())
		}
		cmd.SilenceUsage = true
		return fmt.Errorf("config has %d problems", len(errs))
	},
}

func init() {
	configShowCmd.Flags().String("config", "", "Path to a cargomend config file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}
