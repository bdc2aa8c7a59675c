package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/mealcarbon/internal/config"
)

// NewConfigShowCmd creates the config show command, which prints the
// effective configuration after file, project and environment overrides.
func NewConfigShowCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Example: `  mealcarbon config show
  mealcarbon config show --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			switch output {
			case "yaml", "":
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return fmt.Errorf("marshalling config: %w", err)
				}
				if path := cfg.ConfigPath(); path != "" {
					cmd.Printf("# %s\n", path)
				}
				cmd.Print(string(data))
				return nil
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			default:
				return fmt.Errorf("invalid output format %q (valid: yaml, json)", output)
			}
		},
	}

	cmd.Flags().StringVar(&output, "output", "yaml", "output format: yaml or json")
	return cmd
}

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the effective configuration: simulation settings, parameter
overrides, output settings and logging settings.`,
		Example: `  mealcarbon config validate --verbose`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}
			cmd.Printf("Configuration is valid\n")
			if verbose {
				printVerboseDetails(cmd, cfg)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")
	return cmd
}

// printVerboseDetails prints detailed configuration information.
func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Println()
	cmd.Println("Configuration details:")
	cmd.Printf("  Trials: %d (seed %d, %d workers)\n", cfg.Simulation.Trials, cfg.Simulation.Seed, cfg.Simulation.Workers)
	cmd.Printf("  Loss rates: %s, on error: %s\n", cfg.Simulation.LossRates, cfg.Simulation.OnError)
	dataset := cfg.Dataset.Path
	if dataset == "" {
		dataset = "built-in"
	}
	cmd.Printf("  Dataset: %s\n", dataset)
	cmd.Printf("  Output format: %s\n", cfg.Output.DefaultFormat)
	cmd.Printf("  Output precision: %d\n", cfg.Output.Precision)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	if len(cfg.Simulation.Overrides) > 0 {
		cmd.Printf("  Parameter overrides: %d\n", len(cfg.Simulation.Overrides))
	} else {
		cmd.Println("  No parameter overrides")
	}
}
