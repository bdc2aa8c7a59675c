package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/mealcarbon/internal/config"
	"github.com/rshade/mealcarbon/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// isWriterTerminal reports whether w is a terminal file.
func isWriterTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the mealcarbon CLI. It loads
// configuration, wires up logging and tracing, and registers the simulate,
// sample, params, dataset and config subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:   "mealcarbon",
		Short: "Compare meal-kit and grocery greenhouse-gas emissions",
		Long: `mealcarbon estimates the life-cycle emissions (kg CO2e) of preparing a meal
from a delivered meal kit versus from grocery-store ingredients.

Uncertain coefficients such as transport distances, loss rates and fuel
efficiency are drawn from declared distributions in a seeded Monte Carlo
simulation, so every run is reproducible from its seed.`,
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "config file (default $MEALCARBON_HOME/config.yaml)")
	cmd.PersistentFlags().String("project-dir", "",
		"project directory holding .mealcarbon/config.yaml (default: nearest .mealcarbon above the working directory)")

	cmd.AddCommand(NewSimulateCmd(), NewSampleCmd(), NewParamsCmd(), newDatasetCmd(), newConfigCmd())

	return cmd
}

const rootCmdExample = `  # Compare the built-in meals with 1,000 trials
  mealcarbon simulate

  # Deterministic point estimate of one meal
  mealcarbon simulate --trials 1 --meal Salmon

  # Custom dataset, JSON output
  mealcarbon simulate --dataset meals.yaml --output json

  # Show five parameter draws for seed 7
  mealcarbon sample --seed 7 --count 5

  # Write a starter dataset and check it
  mealcarbon dataset init meals.yaml
  mealcarbon dataset validate meals.yaml

  # Initialize configuration
  mealcarbon config init`

// loadConfig resolves the project directory and installs the global config,
// from --config when given.
func loadConfig(cmd *cobra.Command) error {
	projectFlag, _ := cmd.Flags().GetString("project-dir")
	wd, err := os.Getwd()
	if err != nil {
		wd = ""
	}
	config.SetResolvedProjectDir(config.ResolveProjectDir(cmd.Context(), projectFlag, wd))

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		config.InitGlobalConfig()
		return nil
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	config.SetGlobalConfig(cfg)
	return nil
}

// newDatasetCmd creates the dataset command group.
func newDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "dataset", Short: "Dataset commands"}
	cmd.AddCommand(NewDatasetValidateCmd(), NewDatasetMealsCmd(), NewDatasetInitCmd())
	return cmd
}

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigShowCmd(), NewConfigValidateCmd())
	return cmd
}
