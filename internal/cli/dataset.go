package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/rshade/mealcarbon/internal/config"
	"github.com/rshade/mealcarbon/internal/dataset"
	"github.com/rshade/mealcarbon/internal/emissions"
	"github.com/rshade/mealcarbon/internal/logging"
)

// NewDatasetValidateCmd creates the dataset validate command.
func NewDatasetValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a dataset for structural errors and missing factors",
		Long: `Loads a dataset and reports every problem found: schema version, unknown
categories or packaging kinds, missing or negative masses, emission factors
missing for an item or packaging kind, and incomplete loss-rate tables.

Without a file argument the configured dataset (or the built-in one) is checked.`,
		Example: `  mealcarbon dataset validate meals.yaml`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GetDatasetPath()
			if len(args) == 1 {
				path = args[0]
			}
			ds, err := dataset.LoadOrDefault(path)
			if err != nil {
				return err
			}
			if err := ds.Validate(); err != nil {
				log := logging.FromContext(cmd.Context())
				log.Debug().Ctx(cmd.Context()).Err(err).Str("dataset", ds.Source).Msg("dataset validation failed")
				return fmt.Errorf("dataset %s is invalid: %w", ds.Source, err)
			}

			lossRates := "absent (only --loss-rates sampled is available)"
			if len(ds.LossRates) > 0 {
				lossRates = "complete"
			}
			cmd.Printf("Dataset %s is valid\n", ds.Source)
			cmd.Printf("  Schema version: %s\n", ds.SchemaVersion)
			cmd.Printf("  Meals: %d\n", len(ds.Meals))
			cmd.Printf("  Emission factors: %d\n", len(ds.Factors))
			cmd.Printf("  Loss rates: %s\n", lossRates)
			return nil
		},
	}
}

// NewDatasetMealsCmd creates the dataset meals command, which lists meals
// and their ingredient rows.
func NewDatasetMealsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "meals [file]",
		Short: "List the meals in a dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GetDatasetPath()
			if len(args) == 1 {
				path = args[0]
			}
			ds, err := dataset.LoadOrDefault(path)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(ds.Meals))
			for _, m := range ds.Meals {
				rows = append(rows, []string{
					m.Name,
					strconv.Itoa(len(m.Ingredients(emissions.PathwayMealKit))),
					strconv.Itoa(len(m.Ingredients(emissions.PathwayGrocery))),
				})
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("Meal", "Meal-kit rows", "Grocery rows").
				Rows(rows...).
				StyleFunc(func(_, _ int) lipgloss.Style { return lipgloss.NewStyle().Padding(0, 1) })
			cmd.Printf("Source: %s\n%s\n", ds.Source, t.String())
			return nil
		},
	}
}

// NewDatasetInitCmd creates the dataset init command, which writes the
// built-in dataset to a file as a starting point.
func NewDatasetInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "init <file>",
		Short:   "Write the built-in dataset to a file",
		Example: `  mealcarbon dataset init meals.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !force {
				_, err := os.Stat(path)
				if err == nil {
					return errors.New("dataset file already exists, use --force to overwrite")
				}
				if !os.IsNotExist(err) {
					return fmt.Errorf("cannot access dataset path %s: %w", path, err)
				}
			}
			//nolint:gosec // datasets are plain, shareable data files.
			if err := os.WriteFile(path, dataset.DefaultYAML(), 0o644); err != nil {
				return fmt.Errorf("writing dataset: %w", err)
			}
			cmd.Printf("Dataset written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
