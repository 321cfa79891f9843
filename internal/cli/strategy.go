// Package cli provides the command-line interface for the journal application.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tradevault/internal/models"
)

// addStrategyCommands adds strategy playbook commands.
func addStrategyCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "strategy",
		Short: "Strategy playbook management",
		Long:  "Maintain trading strategies and their entry checklists.",
	}

	cmd.AddCommand(newStrategyAddCmd(app))
	cmd.AddCommand(newStrategyListCmd(app))
	cmd.AddCommand(newStrategyDeleteCmd(app))

	rootCmd.AddCommand(cmd)
}

func findStrategy(app *App, ref string) (models.Strategy, bool) {
	for _, s := range app.Store.Strategies() {
		if s.ID == ref || strings.HasPrefix(s.ID, ref) || strings.EqualFold(s.Title, ref) {
			return s, true
		}
	}
	return models.Strategy{}, false
}

func newStrategyAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a strategy",
		Example: `  tradevault strategy add "London breakout" --symbol GBPUSD --check "liquidity swept" --check "structure break"
  tradevault strategy add "Supply and demand"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			symbol, _ := cmd.Flags().GetString("symbol")
			checks, _ := cmd.Flags().GetStringArray("check")

			checklist := make([]models.ChecklistItem, 0, len(checks))
			for _, text := range checks {
				checklist = append(checklist, models.ChecklistItem{Text: text})
			}

			strategy, err := app.Store.AddStrategy(models.Strategy{
				Title:     args[0],
				Symbol:    strings.ToUpper(symbol),
				Checklist: checklist,
			})
			if err != nil {
				output.Error("Failed to add strategy: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(strategy)
			}
			output.Success("✓ Strategy added: %s (%s)", strategy.Title, strategy.Symbol)
			output.Dim("ID: %s", strategy.ID)
			return nil
		},
	}

	cmd.Flags().String("symbol", "", "symbol the strategy applies to (default: GENERAL)")
	cmd.Flags().StringArray("check", nil, "checklist item (repeatable)")

	return cmd
}

func newStrategyListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			strategies := app.Store.Strategies()

			if output.IsJSON() {
				return output.JSON(strategies)
			}

			if len(strategies) == 0 {
				output.Info("No strategies defined.")
				return nil
			}

			for _, s := range strategies {
				output.Bold("%s (%s)", s.Title, s.Symbol)
				for _, item := range s.Checklist {
					mark := "☐"
					if item.Checked {
						mark = "☑"
					}
					output.Printf("  %s %s\n", mark, item.Text)
				}
				output.Dim("ID: %s", TruncateString(s.ID, 8))
				output.Println()
			}
			return nil
		},
	}
}

func newStrategyDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <strategy>",
		Short: "Delete a strategy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			strategy, ok := findStrategy(app, args[0])
			if !ok {
				output.Error("Strategy not found: %s", args[0])
				return fmt.Errorf("strategy not found")
			}

			if err := app.Store.DeleteStrategy(strategy.ID); err != nil {
				output.Error("Failed to delete strategy: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": strategy.ID})
			}
			output.Success("✓ Strategy deleted: %s", strategy.Title)
			return nil
		},
	}
}
