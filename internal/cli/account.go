// Package cli provides the command-line interface for the journal application.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tradevault/internal/models"
)

// addAccountCommands adds trading account commands.
func addAccountCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Trading account management",
		Long:  "Manage trading accounts. Balances are always derived from the trade ledger.",
	}

	cmd.AddCommand(newAccountAddCmd(app))
	cmd.AddCommand(newAccountListCmd(app))
	cmd.AddCommand(newAccountShowCmd(app))
	cmd.AddCommand(newAccountUpdateCmd(app))
	cmd.AddCommand(newAccountDeleteCmd(app))

	rootCmd.AddCommand(cmd)
}

func findAccount(app *App, ref string) (models.TradingAccount, bool) {
	for _, a := range app.Store.Accounts() {
		if a.ID == ref || strings.HasPrefix(a.ID, ref) || strings.EqualFold(a.Name, ref) {
			return a, true
		}
	}
	return models.TradingAccount{}, false
}

func newAccountAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a trading account",
		Example: `  tradevault account add "FTMO 100k" --balance 100000 --broker FTMO --main
  tradevault account add Personal --balance 5000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			balance, _ := cmd.Flags().GetFloat64("balance")
			broker, _ := cmd.Flags().GetString("broker")
			main, _ := cmd.Flags().GetBool("main")

			account, err := app.Store.AddAccount(models.TradingAccount{
				Name:            args[0],
				Broker:          broker,
				StartingBalance: balance,
				IsMain:          main,
			})
			if err != nil {
				output.Error("Failed to add account: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(account)
			}
			output.Success("✓ Account added: %s (%s)", account.Name, FormatCurrency(account.StartingBalance))
			output.Dim("ID: %s", account.ID)
			return nil
		},
	}

	cmd.Flags().Float64("balance", 0, "starting balance")
	cmd.Flags().String("broker", "", "broker name")
	cmd.Flags().Bool("main", false, "mark as the main account")

	return cmd
}

func newAccountListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts with derived balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			accounts := app.Store.Accounts()

			if output.IsJSON() {
				type row struct {
					models.TradingAccount
					Balance float64 `json:"balance"`
				}
				rows := make([]row, 0, len(accounts))
				for _, a := range accounts {
					balance, _ := app.Store.AccountBalance(a.ID)
					rows = append(rows, row{TradingAccount: a, Balance: balance})
				}
				return output.JSON(rows)
			}

			if len(accounts) == 0 {
				output.Info("No accounts configured.")
				return nil
			}

			table := NewTable(output, "Name", "Broker", "Starting", "Balance", "Main", "ID")
			for _, a := range accounts {
				balance, _ := app.Store.AccountBalance(a.ID)
				mainMark := ""
				if a.IsMain {
					mainMark = "✓"
				}
				table.AddRow(
					a.Name,
					a.Broker,
					FormatCurrency(a.StartingBalance),
					output.ColoredString(output.PnLColor(balance-a.StartingBalance), FormatCurrency(balance)),
					mainMark,
					TruncateString(a.ID, 8),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newAccountShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <account>",
		Short: "Show an account with balance and stats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			account, ok := findAccount(app, args[0])
			if !ok {
				output.Error("Account not found: %s", args[0])
				return fmt.Errorf("account not found")
			}

			balance, err := app.Store.AccountBalance(account.ID)
			if err != nil {
				return err
			}
			stats, err := app.Store.AccountStats(account.ID)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"account": account,
					"balance": balance,
					"stats":   stats,
				})
			}

			output.Bold("%s", account.Name)
			if account.Broker != "" {
				output.Dim("Broker: %s", account.Broker)
			}
			output.Println()
			output.Printf("  Starting Balance: %s\n", FormatCurrency(account.StartingBalance))
			output.Printf("  Current Balance:  %s\n",
				output.ColoredString(output.PnLColor(balance-account.StartingBalance), FormatCurrency(balance)))
			output.Printf("  Net P&L:          %s\n", output.FormatPnL(stats.TotalPnL))
			output.Printf("  Commission Paid:  %s\n", FormatCurrency(stats.TotalCommission))
			output.Println()
			output.Printf("  Trades:           %d (%d open)\n", stats.Trades, stats.Open)
			output.Printf("  Wins/Losses/BE:   %d/%d/%d\n", stats.Wins, stats.Losses, stats.Breakeven)
			output.Printf("  Win Rate:         %s\n", FormatWinRate(stats.WinRate))
			return nil
		},
	}
}

func newAccountUpdateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <account>",
		Short: "Update an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			account, ok := findAccount(app, args[0])
			if !ok {
				output.Error("Account not found: %s", args[0])
				return fmt.Errorf("account not found")
			}

			if cmd.Flags().Changed("name") {
				account.Name, _ = cmd.Flags().GetString("name")
			}
			if cmd.Flags().Changed("balance") {
				account.StartingBalance, _ = cmd.Flags().GetFloat64("balance")
			}
			if cmd.Flags().Changed("broker") {
				account.Broker, _ = cmd.Flags().GetString("broker")
			}
			if cmd.Flags().Changed("main") {
				account.IsMain, _ = cmd.Flags().GetBool("main")
			}
			if cmd.Flags().Changed("hidden") {
				account.IsHidden, _ = cmd.Flags().GetBool("hidden")
			}

			if err := app.Store.UpdateAccount(account); err != nil {
				output.Error("Failed to update account: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(account)
			}
			output.Success("✓ Account updated: %s", account.Name)
			return nil
		},
	}

	cmd.Flags().String("name", "", "new account name")
	cmd.Flags().Float64("balance", 0, "new starting balance")
	cmd.Flags().String("broker", "", "new broker name")
	cmd.Flags().Bool("main", false, "set or clear the main flag")
	cmd.Flags().Bool("hidden", false, "hide the account from views")

	return cmd
}

func newAccountDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <account>",
		Short: "Delete an account",
		Long:  "Delete an account. Its trades are kept and simply stop appearing in that account's views.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			account, ok := findAccount(app, args[0])
			if !ok {
				output.Error("Account not found: %s", args[0])
				return fmt.Errorf("account not found")
			}

			if err := app.Store.DeleteAccount(account.ID); err != nil {
				output.Error("Failed to delete account: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": account.ID})
			}
			output.Success("✓ Account deleted: %s", account.Name)
			output.Dim("Trades belonging to this account were kept.")
			return nil
		},
	}
}
