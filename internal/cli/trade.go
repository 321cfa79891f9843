// Package cli provides the command-line interface for the journal application.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tradevault/internal/models"
)

// addTradeCommands adds trade ledger commands.
func addTradeCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Trade ledger management",
		Long:  "Record, review, update, and delete journal trades.",
	}

	cmd.AddCommand(newTradeAddCmd(app))
	cmd.AddCommand(newTradeListCmd(app))
	cmd.AddCommand(newTradeShowCmd(app))
	cmd.AddCommand(newTradeUpdateCmd(app))
	cmd.AddCommand(newTradeDeleteCmd(app))

	rootCmd.AddCommand(cmd)
}

func requireStore(app *App) error {
	if app.Store == nil {
		return fmt.Errorf("local store unavailable")
	}
	return nil
}

// defaultTradeAccount picks the account a new trade lands in when the user
// names none. Without a main account the ID stays empty, which keeps the
// trade counting toward every account.
func defaultTradeAccount(accounts []models.TradingAccount) string {
	if main := models.MainAccount(accounts); main != nil {
		return main.ID
	}
	return ""
}

func newTradeAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <symbol>",
		Short: "Record a trade",
		Long: `Record a trade in the journal.

Commission may be entered as a positive fee; it is stored as a deduction
either way. When --account is omitted the trade is assigned to the main
account; pass --account "" to record a trade counting toward every
account.`,
		Example: `  tradevault trade add EURUSD --side LONG --status WIN --pnl 150
  tradevault trade add XAUUSD --side SHORT --status LOSS --pnl -80 --commission 4.5 --account main
  tradevault trade add GBPJPY --side LONG --status OPEN --session LONDON --risk 50 --tp 150`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			side, _ := cmd.Flags().GetString("side")
			status, _ := cmd.Flags().GetString("status")
			date, _ := cmd.Flags().GetString("date")
			session, _ := cmd.Flags().GetString("session")
			pnl, _ := cmd.Flags().GetFloat64("pnl")
			commission, _ := cmd.Flags().GetFloat64("commission")
			accountID, _ := cmd.Flags().GetString("account")
			risk, _ := cmd.Flags().GetFloat64("risk")
			tp, _ := cmd.Flags().GetFloat64("tp")
			notes, _ := cmd.Flags().GetString("notes")
			emotion, _ := cmd.Flags().GetString("emotion")

			if date == "" {
				date = time.Now().Format("2006-01-02")
			}
			if !cmd.Flags().Changed("account") {
				accountID = defaultTradeAccount(app.Store.Accounts())
			}

			trade, err := app.Store.AddTrade(models.Trade{
				Symbol:     strings.ToUpper(args[0]),
				Date:       date,
				Session:    models.Session(strings.ToUpper(session)),
				Side:       models.Side(strings.ToUpper(side)),
				Status:     models.TradeStatus(strings.ToUpper(status)),
				PnL:        pnl,
				Commission: commission,
				AccountID:  accountID,
				RiskAmount: risk,
				TPAmount:   tp,
				Notes:      notes,
				Emotion:    emotion,
			})
			if err != nil {
				output.Error("Failed to record trade: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(trade)
			}
			output.Success("✓ Trade recorded: %s %s %s", trade.Symbol, trade.Side, output.FormatPnL(trade.PnL))
			output.Dim("ID: %s", trade.ID)
			return nil
		},
	}

	cmd.Flags().String("side", "", "trade direction: LONG or SHORT (required)")
	cmd.Flags().String("status", "OPEN", "outcome: OPEN, WIN, LOSS, or BE")
	cmd.Flags().String("date", "", "trade date YYYY-MM-DD (default: today)")
	cmd.Flags().String("session", "", "market session: LONDON, NEWYORK, ASIA, SYDNEY")
	cmd.Flags().Float64("pnl", 0, "realized profit or loss")
	cmd.Flags().Float64("commission", 0, "commission paid (stored as a deduction)")
	cmd.Flags().String("account", "", "account ID the trade belongs to (default: the main account)")
	cmd.Flags().Float64("risk", 0, "risked amount")
	cmd.Flags().Float64("tp", 0, "take-profit amount")
	cmd.Flags().String("notes", "", "free-form notes")
	cmd.Flags().String("emotion", "", "emotional state during the trade")
	cmd.MarkFlagRequired("side")

	return cmd
}

func newTradeListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			accountID, _ := cmd.Flags().GetString("account")
			status, _ := cmd.Flags().GetString("status")
			symbol, _ := cmd.Flags().GetString("symbol")
			limit, _ := cmd.Flags().GetInt("limit")

			trades := app.Store.Trades()
			filtered := trades[:0:0]
			for _, t := range trades {
				if accountID != "" && !t.CountsToward(accountID) {
					continue
				}
				if status != "" && !strings.EqualFold(string(t.Status), status) {
					continue
				}
				if symbol != "" && !strings.EqualFold(t.Symbol, symbol) {
					continue
				}
				filtered = append(filtered, t)
			}
			if limit > 0 && len(filtered) > limit {
				filtered = filtered[len(filtered)-limit:]
			}

			if output.IsJSON() {
				return output.JSON(filtered)
			}

			if len(filtered) == 0 {
				output.Info("No trades recorded.")
				return nil
			}

			table := NewTable(output, "Date", "Symbol", "Side", "Status", "P&L", "Comm", "R:R", "ID")
			for _, t := range filtered {
				table.AddRow(
					FormatDate(t.Date),
					t.Symbol,
					string(t.Side),
					string(t.Status),
					output.FormatPnL(t.PnL),
					FormatCurrency(t.Commission),
					FormatRiskReward(t.RiskReward()),
					TruncateString(t.ID, 8),
				)
			}
			table.Render()
			output.Println()
			output.Dim("%d trade(s)", len(filtered))
			return nil
		},
	}

	cmd.Flags().String("account", "", "only trades counting toward this account")
	cmd.Flags().String("status", "", "filter by outcome")
	cmd.Flags().String("symbol", "", "filter by symbol")
	cmd.Flags().Int("limit", 0, "show at most N most recent trades")

	return cmd
}

func findTrade(app *App, idPrefix string) (models.Trade, bool) {
	for _, t := range app.Store.Trades() {
		if t.ID == idPrefix || strings.HasPrefix(t.ID, idPrefix) {
			return t, true
		}
	}
	return models.Trade{}, false
}

func newTradeShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <trade-id>",
		Short: "Show a trade in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			trade, ok := findTrade(app, args[0])
			if !ok {
				output.Error("Trade not found: %s", args[0])
				return fmt.Errorf("trade not found")
			}

			if output.IsJSON() {
				return output.JSON(trade)
			}

			output.Bold("%s %s on %s", trade.Symbol, trade.Side, FormatDate(trade.Date))
			output.Println()
			output.Printf("  Status:      %s\n", trade.Status)
			output.Printf("  P&L:         %s\n", output.FormatPnL(trade.PnL))
			output.Printf("  Commission:  %s\n", FormatCurrency(trade.Commission))
			if trade.Session != "" {
				output.Printf("  Session:     %s\n", trade.Session)
			}
			if trade.RiskAmount != 0 {
				output.Printf("  Risk/TP:     %s / %s (%s)\n",
					FormatCurrency(trade.RiskAmount), FormatCurrency(trade.TPAmount), FormatRiskReward(trade.RiskReward()))
			}
			if trade.AccountID != "" {
				output.Printf("  Account:     %s\n", trade.AccountID)
			} else {
				output.Printf("  Account:     (all accounts)\n")
			}
			if !trade.Included() {
				output.Warning("  Excluded from balance aggregation")
			}
			if trade.Emotion != "" {
				output.Printf("  Emotion:     %s\n", trade.Emotion)
			}
			if trade.Notes != "" {
				output.Printf("  Notes:       %s\n", trade.Notes)
			}
			output.Println()
			output.Dim("ID: %s  Recorded: %s", trade.ID, FormatTimestamp(trade.CreatedAt))
			return nil
		},
	}
}

func newTradeUpdateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <trade-id>",
		Short: "Update a trade",
		Long:  "Update individual fields of a trade. Only flags you pass are changed.",
		Example: `  tradevault trade update a1b2c3 --status WIN --pnl 210
  tradevault trade update a1b2c3 --exclude`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			trade, ok := findTrade(app, args[0])
			if !ok {
				output.Error("Trade not found: %s", args[0])
				return fmt.Errorf("trade not found")
			}

			var update models.TradeUpdate
			if cmd.Flags().Changed("status") {
				v, _ := cmd.Flags().GetString("status")
				status := models.TradeStatus(strings.ToUpper(v))
				update.Status = &status
			}
			if cmd.Flags().Changed("pnl") {
				v, _ := cmd.Flags().GetFloat64("pnl")
				update.PnL = &v
			}
			if cmd.Flags().Changed("commission") {
				v, _ := cmd.Flags().GetFloat64("commission")
				update.Commission = &v
			}
			if cmd.Flags().Changed("account") {
				v, _ := cmd.Flags().GetString("account")
				update.AccountID = &v
			}
			if cmd.Flags().Changed("notes") {
				v, _ := cmd.Flags().GetString("notes")
				update.Notes = &v
			}
			if cmd.Flags().Changed("emotion") {
				v, _ := cmd.Flags().GetString("emotion")
				update.Emotion = &v
			}
			if cmd.Flags().Changed("exclude") {
				v, _ := cmd.Flags().GetBool("exclude")
				include := !v
				update.IncludeInAccount = &include
			}

			updated, err := app.Store.UpdateTrade(trade.ID, update)
			if err != nil {
				output.Error("Failed to update trade: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(updated)
			}
			output.Success("✓ Trade updated: %s %s %s", updated.Symbol, updated.Status, output.FormatPnL(updated.PnL))
			return nil
		},
	}

	cmd.Flags().String("status", "", "new outcome")
	cmd.Flags().Float64("pnl", 0, "new P&L")
	cmd.Flags().Float64("commission", 0, "new commission")
	cmd.Flags().String("account", "", "new account ID")
	cmd.Flags().String("notes", "", "new notes")
	cmd.Flags().String("emotion", "", "new emotion")
	cmd.Flags().Bool("exclude", false, "exclude the trade from balance aggregation")

	return cmd
}

func newTradeDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <trade-id>",
		Short: "Delete a trade permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			trade, ok := findTrade(app, args[0])
			if !ok {
				output.Error("Trade not found: %s", args[0])
				return fmt.Errorf("trade not found")
			}

			if err := app.Store.DeleteTrade(trade.ID); err != nil {
				output.Error("Failed to delete trade: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": trade.ID})
			}
			output.Success("✓ Trade deleted: %s %s", trade.Symbol, FormatDate(trade.Date))
			return nil
		},
	}
}
