// Package cli provides the command-line interface for the journal application.
package cli

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradevault/internal/models"
	"tradevault/internal/store"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	local, err := store.NewLocalStore(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	s := store.NewStore(local, nil, nil, t.TempDir(), zerolog.Nop())
	t.Cleanup(s.Close)

	return &App{Logger: zerolog.Nop(), Local: local, Store: s}
}

func runTradeAdd(t *testing.T, app *App, args ...string) {
	t.Helper()
	cmd := newTradeAddCmd(app)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
}

func TestDefaultTradeAccount(t *testing.T) {
	accounts := []models.TradingAccount{
		{ID: "a1", Name: "Funded"},
		{ID: "a2", Name: "Main", IsMain: true},
	}

	assert.Equal(t, "a2", defaultTradeAccount(accounts))
	assert.Equal(t, "", defaultTradeAccount(accounts[:1]))
	assert.Equal(t, "", defaultTradeAccount(nil))
}

func TestTradeAdd_DefaultsToMainAccount(t *testing.T) {
	app := newTestApp(t)
	main, err := app.Store.AddAccount(models.TradingAccount{Name: "Main", StartingBalance: 1000, IsMain: true})
	require.NoError(t, err)

	runTradeAdd(t, app, "EURUSD", "--side", "LONG", "--status", "WIN", "--pnl", "120")

	trades := app.Store.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, main.ID, trades[0].AccountID)
}

func TestTradeAdd_ExplicitEmptyAccountCountsEverywhere(t *testing.T) {
	app := newTestApp(t)
	_, err := app.Store.AddAccount(models.TradingAccount{Name: "Main", StartingBalance: 1000, IsMain: true})
	require.NoError(t, err)

	// --account "" is the escape hatch: the trade stays unassigned and
	// counts toward every account.
	runTradeAdd(t, app, "XAUUSD", "--side", "SHORT", "--status", "LOSS", "--pnl", "-45", "--account", "")

	trades := app.Store.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, "", trades[0].AccountID)
}

func TestTradeAdd_NoMainAccountLeavesTradeUnassigned(t *testing.T) {
	app := newTestApp(t)
	_, err := app.Store.AddAccount(models.TradingAccount{Name: "Scratch", StartingBalance: 500})
	require.NoError(t, err)

	runTradeAdd(t, app, "GBPUSD", "--side", "LONG", "--status", "OPEN")

	trades := app.Store.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, "", trades[0].AccountID)
}
