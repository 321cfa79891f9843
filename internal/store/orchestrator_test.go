package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tradevault/internal/errors"
	"tradevault/internal/models"
)

// stubRemote records writes and lets tests fire snapshots by hand, so
// authority transitions can be driven step by step.
type stubRemote struct {
	mu      sync.Mutex
	subs    map[string]func(Snapshot)
	singles map[string]func(json.RawMessage)
	writes  []string
}

func newStubRemote() *stubRemote {
	return &stubRemote{
		subs:    make(map[string]func(Snapshot)),
		singles: make(map[string]func(json.RawMessage)),
	}
}

func (r *stubRemote) record(op, collection, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, fmt.Sprintf("%s:%s:%s", op, collection, id))
}

func (r *stubRemote) CreateDoc(_ context.Context, _, collection, id string, _ interface{}) error {
	r.record("create", collection, id)
	return nil
}

func (r *stubRemote) UpdateDoc(_ context.Context, _, collection, id string, _ interface{}) error {
	r.record("update", collection, id)
	return nil
}

func (r *stubRemote) DeleteDoc(_ context.Context, _, collection, id string) error {
	r.record("delete", collection, id)
	return nil
}

func (r *stubRemote) UploadAll(_ context.Context, _, collection string, docs map[string]interface{}) error {
	r.record("upload", collection, fmt.Sprintf("%d", len(docs)))
	return nil
}

func (r *stubRemote) Subscribe(_, collection string, fn func(Snapshot)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[collection] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, collection)
	}
}

func (r *stubRemote) SaveSingleton(_ context.Context, _, name string, _ interface{}) error {
	r.record("save", name, "")
	return nil
}

func (r *stubRemote) SubscribeSingleton(_, name string, fn func(json.RawMessage)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.singles[name] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.singles, name)
	}
}

func (r *stubRemote) Close() error { return nil }

// fire delivers a snapshot built from the given documents.
func (r *stubRemote) fire(t *testing.T, collection string, pending, fromCache bool, docs ...interface{}) {
	t.Helper()
	r.mu.Lock()
	fn := r.subs[collection]
	r.mu.Unlock()
	require.NotNil(t, fn, "no subscriber for %s", collection)

	snap := Snapshot{HasPendingWrites: pending, FromCache: fromCache}
	for _, doc := range docs {
		raw, err := json.Marshal(doc)
		require.NoError(t, err)
		snap.Docs = append(snap.Docs, raw)
	}
	fn(snap)
}

func (r *stubRemote) writeLog() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.writes...)
}

func newTestStore(t *testing.T, remote RemoteStore) (*Store, *LocalStore) {
	t.Helper()
	local := newTestLocal(t)
	migrator := NewMigrator(local, remote, zerolog.Nop())
	s := NewStore(local, remote, migrator, t.TempDir(), zerolog.Nop())
	t.Cleanup(s.Close)
	return s, local
}

func cloudTrade(symbol string) models.Trade {
	return models.NewTrade(models.Trade{
		Symbol: symbol, Date: "2025-02-02", Side: models.SideShort, Status: models.StatusWin, PnL: 10,
	})
}

func TestStore_LocalAuthorityPersistsMutations(t *testing.T) {
	s, local := newTestStore(t, newStubRemote())

	added, err := s.AddTrade(models.Trade{Symbol: "EURUSD", Date: "2025-01-10", Side: models.SideLong, Status: models.StatusOpen})
	require.NoError(t, err)

	assert.Equal(t, AuthorityLocal, s.Authority())
	persisted := local.LoadTrades()
	require.Len(t, persisted, 1)
	assert.Equal(t, added.ID, persisted[0].ID)
}

func TestStore_AddTradeRejectsInvalidInput(t *testing.T) {
	s, local := newTestStore(t, newStubRemote())

	_, err := s.AddTrade(models.Trade{Symbol: "EURUSD", Date: "2025-01-10", Side: "DIAGONAL", Status: models.StatusOpen})
	require.Error(t, err)
	assert.Empty(t, s.Trades())
	assert.Empty(t, local.LoadTrades())
}

func TestStore_UpdateAndDeleteTrade(t *testing.T) {
	s, local := newTestStore(t, newStubRemote())

	added, err := s.AddTrade(models.Trade{Symbol: "EURUSD", Date: "2025-01-10", Side: models.SideLong, Status: models.StatusOpen})
	require.NoError(t, err)

	status := models.StatusWin
	pnl := 85.0
	updated, err := s.UpdateTrade(added.ID, models.TradeUpdate{Status: &status, PnL: &pnl})
	require.NoError(t, err)
	assert.Equal(t, models.StatusWin, updated.Status)
	assert.Equal(t, 85.0, local.LoadTrades()[0].PnL)

	require.NoError(t, s.DeleteTrade(added.ID))
	assert.Empty(t, s.Trades())
	assert.Empty(t, local.LoadTrades())

	assert.ErrorIs(t, s.DeleteTrade("missing"), apperrors.ErrTradeNotFound)
}

func TestStore_SignInClearsStateAndSuppressesLocalWrites(t *testing.T) {
	remote := newStubRemote()
	s, local := newTestStore(t, remote)

	seeded, err := s.AddTrade(models.Trade{Symbol: "EURUSD", Date: "2025-01-10", Side: models.SideLong, Status: models.StatusWin, PnL: 50})
	require.NoError(t, err)
	require.NoError(t, local.SetMigrationDone("user-a"))

	require.NoError(t, s.SignIn("user-a"))

	// Stale previous-identity data must never show.
	assert.Empty(t, s.Trades())
	assert.Equal(t, AuthorityCloudInit, s.Authority())

	// A mutation before the first snapshot is optimistic in memory and goes
	// to the remote, but must NOT clobber the local backup.
	_, err = s.AddTrade(models.Trade{Symbol: "GBPJPY", Date: "2025-01-11", Side: models.SideShort, Status: models.StatusOpen})
	require.NoError(t, err)
	assert.Len(t, s.Trades(), 1)

	persisted := local.LoadTrades()
	require.Len(t, persisted, 1)
	assert.Equal(t, seeded.ID, persisted[0].ID)
}

func TestStore_FirstTradesSnapshotPromotesToCloudReady(t *testing.T) {
	remote := newStubRemote()
	s, local := newTestStore(t, remote)
	require.NoError(t, local.SetMigrationDone("user-a"))

	require.NoError(t, s.SignIn("user-a"))
	require.Equal(t, AuthorityCloudInit, s.Authority())

	remoteTrade := cloudTrade("XAUUSD")
	remote.fire(t, RemoteTrades, false, false, remoteTrade)

	assert.Equal(t, AuthorityCloudReady, s.Authority())
	assert.Equal(t, SyncSynced, s.SyncStatus())

	trades := s.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, remoteTrade.ID, trades[0].ID)
}

func TestStore_SnapshotsReplaceCollectionsWholesale(t *testing.T) {
	remote := newStubRemote()
	s, local := newTestStore(t, remote)
	require.NoError(t, local.SetMigrationDone("user-a"))
	require.NoError(t, s.SignIn("user-a"))

	remote.fire(t, RemoteTrades, false, false, cloudTrade("XAUUSD"), cloudTrade("EURUSD"))
	require.Len(t, s.Trades(), 2)

	// The next snapshot is a full replacement, not a merge.
	only := cloudTrade("GBPUSD")
	remote.fire(t, RemoteTrades, false, false, only)
	trades := s.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, only.ID, trades[0].ID)

	account := models.NewTradingAccount(models.TradingAccount{Name: "Funded", StartingBalance: 5000})
	remote.fire(t, RemoteAccounts, false, false, account)
	accounts := s.Accounts()
	require.Len(t, accounts, 1)
	assert.Equal(t, account.ID, accounts[0].ID)
}

func TestStore_SyncStatusTransitions(t *testing.T) {
	remote := newStubRemote()
	s, local := newTestStore(t, remote)
	require.NoError(t, local.SetMigrationDone("user-a"))
	require.NoError(t, s.SignIn("user-a"))

	assert.Equal(t, SyncSyncing, s.SyncStatus())

	remote.fire(t, RemoteTrades, true, false)
	assert.Equal(t, SyncSyncing, s.SyncStatus())

	remote.fire(t, RemoteTrades, false, true)
	assert.Equal(t, SyncSyncing, s.SyncStatus())

	remote.fire(t, RemoteTrades, false, false)
	assert.Equal(t, SyncSynced, s.SyncStatus())

	// The network signal only affects displayed status.
	s.SetNetworkOnline(false)
	assert.Equal(t, SyncOffline, s.SyncStatus())
	s.SetNetworkOnline(true)
	assert.Equal(t, SyncSynced, s.SyncStatus())
}

func TestStore_SignOutRestoresLocalSnapshot(t *testing.T) {
	remote := newStubRemote()
	s, local := newTestStore(t, remote)

	seeded, err := s.AddTrade(models.Trade{Symbol: "EURUSD", Date: "2025-01-10", Side: models.SideLong, Status: models.StatusWin, PnL: 50})
	require.NoError(t, err)
	require.NoError(t, local.SetMigrationDone("user-a"))

	require.NoError(t, s.SignIn("user-a"))
	remote.fire(t, RemoteTrades, false, false, cloudTrade("XAUUSD"), cloudTrade("USDJPY"))
	require.Len(t, s.Trades(), 2)

	s.SignOut()

	// Cloud data must not leak past sign-out; the pre-sign-in local
	// snapshot comes back exactly.
	assert.Equal(t, AuthorityLocal, s.Authority())
	trades := s.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, seeded.ID, trades[0].ID)
}

func TestStore_CloudMutationsIssueRemoteWrites(t *testing.T) {
	remote := newStubRemote()
	s, local := newTestStore(t, remote)
	require.NoError(t, local.SetMigrationDone("user-a"))
	require.NoError(t, s.SignIn("user-a"))
	remote.fire(t, RemoteTrades, false, false)

	added, err := s.AddTrade(models.Trade{Symbol: "XAUUSD", Date: "2025-01-12", Side: models.SideLong, Status: models.StatusOpen})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		for _, w := range remote.writeLog() {
			if w == "create:trades:"+added.ID {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	// Cloud authority: the local backup stays untouched.
	assert.Empty(t, local.LoadTrades())
}

func TestStore_DeleteAccountDoesNotCascadeToTrades(t *testing.T) {
	s, _ := newTestStore(t, newStubRemote())

	account, err := s.AddAccount(models.TradingAccount{Name: "Main", StartingBalance: 1000})
	require.NoError(t, err)
	_, err = s.AddTrade(models.Trade{Symbol: "EURUSD", Date: "2025-01-10", Side: models.SideLong, Status: models.StatusWin, PnL: 10, AccountID: account.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteAccount(account.ID))

	assert.Empty(t, s.Accounts())
	trades := s.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, account.ID, trades[0].AccountID)
}

func TestStore_AccountBalanceRecomputed(t *testing.T) {
	s, _ := newTestStore(t, newStubRemote())

	account, err := s.AddAccount(models.TradingAccount{Name: "Main", StartingBalance: 1000})
	require.NoError(t, err)

	balance, err := s.AccountBalance(account.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, balance)

	added, err := s.AddTrade(models.Trade{Symbol: "EURUSD", Date: "2025-01-10", Side: models.SideLong, Status: models.StatusWin, PnL: 150, Commission: 5, AccountID: account.ID})
	require.NoError(t, err)

	balance, err = s.AccountBalance(account.ID)
	require.NoError(t, err)
	assert.Equal(t, 1145.0, balance)

	excluded := false
	_, err = s.UpdateTrade(added.ID, models.TradeUpdate{IncludeInAccount: &excluded})
	require.NoError(t, err)

	balance, err = s.AccountBalance(account.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, balance)

	_, err = s.AccountBalance("missing")
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
}

func TestStore_AutoExportTriggeredByAddTrade(t *testing.T) {
	remote := newStubRemote()
	local := newTestLocal(t)
	backupDir := t.TempDir()
	migrator := NewMigrator(local, remote, zerolog.Nop())
	s := NewStore(local, remote, migrator, backupDir, zerolog.Nop())
	defer s.Close()

	s.SaveSettings(models.AppSettings{AutoExport: true})

	_, err := s.AddTrade(models.Trade{Symbol: "EURUSD", Date: "2025-01-10", Side: models.SideLong, Status: models.StatusWin, PnL: 50})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		entries, err := os.ReadDir(backupDir)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return s.Settings().LastExportDate != ""
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStore_RapidMutationsStayConsistent(t *testing.T) {
	s, local := newTestStore(t, newStubRemote())

	for i := 0; i < 25; i++ {
		_, err := s.AddTrade(models.Trade{Symbol: "EURUSD", Date: "2025-01-10", Side: models.SideLong, Status: models.StatusOpen})
		require.NoError(t, err)
	}

	assert.Len(t, s.Trades(), 25)
	assert.Len(t, local.LoadTrades(), 25)
}
