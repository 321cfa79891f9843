package store

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradevault/internal/models"
)

// countingRemote wraps MemoryRemote to count migration upload calls.
type countingRemote struct {
	*MemoryRemote
	uploads    int
	singletons int
	onUpload   func()
}

func (c *countingRemote) UploadAll(ctx context.Context, owner, collection string, docs map[string]interface{}) error {
	c.uploads++
	if c.onUpload != nil {
		c.onUpload()
	}
	return c.MemoryRemote.UploadAll(ctx, owner, collection, docs)
}

func (c *countingRemote) SaveSingleton(ctx context.Context, owner, name string, value interface{}) error {
	c.singletons++
	return c.MemoryRemote.SaveSingleton(ctx, owner, name, value)
}

func seedLocal(t *testing.T, local *LocalStore) {
	t.Helper()
	require.NoError(t, local.SaveTrades([]models.Trade{
		models.NewTrade(models.Trade{Symbol: "EURUSD", Date: "2025-01-02", Side: models.SideLong, Status: models.StatusWin, PnL: 40}),
		models.NewTrade(models.Trade{Symbol: "GBPUSD", Date: "2025-01-03", Side: models.SideShort, Status: models.StatusLoss, PnL: -20}),
	}))
	require.NoError(t, local.SaveAccounts([]models.TradingAccount{
		models.NewTradingAccount(models.TradingAccount{Name: "Main", StartingBalance: 1000, IsMain: true}),
	}))
}

func TestMigrator_NoOpOnEmptyState(t *testing.T) {
	local := newTestLocal(t)
	remote := &countingRemote{MemoryRemote: NewMemoryRemote()}
	migrator := NewMigrator(local, remote, zerolog.Nop())

	require.NoError(t, migrator.Run(context.Background(), "user-a"))

	// Marker written without a single upload: future sign-ins never re-check.
	assert.True(t, local.MigrationDone("user-a"))
	assert.Zero(t, remote.uploads)
	assert.Zero(t, remote.singletons)
}

func TestMigrator_UploadsLocalDataOnce(t *testing.T) {
	local := newTestLocal(t)
	seedLocal(t, local)
	remote := &countingRemote{MemoryRemote: NewMemoryRemote()}
	migrator := NewMigrator(local, remote, zerolog.Nop())

	require.NoError(t, migrator.Run(context.Background(), "user-a"))
	assert.True(t, local.MigrationDone("user-a"))
	assert.Equal(t, 2, remote.DocCount("user-a", RemoteTrades))
	assert.Equal(t, 1, remote.DocCount("user-a", RemoteAccounts))

	// Second run short-circuits on the marker: no further uploads and no
	// duplicate documents.
	uploadsBefore := remote.uploads
	require.NoError(t, migrator.Run(context.Background(), "user-a"))
	assert.Equal(t, uploadsBefore, remote.uploads)
	assert.Equal(t, 2, remote.DocCount("user-a", RemoteTrades))
}

func TestMigrator_RerunAfterMarkerClearedCreatesNoDuplicates(t *testing.T) {
	local := newTestLocal(t)
	seedLocal(t, local)
	remote := &countingRemote{MemoryRemote: NewMemoryRemote()}
	migrator := NewMigrator(local, remote, zerolog.Nop())

	require.NoError(t, migrator.Run(context.Background(), "user-a"))
	require.NoError(t, local.ClearMigrationDone("user-a"))
	require.NoError(t, migrator.Run(context.Background(), "user-a"))

	// Upload is keyed by document ID, so at-least-once delivery stays
	// duplicate-free.
	assert.Equal(t, 2, remote.DocCount("user-a", RemoteTrades))
	assert.Equal(t, 1, remote.DocCount("user-a", RemoteAccounts))
}

func TestMigrator_FailureWithholdsMarker(t *testing.T) {
	local := newTestLocal(t)
	seedLocal(t, local)
	remote := &countingRemote{MemoryRemote: NewMemoryRemote()}
	remote.FailWrites = true
	migrator := NewMigrator(local, remote, zerolog.Nop())

	err := migrator.Run(context.Background(), "user-a")
	require.Error(t, err)
	assert.False(t, local.MigrationDone("user-a"))

	// Next sign-in retries from scratch and succeeds.
	remote.FailWrites = false
	require.NoError(t, migrator.Run(context.Background(), "user-a"))
	assert.True(t, local.MigrationDone("user-a"))
	assert.Equal(t, 2, remote.DocCount("user-a", RemoteTrades))
}

func TestMigrator_CancelMidFlightWithholdsMarker(t *testing.T) {
	local := newTestLocal(t)
	seedLocal(t, local)
	remote := &countingRemote{MemoryRemote: NewMemoryRemote()}
	migrator := NewMigrator(local, remote, zerolog.Nop())

	// Identity switches away while uploads are in progress; the run must
	// not claim completion for the abandoned identity.
	remote.onUpload = func() { migrator.Cancel("user-a") }

	require.NoError(t, migrator.Run(context.Background(), "user-a"))
	assert.False(t, local.MigrationDone("user-a"))
}

func TestMigrator_ForceSyncIgnoresMarker(t *testing.T) {
	local := newTestLocal(t)
	seedLocal(t, local)
	remote := &countingRemote{MemoryRemote: NewMemoryRemote()}
	migrator := NewMigrator(local, remote, zerolog.Nop())

	require.NoError(t, local.SetMigrationDone("user-a"))
	require.NoError(t, migrator.ForceSync(context.Background(), "user-a"))

	assert.Positive(t, remote.uploads)
	assert.Equal(t, 2, remote.DocCount("user-a", RemoteTrades))
	// ForceSync never mutates the marker.
	assert.True(t, local.MigrationDone("user-a"))
}
