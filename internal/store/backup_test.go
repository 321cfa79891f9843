package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tradevault/internal/errors"
	"tradevault/internal/models"
)

func seedStoreForBackup(t *testing.T) *Store {
	t.Helper()
	s, _ := newTestStore(t, newStubRemote())

	_, err := s.AddAccount(models.TradingAccount{Name: "Main", StartingBalance: 1000, IsMain: true})
	require.NoError(t, err)
	_, err = s.AddTrade(models.Trade{Symbol: "EURUSD", Date: "2025-01-10", Side: models.SideLong, Status: models.StatusWin, PnL: 120, Commission: 4})
	require.NoError(t, err)
	_, err = s.AddStrategy(models.Strategy{Title: "Breakout"})
	require.NoError(t, err)
	_, err = s.AddTag(models.Tag{Label: "FOMO", Category: models.TagMistake})
	require.NoError(t, err)
	s.SaveProfile(models.UserProfile{Name: "Dana", Avatar: "fox"})
	return s
}

func TestBackup_ExportSnapshotShape(t *testing.T) {
	s := seedStoreForBackup(t)

	backup := s.ExportSnapshot()
	assert.Equal(t, BackupVersion, backup.Version)
	assert.NotEmpty(t, backup.ExportDate)
	assert.Len(t, backup.Trades, 1)
	assert.Len(t, backup.Accounts, 1)
	assert.Len(t, backup.Strategies, 1)
	assert.Len(t, backup.Tags, 1)
	assert.Equal(t, "Dana", backup.User.Name)
}

func TestBackup_WriteThenImportRoundTrip(t *testing.T) {
	src := seedStoreForBackup(t)
	origTrades := src.Trades()
	origAccounts := src.Accounts()

	dir := t.TempDir()
	path, err := src.WriteBackup(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))

	dst, dstLocal := newTestStore(t, newStubRemote())
	result, err := dst.ImportBackupFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TradesImported)
	assert.Equal(t, 1, result.AccountsImported)

	trades := dst.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, origTrades[0].ID, trades[0].ID)
	assert.Equal(t, origTrades[0].Commission, trades[0].Commission)

	accounts := dst.Accounts()
	require.Len(t, accounts, 1)
	assert.Equal(t, origAccounts[0].ID, accounts[0].ID)

	assert.Equal(t, "Dana", dst.Profile().Name)

	// Import writes through to the local store under local authority.
	assert.Len(t, dstLocal.LoadTrades(), 1)
	assert.Len(t, dstLocal.LoadAccounts(), 1)
}

func TestBackup_ImportEmptyTradesKeepsAbsentCollections(t *testing.T) {
	s := seedStoreForBackup(t)
	require.Len(t, s.Accounts(), 1)

	// A minimal file: version plus an empty trades array, nothing else.
	// Trades are replaced (emptied); the untouched keys survive.
	result, err := s.ImportSnapshot([]byte(`{"version":"1.0","trades":[]}`))
	require.NoError(t, err)
	assert.Zero(t, result.TradesImported)
	assert.Zero(t, result.AccountsImported)

	assert.Empty(t, s.Trades())
	assert.Len(t, s.Accounts(), 1)
	assert.Len(t, s.Strategies(), 1)
	assert.Len(t, s.Tags(), 1)
	assert.Equal(t, "Dana", s.Profile().Name)
}

func TestBackup_ImportPresentEmptyCollectionsReplace(t *testing.T) {
	s := seedStoreForBackup(t)

	_, err := s.ImportSnapshot([]byte(`{"version":"1.0","trades":[],"accounts":[],"tags":[]}`))
	require.NoError(t, err)

	assert.Empty(t, s.Trades())
	assert.Empty(t, s.Accounts())
	assert.Empty(t, s.Tags())
	// Strategies were absent from the file and survive.
	assert.Len(t, s.Strategies(), 1)
}

func TestBackup_ImportRejectsMissingVersion(t *testing.T) {
	s := seedStoreForBackup(t)

	_, err := s.ImportSnapshot([]byte(`{"trades":[]}`))
	require.Error(t, err)
	ie, ok := apperrors.IsImportError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.MsgInvalidBackupFormat, ie.Message)

	// Nothing was applied.
	assert.Len(t, s.Trades(), 1)
}

func TestBackup_ImportRejectsMissingTrades(t *testing.T) {
	s := seedStoreForBackup(t)

	for _, payload := range []string{
		`{"version":"1.0"}`,
		`{"version":"1.0","trades":null}`,
		`{"version":"1.0","trades":"oops"}`,
	} {
		_, err := s.ImportSnapshot([]byte(payload))
		require.Error(t, err, "payload %s", payload)
		ie, ok := apperrors.IsImportError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.MsgInvalidBackupFormat, ie.Message)
	}
	assert.Len(t, s.Trades(), 1)
}

func TestBackup_ImportRejectsMalformedOptionalCollection(t *testing.T) {
	s := seedStoreForBackup(t)

	_, err := s.ImportSnapshot([]byte(`{"version":"1.0","trades":[],"accounts":"bad"}`))
	require.Error(t, err)
	ie, ok := apperrors.IsImportError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.MsgInvalidBackupFormat, ie.Message)

	// A bad optional key rejects the whole file, trades included.
	assert.Len(t, s.Trades(), 1)
	assert.Len(t, s.Accounts(), 1)
}

func TestBackup_ImportRejectsNonJSON(t *testing.T) {
	s := seedStoreForBackup(t)

	_, err := s.ImportSnapshot([]byte("definitely not json"))
	require.Error(t, err)
	ie, ok := apperrors.IsImportError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.MsgBackupParseFailed, ie.Message)
}

func TestBackup_ImportFileReadFailure(t *testing.T) {
	s := seedStoreForBackup(t)

	_, err := s.ImportBackupFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	ie, ok := apperrors.IsImportError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.MsgBackupReadFailed, ie.Message)
}

func TestBackup_WrittenFileIsValidJSON(t *testing.T) {
	s := seedStoreForBackup(t)

	path, err := s.WriteBackup(t.TempDir())
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded BackupFile
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, BackupVersion, decoded.Version)
	assert.Len(t, decoded.Trades, 1)
}

// Property: export followed by import restores every collection exactly,
// regardless of contents.
func TestProperty_BackupRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40

	properties := gopter.NewProperties(parameters)

	properties.Property("import(export(state)) == state", prop.ForAll(
		func(tradeCount, accountCount int) bool {
			src, _ := newTestStore(t, newStubRemote())
			for i := 0; i < tradeCount; i++ {
				if _, err := src.AddTrade(models.Trade{Symbol: "EURUSD", Date: "2025-01-10", Side: models.SideLong, Status: models.StatusWin, PnL: float64(i * 10)}); err != nil {
					return false
				}
			}
			for i := 0; i < accountCount; i++ {
				if _, err := src.AddAccount(models.TradingAccount{Name: "Acct", StartingBalance: float64(1000 + i)}); err != nil {
					return false
				}
			}

			data, err := json.Marshal(src.ExportSnapshot())
			if err != nil {
				return false
			}

			dst, _ := newTestStore(t, newStubRemote())
			if _, err := dst.ImportSnapshot(data); err != nil {
				return false
			}

			srcTrades, dstTrades := src.Trades(), dst.Trades()
			if len(srcTrades) != len(dstTrades) {
				return false
			}
			for i := range srcTrades {
				if srcTrades[i].ID != dstTrades[i].ID || srcTrades[i].PnL != dstTrades[i].PnL {
					return false
				}
			}
			srcAccounts, dstAccounts := src.Accounts(), dst.Accounts()
			if len(srcAccounts) != len(dstAccounts) {
				return false
			}
			for i := range srcAccounts {
				if srcAccounts[i].ID != dstAccounts[i].ID || srcAccounts[i].StartingBalance != dstAccounts[i].StartingBalance {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 12),
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}
