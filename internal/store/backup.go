package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperrors "tradevault/internal/errors"
	"tradevault/internal/models"
)

// BackupVersion is the current backup file format version.
const BackupVersion = "1.0"

// BackupUser is the profile summary carried in a backup file.
type BackupUser struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// BackupFile is the complete, self-describing export format. A consumer
// validates Version and the presence of the trades array before trusting
// the rest.
type BackupFile struct {
	Version    string                  `json:"version"`
	ExportDate string                  `json:"exportDate"`
	Trades     []models.Trade          `json:"trades"`
	Accounts   []models.TradingAccount `json:"accounts"`
	Strategies []models.Strategy       `json:"strategies"`
	Tags       []models.Tag            `json:"tags"`
	User       BackupUser              `json:"user"`
}

// backupProbe mirrors BackupFile with raw fields so import can tell an
// absent key apart from an empty one: absent keys are preserved, present
// keys replace wholesale.
type backupProbe struct {
	Version    *string          `json:"version"`
	Trades     *json.RawMessage `json:"trades"`
	Accounts   *json.RawMessage `json:"accounts"`
	Strategies *json.RawMessage `json:"strategies"`
	Tags       *json.RawMessage `json:"tags"`
	User       *BackupUser      `json:"user"`
}

// ImportResult reports what a successful import replaced.
type ImportResult struct {
	TradesImported   int `json:"tradesImported"`
	AccountsImported int `json:"accountsImported"`
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ExportSnapshot builds a backup object from the current in-memory state.
func (s *Store) ExportSnapshot() BackupFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BackupFile{
		Version:    BackupVersion,
		ExportDate: nowISO(),
		Trades:     append([]models.Trade(nil), s.trades...),
		Accounts:   append([]models.TradingAccount(nil), s.accounts...),
		Strategies: append([]models.Strategy(nil), s.strategies...),
		Tags:       append([]models.Tag(nil), s.tags...),
		User:       BackupUser{Name: s.profile.Name, Avatar: s.profile.Avatar},
	}
}

// WriteBackup exports the current state to a date-stamped JSON file in dir
// and returns the written path.
func (s *Store) WriteBackup(dir string) (string, error) {
	backup := s.ExportSnapshot()
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode backup: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("tradevault-backup-%s.json", time.Now().Format("2006-01-02"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return path, nil
}

// ImportSnapshot validates raw backup bytes and wholesale-replaces every
// collection the file carries. Keys absent from the file are left
// untouched (older exports may predate some collections). A format error
// applies nothing.
func (s *Store) ImportSnapshot(raw []byte) (ImportResult, error) {
	var probe backupProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ImportResult{}, apperrors.NewImportError(apperrors.MsgBackupParseFailed, err)
	}
	if probe.Version == nil || probe.Trades == nil {
		return ImportResult{}, apperrors.NewImportError(apperrors.MsgInvalidBackupFormat, nil)
	}

	var trades []models.Trade
	if err := json.Unmarshal(*probe.Trades, &trades); err != nil {
		return ImportResult{}, apperrors.NewImportError(apperrors.MsgInvalidBackupFormat, err)
	}
	if trades == nil {
		// JSON null is not a trades array.
		return ImportResult{}, apperrors.NewImportError(apperrors.MsgInvalidBackupFormat, nil)
	}

	// Decode optional collections up front so a malformed one rejects the
	// whole file instead of importing partially.
	var accounts []models.TradingAccount
	if probe.Accounts != nil {
		if err := json.Unmarshal(*probe.Accounts, &accounts); err != nil {
			return ImportResult{}, apperrors.NewImportError(apperrors.MsgInvalidBackupFormat, err)
		}
	}
	var strategies []models.Strategy
	if probe.Strategies != nil {
		if err := json.Unmarshal(*probe.Strategies, &strategies); err != nil {
			return ImportResult{}, apperrors.NewImportError(apperrors.MsgInvalidBackupFormat, err)
		}
	}
	var tags []models.Tag
	if probe.Tags != nil {
		if err := json.Unmarshal(*probe.Tags, &tags); err != nil {
			return ImportResult{}, apperrors.NewImportError(apperrors.MsgInvalidBackupFormat, err)
		}
	}

	s.mu.Lock()
	s.trades = trades
	if probe.Accounts != nil {
		if accounts == nil {
			accounts = []models.TradingAccount{}
		}
		s.accounts = accounts
	}
	if probe.Strategies != nil {
		if strategies == nil {
			strategies = []models.Strategy{}
		}
		s.strategies = strategies
	}
	if probe.Tags != nil {
		if tags == nil {
			tags = []models.Tag{}
		}
		s.tags = tags
	}
	if probe.User != nil {
		s.profile.Name = probe.User.Name
		s.profile.Avatar = probe.User.Avatar
	}
	snapTrades := append([]models.Trade(nil), s.trades...)
	snapAccounts := append([]models.TradingAccount(nil), s.accounts...)
	snapStrategies := append([]models.Strategy(nil), s.strategies...)
	snapTags := append([]models.Tag(nil), s.tags...)
	profile := s.profile
	authority, identity := s.authority, s.identity
	s.mu.Unlock()

	s.persistLocal(authority, func() error { return s.local.SaveTrades(snapTrades) }, ColTrades)
	s.persistLocal(authority, func() error { return s.local.SaveAccounts(snapAccounts) }, ColAccounts)
	s.persistLocal(authority, func() error { return s.local.SaveStrategies(snapStrategies) }, ColStrategies)
	s.persistLocal(authority, func() error { return s.local.SaveTags(snapTags) }, ColTags)
	s.persistLocal(authority, func() error { return s.local.SaveProfile(profile) }, ColProfile)

	// When cloud authority holds, push the imported set up; snapshots will
	// reconcile everyone else.
	if authority != AuthorityLocal {
		for i := range snapTrades {
			s.remoteWrite(authority, identity, RemoteTrades, snapTrades[i].ID, "update", snapTrades[i])
		}
		for i := range snapAccounts {
			s.remoteWrite(authority, identity, RemoteAccounts, snapAccounts[i].ID, "update", snapAccounts[i])
		}
		for i := range snapStrategies {
			s.remoteWrite(authority, identity, RemoteStrategies, snapStrategies[i].ID, "update", snapStrategies[i])
		}
		for i := range snapTags {
			s.remoteWrite(authority, identity, RemoteTags, snapTags[i].ID, "update", snapTags[i])
		}
		s.remoteSaveSingleton(authority, identity, RemoteProfile, profile)
	}

	return ImportResult{TradesImported: len(trades), AccountsImported: len(accounts)}, nil
}

// ImportBackupFile reads and imports a backup file from disk.
func (s *Store) ImportBackupFile(path string) (ImportResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{}, apperrors.NewImportError(apperrors.MsgBackupReadFailed, err)
	}
	return s.ImportSnapshot(raw)
}
