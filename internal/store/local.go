// Package store provides the journal's persistence and sync layer.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	apperrors "tradevault/internal/errors"
	"tradevault/internal/models"
)

// Logical collection names. The prefix namespaces this application's data
// apart from anything else sharing the storage substrate; the names are
// stable across versions.
const (
	collectionPrefix = "tradevault_"

	ColTrades     = collectionPrefix + "trades"
	ColAccounts   = collectionPrefix + "accounts"
	ColStrategies = collectionPrefix + "strategies"
	ColTags       = collectionPrefix + "tags"
	ColSettings   = collectionPrefix + "settings"
	ColProfile    = collectionPrefix + "user_profile"

	keyFirstUse       = collectionPrefix + "first_use"
	keyMigratedPrefix = collectionPrefix + "cloud_migrated_"
)

// LocalStore is the durable key-value store for whole collections. Each
// collection is one row holding a serialized array (or object for the
// singleton entries); writes always overwrite the whole collection.
type LocalStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewLocalStore opens (or creates) the local store at dbPath.
func NewLocalStore(dbPath string, logger zerolog.Logger) (*LocalStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &LocalStore{db: db, logger: logger}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.recordFirstUse()
	return s, nil
}

func (s *LocalStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

// loadRaw reads a collection's serialized payload. Missing rows return
// ok=false; read failures are logged and also return ok=false so callers
// fall back to their default value.
func (s *LocalStore) loadRaw(name string) ([]byte, bool) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM collections WHERE name = ?`, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		s.logger.Warn().Err(apperrors.NewStorageError(name, "load", err)).Msg("Local read failed, using default")
		return nil, false
	}
	return []byte(data), true
}

func (s *LocalStore) saveRaw(name string, data []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO collections (name, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		name, string(data))
	if err != nil {
		return apperrors.NewStorageError(name, "save", err)
	}
	return nil
}

// load unmarshals a collection into target, substituting the existing
// (default) target value when the row is missing or corrupt. Decoding goes
// through a scratch value: json.Unmarshal can fail partway through a
// syntactically valid payload and would otherwise leave target half
// populated. Corrupt data is logged, never surfaced as a failure.
func (s *LocalStore) load(name string, target interface{}) {
	raw, ok := s.loadRaw(name)
	if !ok {
		return
	}
	scratch := reflect.New(reflect.TypeOf(target).Elem())
	if err := json.Unmarshal(raw, scratch.Interface()); err != nil {
		s.logger.Warn().Err(apperrors.NewStorageError(name, "load", err)).Msg("Corrupt local data, using default")
		return
	}
	reflect.ValueOf(target).Elem().Set(scratch.Elem())
}

func (s *LocalStore) save(name string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewStorageError(name, "save", err)
	}
	return s.saveRaw(name, data)
}

// LoadTrades returns the persisted trade collection, or an empty slice.
func (s *LocalStore) LoadTrades() []models.Trade {
	trades := []models.Trade{}
	s.load(ColTrades, &trades)
	return trades
}

// SaveTrades overwrites the persisted trade collection.
func (s *LocalStore) SaveTrades(trades []models.Trade) error {
	return s.save(ColTrades, trades)
}

// LoadAccounts returns the persisted account collection, or an empty slice.
func (s *LocalStore) LoadAccounts() []models.TradingAccount {
	accounts := []models.TradingAccount{}
	s.load(ColAccounts, &accounts)
	return accounts
}

// SaveAccounts overwrites the persisted account collection.
func (s *LocalStore) SaveAccounts(accounts []models.TradingAccount) error {
	return s.save(ColAccounts, accounts)
}

// LoadStrategies returns the persisted strategy collection, or an empty slice.
func (s *LocalStore) LoadStrategies() []models.Strategy {
	strategies := []models.Strategy{}
	s.load(ColStrategies, &strategies)
	return strategies
}

// SaveStrategies overwrites the persisted strategy collection.
func (s *LocalStore) SaveStrategies(strategies []models.Strategy) error {
	return s.save(ColStrategies, strategies)
}

// LoadTags returns the persisted tag collection, or an empty slice.
func (s *LocalStore) LoadTags() []models.Tag {
	tags := []models.Tag{}
	s.load(ColTags, &tags)
	return tags
}

// SaveTags overwrites the persisted tag collection.
func (s *LocalStore) SaveTags(tags []models.Tag) error {
	return s.save(ColTags, tags)
}

// LoadSettings returns the persisted settings, or the zero value.
func (s *LocalStore) LoadSettings() models.AppSettings {
	var settings models.AppSettings
	s.load(ColSettings, &settings)
	return settings
}

// SaveSettings overwrites the persisted settings.
func (s *LocalStore) SaveSettings(settings models.AppSettings) error {
	return s.save(ColSettings, settings)
}

// LoadProfile returns the persisted user profile, or the zero value.
func (s *LocalStore) LoadProfile() models.UserProfile {
	var profile models.UserProfile
	s.load(ColProfile, &profile)
	return profile
}

// SaveProfile overwrites the persisted user profile.
func (s *LocalStore) SaveProfile(profile models.UserProfile) error {
	return s.save(ColProfile, profile)
}

// MigrationDone reports whether the one-time cloud migration has completed
// for the given remote identity.
func (s *LocalStore) MigrationDone(identity string) bool {
	_, ok := s.loadRaw(keyMigratedPrefix + identity)
	return ok
}

// SetMigrationDone persists the migration completion marker for an identity.
func (s *LocalStore) SetMigrationDone(identity string) error {
	marker, _ := json.Marshal(time.Now().Format(time.RFC3339))
	return s.saveRaw(keyMigratedPrefix+identity, marker)
}

// ClearMigrationDone removes the migration marker so the next sign-in for
// the identity re-runs migration.
func (s *LocalStore) ClearMigrationDone(identity string) error {
	_, err := s.db.Exec(`DELETE FROM collections WHERE name = ?`, keyMigratedPrefix+identity)
	return err
}

// FirstUse returns when this store was first opened.
func (s *LocalStore) FirstUse() time.Time {
	raw, ok := s.loadRaw(keyFirstUse)
	if !ok {
		return time.Time{}
	}
	var stamp string
	if err := json.Unmarshal(raw, &stamp); err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *LocalStore) recordFirstUse() {
	if _, ok := s.loadRaw(keyFirstUse); ok {
		return
	}
	stamp, _ := json.Marshal(time.Now().Format(time.RFC3339))
	if err := s.saveRaw(keyFirstUse, stamp); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record first use timestamp")
	}
}
