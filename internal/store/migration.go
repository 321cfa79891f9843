package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	apperrors "tradevault/internal/errors"
	"tradevault/internal/logging"
	"tradevault/internal/models"
	"tradevault/pkg/utils"
)

// Migrator performs the one-time upload of pre-existing local data into a
// freshly associated remote identity. Completion is tracked per identity
// via a persisted marker; a failed pass leaves the marker unset so the
// next sign-in retries the whole upload (at-least-once, which is safe
// because uploads are last-write-wins per document ID).
type Migrator struct {
	local  *LocalStore
	remote RemoteStore
	logger zerolog.Logger

	retry utils.RetryConfig

	mu       sync.Mutex
	inflight map[string]*migrationRun
}

type migrationRun struct {
	cancelled bool
}

// NewMigrator creates a migrator over the given stores.
func NewMigrator(local *LocalStore, remote RemoteStore, logger zerolog.Logger) *Migrator {
	return &Migrator{
		local:    local,
		remote:   remote,
		logger:   logger,
		retry:    utils.DefaultRetryConfig(),
		inflight: make(map[string]*migrationRun),
	}
}

// Run migrates local data for the identity unless the completion marker is
// already set or a run is already in flight. Safe to call from concurrent
// sign-in events.
func (m *Migrator) Run(ctx context.Context, identity string) error {
	m.mu.Lock()
	if m.local.MigrationDone(identity) {
		m.mu.Unlock()
		return nil
	}
	if _, running := m.inflight[identity]; running {
		m.mu.Unlock()
		return nil
	}
	run := &migrationRun{}
	m.inflight[identity] = run
	m.mu.Unlock()

	logger := logging.WithIdentity(m.logger, identity)
	logging.LogMigration(m.logger, identity, "started")

	defer func() {
		m.mu.Lock()
		delete(m.inflight, identity)
		m.mu.Unlock()
	}()

	trades := m.local.LoadTrades()
	accounts := m.local.LoadAccounts()
	strategies := m.local.LoadStrategies()
	tags := m.local.LoadTags()
	settings := m.local.LoadSettings()
	profile := m.local.LoadProfile()

	empty := len(trades) == 0 && len(accounts) == 0 && len(strategies) == 0 &&
		len(tags) == 0 && settings == (models.AppSettings{}) && profile == (models.UserProfile{})

	if empty {
		// Nothing to upload: mark done immediately so future sign-ins for
		// this identity never re-check.
		if !m.runCancelled(identity, run) {
			if err := m.local.SetMigrationDone(identity); err != nil {
				return apperrors.NewMigrationError(identity, "", err)
			}
			logger.Info().Msg("Migration complete (no local data)")
		}
		return nil
	}

	if err := m.upload(ctx, identity, trades, accounts, strategies, tags, settings, profile); err != nil {
		logger.Error().Err(err).Msg("Migration failed, will retry on next sign-in")
		return err
	}

	if m.runCancelled(identity, run) {
		// A sign-out or identity switch happened mid-flight; the marker must
		// not claim completion for an identity we abandoned.
		logger.Warn().Msg("Migration cancelled, marker withheld")
		return nil
	}

	if err := m.local.SetMigrationDone(identity); err != nil {
		return apperrors.NewMigrationError(identity, "", err)
	}
	logger.Info().
		Int("trades", len(trades)).
		Int("accounts", len(accounts)).
		Int("strategies", len(strategies)).
		Int("tags", len(tags)).
		Msg("Migration complete")
	return nil
}

// Cancel flags an in-flight run for the identity so it skips writing its
// completion marker. No-op when nothing is in flight.
func (m *Migrator) Cancel(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run, ok := m.inflight[identity]; ok {
		run.cancelled = true
	}
}

// ForceSync re-runs the upload pass on demand. It neither consults nor
// mutates the completion marker.
func (m *Migrator) ForceSync(ctx context.Context, identity string) error {
	return m.upload(ctx, identity,
		m.local.LoadTrades(),
		m.local.LoadAccounts(),
		m.local.LoadStrategies(),
		m.local.LoadTags(),
		m.local.LoadSettings(),
		m.local.LoadProfile(),
	)
}

func (m *Migrator) upload(
	ctx context.Context,
	identity string,
	trades []models.Trade,
	accounts []models.TradingAccount,
	strategies []models.Strategy,
	tags []models.Tag,
	settings models.AppSettings,
	profile models.UserProfile,
) error {
	if len(trades) > 0 {
		docs := make(map[string]interface{}, len(trades))
		for i := range trades {
			docs[trades[i].ID] = trades[i]
		}
		if err := m.uploadCollection(ctx, identity, RemoteTrades, docs); err != nil {
			return err
		}
	}
	if len(accounts) > 0 {
		docs := make(map[string]interface{}, len(accounts))
		for i := range accounts {
			docs[accounts[i].ID] = accounts[i]
		}
		if err := m.uploadCollection(ctx, identity, RemoteAccounts, docs); err != nil {
			return err
		}
	}
	if len(strategies) > 0 {
		docs := make(map[string]interface{}, len(strategies))
		for i := range strategies {
			docs[strategies[i].ID] = strategies[i]
		}
		if err := m.uploadCollection(ctx, identity, RemoteStrategies, docs); err != nil {
			return err
		}
	}
	if len(tags) > 0 {
		docs := make(map[string]interface{}, len(tags))
		for i := range tags {
			docs[tags[i].ID] = tags[i]
		}
		if err := m.uploadCollection(ctx, identity, RemoteTags, docs); err != nil {
			return err
		}
	}
	if settings != (models.AppSettings{}) {
		err := utils.Retry(ctx, m.retry, func() error {
			return m.remote.SaveSingleton(ctx, identity, RemoteSettings, settings)
		})
		if err != nil {
			return apperrors.NewMigrationError(identity, RemoteSettings, err)
		}
	}
	if profile != (models.UserProfile{}) {
		err := utils.Retry(ctx, m.retry, func() error {
			return m.remote.SaveSingleton(ctx, identity, RemoteProfile, profile)
		})
		if err != nil {
			return apperrors.NewMigrationError(identity, RemoteProfile, err)
		}
	}
	return nil
}

// uploadCollection bulk-writes one collection with transient-failure retry.
// Re-running is safe: writes are keyed by document ID.
func (m *Migrator) uploadCollection(ctx context.Context, identity, collection string, docs map[string]interface{}) error {
	err := utils.Retry(ctx, m.retry, func() error {
		return m.remote.UploadAll(ctx, identity, collection, docs)
	})
	if err != nil {
		return apperrors.NewMigrationError(identity, collection, err)
	}
	return nil
}

func (m *Migrator) runCancelled(identity string, run *migrationRun) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return run.cancelled
}
