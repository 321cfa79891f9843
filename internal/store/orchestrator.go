package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	apperrors "tradevault/internal/errors"
	"tradevault/internal/logging"
	"tradevault/internal/models"
)

// AuthorityMode says which store is the source of truth for in-memory state.
type AuthorityMode string

const (
	// AuthorityLocal: no remote identity; the local store is authoritative
	// and every mutation is written back to it.
	AuthorityLocal AuthorityMode = "LOCAL"
	// AuthorityCloudInit: signed in, but the first trades snapshot has not
	// arrived yet. Local writes are suppressed so the transient empty cloud
	// state can never clobber the local backup.
	AuthorityCloudInit AuthorityMode = "CLOUD_INIT"
	// AuthorityCloudReady: signed in and reconciled; realtime snapshots are
	// authoritative.
	AuthorityCloudReady AuthorityMode = "CLOUD_READY"
)

// SyncState is the displayed synchronization status.
type SyncState string

const (
	SyncOffline SyncState = "OFFLINE"
	SyncSyncing SyncState = "SYNCING"
	SyncSynced  SyncState = "SYNCED"
)

// Store is the central state owner: it holds the in-memory collections,
// decides local-vs-remote authority from discrete input events (sign-in,
// sign-out, snapshot-received, network-changed), and exposes every
// mutation the UI uses. Snapshot callbacks arrive on subscription
// goroutines, so all state lives behind one mutex.
type Store struct {
	local     *LocalStore
	remote    RemoteStore
	migrator  *Migrator
	logger    zerolog.Logger
	backupDir string

	mu         sync.RWMutex
	trades     []models.Trade
	accounts   []models.TradingAccount
	strategies []models.Strategy
	tags       []models.Tag
	settings   models.AppSettings
	profile    models.UserProfile

	authority AuthorityMode
	syncState SyncState
	online    bool
	identity  string
	epoch     int // bumped on sign-in/out; stale subscription callbacks no-op
	cancels   []func()

	lastPending   bool
	lastFromCache bool
}

// NewStore creates the orchestrator in local authority, with collections
// loaded from the local store.
func NewStore(local *LocalStore, remote RemoteStore, migrator *Migrator, backupDir string, logger zerolog.Logger) *Store {
	s := &Store{
		local:     local,
		remote:    remote,
		migrator:  migrator,
		logger:    logger,
		backupDir: backupDir,
		authority: AuthorityLocal,
		syncState: SyncSynced,
		online:    true,
	}
	s.reloadFromLocal()
	return s
}

func (s *Store) reloadFromLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = s.local.LoadTrades()
	s.accounts = s.local.LoadAccounts()
	s.strategies = s.local.LoadStrategies()
	s.tags = s.local.LoadTags()
	s.settings = s.local.LoadSettings()
	s.profile = s.local.LoadProfile()
}

// --- State machine inputs ---

// SignIn associates a remote identity: in-memory collections are cleared
// (stale previous-identity data must never show), authority moves to
// CloudInit, realtime subscriptions open, and migration kicks off in the
// background.
func (s *Store) SignIn(identity string) error {
	if s.remote == nil {
		return apperrors.ErrNotSignedIn
	}

	s.mu.Lock()
	if s.identity == identity && s.authority != AuthorityLocal {
		s.mu.Unlock()
		return nil
	}
	prev := s.identity
	prevCancels := s.cancels
	s.cancels = nil
	s.identity = identity
	s.epoch++
	epoch := s.epoch
	s.trades = []models.Trade{}
	s.accounts = []models.TradingAccount{}
	s.strategies = []models.Strategy{}
	s.tags = []models.Tag{}
	s.authority = AuthorityCloudInit
	s.lastPending = false
	s.lastFromCache = false
	if s.online {
		s.syncState = SyncSyncing
	} else {
		s.syncState = SyncOffline
	}
	s.mu.Unlock()

	for _, cancel := range prevCancels {
		cancel()
	}
	if prev != "" && prev != identity {
		s.migrator.Cancel(prev)
	}

	s.openSubscriptions(identity, epoch)

	go func() {
		if err := s.migrator.Run(context.Background(), identity); err != nil {
			s.logger.Error().Err(err).Str("identity", identity).Msg("Migration run failed")
		}
	}()

	s.logger.Info().Str("identity", identity).Msg("Signed in, cloud authority initializing")
	return nil
}

// SignOut tears down subscriptions, cancels any in-flight migration, and
// restores the pre-sign-in local snapshot. Cloud data never survives a
// sign-out.
func (s *Store) SignOut() {
	s.mu.Lock()
	identity := s.identity
	cancels := s.cancels
	s.cancels = nil
	s.identity = ""
	s.epoch++
	s.authority = AuthorityLocal
	if s.online {
		s.syncState = SyncSynced
	} else {
		s.syncState = SyncOffline
	}
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	if identity != "" {
		s.migrator.Cancel(identity)
	}

	s.reloadFromLocal()
	s.logger.Info().Str("identity", identity).Msg("Signed out, local authority restored")
}

// SetNetworkOnline feeds the network connectivity signal. It only affects
// the displayed sync status; writes are still attempted while offline.
func (s *Store) SetNetworkOnline(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = online
	s.recomputeSyncStateLocked()
}

// recomputeSyncStateLocked derives the sync status from connectivity and
// the most recent trades snapshot flags.
func (s *Store) recomputeSyncStateLocked() {
	if !s.online {
		s.syncState = SyncOffline
		return
	}
	if s.lastPending || s.lastFromCache {
		s.syncState = SyncSyncing
		return
	}
	s.syncState = SyncSynced
}

func (s *Store) openSubscriptions(identity string, epoch int) {
	var cancels []func()

	cancels = append(cancels, s.remote.Subscribe(identity, RemoteTrades, func(snap Snapshot) {
		s.onTradesSnapshot(epoch, snap)
	}))
	cancels = append(cancels, s.remote.Subscribe(identity, RemoteAccounts, func(snap Snapshot) {
		s.onAccountsSnapshot(epoch, snap)
	}))
	cancels = append(cancels, s.remote.Subscribe(identity, RemoteStrategies, func(snap Snapshot) {
		s.onStrategiesSnapshot(epoch, snap)
	}))
	cancels = append(cancels, s.remote.Subscribe(identity, RemoteTags, func(snap Snapshot) {
		s.onTagsSnapshot(epoch, snap)
	}))
	cancels = append(cancels, s.remote.SubscribeSingleton(identity, RemoteSettings, func(raw json.RawMessage) {
		s.onSettingsValue(epoch, raw)
	}))
	cancels = append(cancels, s.remote.SubscribeSingleton(identity, RemoteProfile, func(raw json.RawMessage) {
		s.onProfileValue(epoch, raw)
	}))

	s.mu.Lock()
	if s.epoch == epoch {
		s.cancels = append(s.cancels, cancels...)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	// Sign-out raced subscription setup; undo.
	for _, cancel := range cancels {
		cancel()
	}
}

// --- Snapshot handlers (remote is authoritative: wholesale replacement) ---

func (s *Store) onTradesSnapshot(epoch int, snap Snapshot) {
	trades := make([]models.Trade, 0, len(snap.Docs))
	skipped := decodeDocs(snap.Docs, func(raw json.RawMessage) error {
		var t models.Trade
		if err := json.Unmarshal(raw, &t); err != nil {
			return err
		}
		trades = append(trades, t)
		return nil
	})
	if skipped > 0 {
		s.logger.Warn().Int("skipped", skipped).Msg("Dropped undecodable trade documents from snapshot")
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.trades = trades
	if s.authority == AuthorityCloudInit {
		// First trades snapshot: the cloud state is now known, local write
		// suppression can lift.
		s.authority = AuthorityCloudReady
	}
	s.lastPending = snap.HasPendingWrites
	s.lastFromCache = snap.FromCache
	s.recomputeSyncStateLocked()
	s.mu.Unlock()

	logging.LogSnapshot(s.logger, RemoteTrades, len(trades), snap.HasPendingWrites, snap.FromCache)
}

func (s *Store) onAccountsSnapshot(epoch int, snap Snapshot) {
	accounts := make([]models.TradingAccount, 0, len(snap.Docs))
	skipped := decodeDocs(snap.Docs, func(raw json.RawMessage) error {
		var a models.TradingAccount
		if err := json.Unmarshal(raw, &a); err != nil {
			return err
		}
		accounts = append(accounts, a)
		return nil
	})
	if skipped > 0 {
		s.logger.Warn().Int("skipped", skipped).Msg("Dropped undecodable account documents from snapshot")
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.accounts = accounts
	s.mu.Unlock()
}

func (s *Store) onStrategiesSnapshot(epoch int, snap Snapshot) {
	strategies := make([]models.Strategy, 0, len(snap.Docs))
	skipped := decodeDocs(snap.Docs, func(raw json.RawMessage) error {
		var st models.Strategy
		if err := json.Unmarshal(raw, &st); err != nil {
			return err
		}
		strategies = append(strategies, st)
		return nil
	})
	if skipped > 0 {
		s.logger.Warn().Int("skipped", skipped).Msg("Dropped undecodable strategy documents from snapshot")
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.strategies = strategies
	s.mu.Unlock()
}

func (s *Store) onTagsSnapshot(epoch int, snap Snapshot) {
	tags := make([]models.Tag, 0, len(snap.Docs))
	skipped := decodeDocs(snap.Docs, func(raw json.RawMessage) error {
		var t models.Tag
		if err := json.Unmarshal(raw, &t); err != nil {
			return err
		}
		tags = append(tags, t)
		return nil
	})
	if skipped > 0 {
		s.logger.Warn().Int("skipped", skipped).Msg("Dropped undecodable tag documents from snapshot")
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.tags = tags
	s.mu.Unlock()
}

func (s *Store) onSettingsValue(epoch int, raw json.RawMessage) {
	var settings models.AppSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		s.logger.Warn().Err(err).Msg("Dropped undecodable settings document")
		return
	}
	s.mu.Lock()
	if s.epoch == epoch {
		s.settings = settings
	}
	s.mu.Unlock()
}

func (s *Store) onProfileValue(epoch int, raw json.RawMessage) {
	var profile models.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		s.logger.Warn().Err(err).Msg("Dropped undecodable profile document")
		return
	}
	s.mu.Lock()
	if s.epoch == epoch {
		s.profile = profile
	}
	s.mu.Unlock()
}

// --- Persistence routing ---

// persistLocal writes a collection back to the local store when local
// authority holds. CloudInit suppresses the write (first-snapshot guard);
// CloudReady leaves the local backup untouched by design.
func (s *Store) persistLocal(authority AuthorityMode, save func() error, collection string) {
	if authority != AuthorityLocal {
		return
	}
	if err := save(); err != nil {
		s.logger.Error().Err(err).Str("collection", collection).Msg("Local persist failed")
	}
}

// remoteWrite issues a fire-and-forget remote mutation when signed in.
// Failures are logged; optimistic state is never rolled back.
func (s *Store) remoteWrite(authority AuthorityMode, identity, collection, id, op string, doc interface{}) {
	if authority == AuthorityLocal || s.remote == nil {
		return
	}
	go func() {
		var err error
		ctx := context.Background()
		switch op {
		case "create":
			err = s.remote.CreateDoc(ctx, identity, collection, id, doc)
		case "update":
			err = s.remote.UpdateDoc(ctx, identity, collection, id, doc)
		case "delete":
			err = s.remote.DeleteDoc(ctx, identity, collection, id)
		}
		if err != nil {
			werr := apperrors.NewRemoteWriteError(collection, id, op, err)
			s.logger.Error().Err(werr).Msg("Remote write rejected")
			return
		}
		logging.LogMutation(s.logger, op, collection, id)
	}()
}

func (s *Store) remoteSaveSingleton(authority AuthorityMode, identity, name string, value interface{}) {
	if authority == AuthorityLocal || s.remote == nil {
		return
	}
	go func() {
		if err := s.remote.SaveSingleton(context.Background(), identity, name, value); err != nil {
			werr := apperrors.NewRemoteWriteError(name, "", "save", err)
			s.logger.Error().Err(werr).Msg("Remote write rejected")
		}
	}()
}

// --- Trade mutations ---

// AddTrade appends a trade optimistically, routes persistence by authority
// mode, and triggers an async backup export when auto-export is enabled.
func (s *Store) AddTrade(t models.Trade) (models.Trade, error) {
	t = models.NewTrade(t)
	if err := models.ValidateTrade(&t); err != nil {
		return models.Trade{}, err
	}

	s.mu.Lock()
	s.trades = append(s.trades, t)
	trades := append([]models.Trade(nil), s.trades...)
	authority, identity := s.authority, s.identity
	autoExport := s.settings.AutoExport
	s.mu.Unlock()

	s.persistLocal(authority, func() error { return s.local.SaveTrades(trades) }, ColTrades)
	s.remoteWrite(authority, identity, RemoteTrades, t.ID, "create", t)

	if autoExport {
		go s.autoExport()
	}
	return t, nil
}

// UpdateTrade applies a partial update to a trade.
func (s *Store) UpdateTrade(id string, u models.TradeUpdate) (models.Trade, error) {
	s.mu.Lock()
	idx := -1
	for i := range s.trades {
		if s.trades[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return models.Trade{}, apperrors.ErrTradeNotFound
	}
	s.trades[idx].ApplyUpdate(u)
	updated := s.trades[idx]
	trades := append([]models.Trade(nil), s.trades...)
	authority, identity := s.authority, s.identity
	s.mu.Unlock()

	s.persistLocal(authority, func() error { return s.local.SaveTrades(trades) }, ColTrades)
	s.remoteWrite(authority, identity, RemoteTrades, id, "update", updated)
	return updated, nil
}

// DeleteTrade removes a trade permanently. There is no soft delete.
func (s *Store) DeleteTrade(id string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.trades {
		if s.trades[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return apperrors.ErrTradeNotFound
	}
	s.trades = append(s.trades[:idx], s.trades[idx+1:]...)
	trades := append([]models.Trade(nil), s.trades...)
	authority, identity := s.authority, s.identity
	s.mu.Unlock()

	s.persistLocal(authority, func() error { return s.local.SaveTrades(trades) }, ColTrades)
	s.remoteWrite(authority, identity, RemoteTrades, id, "delete", nil)
	return nil
}

// --- Account mutations ---

// AddAccount appends an account. Multiple accounts may carry IsMain; the
// data layer deliberately does not enforce a single main account.
func (s *Store) AddAccount(a models.TradingAccount) (models.TradingAccount, error) {
	a = models.NewTradingAccount(a)
	if err := models.ValidateAccount(&a); err != nil {
		return models.TradingAccount{}, err
	}

	s.mu.Lock()
	s.accounts = append(s.accounts, a)
	accounts := append([]models.TradingAccount(nil), s.accounts...)
	authority, identity := s.authority, s.identity
	s.mu.Unlock()

	s.persistLocal(authority, func() error { return s.local.SaveAccounts(accounts) }, ColAccounts)
	s.remoteWrite(authority, identity, RemoteAccounts, a.ID, "create", a)
	return a, nil
}

// UpdateAccount replaces an account by ID.
func (s *Store) UpdateAccount(a models.TradingAccount) error {
	if err := models.ValidateAccount(&a); err != nil {
		return err
	}

	s.mu.Lock()
	idx := -1
	for i := range s.accounts {
		if s.accounts[i].ID == a.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return apperrors.ErrAccountNotFound
	}
	s.accounts[idx] = a
	accounts := append([]models.TradingAccount(nil), s.accounts...)
	authority, identity := s.authority, s.identity
	s.mu.Unlock()

	s.persistLocal(authority, func() error { return s.local.SaveAccounts(accounts) }, ColAccounts)
	s.remoteWrite(authority, identity, RemoteAccounts, a.ID, "update", a)
	return nil
}

// DeleteAccount removes an account. Its trades are kept; they simply stop
// appearing in that account's views (no cascade).
func (s *Store) DeleteAccount(id string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return apperrors.ErrAccountNotFound
	}
	s.accounts = append(s.accounts[:idx], s.accounts[idx+1:]...)
	accounts := append([]models.TradingAccount(nil), s.accounts...)
	authority, identity := s.authority, s.identity
	s.mu.Unlock()

	s.persistLocal(authority, func() error { return s.local.SaveAccounts(accounts) }, ColAccounts)
	s.remoteWrite(authority, identity, RemoteAccounts, id, "delete", nil)
	return nil
}

// --- Strategy mutations ---

// AddStrategy appends a strategy.
func (s *Store) AddStrategy(st models.Strategy) (models.Strategy, error) {
	st = models.NewStrategy(st)
	if err := models.ValidateStrategy(&st); err != nil {
		return models.Strategy{}, err
	}

	s.mu.Lock()
	s.strategies = append(s.strategies, st)
	strategies := append([]models.Strategy(nil), s.strategies...)
	authority, identity := s.authority, s.identity
	s.mu.Unlock()

	s.persistLocal(authority, func() error { return s.local.SaveStrategies(strategies) }, ColStrategies)
	s.remoteWrite(authority, identity, RemoteStrategies, st.ID, "create", st)
	return st, nil
}

// UpdateStrategy replaces a strategy by ID.
func (s *Store) UpdateStrategy(st models.Strategy) error {
	if err := models.ValidateStrategy(&st); err != nil {
		return err
	}

	s.mu.Lock()
	idx := -1
	for i := range s.strategies {
		if s.strategies[i].ID == st.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return apperrors.ErrStrategyNotFound
	}
	s.strategies[idx] = st
	strategies := append([]models.Strategy(nil), s.strategies...)
	authority, identity := s.authority, s.identity
	s.mu.Unlock()

	s.persistLocal(authority, func() error { return s.local.SaveStrategies(strategies) }, ColStrategies)
	s.remoteWrite(authority, identity, RemoteStrategies, st.ID, "update", st)
	return nil
}

// DeleteStrategy removes a strategy.
func (s *Store) DeleteStrategy(id string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.strategies {
		if s.strategies[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return apperrors.ErrStrategyNotFound
	}
	s.strategies = append(s.strategies[:idx], s.strategies[idx+1:]...)
	strategies := append([]models.Strategy(nil), s.strategies...)
	authority, identity := s.authority, s.identity
	s.mu.Unlock()

	s.persistLocal(authority, func() error { return s.local.SaveStrategies(strategies) }, ColStrategies)
	s.remoteWrite(authority, identity, RemoteStrategies, id, "delete", nil)
	return nil
}

// --- Tag mutations ---

// AddTag appends a tag.
func (s *Store) AddTag(t models.Tag) (models.Tag, error) {
	t = models.NewTag(t)
	if err := models.ValidateTag(&t); err != nil {
		return models.Tag{}, err
	}

	s.mu.Lock()
	s.tags = append(s.tags, t)
	tags := append([]models.Tag(nil), s.tags...)
	authority, identity := s.authority, s.identity
	s.mu.Unlock()

	s.persistLocal(authority, func() error { return s.local.SaveTags(tags) }, ColTags)
	s.remoteWrite(authority, identity, RemoteTags, t.ID, "create", t)
	return t, nil
}

// DeleteTag removes a tag.
func (s *Store) DeleteTag(id string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.tags {
		if s.tags[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return apperrors.ErrTagNotFound
	}
	s.tags = append(s.tags[:idx], s.tags[idx+1:]...)
	tags := append([]models.Tag(nil), s.tags...)
	authority, identity := s.authority, s.identity
	s.mu.Unlock()

	s.persistLocal(authority, func() error { return s.local.SaveTags(tags) }, ColTags)
	s.remoteWrite(authority, identity, RemoteTags, id, "delete", nil)
	return nil
}

// --- Singletons ---

// SaveSettings replaces the app settings.
func (s *Store) SaveSettings(settings models.AppSettings) {
	s.mu.Lock()
	s.settings = settings
	authority, identity := s.authority, s.identity
	s.mu.Unlock()

	s.persistLocal(authority, func() error { return s.local.SaveSettings(settings) }, ColSettings)
	s.remoteSaveSingleton(authority, identity, RemoteSettings, settings)
}

// SaveProfile replaces the user profile.
func (s *Store) SaveProfile(profile models.UserProfile) {
	s.mu.Lock()
	s.profile = profile
	authority, identity := s.authority, s.identity
	s.mu.Unlock()

	s.persistLocal(authority, func() error { return s.local.SaveProfile(profile) }, ColProfile)
	s.remoteSaveSingleton(authority, identity, RemoteProfile, profile)
}

// --- Read accessors (always copies; callers never alias internal state) ---

// Trades returns a copy of the in-memory trade collection.
func (s *Store) Trades() []models.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Trade(nil), s.trades...)
}

// Accounts returns a copy of the in-memory account collection.
func (s *Store) Accounts() []models.TradingAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.TradingAccount(nil), s.accounts...)
}

// Strategies returns a copy of the in-memory strategy collection.
func (s *Store) Strategies() []models.Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Strategy(nil), s.strategies...)
}

// Tags returns a copy of the in-memory tag collection.
func (s *Store) Tags() []models.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Tag(nil), s.tags...)
}

// Settings returns the current app settings.
func (s *Store) Settings() models.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Profile returns the current user profile.
func (s *Store) Profile() models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Authority returns the current authority mode.
func (s *Store) Authority() AuthorityMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authority
}

// SyncStatus returns the displayed sync state.
func (s *Store) SyncStatus() SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncState
}

// Identity returns the signed-in remote identity, or "".
func (s *Store) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// AccountBalance recomputes the account's balance from the current trade
// ledger on every call; nothing is cached.
func (s *Store) AccountBalance(accountID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.accounts {
		if s.accounts[i].ID == accountID {
			return models.ComputeAccountBalance(s.accounts[i], s.trades), nil
		}
	}
	return 0, apperrors.ErrAccountNotFound
}

// AccountStats recomputes aggregate stats for an account.
func (s *Store) AccountStats(accountID string) (models.AccountStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.accounts {
		if s.accounts[i].ID == accountID {
			return models.ComputeAccountStats(s.accounts[i], s.trades), nil
		}
	}
	return models.AccountStats{}, apperrors.ErrAccountNotFound
}

// ForceSync re-uploads the local snapshot for the signed-in identity,
// bypassing the migration marker.
func (s *Store) ForceSync(ctx context.Context) error {
	s.mu.RLock()
	identity := s.identity
	s.mu.RUnlock()
	if identity == "" {
		return apperrors.ErrNotSignedIn
	}
	return s.migrator.ForceSync(ctx, identity)
}

// autoExport runs the post-add backup export. Never blocks or fails the
// mutation that triggered it.
func (s *Store) autoExport() {
	path, err := s.WriteBackup(s.backupDir)
	if err != nil {
		s.logger.Error().Err(err).Msg("Auto-export failed")
		return
	}
	s.mu.Lock()
	s.settings.LastExportDate = nowISO()
	settings := s.settings
	authority, identity := s.authority, s.identity
	s.mu.Unlock()

	s.persistLocal(authority, func() error { return s.local.SaveSettings(settings) }, ColSettings)
	s.remoteSaveSingleton(authority, identity, RemoteSettings, settings)
	s.logger.Info().Str("path", path).Msg("Auto-export written")
}

// Close tears down subscriptions. The local store and remote client are
// owned by the caller.
func (s *Store) Close() {
	s.mu.Lock()
	cancels := s.cancels
	s.cancels = nil
	s.epoch++
	s.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}
