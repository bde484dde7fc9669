// Package services wires storage, providers and background services together
// for the command line.
package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/quonitor/internal/apperr"
	"github.com/j-veylop/quonitor/internal/config"
	"github.com/j-veylop/quonitor/internal/crypto"
	"github.com/j-veylop/quonitor/internal/db"
	"github.com/j-veylop/quonitor/internal/logger"
	"github.com/j-veylop/quonitor/internal/models"
	"github.com/j-veylop/quonitor/internal/providers"
	"github.com/j-veylop/quonitor/internal/services/aggregator"
	"github.com/j-veylop/quonitor/internal/services/cache"
	"github.com/j-veylop/quonitor/internal/services/notifier"
	"github.com/j-veylop/quonitor/internal/services/scheduler"
)

type (
	// AccountsChangedEvent is emitted when an account is added or removed.
	AccountsChangedEvent struct {
		Accounts []models.Account
	}

	// QuotaUpdatedEvent is emitted when fresh usage lands in the cache.
	QuotaUpdatedEvent struct {
		Quota models.QuotaData
	}

	// ErrorEvent is emitted when a background operation fails.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (AccountsChangedEvent) isServiceEvent() {}
func (QuotaUpdatedEvent) isServiceEvent()    {}
func (ErrorEvent) isServiceEvent()           {}

// ProviderInfo describes a registered provider.
type ProviderInfo struct {
	ID            string
	Name          string
	SupportsOAuth bool
}

// Manager owns the database, the credential cipher and the background
// services, and exposes the operations the CLI needs.
type Manager struct {
	database   *db.DB
	cipher     *crypto.Cipher
	registry   *providers.Registry
	cache      *cache.Cache
	aggregator *aggregator.Aggregator
	notifier   *notifier.Notifier
	scheduler  *scheduler.Scheduler
	httpClient *http.Client
	google     providers.GoogleOAuthConfig
	now        func() time.Time

	retentionDays int

	// accountsMu orders account removal against cache writes so a fetch that
	// finishes after RemoveAccount cannot put the account back.
	accountsMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.RWMutex
	subscribers []chan ServiceEvent
	closeOnce   sync.Once
}

// deps are the collaborators NewManager builds by default.
type deps struct {
	registry  *providers.Registry
	sink      notifier.Sink
	keyStores []crypto.KeyStore
}

// NewManager opens storage, loads the master key and builds every service.
// The scheduler is created stopped; call Start to begin polling.
func NewManager(cfg *config.Config) (*Manager, error) {
	return newManager(cfg, deps{
		registry: providers.DefaultRegistry(providers.Options{
			HTTPClient: &http.Client{Timeout: cfg.ProviderTimeout},
			Google:     googleConfig(cfg),
		}),
		sink:      notificationSink(cfg),
		keyStores: crypto.DefaultKeyStores(cfg.KeyFilePath),
	})
}

func newManager(cfg *config.Config, d deps) (*Manager, error) {
	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	key, err := crypto.LoadOrCreateKey(d.keyStores...)
	if err != nil {
		closeDB(database)
		return nil, fmt.Errorf("failed to load master key: %w", err)
	}
	cipher, err := crypto.New(key)
	if err != nil {
		closeDB(database)
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		database:   database,
		cipher:     cipher,
		registry:   d.registry,
		cache:      cache.New(),
		httpClient: &http.Client{Timeout: cfg.ProviderTimeout},
		google:     googleConfig(cfg),
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,

		retentionDays: cfg.RetentionDays,
	}

	m.aggregator = aggregator.New(database, d.registry, cipher, aggregator.Config{
		Timeout:       cfg.ProviderTimeout,
		MaxConcurrent: cfg.FetchConcurrency,
	})
	m.notifier = notifier.New(database, d.sink)
	m.scheduler = scheduler.New(m.aggregator, m.notifier, cacheWriter{m}, m.startupInterval(cfg.QuotaRefreshInterval))

	return m, nil
}

func googleConfig(cfg *config.Config) providers.GoogleOAuthConfig {
	return providers.GoogleOAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	}
}

func notificationSink(cfg *config.Config) notifier.Sink {
	if cfg.Headless {
		return notifier.LogSink{}
	}
	return notifier.BeeepSink{}
}

func closeDB(database *db.DB) {
	if err := database.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
}

// startupInterval prefers the persisted setting over the configured default.
func (m *Manager) startupInterval(fallback time.Duration) time.Duration {
	v, ok, err := m.database.GetSetting(models.SettingRefreshInterval)
	if err != nil {
		logger.Warn("failed to read refresh interval setting", "error", err)
		return fallback
	}
	if !ok {
		return fallback
	}
	d, err := parseInterval(v)
	if err != nil {
		logger.Warn("ignoring stored refresh interval", "value", v, "error", err)
		return fallback
	}
	return d
}

// cacheWriter stores scheduler results and tells subscribers about them.
type cacheWriter struct{ m *Manager }

func (w cacheWriter) Set(accountID string, q *models.QuotaData) {
	w.m.accountsMu.Lock()
	acc, err := w.m.database.GetAccount(accountID)
	if err != nil || acc == nil {
		w.m.accountsMu.Unlock()
		logger.Debug("Dropping result for unknown account", "account_id", accountID, "error", err)
		return
	}
	w.m.cache.Set(accountID, q)
	w.m.accountsMu.Unlock()

	if q != nil {
		w.m.broadcast(QuotaUpdatedEvent{Quota: q.Clone()})
	}
}

// Start begins periodic polling and, when retention is configured, daily
// cleanup of old history.
func (m *Manager) Start(ctx context.Context) {
	m.scheduler.Start(ctx)

	m.wg.Add(1)
	go m.retentionLoop(ctx)
}

func (m *Manager) retentionLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		m.applyRetention()

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		case <-m.ctx.Done():
			return
		}
	}
}

// applyRetention uses the retention_days setting, else RETENTION_DAYS.
// Zero disables cleanup.
func (m *Manager) applyRetention() {
	days := m.retentionDays
	if v, ok, err := m.database.GetSetting(models.SettingRetentionDays); err == nil && ok {
		if n, err := strconv.Atoi(v); err == nil {
			days = n
		}
	}
	if days <= 0 {
		return
	}
	if _, err := m.Cleanup(days); err != nil {
		m.broadcast(ErrorEvent{Service: "retention", Error: err})
	}
}

// AddAccount validates creds with a live fetch, stores them encrypted and
// seeds the cache with the validation result. A fetch of the new account
// follows in the background.
func (m *Manager) AddAccount(ctx context.Context, providerID, name string, creds models.Credentials) (*models.Account, error) {
	if name == "" {
		return nil, apperr.Config("account name is required")
	}

	q, err := m.aggregator.ValidateCredentials(ctx, providerID, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to validate credentials: %w", err)
	}
	if q.RefreshedCredentials != nil {
		creds = *q.RefreshedCredentials
		q.RefreshedCredentials = nil
	}

	sealed, err := m.cipher.EncryptCredentials(creds)
	if err != nil {
		return nil, err
	}

	acc := &models.Account{
		ID:                   uuid.NewString(),
		Provider:             providerID,
		Name:                 name,
		CredentialsEncrypted: sealed,
		CreatedAt:            m.now(),
	}
	if err := m.database.InsertAccount(acc); err != nil {
		return nil, err
	}

	q.AccountID = acc.ID
	m.cache.Set(acc.ID, q)
	logger.Info("Added account", "account_id", acc.ID, "provider", providerID, "credential_kind", creds.Kind().String())

	m.notifyAccountsChanged()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if _, err := m.RefreshAccount(m.ctx, acc.ID); err != nil && m.ctx.Err() == nil {
			logger.Warn("Initial fetch failed", "account_id", acc.ID, "error", err)
		}
	}()

	return acc, nil
}

// RemoveAccount deletes the account and all of its history.
func (m *Manager) RemoveAccount(id string) error {
	acc, err := m.database.GetAccount(id)
	if err != nil {
		return err
	}
	if acc == nil {
		return apperr.Config("account %q not found", id)
	}

	m.accountsMu.Lock()
	err = m.database.DeleteAccount(id)
	if err == nil {
		m.cache.Remove(id)
	}
	m.accountsMu.Unlock()
	if err != nil {
		return err
	}
	logger.Info("Removed account", "account_id", id)

	m.notifyAccountsChanged()
	return nil
}

func (m *Manager) notifyAccountsChanged() {
	accs, err := m.database.GetAllAccounts()
	if err != nil {
		m.broadcast(ErrorEvent{Service: "accounts", Error: err})
		return
	}
	m.broadcast(AccountsChangedEvent{Accounts: accs})
}

// ListAccounts returns every stored account, oldest first.
func (m *Manager) ListAccounts() ([]models.Account, error) {
	return m.database.GetAllAccounts()
}

// CachedQuota returns the latest in-memory result for an account.
func (m *Manager) CachedQuota(id string) (*models.QuotaData, bool) {
	return m.cache.Get(id)
}

// CachedQuotas returns all in-memory results.
func (m *Manager) CachedQuotas() []models.QuotaData {
	return m.cache.GetAll()
}

// LatestQuotas returns the cached result for each account, falling back to
// the last stored snapshot for accounts not fetched in this process.
func (m *Manager) LatestQuotas() ([]models.QuotaData, error) {
	accs, err := m.database.GetAllAccounts()
	if err != nil {
		return nil, err
	}

	result := make([]models.QuotaData, 0, len(accs))
	for _, acc := range accs {
		if q, ok := m.cache.Get(acc.ID); ok {
			result = append(result, *q)
			continue
		}
		snap, err := m.database.GetLatestSnapshot(acc.ID)
		if err != nil {
			return nil, err
		}
		if snap == nil {
			continue
		}
		result = append(result, models.QuotaData{
			AccountID:      snap.AccountID,
			Timestamp:      snap.Timestamp,
			TokensInput:    snap.TokensInput,
			TokensOutput:   snap.TokensOutput,
			CostUSD:        snap.CostUSD,
			QuotaLimit:     snap.QuotaLimit,
			QuotaRemaining: snap.QuotaRemaining,
			Metadata:       snap.Metadata,
		})
	}
	return result, nil
}

// RefreshAll runs one fetch cycle now, outside the schedule.
func (m *Manager) RefreshAll(ctx context.Context) []*models.QuotaData {
	return m.scheduler.RunFetchCycle(ctx)
}

// RefreshAccount fetches one account through the same pipeline as the
// scheduler: persist, check thresholds, then cache.
func (m *Manager) RefreshAccount(ctx context.Context, id string) (*models.QuotaData, error) {
	q, err := m.aggregator.FetchAccountQuota(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := m.notifier.CheckAndNotify(ctx, q); err != nil {
		logger.Error("Notification check failed", "account_id", id, "error", err)
	}
	cacheWriter{m}.Set(id, q)

	return q, nil
}

func (m *Manager) since(days int) (time.Time, error) {
	if days <= 0 {
		return time.Time{}, apperr.Config("days must be positive, got %d", days)
	}
	return m.now().AddDate(0, 0, -days), nil
}

// SnapshotHistory returns the account's snapshots from the last days.
func (m *Manager) SnapshotHistory(id string, days int) ([]models.QuotaSnapshot, error) {
	since, err := m.since(days)
	if err != nil {
		return nil, err
	}
	return m.database.GetSnapshotsSince(id, since)
}

// ModelUsageHistory returns the account's per-model rows from the last days.
func (m *Manager) ModelUsageHistory(id string, days int) ([]models.ModelUsage, error) {
	since, err := m.since(days)
	if err != nil {
		return nil, err
	}
	return m.database.GetModelUsageSince(id, since)
}

// ModelTotals aggregates the account's per-model usage over the last days.
func (m *Manager) ModelTotals(id string, days int) ([]models.ModelTotals, error) {
	since, err := m.since(days)
	if err != nil {
		return nil, err
	}
	return m.database.GetModelTotalsSince(id, since)
}

// DailyTrend returns per-day usage for charting.
func (m *Manager) DailyTrend(id string, days int) ([]models.DailyUsagePoint, error) {
	since, err := m.since(days)
	if err != nil {
		return nil, err
	}
	return m.database.GetDailyUsageTrend(id, since)
}

// GetSetting returns a stored setting.
func (m *Manager) GetSetting(key string) (string, bool, error) {
	return m.database.GetSetting(key)
}

// Settings returns every stored setting.
func (m *Manager) Settings() (map[string]string, error) {
	return m.database.GetAllSettings()
}

// SetSetting validates and stores a setting. A new refresh interval takes
// effect at the scheduler's next sleep.
func (m *Manager) SetSetting(key, value string) error {
	var interval time.Duration

	switch key {
	case models.SettingRefreshInterval:
		d, err := parseInterval(value)
		if err != nil {
			return err
		}
		interval = d
	case models.SettingNotificationsEnabled:
		if _, err := strconv.ParseBool(value); err != nil {
			return apperr.Config("%s must be true or false, got %q", key, value)
		}
	case models.SettingQuietHoursStart, models.SettingQuietHoursEnd:
		if value != "" {
			if _, ok := notifier.ParseHour(value); !ok {
				return apperr.Config("%s must be HH or HH:MM, got %q", key, value)
			}
		}
	case models.SettingRetentionDays:
		days, err := strconv.Atoi(value)
		if err != nil || days < 0 {
			return apperr.Config("%s must be a non-negative integer, got %q", key, value)
		}
	default:
		return apperr.Config("unknown setting %q", key)
	}

	if err := m.database.SetSetting(key, value); err != nil {
		return err
	}
	if interval > 0 {
		m.SetInterval(interval)
	}
	return nil
}

// SetInterval changes the polling interval without persisting it.
func (m *Manager) SetInterval(d time.Duration) {
	m.scheduler.SetInterval(d)
	logger.Info("Refresh interval changed", "interval", d)
}

// Interval returns the current polling interval.
func (m *Manager) Interval() time.Duration {
	return m.scheduler.Interval()
}

func parseInterval(v string) (time.Duration, error) {
	secs, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Config("%s must be a number of seconds, got %q", models.SettingRefreshInterval, v)
	}
	d := time.Duration(secs) * time.Second
	if d < config.MinRefreshInterval {
		return 0, apperr.Config("%s must be at least %d", models.SettingRefreshInterval, int(config.MinRefreshInterval.Seconds()))
	}
	return d, nil
}

// Cleanup deletes history older than days and compacts the database.
func (m *Manager) Cleanup(days int) (int64, error) {
	removed, err := m.database.CleanupOlderThan(days)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		if err := m.database.Vacuum(); err != nil {
			logger.Warn("vacuum failed", "error", err)
		}
	}
	logger.Info("Cleaned up history", "days", days, "rows", removed)
	return removed, nil
}

// Providers lists the registered providers.
func (m *Manager) Providers() []ProviderInfo {
	ids := m.registry.IDs()
	infos := make([]ProviderInfo, 0, len(ids))
	for _, id := range ids {
		p, _ := m.registry.Get(id)
		infos = append(infos, ProviderInfo{ID: id, Name: p.Name(), SupportsOAuth: p.SupportsOAuth()})
	}
	return infos
}

// GoogleAuthURL returns the consent URL for adding a Google account.
func (m *Manager) GoogleAuthURL(state string) (string, error) {
	return providers.GoogleAuthURL(m.google, state)
}

// AddGoogleAccount exchanges an authorization code and adds the account.
func (m *Manager) AddGoogleAccount(ctx context.Context, name, code string) (*models.Account, error) {
	creds, err := providers.ExchangeGoogleCode(ctx, m.google, m.httpClient, code)
	if err != nil {
		return nil, err
	}
	return m.AddAccount(ctx, providers.GoogleID, name, creds)
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
func (m *Manager) Subscribe() chan ServiceEvent {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Close stops the background services and closes the database.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.cancel()
		m.scheduler.Stop()
		m.wg.Wait()

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		err = m.database.Close()
	})
	return err
}
