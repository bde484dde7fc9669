// Package aggregator fetches usage for stored accounts and persists the results.
package aggregator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/quonitor/internal/apperr"
	"github.com/j-veylop/quonitor/internal/logger"
	"github.com/j-veylop/quonitor/internal/models"
	"github.com/j-veylop/quonitor/internal/providers"
)

// Store is the persistence the aggregator needs.
type Store interface {
	GetAccount(id string) (*models.Account, error)
	GetAllAccounts() ([]models.Account, error)
	RecordFetch(q *models.QuotaData) error
	UpdateAccountCredentials(id string, sealed []byte) error
}

// CredentialCipher opens stored credential blobs and seals rotated ones.
type CredentialCipher interface {
	DecryptCredentials(data []byte) (models.Credentials, error)
	EncryptCredentials(creds models.Credentials) ([]byte, error)
}

// Config holds configuration for the aggregator.
type Config struct {
	// Timeout bounds each provider call.
	Timeout time.Duration
	// MaxConcurrent bounds parallel fetches in FetchAllQuotas.
	MaxConcurrent int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:       30 * time.Second,
		MaxConcurrent: 5,
	}
}

// Aggregator resolves each account's provider, fetches its usage and records it.
type Aggregator struct {
	store    Store
	registry *providers.Registry
	cipher   CredentialCipher
	now      func() time.Time
	config   Config
}

// New creates an aggregator. Zero config fields take their defaults.
func New(store Store, registry *providers.Registry, cipher CredentialCipher, config Config) *Aggregator {
	def := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = def.MaxConcurrent
	}
	return &Aggregator{
		store:    store,
		registry: registry,
		cipher:   cipher,
		now:      time.Now,
		config:   config,
	}
}

// ValidateCredentials performs a live fetch with creds without touching the
// store. It is used to vet credentials before an account is saved.
func (a *Aggregator) ValidateCredentials(ctx context.Context, providerID string, creds models.Credentials) (*models.QuotaData, error) {
	p, ok := a.registry.Get(providerID)
	if !ok {
		return nil, apperr.Config("provider %s not found", providerID)
	}
	return a.fetch(ctx, p, creds)
}

// FetchAccountQuota fetches and records usage for one account. Nothing is
// written unless the provider call succeeds.
func (a *Aggregator) FetchAccountQuota(ctx context.Context, accountID string) (*models.QuotaData, error) {
	acc, err := a.store.GetAccount(accountID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, apperr.Config("account %s not found", accountID)
	}

	p, ok := a.registry.Get(acc.Provider)
	if !ok {
		return nil, apperr.Config("provider %s not found", acc.Provider)
	}

	creds, err := a.cipher.DecryptCredentials(acc.CredentialsEncrypted)
	if err != nil {
		return nil, err
	}

	q, err := a.fetch(ctx, p, creds)
	if err != nil {
		return nil, err
	}
	q.AccountID = accountID
	if q.Timestamp.IsZero() {
		q.Timestamp = a.now()
	}

	rotated := q.RefreshedCredentials
	q.RefreshedCredentials = nil

	if err := a.store.RecordFetch(q); err != nil {
		return nil, err
	}
	if rotated != nil {
		a.storeRotated(accountID, *rotated)
	}

	logger.Info("Fetched quota for account", "account_id", accountID, "provider", acc.Provider, "models", len(q.ModelBreakdown))
	return q, nil
}

// storeRotated re-seals credentials the provider rotated. Failure only costs
// a refresh on the next fetch, so it is logged rather than returned.
func (a *Aggregator) storeRotated(accountID string, creds models.Credentials) {
	sealed, err := a.cipher.EncryptCredentials(creds)
	if err == nil {
		err = a.store.UpdateAccountCredentials(accountID, sealed)
	}
	if err != nil {
		logger.Warn("Failed to store rotated credentials", "account_id", accountID, "error", err)
		return
	}
	logger.Info("Stored rotated credentials", "account_id", accountID)
}

// FetchAllQuotas fetches every account with bounded concurrency. Failures are
// logged and skipped; the result holds only successes, in account order.
func (a *Aggregator) FetchAllQuotas(ctx context.Context) []*models.QuotaData {
	accounts, err := a.store.GetAllAccounts()
	if err != nil {
		logger.Error("Failed to get accounts", "error", err)
		return nil
	}

	results := make([]*models.QuotaData, len(accounts))

	// Per-account errors never cancel siblings, so the group context is unused.
	var g errgroup.Group
	g.SetLimit(a.config.MaxConcurrent)

	for i, acc := range accounts {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			q, err := a.FetchAccountQuota(ctx, acc.ID)
			if err != nil {
				logger.Error("Failed to fetch quota for account",
					"account_id", acc.ID,
					"provider", acc.Provider,
					"error", err,
				)
				return nil
			}
			results[i] = q
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*models.QuotaData, 0, len(results))
	for _, q := range results {
		if q != nil {
			out = append(out, q)
		}
	}
	return out
}

func (a *Aggregator) fetch(ctx context.Context, p providers.Provider, creds models.Credentials) (*models.QuotaData, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	q, err := p.FetchQuota(ctx, creds)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, apperr.Provider("%s returned no data", p.Name())
	}
	return q, nil
}
