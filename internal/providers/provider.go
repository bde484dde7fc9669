// Package providers implements the per-vendor usage fetchers and the registry
// that resolves them by id.
package providers

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/j-veylop/quonitor/internal/models"
)

// Provider ids.
const (
	OpenAIID    = "openai"
	AnthropicID = "anthropic"
	GoogleID    = "google"
	GitHubID    = "github"
)

// Provider fetches normalized usage data for one vendor.
// Implementations must be safe for concurrent use.
type Provider interface {
	ID() string
	Name() string
	SupportsOAuth() bool
	FetchQuota(ctx context.Context, creds models.Credentials) (*models.QuotaData, error)
}

// Options configures the default provider set.
// Zero values fall back to the public vendor endpoints.
type Options struct {
	HTTPClient       *http.Client
	Now              func() time.Time
	OpenAIBaseURL    string
	AnthropicBaseURL string
	GoogleBaseURL    string
	GitHubBaseURL    string
	Google           GoogleOAuthConfig
}

func (o Options) client() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (o Options) clock() func() time.Time {
	if o.Now != nil {
		return o.Now
	}
	return time.Now
}

// Registry maps provider ids to implementations. It is built once and never
// mutated, so concurrent lookups need no locking.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds a registry from the given providers. Later entries win on
// duplicate ids.
func NewRegistry(ps ...Provider) *Registry {
	m := make(map[string]Provider, len(ps))
	for _, p := range ps {
		m[p.ID()] = p
	}
	return &Registry{providers: m}
}

// DefaultRegistry returns the four built-in providers.
func DefaultRegistry(opts Options) *Registry {
	return NewRegistry(
		NewOpenAI(opts),
		NewAnthropic(opts),
		NewGoogle(opts),
		NewGitHub(opts),
	)
}

// Get returns the provider registered under id.
func (r *Registry) Get(id string) (Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// placeholder is the all-zero result returned by vendors whose usage API is
// not available; the fetch still proves the credential works.
func placeholder(now time.Time, note string) *models.QuotaData {
	return &models.QuotaData{
		Timestamp:      now,
		TokensInput:    models.Int64(0),
		TokensOutput:   models.Int64(0),
		CostUSD:        models.Float64(0),
		ModelBreakdown: []models.ModelData{},
		Metadata:       note,
	}
}
