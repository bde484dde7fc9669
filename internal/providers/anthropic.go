package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/j-veylop/quonitor/internal/apperr"
	"github.com/j-veylop/quonitor/internal/models"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
)

// Anthropic has no public usage endpoint; it validates the key by listing one
// model and reports zero usage.
type Anthropic struct {
	client  *http.Client
	now     func() time.Time
	baseURL string
}

// NewAnthropic creates the Anthropic provider.
func NewAnthropic(opts Options) *Anthropic {
	base := opts.AnthropicBaseURL
	if base == "" {
		base = anthropicBaseURL
	}
	return &Anthropic{client: opts.client(), now: opts.clock(), baseURL: base}
}

func (a *Anthropic) ID() string          { return AnthropicID }
func (a *Anthropic) Name() string        { return "Anthropic" }
func (a *Anthropic) SupportsOAuth() bool { return false }

func (a *Anthropic) FetchQuota(ctx context.Context, creds models.Credentials) (*models.QuotaData, error) {
	if creds.APIKey == "" {
		return nil, apperr.Auth("Anthropic requires API key")
	}

	_, err := get(ctx, a.client, "Anthropic", a.baseURL+"/v1/models?limit=1", map[string]string{
		"x-api-key":         creds.APIKey,
		"anthropic-version": anthropicVersion,
		"Content-Type":      "application/json",
	})
	if err != nil {
		return nil, err
	}

	return placeholder(a.now(), "Anthropic API does not support usage tracking yet"), nil
}
