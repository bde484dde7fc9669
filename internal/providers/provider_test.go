package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/quonitor/internal/apperr"
	"github.com/j-veylop/quonitor/internal/models"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testOptions(srv *httptest.Server) Options {
	return Options{
		HTTPClient:       srv.Client(),
		Now:              func() time.Time { return fixedNow },
		OpenAIBaseURL:    srv.URL,
		AnthropicBaseURL: srv.URL,
		GoogleBaseURL:    srv.URL,
		GitHubBaseURL:    srv.URL,
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry(Options{})

	assert.Equal(t, []string{"anthropic", "github", "google", "openai"}, r.IDs())

	tests := []struct {
		id    string
		name  string
		oauth bool
	}{
		{OpenAIID, "OpenAI", false},
		{AnthropicID, "Anthropic", false},
		{GoogleID, "Google", true},
		{GitHubID, "GitHub Copilot", true},
	}
	for _, tt := range tests {
		p, ok := r.Get(tt.id)
		require.True(t, ok, tt.id)
		assert.Equal(t, tt.id, p.ID())
		assert.Equal(t, tt.name, p.Name())
		assert.Equal(t, tt.oauth, p.SupportsOAuth())
	}

	_, ok := r.Get("azure")
	assert.False(t, ok)
}

func TestRegistry_ConcurrentLookups(t *testing.T) {
	r := DefaultRegistry(Options{})
	done := make(chan struct{})
	for range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			for range 100 {
				_, _ = r.Get(OpenAIID)
				_ = r.IDs()
			}
		}()
	}
	for range 8 {
		<-done
	}
}

func TestMissingCredentials(t *testing.T) {
	r := DefaultRegistry(Options{})
	for _, id := range r.IDs() {
		t.Run(id, func(t *testing.T) {
			p, _ := r.Get(id)
			_, err := p.FetchQuota(context.Background(), models.Credentials{})
			assert.ErrorIs(t, err, apperr.ErrAuth)
		})
	}
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   error
	}{
		{"unauthorized", http.StatusUnauthorized, apperr.ErrAuth},
		{"forbidden", http.StatusForbidden, apperr.ErrAuth},
		{"server error", http.StatusInternalServerError, apperr.ErrProvider},
		{"rate limited", http.StatusTooManyRequests, apperr.ErrProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			}))
			defer srv.Close()

			r := DefaultRegistry(testOptions(srv))
			creds := map[string]models.Credentials{
				OpenAIID:    models.NewAPIKeyCredentials("sk"),
				AnthropicID: models.NewAPIKeyCredentials("sk-ant"),
				GoogleID:    models.NewOAuthCredentials("ya29", ""),
				GitHubID:    models.NewAPIKeyCredentials("ghp"),
			}
			for id, c := range creds {
				p, _ := r.Get(id)
				_, err := p.FetchQuota(context.Background(), c)
				assert.ErrorIs(t, err, tt.kind, id)
			}
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	opts := testOptions(srv)
	srv.Close()

	_, err := NewAnthropic(opts).FetchQuota(context.Background(), models.NewAPIKeyCredentials("sk-ant"))
	assert.ErrorIs(t, err, apperr.ErrNetwork)
}

func TestAnthropic_Placeholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		_, _ = w.Write([]byte(`{"data":[{"id":"claude-sonnet-4"}]}`))
	}))
	defer srv.Close()

	q, err := NewAnthropic(testOptions(srv)).FetchQuota(context.Background(), models.NewAPIKeyCredentials("sk-ant"))
	require.NoError(t, err)

	assert.Equal(t, fixedNow, q.Timestamp)
	assert.Equal(t, int64(0), *q.TokensInput)
	assert.Equal(t, int64(0), *q.TokensOutput)
	assert.Equal(t, 0.0, *q.CostUSD)
	assert.Nil(t, q.QuotaLimit)
	assert.Empty(t, q.ModelBreakdown)
	assert.NotEmpty(t, q.Metadata)
}

func TestGitHub_AcceptsEitherToken(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		seen = append(seen, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"login":"octocat"}`))
	}))
	defer srv.Close()

	g := NewGitHub(testOptions(srv))
	_, err := g.FetchQuota(context.Background(), models.NewOAuthCredentials("gho_x", ""))
	require.NoError(t, err)
	_, err = g.FetchQuota(context.Background(), models.NewAPIKeyCredentials("ghp_y"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer gho_x", "Bearer ghp_y"}, seen)
}
