package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/j-veylop/quonitor/internal/apperr"
	"github.com/j-veylop/quonitor/internal/models"
)

const gitHubBaseURL = "https://api.github.com"

// GitHub accepts an OAuth token or a personal access token. Copilot metrics
// need organization access, so the fetch only checks the token against /user.
type GitHub struct {
	client  *http.Client
	now     func() time.Time
	baseURL string
}

// NewGitHub creates the GitHub Copilot provider.
func NewGitHub(opts Options) *GitHub {
	base := opts.GitHubBaseURL
	if base == "" {
		base = gitHubBaseURL
	}
	return &GitHub{client: opts.client(), now: opts.clock(), baseURL: base}
}

func (g *GitHub) ID() string          { return GitHubID }
func (g *GitHub) Name() string        { return "GitHub Copilot" }
func (g *GitHub) SupportsOAuth() bool { return true }

func (g *GitHub) FetchQuota(ctx context.Context, creds models.Credentials) (*models.QuotaData, error) {
	token := creds.OAuthToken
	if token == "" {
		token = creds.APIKey
	}
	if token == "" {
		return nil, apperr.Auth("GitHub requires OAuth token or PAT")
	}

	_, err := get(ctx, g.client, "GitHub", g.baseURL+"/user", map[string]string{
		"Authorization":        "Bearer " + token,
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	})
	if err != nil {
		return nil, err
	}

	return placeholder(g.now(), "GitHub Copilot usage requires organization metrics access"), nil
}
