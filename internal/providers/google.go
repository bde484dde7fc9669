package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/j-veylop/quonitor/internal/apperr"
	"github.com/j-veylop/quonitor/internal/logger"
	"github.com/j-veylop/quonitor/internal/models"
)

const googleBaseURL = "https://cloudresourcemanager.googleapis.com"

var googleScopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"email",
}

// GoogleOAuthConfig holds the OAuth client used for login and token refresh.
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint overrides google.Endpoint; used by tests.
	Endpoint *oauth2.Endpoint
}

// Configured reports whether a client id and secret are present.
func (c GoogleOAuthConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

func (c GoogleOAuthConfig) config() *oauth2.Config {
	endpoint := google.Endpoint
	if c.Endpoint != nil {
		endpoint = *c.Endpoint
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       googleScopes,
		Endpoint:     endpoint,
	}
}

// GoogleAuthURL returns the consent URL for the given anti-forgery state.
func GoogleAuthURL(cfg GoogleOAuthConfig, state string) (string, error) {
	if !cfg.Configured() || cfg.RedirectURL == "" {
		return "", apperr.Config("google oauth client is not configured")
	}
	return cfg.config().AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// ExchangeGoogleCode trades an authorization code for OAuth credentials.
func ExchangeGoogleCode(ctx context.Context, cfg GoogleOAuthConfig, client *http.Client, code string) (models.Credentials, error) {
	if !cfg.Configured() {
		return models.Credentials{}, apperr.Config("google oauth client is not configured")
	}
	if client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	}
	tok, err := cfg.config().Exchange(ctx, code)
	if err != nil {
		return models.Credentials{}, apperr.Auth("token exchange failed: %v", err)
	}
	return models.NewOAuthCredentials(tok.AccessToken, tok.RefreshToken), nil
}

// Google validates an OAuth token against Cloud Resource Manager. Billing
// usage is not wired up, so the result carries zero usage.
type Google struct {
	client  *http.Client
	now     func() time.Time
	baseURL string
	oauth   GoogleOAuthConfig
}

// NewGoogle creates the Google Cloud provider.
func NewGoogle(opts Options) *Google {
	base := opts.GoogleBaseURL
	if base == "" {
		base = googleBaseURL
	}
	return &Google{client: opts.client(), now: opts.clock(), baseURL: base, oauth: opts.Google}
}

func (g *Google) ID() string          { return GoogleID }
func (g *Google) Name() string        { return "Google" }
func (g *Google) SupportsOAuth() bool { return true }

func (g *Google) FetchQuota(ctx context.Context, creds models.Credentials) (*models.QuotaData, error) {
	token, rotated, err := g.accessToken(ctx, creds)
	if err != nil {
		return nil, err
	}

	_, err = get(ctx, g.client, "Google", g.baseURL+"/v1/projects?pageSize=1", map[string]string{
		"Authorization": "Bearer " + token,
	})
	if err != nil {
		return nil, err
	}

	q := placeholder(g.now(), "Google Cloud tracking enabled")
	q.RefreshedCredentials = rotated
	return q, nil
}

// accessToken returns a fresh token when a refresh token and client are
// available, otherwise the stored access token. When the token endpoint
// rotates the refresh token the new credentials are returned as well.
func (g *Google) accessToken(ctx context.Context, creds models.Credentials) (string, *models.Credentials, error) {
	if creds.OAuthRefreshToken != "" && g.oauth.Configured() {
		rctx := context.WithValue(ctx, oauth2.HTTPClient, g.client)
		src := g.oauth.config().TokenSource(rctx, &oauth2.Token{RefreshToken: creds.OAuthRefreshToken})
		tok, err := src.Token()
		if err == nil {
			var rotated *models.Credentials
			if tok.RefreshToken != "" && tok.RefreshToken != creds.OAuthRefreshToken {
				c := models.NewOAuthCredentials(tok.AccessToken, tok.RefreshToken)
				rotated = &c
			}
			return tok.AccessToken, rotated, nil
		}
		if creds.OAuthToken == "" {
			return "", nil, refreshErr(err)
		}
		logger.Warn("google token refresh failed, using stored token", "error", err)
	}
	if creds.OAuthToken == "" {
		return "", nil, apperr.Auth("Google requires OAuth token")
	}
	return creds.OAuthToken, nil, nil
}

// refreshErr maps a token endpoint rejection to Auth and anything that never
// got an answer from the endpoint to Network.
func refreshErr(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return apperr.Auth("google token refresh failed: %v", err)
	}
	return apperr.Network(err, "google token refresh failed")
}
