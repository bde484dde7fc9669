package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/j-veylop/quonitor/internal/apperr"
	"github.com/j-veylop/quonitor/internal/models"
)

func googleServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch r.Form.Get("grant_type") {
		case "refresh_token":
			if r.Form.Get("refresh_token") == "rotating-refresh" {
				_, _ = w.Write([]byte(`{"access_token":"fresh-token","refresh_token":"rotated-refresh","token_type":"Bearer","expires_in":3600}`))
				return
			}
			if r.Form.Get("refresh_token") != "good-refresh" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"fresh-token","token_type":"Bearer","expires_in":3600}`))
		case "authorization_code":
			assert.Equal(t, "auth-code", r.Form.Get("code"))
			_, _ = w.Write([]byte(`{"access_token":"new-access","refresh_token":"new-refresh","token_type":"Bearer","expires_in":3600}`))
		}
	})
	mux.HandleFunc("/v1/projects", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh-token" && r.Header.Get("Authorization") != "Bearer stored-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "1", r.URL.Query().Get("pageSize"))
		_, _ = w.Write([]byte(`{"projects":[{"projectId":"p"}]}`))
	})
	return httptest.NewServer(mux)
}

func googleOAuth(srv *httptest.Server) GoogleOAuthConfig {
	return GoogleOAuthConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8085/callback",
		Endpoint: &oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func TestGoogle_RefreshesToken(t *testing.T) {
	srv := googleServer(t)
	defer srv.Close()

	opts := testOptions(srv)
	opts.Google = googleOAuth(srv)

	q, err := NewGoogle(opts).FetchQuota(context.Background(), models.NewOAuthCredentials("expired", "good-refresh"))
	require.NoError(t, err)
	assert.Equal(t, "Google Cloud tracking enabled", q.Metadata)
	assert.Equal(t, int64(0), *q.TokensInput)
	assert.Nil(t, q.RefreshedCredentials, "unchanged refresh token needs no write-back")
}

func TestGoogle_RotatedRefreshToken(t *testing.T) {
	srv := googleServer(t)
	defer srv.Close()

	opts := testOptions(srv)
	opts.Google = googleOAuth(srv)

	q, err := NewGoogle(opts).FetchQuota(context.Background(), models.NewOAuthCredentials("expired", "rotating-refresh"))
	require.NoError(t, err)
	require.NotNil(t, q.RefreshedCredentials)
	assert.Equal(t, models.NewOAuthCredentials("fresh-token", "rotated-refresh"), *q.RefreshedCredentials)
}

func TestGoogle_RefreshTransportFailure(t *testing.T) {
	srv := googleServer(t)
	defer srv.Close()

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	opts := testOptions(srv)
	opts.Google = googleOAuth(srv)
	opts.Google.Endpoint.TokenURL = deadURL + "/token"

	_, err := NewGoogle(opts).FetchQuota(context.Background(), models.NewOAuthCredentials("", "good-refresh"))
	assert.ErrorIs(t, err, apperr.ErrNetwork)
	assert.NotErrorIs(t, err, apperr.ErrAuth)
}

func TestGoogle_FallsBackToStoredToken(t *testing.T) {
	srv := googleServer(t)
	defer srv.Close()

	opts := testOptions(srv)
	opts.Google = googleOAuth(srv)
	g := NewGoogle(opts)

	_, err := g.FetchQuota(context.Background(), models.NewOAuthCredentials("stored-token", "bad-refresh"))
	require.NoError(t, err)

	_, err = g.FetchQuota(context.Background(), models.NewOAuthCredentials("", "bad-refresh"))
	assert.ErrorIs(t, err, apperr.ErrAuth)
}

func TestGoogle_NoClientUsesStoredToken(t *testing.T) {
	srv := googleServer(t)
	defer srv.Close()

	_, err := NewGoogle(testOptions(srv)).FetchQuota(context.Background(), models.NewOAuthCredentials("stored-token", "good-refresh"))
	require.NoError(t, err)
}

func TestGoogleAuthURL(t *testing.T) {
	srv := googleServer(t)
	defer srv.Close()

	raw, err := GoogleAuthURL(googleOAuth(srv), "state-123")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Contains(t, q.Get("scope"), "cloud-platform")

	_, err = GoogleAuthURL(GoogleOAuthConfig{}, "s")
	assert.ErrorIs(t, err, apperr.ErrConfig)
}

func TestExchangeGoogleCode(t *testing.T) {
	srv := googleServer(t)
	defer srv.Close()

	creds, err := ExchangeGoogleCode(context.Background(), googleOAuth(srv), srv.Client(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, models.NewOAuthCredentials("new-access", "new-refresh"), creds)
	assert.Equal(t, models.CredentialOAuth, creds.Kind())
}
