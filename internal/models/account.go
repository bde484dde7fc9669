// Package models defines data structures and domain types.
package models

import (
	"encoding/json"
	"log/slog"
	"time"
)

// Account is a registered (provider, credential) pair that is polled for usage.
// The credential blob is only ever stored encrypted.
type Account struct {
	CreatedAt            time.Time  `json:"createdAt"`
	LastSynced           *time.Time `json:"lastSynced,omitempty"`
	ID                   string     `json:"id"`
	Provider             string     `json:"provider"`
	Name                 string     `json:"name"`
	CredentialsEncrypted []byte     `json:"-"`
}

// CredentialKind identifies which variant a Credentials value holds.
type CredentialKind int

const (
	// CredentialNone means no usable credential is present.
	CredentialNone CredentialKind = iota
	// CredentialAPIKey is a static vendor API key.
	CredentialAPIKey
	// CredentialOAuth is an OAuth access token with an optional refresh token.
	CredentialOAuth
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialAPIKey:
		return "api_key"
	case CredentialOAuth:
		return "oauth"
	default:
		return "none"
	}
}

// Credentials holds either an API key or an OAuth token pair.
// The JSON form is what gets encrypted at rest.
type Credentials struct {
	APIKey            string `json:"api_key,omitempty"`
	OAuthToken        string `json:"oauth_token,omitempty"`
	OAuthRefreshToken string `json:"oauth_refresh_token,omitempty"`
}

// NewAPIKeyCredentials builds an API key credential.
func NewAPIKeyCredentials(apiKey string) Credentials {
	return Credentials{APIKey: apiKey}
}

// NewOAuthCredentials builds an OAuth credential; refreshToken may be empty.
func NewOAuthCredentials(token, refreshToken string) Credentials {
	return Credentials{OAuthToken: token, OAuthRefreshToken: refreshToken}
}

// Kind reports the populated variant. An API key takes precedence.
func (c Credentials) Kind() CredentialKind {
	switch {
	case c.APIKey != "":
		return CredentialAPIKey
	case c.OAuthToken != "" || c.OAuthRefreshToken != "":
		return CredentialOAuth
	default:
		return CredentialNone
	}
}

// LogValue redacts secrets when credentials end up in a log call.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", c.Kind().String()),
		slog.Bool("refreshable", c.OAuthRefreshToken != ""),
	)
}

// String never prints secret material.
func (c Credentials) String() string {
	return "Credentials{" + c.Kind().String() + "}"
}

// MarshalCredentials serializes credentials for encryption.
func MarshalCredentials(c Credentials) ([]byte, error) {
	return json.Marshal(c)
}

// UnmarshalCredentials parses decrypted credential bytes.
func UnmarshalCredentials(data []byte) (Credentials, error) {
	var c Credentials
	err := json.Unmarshal(data, &c)
	return c, err
}
