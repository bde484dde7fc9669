package main

import (
	"strings"
	"testing"

	"github.com/j-veylop/quonitor/internal/models"
)

func TestCredentialsFromFlags(t *testing.T) {
	reset := func() {
		flagAPIKey, flagToken, flagRefreshToken = "", "", ""
	}
	defer reset()

	tests := []struct {
		name    string
		setup   func()
		stdin   string
		want    models.Credentials
		wantErr bool
	}{
		{"APIKey", func() { flagAPIKey = "sk-1" }, "", models.NewAPIKeyCredentials("sk-1"), false},
		{"APIKeyStdin", func() { flagAPIKey = "-" }, "sk-2\n", models.NewAPIKeyCredentials("sk-2"), false},
		{"EmptyStdin", func() { flagAPIKey = "-" }, "\n", models.Credentials{}, true},
		{"OAuth", func() { flagToken, flagRefreshToken = "tok", "ref" }, "", models.NewOAuthCredentials("tok", "ref"), false},
		{"RefreshOnly", func() { flagRefreshToken = "ref" }, "", models.NewOAuthCredentials("", "ref"), false},
		{"Nothing", func() {}, "", models.Credentials{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset()
			tt.setup()

			got, err := credentialsFromFlags(strings.NewReader(tt.stdin))
			if (err != nil) != tt.wantErr {
				t.Fatalf("credentialsFromFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("credentialsFromFlags() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 16); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("a-very-long-account-name", 10); got != "a-very-lo…" {
		t.Errorf("truncate() = %q", got)
	}
}

func TestRenderQuotaLine(t *testing.T) {
	q := &models.QuotaData{QuotaLimit: models.Int64(1000), QuotaRemaining: models.Int64(50)}
	if got := renderQuotaLine("work", q); !strings.Contains(got, "95.0%") {
		t.Errorf("renderQuotaLine() = %q", got)
	}
	if got := renderQuotaLine("work", &models.QuotaData{}); !strings.Contains(got, "no quota") {
		t.Errorf("renderQuotaLine() without limit = %q", got)
	}
}
