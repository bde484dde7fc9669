package providers

import (
	"context"
	"io"
	"net/http"

	"github.com/j-veylop/quonitor/internal/apperr"
	"github.com/j-veylop/quonitor/internal/logger"
)

const maxErrorBody = 512

// get performs a GET and returns the body of a 2xx response. Failures are
// classified: transport errors as Network, 401/403 as Auth, anything else as
// Provider.
func get(ctx context.Context, client *http.Client, vendor, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Provider("%s: failed to create request: %v", vendor, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperr.Network(err, vendor+" request failed")
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "provider", vendor, "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Network(err, "failed to read "+vendor+" response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperr.Auth("%s rejected credentials (status %d)", vendor, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, apperr.Provider("%s API error (status %d): %s", vendor, resp.StatusCode, truncate(body))
	}

	return body, nil
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
