package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/quonitor/internal/apperr"
	"github.com/j-veylop/quonitor/internal/models"
)

func serveOpenAI(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/organization/usage/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "model", q.Get("group_by"))
		assert.Equal(t, "1d", q.Get("bucket_width"))
		assert.Equal(t, strconv.FormatInt(fixedNow.Unix(), 10), q.Get("end_time"))
		assert.Equal(t, strconv.FormatInt(fixedNow.Unix()-86400, 10), q.Get("start_time"))

		_, _ = w.Write([]byte(payload))
	}))
}

func TestOpenAI_BucketedPayload(t *testing.T) {
	srv := serveOpenAI(t, `{
		"object": "page",
		"data": [
			{"start_time": 1, "results": [
				{"model": "gpt-4o", "input_tokens": 1000000, "output_tokens": 100000, "num_model_requests": 10},
				{"model": "gpt-3.5-turbo", "input_tokens": 2000000, "output_tokens": 0, "num_model_requests": 4}
			]},
			{"start_time": 2, "results": [
				{"model": "gpt-4o", "input_tokens": 0, "output_tokens": 100000, "num_model_requests": 2}
			]}
		]
	}`)
	defer srv.Close()

	q, err := NewOpenAI(testOptions(srv)).FetchQuota(context.Background(), models.NewAPIKeyCredentials("sk-test"))
	require.NoError(t, err)

	require.Len(t, q.ModelBreakdown, 2)
	assert.Equal(t, "gpt-3.5-turbo", q.ModelBreakdown[0].ModelName)
	assert.Equal(t, "gpt-4o", q.ModelBreakdown[1].ModelName)

	gpt4o := q.ModelBreakdown[1]
	assert.Equal(t, int64(1000000), gpt4o.TokensInput)
	assert.Equal(t, int64(200000), gpt4o.TokensOutput)
	assert.Equal(t, int64(12), gpt4o.RequestCount)
	// 1M * 2.50 + 0.2M * 10.00
	assert.InDelta(t, 4.50, gpt4o.CostUSD, 1e-9)

	assert.Equal(t, int64(3000000), *q.TokensInput)
	assert.Equal(t, int64(200000), *q.TokensOutput)
	assert.InDelta(t, 5.50, *q.CostUSD, 1e-9)
	assert.Nil(t, q.QuotaLimit)
	assert.Nil(t, q.QuotaRemaining)
	assert.Empty(t, q.AccountID)
}

func TestOpenAI_LegacyPayload(t *testing.T) {
	srv := serveOpenAI(t, `{"data": [
		{"model": "gpt-4", "n_context_tokens_total": 500, "n_generated_tokens_total": 250, "n_requests": 3},
		{"n_context_tokens_total": 10, "n_generated_tokens_total": 5, "n_requests": 1}
	]}`)
	defer srv.Close()

	q, err := NewOpenAI(testOptions(srv)).FetchQuota(context.Background(), models.NewAPIKeyCredentials("sk-test"))
	require.NoError(t, err)

	require.Len(t, q.ModelBreakdown, 2)
	assert.Equal(t, "gpt-4", q.ModelBreakdown[0].ModelName)
	assert.Equal(t, "unknown", q.ModelBreakdown[1].ModelName)
	assert.Equal(t, int64(510), *q.TokensInput)
	assert.Equal(t, int64(255), *q.TokensOutput)
}

func TestOpenAI_EmptyUsage(t *testing.T) {
	srv := serveOpenAI(t, `{"data": []}`)
	defer srv.Close()

	q, err := NewOpenAI(testOptions(srv)).FetchQuota(context.Background(), models.NewAPIKeyCredentials("sk-test"))
	require.NoError(t, err)

	assert.Empty(t, q.ModelBreakdown)
	assert.Equal(t, int64(0), *q.TokensInput)
	assert.Equal(t, 0.0, *q.CostUSD)
}

func TestOpenAI_MalformedPayload(t *testing.T) {
	for _, payload := range []string{`not json`, `{"object":"page"}`} {
		srv := serveOpenAI(t, payload)
		_, err := NewOpenAI(testOptions(srv)).FetchQuota(context.Background(), models.NewAPIKeyCredentials("sk-test"))
		srv.Close()
		assert.ErrorIs(t, err, apperr.ErrProvider, payload)
	}
}
