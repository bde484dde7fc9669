package providers

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/tidwall/gjson"

	"github.com/j-veylop/quonitor/internal/apperr"
	"github.com/j-veylop/quonitor/internal/models"
)

const openAIBaseURL = "https://api.openai.com"

// OpenAI reads organization completion usage for the last day.
type OpenAI struct {
	client  *http.Client
	now     func() time.Time
	baseURL string
}

// NewOpenAI creates the OpenAI provider.
func NewOpenAI(opts Options) *OpenAI {
	base := opts.OpenAIBaseURL
	if base == "" {
		base = openAIBaseURL
	}
	return &OpenAI{client: opts.client(), now: opts.clock(), baseURL: base}
}

func (o *OpenAI) ID() string          { return OpenAIID }
func (o *OpenAI) Name() string        { return "OpenAI" }
func (o *OpenAI) SupportsOAuth() bool { return false }

type openAIUsage struct {
	input    int64
	output   int64
	requests int64
}

// FetchQuota sums usage per model. OpenAI exposes no hard limit, so the limit
// fields stay nil.
func (o *OpenAI) FetchQuota(ctx context.Context, creds models.Credentials) (*models.QuotaData, error) {
	if creds.APIKey == "" {
		return nil, apperr.Auth("OpenAI requires API key")
	}

	now := o.now()
	url := fmt.Sprintf("%s/v1/organization/usage/completions?start_time=%d&end_time=%d&bucket_width=1d&group_by=model",
		o.baseURL, now.Add(-24*time.Hour).Unix(), now.Unix())

	body, err := get(ctx, o.client, "OpenAI", url, map[string]string{
		"Authorization": "Bearer " + creds.APIKey,
		"Content-Type":  "application/json",
	})
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, apperr.Provider("OpenAI returned malformed JSON")
	}
	data := gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return nil, apperr.Provider("OpenAI response missing data array")
	}

	perModel := make(map[string]*openAIUsage)
	add := func(r gjson.Result, inKey, outKey, reqKey string) {
		name := r.Get("model").String()
		if name == "" {
			name = "unknown"
		}
		u, ok := perModel[name]
		if !ok {
			u = &openAIUsage{}
			perModel[name] = u
		}
		u.input += r.Get(inKey).Int()
		u.output += r.Get(outKey).Int()
		u.requests += r.Get(reqKey).Int()
	}

	for _, point := range data.Array() {
		// Bucketed responses nest per-model rows under results; older payloads
		// are flat with n_* counters.
		if results := point.Get("results"); results.IsArray() {
			for _, r := range results.Array() {
				add(r, "input_tokens", "output_tokens", "num_model_requests")
			}
			continue
		}
		add(point, "n_context_tokens_total", "n_generated_tokens_total", "n_requests")
	}

	names := make([]string, 0, len(perModel))
	for name := range perModel {
		names = append(names, name)
	}
	slices.Sort(names)

	var totalIn, totalOut int64
	var totalCost float64
	breakdown := make([]models.ModelData, 0, len(names))
	for _, name := range names {
		u := perModel[name]
		cost := OpenAICost(name, u.input, u.output)
		totalIn += u.input
		totalOut += u.output
		totalCost += cost
		breakdown = append(breakdown, models.ModelData{
			ModelName:    name,
			TokensInput:  u.input,
			TokensOutput: u.output,
			CostUSD:      cost,
			RequestCount: u.requests,
		})
	}

	return &models.QuotaData{
		Timestamp:      now,
		TokensInput:    models.Int64(totalIn),
		TokensOutput:   models.Int64(totalOut),
		CostUSD:        models.Float64(totalCost),
		ModelBreakdown: breakdown,
	}, nil
}
