package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenAICost(t *testing.T) {
	tests := []struct {
		model string
		want  float64
	}{
		{"gpt-4o-2024-08-06", 2.50 + 10.00},
		{"gpt-4o-mini", 2.50 + 10.00},
		{"gpt-4-turbo", 10.00 + 30.00},
		{"gpt-4-0613", 30.00 + 60.00},
		{"gpt-3.5-turbo", 0.50 + 1.50},
		{"o1-preview", 15.00 + 60.00},
		{"o1-mini", 3.00 + 12.00},
		{"text-embedding-3-small", 1.00 + 2.00},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.InDelta(t, tt.want, OpenAICost(tt.model, 1_000_000, 1_000_000), 1e-9)
		})
	}
}

func TestAnthropicCost(t *testing.T) {
	assert.InDelta(t, 15.00, AnthropicCost("claude-3-opus", 1_000_000, 0), 1e-9)
	assert.InDelta(t, 15.00, AnthropicCost("claude-3-5-sonnet", 0, 1_000_000), 1e-9)
	assert.InDelta(t, 0.25+1.25, AnthropicCost("claude-3-haiku", 1_000_000, 1_000_000), 1e-9)
	assert.InDelta(t, 3.00+15.00, AnthropicCost("claude-next", 1_000_000, 1_000_000), 1e-9)
}

func TestEstimateCost(t *testing.T) {
	assert.InDelta(t, OpenAICost("gpt-4o", 1234, 567), EstimateCost(OpenAIID, "gpt-4o", 1234, 567), 1e-12)
	assert.InDelta(t, AnthropicCost("opus", 1234, 567), EstimateCost(AnthropicID, "opus", 1234, 567), 1e-12)
	assert.Zero(t, EstimateCost(GitHubID, "copilot", 1000, 1000))
	assert.Zero(t, OpenAICost("gpt-4o", 0, 0))
}
