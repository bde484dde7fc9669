package providers

import (
	"strings"

	"github.com/shopspring/decimal"
)

// price is USD per million tokens.
type price struct {
	match  string
	input  decimal.Decimal
	output decimal.Decimal
}

func p(match, input, output string) price {
	return price{
		match:  match,
		input:  decimal.RequireFromString(input),
		output: decimal.RequireFromString(output),
	}
}

// Tables are ordered most specific first: "gpt-4o" and "gpt-4-turbo" must be
// checked before "gpt-4".
var (
	openAIPrices = []price{
		p("gpt-4o", "2.50", "10.00"),
		p("gpt-4-turbo", "10.00", "30.00"),
		p("gpt-4", "30.00", "60.00"),
		p("gpt-3.5-turbo", "0.50", "1.50"),
		p("o1-preview", "15.00", "60.00"),
		p("o1-mini", "3.00", "12.00"),
	}
	openAIDefault = p("", "1.00", "2.00")

	anthropicPrices = []price{
		p("opus", "15.00", "75.00"),
		p("sonnet", "3.00", "15.00"),
		p("haiku", "0.25", "1.25"),
	}
	anthropicDefault = p("", "3.00", "15.00")

	perMillion = decimal.NewFromInt(1_000_000)
)

func lookup(table []price, fallback price, model string) price {
	for _, pr := range table {
		if strings.Contains(model, pr.match) {
			return pr
		}
	}
	return fallback
}

func (pr price) cost(input, output int64) float64 {
	in := decimal.NewFromInt(input).Mul(pr.input).Div(perMillion)
	out := decimal.NewFromInt(output).Mul(pr.output).Div(perMillion)
	return in.Add(out).InexactFloat64()
}

// OpenAICost estimates the USD cost of the given token counts for an OpenAI model.
func OpenAICost(model string, input, output int64) float64 {
	return lookup(openAIPrices, openAIDefault, model).cost(input, output)
}

// AnthropicCost estimates the USD cost of the given token counts for a Claude model.
func AnthropicCost(model string, input, output int64) float64 {
	return lookup(anthropicPrices, anthropicDefault, model).cost(input, output)
}

// EstimateCost dispatches on provider id. Providers without a table cost zero.
func EstimateCost(providerID, model string, input, output int64) float64 {
	switch providerID {
	case OpenAIID:
		return OpenAICost(model, input, output)
	case AnthropicID:
		return AnthropicCost(model, input, output)
	default:
		return 0
	}
}
