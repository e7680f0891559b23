package llm

import "strings"

// USD per one million tokens, input then output.
type modelPrice struct {
	prefix string
	input  float64
	output float64
}

// Longer prefixes first so gpt-4o-mini does not match gpt-4o.
var priceTable = []modelPrice{
	{"gpt-4o-mini", 0.15, 0.60},
	{"gpt-4o", 2.50, 10.00},
	{"gpt-4.1-mini", 0.40, 1.60},
	{"claude-3-5-haiku", 0.80, 4.00},
	{"claude-3-5-sonnet", 3.00, 15.00},
	{"claude-sonnet-4", 3.00, 15.00},
	{"gemini-2.5-flash", 0.30, 2.50},
	{"gemini-2.5-pro", 1.25, 10.00},
	{"deepseek-chat", 0.27, 1.10},
	{"llama-3.1-8b", 0.05, 0.08},
	{"llama-3.3-70b", 0.59, 0.79},
}

// EstimateCost returns the estimated USD cost of a call. Unknown models cost 0.
func EstimateCost(model string, promptTokens, completionTokens int) float64 {
	model = strings.ToLower(model)
	for _, p := range priceTable {
		if strings.HasPrefix(model, p.prefix) {
			return (float64(promptTokens)*p.input + float64(completionTokens)*p.output) / 1_000_000
		}
	}
	return 0
}
