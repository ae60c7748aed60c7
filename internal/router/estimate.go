package router

import "github.com/shopspring/decimal"

// estimateTokens approximates token count as one token per four
// characters, per spec.md §4.4.6. This is deliberately not a real
// tokenizer — it is a deterministic, fast, provider-independent proxy.
func estimateTokens(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

// estimateCost applies cost-per-token (expressed per 1000 tokens) to an
// estimated token count, per spec.md §4.4.6.
func estimateCost(text string, costPerToken decimal.Decimal) decimal.Decimal {
	tokens := decimal.NewFromInt(int64(estimateTokens(text)))
	return tokens.Mul(costPerToken).Div(decimal.NewFromInt(1000))
}
