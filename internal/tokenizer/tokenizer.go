// Package tokenizer provides a deterministic, model-agnostic token
// count estimate used for budget accounting throughout the query
// engines.
package tokenizer

import "math"

// EstimateTokens approximates the number of LLM tokens a piece of
// text would consume. The estimate is purely a function of UTF-8
// byte length: zero for empty input, otherwise at least one token,
// growing monotonically with length.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	n := int(math.Floor(float64(len(text)) / 3.5))
	if n < 1 {
		n = 1
	}
	return n
}
