// Package redact strips a fixed set of secret-shaped substrings from
// source fragments before they are counted toward a context budget or
// deduplicated, per the context-assembly packing loop.
package redact

import "regexp"

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

var rules = []rule{
	{regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`), "[REDACTED_OPENAI_KEY]"},
	{regexp.MustCompile(`AKIA[A-Z0-9]{16}`), "[REDACTED_AWS_KEY]"},
	{regexp.MustCompile(`(?i)(api_key|token|secret)\s*=\s*"[^"]*"`), "[REDACTED_ASSIGNMENT]"},
	{regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----`), "[REDACTED_PRIVATE_KEY]"},
}

// Result holds the redacted text plus how many substitutions fired.
type Result struct {
	Text string
	Hits int
}

// Apply runs every rule against text in a fixed order and returns the
// redacted text with a total substitution count.
func Apply(text string) Result {
	hits := 0
	for _, r := range rules {
		matches := r.pattern.FindAllStringIndex(text, -1)
		if len(matches) == 0 {
			continue
		}
		hits += len(matches)
		text = r.pattern.ReplaceAllString(text, r.replacement)
	}
	return Result{Text: text, Hits: hits}
}
