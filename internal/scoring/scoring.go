// Package scoring combines lexical, structural, and optional semantic
// signals into the hybrid relevance score query engines rank by.
package scoring

import (
	"math"
	"regexp"
	"strings"
)

var identifierRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]+`)

// Tokenize splits s into lowercased identifier tokens.
func Tokenize(s string) map[string]bool {
	out := make(map[string]bool)
	for _, m := range identifierRe.FindAllString(s, -1) {
		out[strings.ToLower(m)] = true
	}
	return out
}

// LexicalScore scores how well query matches a symbol's name and
// qualified name.
func LexicalScore(query, name, qualifiedName string) float64 {
	if query == "" {
		return 0
	}
	q := strings.ToLower(query)
	if q == strings.ToLower(name) || q == strings.ToLower(qualifiedName) {
		return 1.0
	}
	if strings.Contains(strings.ToLower(name), q) {
		return 0.9
	}
	if strings.Contains(strings.ToLower(qualifiedName), q) {
		return 0.8
	}

	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return 0
	}
	fieldTokens := Tokenize(name + " " + qualifiedName)
	var hit int
	for t := range queryTokens {
		if fieldTokens[t] {
			hit++
		}
	}
	return float64(hit) / float64(len(queryTokens))
}

// StructuralScore combines PageRank mass with caller/callee fan-out.
func StructuralScore(pagerankScore float64, callers, callees int) float64 {
	pr := pagerankScore
	if pr < 0 {
		pr = 0
	}
	c := callers
	if c < 0 {
		c = 0
	}
	e := callees
	if e < 0 {
		e = 0
	}
	return pr + 0.1*math.Log(float64(c+e+1))
}

// SemanticScore computes the Jaccard-style overlap between query
// tokens and tokens drawn from a symbol's signature and docstring.
// Returns 0 when semanticEnabled is false, matching the hybrid
// semantic-toggle default (off).
func SemanticScore(query, signature, docstring string, semanticEnabled bool) float64 {
	if !semanticEnabled {
		return 0
	}
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return 0
	}
	fieldTokens := Tokenize(signature + " " + docstring)
	var hit int
	for t := range queryTokens {
		if fieldTokens[t] {
			hit++
		}
	}
	return float64(hit) / float64(len(queryTokens))
}

// Weights for the hybrid rank combination.
const (
	LexicalWeight    = 0.55
	StructuralWeight = 0.35
	SemanticWeight   = 0.10
)

// Symbol is the minimal field set RankSymbol needs.
type Symbol struct {
	Name          string
	QualifiedName string
	Signature     string
	Docstring     string
	PagerankScore float64
	Callers       int
	Callees       int
}

// RankSymbol computes the final rank for a symbol against query,
// combining lexical/structural/semantic scores per the hybrid weights
// when hybridEnabled, or falling back to pure structural score.
func RankSymbol(query string, s Symbol, hybridEnabled, semanticEnabled bool) float64 {
	structural := StructuralScore(s.PagerankScore, s.Callers, s.Callees)
	if !hybridEnabled {
		return structural
	}
	lexical := LexicalScore(query, s.Name, s.QualifiedName)
	semantic := SemanticScore(query, s.Signature, s.Docstring, semanticEnabled)
	return LexicalWeight*lexical + StructuralWeight*structural + SemanticWeight*semantic
}
