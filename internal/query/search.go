package query

import (
	"sort"

	"bombe/internal/bombeerrors"
	"bombe/internal/guards"
	"bombe/internal/scoring"
	"bombe/internal/storage"
)

// SearchResult is one ranked hit returned by Search.
type SearchResult struct {
	Symbol        storage.Symbol
	MatchStrategy string // "fts" or "like"
	MatchReason   string
	Score         float64
	Callers       int
	Callees       int
}

// Search runs both the FTS and LIKE strategies, merges them (FTS
// takes precedence on duplicate symbol ids), scores every hit with
// the hybrid ranking, and returns the top limit results.
func (e *Engine) Search(rawQuery string, rawLimit int) ([]SearchResult, error) {
	q := guards.TruncateQuery(rawQuery)
	limit := guards.ClampLimit(rawLimit, guards.MaxSearchLimit)

	ftsHits, err := e.db.SearchSymbolsFTS(q, limit)
	if err != nil {
		return nil, bombeerrors.Wrap(bombeerrors.Database, "fts search", err)
	}

	seen := make(map[int64]bool, len(ftsHits))
	var results []SearchResult
	for _, h := range ftsHits {
		sym, err := e.db.GetSymbolByID(h.SymbolID)
		if err != nil || sym == nil {
			continue
		}
		seen[sym.ID] = true
		results = append(results, e.scoredResult(q, *sym, "fts", "full-text match"))
	}

	likeHits, err := e.db.LikeSearchSymbols(q, limit)
	if err != nil {
		return nil, bombeerrors.Wrap(bombeerrors.Database, "like search", err)
	}
	for _, sym := range likeHits {
		if seen[sym.ID] {
			continue
		}
		seen[sym.ID] = true
		results = append(results, e.scoredResult(q, sym, "like", "substring match"))
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Symbol.QualifiedName != results[j].Symbol.QualifiedName {
			return results[i].Symbol.QualifiedName < results[j].Symbol.QualifiedName
		}
		return results[i].Symbol.FilePath < results[j].Symbol.FilePath
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (e *Engine) scoredResult(query string, sym storage.Symbol, strategy, reason string) SearchResult {
	callers, _ := e.db.CountCallers(sym.ID)
	callees, _ := e.db.CountCallees(sym.ID)
	score := scoring.RankSymbol(query, scoring.Symbol{
		Name: sym.Name, QualifiedName: sym.QualifiedName, Signature: sym.Signature,
		Docstring: sym.Docstring, PagerankScore: sym.PagerankScore, Callers: callers, Callees: callees,
	}, e.hybridSearch, e.semanticEnabled)

	return SearchResult{Symbol: sym, MatchStrategy: strategy, MatchReason: reason, Score: score, Callers: callers, Callees: callees}
}
