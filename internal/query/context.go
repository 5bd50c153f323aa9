package query

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"bombe/internal/bombeerrors"
	"bombe/internal/guards"
	"bombe/internal/pagerank"
	"bombe/internal/redact"
	"bombe/internal/storage"
	"bombe/internal/tokenizer"
)

// contextEdgeRelationships is the edge set BFS expansion treats as
// undirected when assembling context.
var contextEdgeRelationships = map[string]bool{
	storage.RelCalls:         true,
	storage.RelImportsSymbol: true,
	storage.RelExtends:       true,
	storage.RelImplements:    true,
	storage.RelHasMethod:     true,
}

const contextPPRIterations = 20

var adaptiveFloor128 = 128

// ContextRequest is the normalized input to context assembly.
type ContextRequest struct {
	Query                 string
	EntryPoints           []string
	TokenBudget           int
	IncludeSignaturesOnly bool
	ExpansionDepth        int
}

// ContextSymbol is one packed symbol in the assembled context.
type ContextSymbol struct {
	Symbol  storage.Symbol
	Mode    string // "full_source" or "signature_only"
	Content string
	Reason  string // "seed", "graph_neighbor", or "rank_fallback"
	Depth   int
	Score   float64
}

// ContextFile groups packed symbols by file, sorted by start line.
type ContextFile struct {
	Path    string
	Symbols []ContextSymbol
}

// QualityMetrics reports how well the assembled context covers the
// seed set and budget, all rounded to 4 decimals.
type QualityMetrics struct {
	SeedHitRate     float64
	Connectedness   float64
	TokenEfficiency float64
	AvgDepth        float64
	DedupeRatio     float64
	RedactionHits   int
}

// ContextResult is the full output of context assembly.
type ContextResult struct {
	Files            []ContextFile
	Summary          string
	RelationshipMap  string
	QualityMetrics   QualityMetrics
	TokensUsed       int
	TokenBudget      int
	TotalIncluded    int
}

// Context runs the nine-step seeded-expansion algorithm: normalize,
// compute the dynamic cap, select seeds, BFS-expand the reachable
// subgraph, rank it with personalized PageRank, order it by topology,
// pack it within budget with redaction and dedup, then group and
// summarize the result.
func (e *Engine) Context(req ContextRequest) (*ContextResult, error) {
	q := guards.TruncateQuery(req.Query)
	entryPoints := req.EntryPoints
	if len(entryPoints) > guards.MaxContextSeeds {
		entryPoints = entryPoints[:guards.MaxContextSeeds]
	}
	budget := guards.ClampInt(req.TokenBudget, guards.MinContextTokenBudget, guards.MaxContextTokenBudget)
	depth := guards.ClampDepth(req.ExpansionDepth, guards.MaxContextExpansionDepth)

	total, err := e.db.CountSymbols()
	if err != nil {
		return nil, bombeerrors.Wrap(bombeerrors.Database, "count symbols", err)
	}
	nodeCap := guards.AdaptiveGraphCap(total, guards.MaxGraphVisited, &adaptiveFloor128)

	seedIDs, err := e.selectContextSeeds(q, entryPoints)
	if err != nil {
		return nil, err
	}
	seedSet := make(map[int64]bool, len(seedIDs))
	for _, id := range seedIDs {
		seedSet[id] = true
	}

	reached, adjacency, err := e.expandContextGraph(seedIDs, depth, nodeCap)
	if err != nil {
		return nil, err
	}

	scoreByID := e.personalizedPageRank(reached, adjacency, seedIDs)

	queryTerms := strings.Fields(strings.ToLower(q))
	rankByID := make(map[int64]float64, len(reached))
	symbolByID := make(map[int64]storage.Symbol, len(reached))
	for id, d := range reached {
		sym, err := e.db.GetSymbolByID(id)
		if err != nil || sym == nil {
			continue
		}
		symbolByID[id] = *sym
		ppr := scoreByID[id]
		pr := sym.PagerankScore
		if pr <= 0 {
			pr = 1e-9
		}
		lexRel := lexRelCount(queryTerms, *sym)
		rankByID[id] = ppr * pr * proximityFor(d) * (1 + math.Min(0.25, 0.08*float64(lexRel)))
	}

	order, reasons := topologyOrder(seedIDs, reached, adjacency, rankByID, seedSet)

	var included []ContextSymbol
	includedSeeds := 0
	includedIDs := make(map[int64]bool)
	dedupe := make(map[string]bool)
	duplicateSkips := 0
	tokensUsed := 0
	redactionHits := 0

	for _, id := range order {
		if len(included) >= nodeCap {
			break
		}
		sym, ok := symbolByID[id]
		if !ok {
			continue
		}
		mode := "signature_only"
		if seedSet[id] && !req.IncludeSignaturesOnly {
			mode = "full_source"
		}

		cs, ok := e.packNode(sym, mode, budget, &tokensUsed, dedupe, &duplicateSkips, &redactionHits, reached[id], rankByID[id], reasons[id])
		if !ok {
			continue
		}
		included = append(included, cs)
		includedIDs[id] = true
		if seedSet[id] {
			includedSeeds++
		}
	}

	files := groupAndSortByFile(included)

	var summaryNames []string
	for i, cs := range included {
		if i >= 8 {
			break
		}
		summaryNames = append(summaryNames, cs.Symbol.Name)
	}

	metrics := computeQualityMetrics(seedIDs, includedIDs, included, adjacency, tokensUsed, budget, duplicateSkips, redactionHits)

	summary := fmt.Sprintf("assembled %d symbol(s) across %d file(s) using %d/%d tokens (%d seed hit(s), %d duplicate(s) skipped)",
		len(included), len(files), tokensUsed, budget, includedSeeds, duplicateSkips)

	return &ContextResult{
		Files:           files,
		Summary:         summary,
		RelationshipMap: strings.Join(summaryNames, " -> "),
		QualityMetrics:  metrics,
		TokensUsed:      tokensUsed,
		TokenBudget:     budget,
		TotalIncluded:   len(included),
	}, nil
}

// selectContextSeeds implements strategies (a) entry points, (b) FTS
// top-8, (c) LIKE fallback across query words.
func (e *Engine) selectContextSeeds(q string, entryPoints []string) ([]int64, error) {
	seen := make(map[int64]bool)
	var ids []int64

	for _, ep := range entryPoints {
		sym, err := e.db.ResolveSymbol(guards.TruncateQuery(ep))
		if err != nil {
			return nil, bombeerrors.Wrap(bombeerrors.Database, "resolve entry point", err)
		}
		if sym != nil && !seen[sym.ID] {
			seen[sym.ID] = true
			ids = append(ids, sym.ID)
		}
	}
	if len(ids) > 0 {
		return ids, nil
	}

	if q != "" {
		hits, err := e.db.SearchSymbolsFTS(q, 8)
		if err != nil {
			return nil, bombeerrors.Wrap(bombeerrors.Database, "fts seed search", err)
		}
		for _, h := range hits {
			if !seen[h.SymbolID] {
				seen[h.SymbolID] = true
				ids = append(ids, h.SymbolID)
			}
		}
	}
	if len(ids) > 0 {
		return ids, nil
	}

	words := strings.Fields(strings.ToLower(q))
	if len(words) == 0 {
		return ids, nil
	}
	symbols, err := e.db.LikeSearchSymbolsAnyTerm(words, 8)
	if err != nil {
		return nil, bombeerrors.Wrap(bombeerrors.Database, "like seed search", err)
	}
	for _, s := range symbols {
		if !seen[s.ID] {
			seen[s.ID] = true
			ids = append(ids, s.ID)
		}
	}
	return ids, nil
}

// expandContextGraph runs a capped undirected BFS over the allowed
// relationship set, returning each reached id's discovery depth and
// an adjacency list restricted to the allowed relationships.
func (e *Engine) expandContextGraph(seedIDs []int64, depth, nodeCap int) (map[int64]int, map[int64][]int64, error) {
	reached := make(map[int64]int, len(seedIDs))
	adjacency := make(map[int64][]int64)
	for _, id := range seedIDs {
		reached[id] = 0
	}

	queue := make([]frontierEntry, 0, len(seedIDs))
	for _, id := range seedIDs {
		queue = append(queue, frontierEntry{id: id, depth: 0})
	}

	for len(queue) > 0 && len(reached) < nodeCap {
		cur := queue[0]
		queue = queue[1:]

		neighbors, err := e.undirectedNeighbors(cur.id)
		if err != nil {
			return nil, nil, bombeerrors.Wrap(bombeerrors.Database, "expand context graph", err)
		}
		adjacency[cur.id] = neighbors

		if cur.depth >= depth {
			continue
		}
		for _, nb := range neighbors {
			if _, ok := reached[nb]; ok {
				continue
			}
			reached[nb] = cur.depth + 1
			queue = append(queue, frontierEntry{id: nb, depth: cur.depth + 1})
			if len(reached) >= nodeCap {
				break
			}
		}
	}

	// ensure every reached node (even ones discovered at the cap
	// boundary, never dequeued) has an adjacency entry computed.
	for id := range reached {
		if _, ok := adjacency[id]; !ok {
			neighbors, err := e.undirectedNeighbors(id)
			if err != nil {
				return nil, nil, bombeerrors.Wrap(bombeerrors.Database, "expand context graph", err)
			}
			adjacency[id] = neighbors
		}
	}
	return reached, adjacency, nil
}

func (e *Engine) undirectedNeighbors(id int64) ([]int64, error) {
	out, err := e.db.EdgesFrom(id, "")
	if err != nil {
		return nil, err
	}
	in, err := e.db.EdgesTo(id, "")
	if err != nil {
		return nil, err
	}

	seen := map[int64]bool{}
	var neighbors []int64
	for _, edge := range out {
		if !contextEdgeRelationships[edge.Relationship] {
			continue
		}
		if !seen[edge.TargetID] {
			seen[edge.TargetID] = true
			neighbors = append(neighbors, edge.TargetID)
		}
	}
	for _, edge := range in {
		if !contextEdgeRelationships[edge.Relationship] {
			continue
		}
		if !seen[edge.SourceID] {
			seen[edge.SourceID] = true
			neighbors = append(neighbors, edge.SourceID)
		}
	}
	return neighbors, nil
}

// personalizedPageRank runs up to 20 iterations of PageRank over the
// reached subgraph (stopping earlier on convergence), restarting
// uniformly over the seed ids.
func (e *Engine) personalizedPageRank(reached map[int64]int, adjacency map[int64][]int64, seedIDs []int64) map[int64]float64 {
	g := pagerank.NewGraph()
	for id := range reached {
		g.AddNode(id)
	}
	for id, neighbors := range adjacency {
		for _, nb := range neighbors {
			if _, ok := reached[nb]; ok {
				g.AddEdge(id, nb, 1)
			}
		}
	}

	scores := pagerank.RunN(g, seedIDs, contextPPRIterations)
	out := make(map[int64]float64, len(scores))
	for _, s := range scores {
		out[s.SymbolID] = s.Value
	}
	return out
}

func proximityFor(depth int) float64 {
	switch depth {
	case 0:
		return 1.0
	case 1:
		return 0.7
	case 2:
		return 0.4
	default:
		return 0.25
	}
}

func lexRelCount(queryTerms []string, sym storage.Symbol) int {
	haystack := strings.ToLower(sym.Name + " " + sym.QualifiedName + " " + sym.Signature)
	count := 0
	for _, t := range queryTerms {
		if len(t) >= 2 && strings.Contains(haystack, t) {
			count++
		}
	}
	return count
}

// topologyOrder walks seeds ordered by score DESC, then their
// adjacency breadth-first (tie-breaking neighbors by score DESC),
// appending any disconnected reached node as a rank_fallback at the
// end ordered by score DESC.
func topologyOrder(seedIDs []int64, reached map[int64]int, adjacency map[int64][]int64, scores map[int64]float64, seedSet map[int64]bool) ([]int64, map[int64]string) {
	sortedSeeds := append([]int64(nil), seedIDs...)
	sort.Slice(sortedSeeds, func(i, j int) bool { return scores[sortedSeeds[i]] > scores[sortedSeeds[j]] })

	visited := make(map[int64]bool, len(reached))
	reasons := make(map[int64]string, len(reached))
	var order []int64

	visitBFS := func(start int64) {
		if visited[start] {
			return
		}
		visited[start] = true
		queue := []int64{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			order = append(order, cur)
			if seedSet[cur] {
				reasons[cur] = "seed"
			} else if _, ok := reasons[cur]; !ok {
				reasons[cur] = "graph_neighbor"
			}

			neighbors := append([]int64(nil), adjacency[cur]...)
			sort.Slice(neighbors, func(i, j int) bool { return scores[neighbors[i]] > scores[neighbors[j]] })
			for _, nb := range neighbors {
				if _, ok := reached[nb]; !ok || visited[nb] {
					continue
				}
				visited[nb] = true
				queue = append(queue, nb)
			}
		}
	}

	for _, s := range sortedSeeds {
		visitBFS(s)
	}

	var fallback []int64
	for id := range reached {
		if !visited[id] {
			fallback = append(fallback, id)
		}
	}
	sort.Slice(fallback, func(i, j int) bool { return scores[fallback[i]] > scores[fallback[j]] })
	for _, id := range fallback {
		reasons[id] = "rank_fallback"
	}
	order = append(order, fallback...)

	return order, reasons
}

// packNode renders a symbol in mode, redacts it, dedupes it against
// prior fragments, and checks it against the remaining budget,
// falling back once from full_source to signature_only on overflow.
func (e *Engine) packNode(sym storage.Symbol, mode string, budget int, tokensUsed *int, dedupe map[string]bool, duplicateSkips, redactionHits *int, depth int, score float64, reason string) (ContextSymbol, bool) {
	content, actualMode := e.renderContent(sym, mode)
	result := redact.Apply(content)
	content = result.Text

	key := sym.QualifiedName + "\x00" + sym.FilePath + "\x00" + content
	if dedupe[key] {
		*duplicateSkips++
		return ContextSymbol{}, false
	}

	cost := tokenizer.EstimateTokens(content)
	if *tokensUsed+cost > budget {
		if actualMode == "full_source" {
			return e.packNode(sym, "signature_only", budget, tokensUsed, dedupe, duplicateSkips, redactionHits, depth, score, reason)
		}
		return ContextSymbol{}, false
	}

	dedupe[key] = true
	*tokensUsed += cost
	*redactionHits += result.Hits
	return ContextSymbol{Symbol: sym, Mode: actualMode, Content: content, Reason: reason, Depth: depth, Score: score}, true
}

func (e *Engine) renderContent(sym storage.Symbol, mode string) (string, string) {
	if mode == "full_source" {
		text, err := e.source.ReadSpan(sym.FilePath, sym.StartLine, sym.EndLine)
		if err == nil && text != "" {
			return text, "full_source"
		}
	}
	return signatureText(sym), "signature_only"
}

func signatureText(sym storage.Symbol) string {
	if sym.Signature != "" {
		return sym.Signature
	}
	params := make([]string, 0, len(sym.Parameters))
	for _, p := range sym.Parameters {
		params = append(params, p.Name)
	}
	return fmt.Sprintf("%s(%s)", sym.QualifiedName, strings.Join(params, ", "))
}

func groupAndSortByFile(included []ContextSymbol) []ContextFile {
	byFile := map[string][]ContextSymbol{}
	var paths []string
	for _, cs := range included {
		if _, ok := byFile[cs.Symbol.FilePath]; !ok {
			paths = append(paths, cs.Symbol.FilePath)
		}
		byFile[cs.Symbol.FilePath] = append(byFile[cs.Symbol.FilePath], cs)
	}
	sort.Strings(paths)

	files := make([]ContextFile, 0, len(paths))
	for _, p := range paths {
		symbols := byFile[p]
		sort.Slice(symbols, func(i, j int) bool { return symbols[i].Symbol.StartLine < symbols[j].Symbol.StartLine })
		files = append(files, ContextFile{Path: p, Symbols: symbols})
	}
	return files
}

func computeQualityMetrics(seedIDs []int64, includedIDs map[int64]bool, included []ContextSymbol, adjacency map[int64][]int64, tokensUsed, budget, duplicateSkips, redactionHits int) QualityMetrics {
	includedSeedCount := 0
	var includedSeedIDs []int64
	for _, id := range seedIDs {
		if includedIDs[id] {
			includedSeedCount++
			includedSeedIDs = append(includedSeedIDs, id)
		}
	}
	seedHitRate := float64(includedSeedCount) / math.Max(float64(len(seedIDs)), 1)

	connectedness := 0.0
	if len(includedSeedIDs) > 0 && len(included) > 0 {
		visited := map[int64]bool{}
		queue := append([]int64(nil), includedSeedIDs...)
		for _, id := range includedSeedIDs {
			visited[id] = true
		}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, nb := range adjacency[cur] {
				if includedIDs[nb] && !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		connectedness = float64(len(visited)) / math.Max(float64(len(included)), 1)
	}

	tokenEfficiency := 0.0
	if budget > 0 {
		tokenEfficiency = float64(tokensUsed) / float64(budget)
	}

	avgDepth := 0.0
	if len(included) > 0 {
		var sum int
		for _, cs := range included {
			sum += cs.Depth
		}
		avgDepth = float64(sum) / float64(len(included))
	}

	dedupeRatio := 1.0
	if duplicateSkips > 0 {
		dedupeRatio = float64(len(included)) / float64(len(included)+duplicateSkips)
	}

	return QualityMetrics{
		SeedHitRate:     round4(seedHitRate),
		Connectedness:   round4(connectedness),
		TokenEfficiency: round4(tokenEfficiency),
		AvgDepth:        round4(avgDepth),
		DedupeRatio:     round4(dedupeRatio),
		RedactionHits:   redactionHits,
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
