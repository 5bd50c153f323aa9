package query

import (
	"fmt"
	"sort"

	"bombe/internal/guards"
	"bombe/internal/storage"
)

// RiskLevel classifies how exposed a change to a symbol is.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// BlastRadiusResult reports every caller reachable from a symbol,
// split into direct (depth 1) and transitive (depth > 1) callers.
type BlastRadiusResult struct {
	Target          storage.Symbol
	DirectCallers   []ReferenceHit
	TransitiveCallers []ReferenceHit
	AffectedFiles   []string
	Risk            RiskLevel
	Summary         string
}

// BlastRadius walks incoming CALLS edges from identifier and reports
// the direct/transitive caller split, affected files, and risk level.
func (e *Engine) BlastRadius(identifier string) (*BlastRadiusResult, error) {
	target, err := e.resolveTarget(identifier)
	if err != nil {
		return nil, err
	}
	hits, err := e.References(identifier, ModeCallers, guards.MaxBlastDepth, false)
	if err != nil {
		return nil, err
	}

	var direct, transitive []ReferenceHit
	files := map[string]bool{target.FilePath: true}
	for _, h := range hits {
		files[h.Symbol.FilePath] = true
		if h.Depth == 1 {
			direct = append(direct, h)
		} else {
			transitive = append(transitive, h)
		}
	}

	total := len(direct) + len(transitive)
	risk := classifyRisk(total, 10, 3)
	summary := fmt.Sprintf("%s has %d direct and %d transitive caller(s) across %d file(s); risk=%s",
		target.QualifiedName, len(direct), len(transitive), len(files), risk)

	return &BlastRadiusResult{
		Target:            *target,
		DirectCallers:     direct,
		TransitiveCallers: transitive,
		AffectedFiles:     sortedKeys(files),
		Risk:              risk,
		Summary:           summary,
	}, nil
}

// TypeDependent is a one-hop EXTENDS/IMPLEMENTS dependent of a symbol,
// carrying the reason it is considered impacted.
type TypeDependent struct {
	Symbol       storage.Symbol
	Relationship string
	ImpactReason string
}

// ChangeImpactResult extends a blast radius with type-level dependents.
type ChangeImpactResult struct {
	BlastRadiusResult
	TypeDependents []TypeDependent
}

// ChangeImpact layers a one-hop EXTENDS/IMPLEMENTS dependent lookup on
// top of BlastRadius, with its own risk thresholds.
func (e *Engine) ChangeImpact(identifier string) (*ChangeImpactResult, error) {
	blast, err := e.BlastRadius(identifier)
	if err != nil {
		return nil, err
	}

	extendsEdges, err := e.db.EdgesTo(blast.Target.ID, storage.RelExtends)
	if err != nil {
		return nil, err
	}
	implementsEdges, err := e.db.EdgesTo(blast.Target.ID, storage.RelImplements)
	if err != nil {
		return nil, err
	}

	var dependents []TypeDependent
	seen := map[int64]bool{}
	for _, edges := range [][]storage.Edge{extendsEdges, implementsEdges} {
		for _, edge := range edges {
			if seen[edge.SourceID] {
				continue
			}
			seen[edge.SourceID] = true
			sym, err := e.db.GetSymbolByID(edge.SourceID)
			if err != nil || sym == nil {
				continue
			}
			reason := fmt.Sprintf("%s depends on %s via %s", sym.QualifiedName, blast.Target.QualifiedName, edge.Relationship)
			dependents = append(dependents, TypeDependent{Symbol: *sym, Relationship: edge.Relationship, ImpactReason: reason})
		}
	}

	total := len(blast.DirectCallers) + len(blast.TransitiveCallers) + len(dependents)
	blast.Risk = classifyRisk(total, 12, 4)
	blast.Summary = fmt.Sprintf("%s has %d direct and %d transitive caller(s) plus %d type dependent(s) across %d file(s); risk=%s",
		blast.Target.QualifiedName, len(blast.DirectCallers), len(blast.TransitiveCallers), len(dependents), len(blast.AffectedFiles), blast.Risk)

	return &ChangeImpactResult{BlastRadiusResult: *blast, TypeDependents: dependents}, nil
}

func classifyRisk(total, highAt, mediumAt int) RiskLevel {
	switch {
	case total >= highAt:
		return RiskHigh
	case total >= mediumAt:
		return RiskMedium
	default:
		return RiskLow
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
