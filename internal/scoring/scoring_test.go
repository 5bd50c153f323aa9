package scoring

import (
	"math"
	"testing"
)

func TestLexicalScoreExactMatch(t *testing.T) {
	if got := LexicalScore("Foo", "Foo", "pkg.Foo"); got != 1.0 {
		t.Errorf("exact match = %v, want 1.0", got)
	}
}

func TestLexicalScoreNameContains(t *testing.T) {
	if got := LexicalScore("foo", "FooBar", "pkg.FooBar"); got != 0.9 {
		t.Errorf("name-contains = %v, want 0.9", got)
	}
}

func TestLexicalScoreQualifiedContains(t *testing.T) {
	if got := LexicalScore("pkg", "Bar", "pkg.Bar"); got != 0.8 {
		t.Errorf("qualified-contains = %v, want 0.8", got)
	}
}

func TestLexicalScoreJaccardFallback(t *testing.T) {
	got := LexicalScore("parse config file", "Load", "pkg.config.Load")
	if got <= 0 || got >= 1 {
		t.Errorf("expected fractional overlap score, got %v", got)
	}
}

func TestLexicalScoreEmptyQuery(t *testing.T) {
	if got := LexicalScore("", "Foo", "pkg.Foo"); got != 0 {
		t.Errorf("empty query should score 0, got %v", got)
	}
}

func TestStructuralScoreMonotoneInFanOut(t *testing.T) {
	low := StructuralScore(0.1, 0, 0)
	high := StructuralScore(0.1, 10, 10)
	if high <= low {
		t.Errorf("expected higher fan-out to increase score: low=%v high=%v", low, high)
	}
}

func TestStructuralScoreClampsNegatives(t *testing.T) {
	got := StructuralScore(-1, -5, -5)
	want := 0 + 0.1*math.Log(1)
	if got != want {
		t.Errorf("expected negatives clamped to 0, got %v want %v", got, want)
	}
}

func TestSemanticScoreDisabledIsZero(t *testing.T) {
	if got := SemanticScore("parse config", "func ParseConfig()", "parses configuration", false); got != 0 {
		t.Errorf("disabled semantic toggle should score 0, got %v", got)
	}
}

func TestSemanticScoreEnabled(t *testing.T) {
	got := SemanticScore("parse configuration", "func ParseConfig()", "parses configuration", true)
	if got <= 0 {
		t.Errorf("expected positive semantic overlap, got %v", got)
	}
}

func TestRankSymbolHybridVsStructuralOnly(t *testing.T) {
	s := Symbol{Name: "Foo", QualifiedName: "pkg.Foo", PagerankScore: 0.2, Callers: 2, Callees: 1}
	hybrid := RankSymbol("Foo", s, true, false)
	structuralOnly := RankSymbol("Foo", s, false, false)
	if hybrid == structuralOnly {
		t.Errorf("expected hybrid and structural-only ranks to differ for an exact-match query")
	}
	if structuralOnly != StructuralScore(s.PagerankScore, s.Callers, s.Callees) {
		t.Errorf("structural-only mode should return pure structural score")
	}
}
