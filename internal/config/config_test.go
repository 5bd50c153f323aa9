package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	if !cfg.HybridSearch {
		t.Error("hybrid search should default to enabled")
	}
	if cfg.HybridVector {
		t.Error("hybrid vector should default to disabled")
	}
	if !cfg.ExcludeSensitive {
		t.Error("exclude sensitive should default to enabled")
	}
}

func TestTruthyConvention(t *testing.T) {
	cases := map[string]bool{
		"0": false, "false": false, "FALSE": false, "no": false, "off": false,
		"1": true, "true": true, "yes": true, "on": true, "garbage": true,
	}
	for raw, want := range cases {
		if got := truthy(raw, true); got != want {
			t.Errorf("truthy(%q) = %v, want %v", raw, got, want)
		}
	}
	if got := truthy("", false); got != false {
		t.Errorf("empty string should keep fallback")
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("BOMBE_HYBRID_SEARCH", "0")
	os.Setenv("BOMBE_HYBRID_VECTOR", "true")
	os.Setenv("BOMBE_SEMANTIC_HINTS_FILE", filepath.Join(dir, "hints.json"))
	defer os.Unsetenv("BOMBE_HYBRID_SEARCH")
	defer os.Unsetenv("BOMBE_HYBRID_VECTOR")
	defer os.Unsetenv("BOMBE_SEMANTIC_HINTS_FILE")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HybridSearch {
		t.Error("BOMBE_HYBRID_SEARCH=0 should disable hybrid search")
	}
	if !cfg.HybridVector {
		t.Error("BOMBE_HYBRID_VECTOR=true should enable semantic scoring")
	}
	if cfg.SemanticHintsFile == "" {
		t.Error("semantic hints file should be set from env")
	}
}
