// Package config loads engine configuration from a config file
// (JSON, TOML, or YAML, auto-detected by viper) and BOMBE_* environment
// overrides.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full set of tunables the engine reads at startup.
type Config struct {
	// DatabasePath overrides the default <repo>/.bombe/bombe.db location.
	DatabasePath string `mapstructure:"database_path" json:"database_path"`

	// Workers sizes the extraction worker pool. Default() sets it to
	// runtime.NumCPU(); the indexer runs a single worker for a value of
	// zero or less.
	Workers int `mapstructure:"workers" json:"workers"`

	// HybridSearch toggles BOMBE_HYBRID_SEARCH (default true).
	HybridSearch bool `mapstructure:"hybrid_search" json:"hybrid_search"`
	// HybridVector toggles BOMBE_HYBRID_VECTOR (default false).
	HybridVector bool `mapstructure:"hybrid_vector" json:"hybrid_vector"`
	// ExcludeSensitive toggles BOMBE_EXCLUDE_SENSITIVE (default true).
	ExcludeSensitive bool `mapstructure:"exclude_sensitive" json:"exclude_sensitive"`
	// SemanticHintsFile is an absolute path to a global hints JSON
	// file consulted by the call-graph builder.
	SemanticHintsFile string `mapstructure:"semantic_hints_file" json:"semantic_hints_file"`

	// FederationConfigPath is the path of the federation config file.
	FederationConfigPath string `mapstructure:"federation_config_path" json:"federation_config_path"`

	// PlannerCacheMaxEntries bounds the in-memory response cache.
	PlannerCacheMaxEntries int `mapstructure:"planner_cache_max_entries" json:"planner_cache_max_entries"`
	// PlannerCacheTTLSeconds is the default cache entry lifetime.
	PlannerCacheTTLSeconds int `mapstructure:"planner_cache_ttl_seconds" json:"planner_cache_ttl_seconds"`
}

// Default returns the configuration baseline before any file or
// environment overrides are applied, matching spec.md §6's stated
// defaults.
func Default() Config {
	return Config{
		Workers:                runtime.NumCPU(),
		HybridSearch:           true,
		HybridVector:           false,
		ExcludeSensitive:       true,
		PlannerCacheMaxEntries: 512,
		PlannerCacheTTLSeconds: 15,
	}
}

// Load reads bombe.json (or .toml/.yaml) from configDir if present,
// then applies BOMBE_* environment overrides on top.
func Load(configDir string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("bombe")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.SetEnvPrefix("BOMBE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return cfg, fmt.Errorf("config: failed to read config file: %w", err)
		}
	} else if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: failed to decode config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// applyEnvOverrides reads the spec-named BOMBE_* variables directly,
// using the truthy/falsy convention from spec.md §4.8:
// "0|false|no|off" disables, anything else enables.
func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("BOMBE_HYBRID_SEARCH"); ok {
		cfg.HybridSearch = truthy(v, cfg.HybridSearch)
	}
	if v, ok := os.LookupEnv("BOMBE_HYBRID_VECTOR"); ok {
		cfg.HybridVector = truthy(v, cfg.HybridVector)
	}
	if v, ok := os.LookupEnv("BOMBE_EXCLUDE_SENSITIVE"); ok {
		cfg.ExcludeSensitive = truthy(v, cfg.ExcludeSensitive)
	}
	if v, ok := os.LookupEnv("BOMBE_SEMANTIC_HINTS_FILE"); ok && v != "" {
		cfg.SemanticHintsFile = v
	}
}

var falsyValues = map[string]bool{"0": true, "false": true, "no": true, "off": true}

// truthy implements the permissive toggle convention: a recognized
// falsy literal disables, anything else (including garbage) enables.
func truthy(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	return !falsyValues[strings.ToLower(raw)]
}
