// Package config defines the analysis configuration recognized by the core
// engines. No environment variables and no secrets: the core is handed a
// validated, immutable value and nothing else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v2"
)

// AnalysisConfig tunes reconciliation and valuation behavior.
type AnalysisConfig struct {
	// CoverageThreshold is the fraction of required metrics that must
	// resolve before a reconciliation result is usable.
	CoverageThreshold float64 `yaml:"coverage_threshold" json:"coverage_threshold" validate:"gte=0,lte=1"`
	// ConflictTolerance is the relative derived-vs-raw gap beyond which a
	// reconciliation note is flagged.
	ConflictTolerance float64 `yaml:"conflict_tolerance" json:"conflict_tolerance" validate:"gte=0,lt=1"`
	// DCFHorizonYears is the explicit projection horizon.
	DCFHorizonYears int `yaml:"dcf_horizon_years" json:"dcf_horizon_years" validate:"gte=1,lte=30"`
	// RequiredMetrics are the canonical ids gated by CoverageThreshold.
	RequiredMetrics []string `yaml:"required_metrics" json:"required_metrics" validate:"min=1,dive,required"`
	// PrecedenceOverrides optionally rewires source precedence per
	// statement type, e.g. {"balance": ["MARKET_DATA", "SEC_EDGAR"]}.
	PrecedenceOverrides map[string][]string `yaml:"precedence_overrides,omitempty" json:"precedence_overrides,omitempty"`
}

// Default returns the standard configuration: every core metric required,
// 1% conflict tolerance, a five-year projection horizon.
func Default() AnalysisConfig {
	return AnalysisConfig{
		CoverageThreshold: 1.0,
		ConflictTolerance: 0.01,
		DCFHorizonYears:   5,
		RequiredMetrics:   []string{"revenue", "total_assets", "operating_cash_flow"},
	}
}

// Validate checks the configuration's invariants.
func (c AnalysisConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Load reads a configuration file, fills unset fields from Default, and
// validates. YAML (.yaml/.yml) and HJSON (.hjson/.json) are supported.
func Load(path string) (AnalysisConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AnalysisConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AnalysisConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case ".hjson", ".json":
		// HJSON parses to a generic value; round-trip through JSON to land
		// on the typed struct.
		var generic any
		if err := hjson.Unmarshal(data, &generic); err != nil {
			return AnalysisConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		raw, err := json.Marshal(generic)
		if err != nil {
			return AnalysisConfig{}, fmt.Errorf("config: normalize %s: %w", path, err)
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return AnalysisConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		return AnalysisConfig{}, fmt.Errorf("config: unsupported file type %q", filepath.Ext(path))
	}

	if len(cfg.RequiredMetrics) == 0 {
		cfg.RequiredMetrics = Default().RequiredMetrics
	}
	if err := cfg.Validate(); err != nil {
		return AnalysisConfig{}, err
	}
	return cfg, nil
}
