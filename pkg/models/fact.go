// Package models defines the typed records exchanged between the source
// adapter boundary and the analytics engines: provenance-tagged raw facts on
// the way in, the canonical financial statement set on the way out.
//
// Everything here is immutable after construction. Engines never mutate a
// statement set; they read it and produce their own result values.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Provenance identifies which class of source reported a fact.
type Provenance string

const (
	ProvenanceSECEdgar   Provenance = "SEC_EDGAR"
	ProvenanceMarketData Provenance = "MARKET_DATA"
)

// Valid reports whether p is a known provenance tag.
func (p Provenance) Valid() bool {
	return p == ProvenanceSECEdgar || p == ProvenanceMarketData
}

// ParseProvenance converts an external string tag to a Provenance.
func ParseProvenance(s string) (Provenance, error) {
	p := Provenance(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown provenance %q", s)
	}
	return p, nil
}

// Confidence is the ordinal reliability a source adapter assigns to a fact.
// Higher values win ties during reconciliation.
type Confidence int

const (
	ConfidenceLow Confidence = iota + 1
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) Valid() bool {
	return c >= ConfidenceLow && c <= ConfidenceHigh
}

func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "LOW"
	case ConfidenceMedium:
		return "MEDIUM"
	case ConfidenceHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("Confidence(%d)", int(c))
	}
}

// ParseConfidence converts an external string tag to a Confidence.
func ParseConfidence(s string) (Confidence, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return ConfidenceLow, nil
	case "MEDIUM":
		return ConfidenceMedium, nil
	case "HIGH":
		return ConfidenceHigh, nil
	default:
		return 0, fmt.Errorf("unknown confidence %q", s)
	}
}

// MarshalText renders the confidence name, so JSON payloads carry "HIGH"
// rather than an opaque integer.
func (c Confidence) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid confidence %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Confidence) UnmarshalText(b []byte) error {
	parsed, err := ParseConfidence(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// StatementType classifies a canonical metric by the statement it belongs to.
// Reconciliation precedence is keyed on this classification.
type StatementType string

const (
	StatementIncome   StatementType = "income"
	StatementBalance  StatementType = "balance"
	StatementCashFlow StatementType = "cash_flow"
	StatementMarket   StatementType = "market"
)

func (s StatementType) Valid() bool {
	switch s {
	case StatementIncome, StatementBalance, StatementCashFlow, StatementMarket:
		return true
	}
	return false
}

// Period identifies a fiscal reporting period. FiscalQuarter is nil for
// full-year periods.
type Period struct {
	FiscalYear    int  `json:"fiscal_year"`
	FiscalQuarter *int `json:"fiscal_quarter,omitempty"`
}

// AnnualPeriod returns a full fiscal-year period.
func AnnualPeriod(year int) Period {
	return Period{FiscalYear: year}
}

// QuarterPeriod returns a fiscal-quarter period.
func QuarterPeriod(year, quarter int) Period {
	q := quarter
	return Period{FiscalYear: year, FiscalQuarter: &q}
}

// Prior returns the same period one fiscal year earlier.
func (p Period) Prior() Period {
	prior := Period{FiscalYear: p.FiscalYear - 1}
	if p.FiscalQuarter != nil {
		q := *p.FiscalQuarter
		prior.FiscalQuarter = &q
	}
	return prior
}

func (p Period) Equal(other Period) bool {
	if p.FiscalYear != other.FiscalYear {
		return false
	}
	if (p.FiscalQuarter == nil) != (other.FiscalQuarter == nil) {
		return false
	}
	return p.FiscalQuarter == nil || *p.FiscalQuarter == *other.FiscalQuarter
}

func (p Period) String() string {
	if p.FiscalQuarter != nil {
		return fmt.Sprintf("FY%dQ%d", p.FiscalYear, *p.FiscalQuarter)
	}
	return fmt.Sprintf("FY%d", p.FiscalYear)
}

// RawFact is a single source-reported observation: one candidate metric key,
// one value, tagged with period, provenance and capture metadata. Immutable
// once captured; reconciliation reads facts, it never rewrites them.
type RawFact struct {
	CandidateKey string          `json:"candidate_key"`
	Value        decimal.Decimal `json:"value"`
	Unit         string          `json:"unit,omitempty"`
	Period       Period          `json:"period"`
	Provenance   Provenance      `json:"provenance"`
	AsOf         time.Time       `json:"as_of"`
	Confidence   Confidence      `json:"confidence"`
}

// NewRawFact validates and constructs a RawFact. Adapters should build facts
// through this so malformed inputs are rejected at the boundary instead of
// surfacing inside a formula.
func NewRawFact(key string, value decimal.Decimal, unit string, period Period, prov Provenance, asOf time.Time, conf Confidence) (RawFact, error) {
	if strings.TrimSpace(key) == "" {
		return RawFact{}, fmt.Errorf("raw fact: candidate key is empty")
	}
	if period.FiscalYear <= 0 {
		return RawFact{}, fmt.Errorf("raw fact %q: fiscal year %d is not positive", key, period.FiscalYear)
	}
	if period.FiscalQuarter != nil && (*period.FiscalQuarter < 1 || *period.FiscalQuarter > 4) {
		return RawFact{}, fmt.Errorf("raw fact %q: fiscal quarter %d out of range", key, *period.FiscalQuarter)
	}
	if !prov.Valid() {
		return RawFact{}, fmt.Errorf("raw fact %q: unknown provenance %q", key, prov)
	}
	if !conf.Valid() {
		return RawFact{}, fmt.Errorf("raw fact %q: invalid confidence %d", key, int(conf))
	}
	return RawFact{
		CandidateKey: key,
		Value:        value,
		Unit:         unit,
		Period:       period,
		Provenance:   prov,
		AsOf:         asOf,
		Confidence:   conf,
	}, nil
}
