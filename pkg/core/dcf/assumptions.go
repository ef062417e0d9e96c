// Package dcf projects unlevered free cash flow under Bear/Base/Bull
// scenarios and discounts it to an intrinsic value range per share.
//
// The engine invents no assumption defaults: growth paths, margins, rates
// and intensities are caller-supplied per scenario and validated before any
// arithmetic runs. A bad scenario fails alone; the others still compute.
package dcf

import (
	"errors"
	"fmt"
)

// ScenarioLabel names one of the three valuation scenarios.
type ScenarioLabel string

const (
	Bear ScenarioLabel = "Bear"
	Base ScenarioLabel = "Base"
	Bull ScenarioLabel = "Bull"
)

// Labels returns the scenario labels in canonical order.
func Labels() []ScenarioLabel {
	return []ScenarioLabel{Bear, Base, Bull}
}

// Assumptions drives one scenario's projection. Paths are per projection
// year and must match the configured horizon exactly.
type Assumptions struct {
	// RevenueGrowth is the year-over-year revenue growth path, e.g.
	// [0.05, 0.05, 0.04, 0.04, 0.03].
	RevenueGrowth []float64 `json:"revenue_growth"`
	// OperatingMargin is the EBIT margin path applied to each projected
	// year's revenue.
	OperatingMargin []float64 `json:"operating_margin"`
	// DiscountRate is the rate used to discount projected cash flows,
	// typically WACC-derived (see DeriveDiscountRate) or supplied directly.
	DiscountRate float64 `json:"discount_rate"`
	// TerminalGrowth feeds the Gordon-growth terminal value and must be
	// strictly below DiscountRate.
	TerminalGrowth float64 `json:"terminal_growth"`
	// TaxRate converts EBIT to NOPAT.
	TaxRate float64 `json:"tax_rate"`
	// DepreciationPctRevenue adds D&A back as a fraction of revenue.
	DepreciationPctRevenue float64 `json:"depreciation_pct_revenue"`
	// CapexPctRevenue deducts capital expenditure as a fraction of revenue.
	CapexPctRevenue float64 `json:"capex_pct_revenue"`
	// WorkingCapitalPctRevenue deducts the working-capital investment as a
	// fraction of each year's revenue increase.
	WorkingCapitalPctRevenue float64 `json:"working_capital_pct_revenue"`
}

// InvalidAssumptionError rejects one scenario's assumptions. Other
// scenarios in the same request are unaffected.
type InvalidAssumptionError struct {
	Label  ScenarioLabel
	Reason string
}

func (e *InvalidAssumptionError) Error() string {
	return fmt.Sprintf("dcf scenario %s: invalid assumptions: %s", e.Label, e.Reason)
}

// IsInvalidAssumption reports whether err is an InvalidAssumptionError.
func IsInvalidAssumption(err error) bool {
	var iae *InvalidAssumptionError
	return errors.As(err, &iae)
}

// Validate checks the assumptions against the projection horizon.
func (a Assumptions) Validate(label ScenarioLabel, horizonYears int) error {
	fail := func(format string, args ...any) error {
		return &InvalidAssumptionError{Label: label, Reason: fmt.Sprintf(format, args...)}
	}
	if horizonYears < 1 {
		return fail("projection horizon %d is not positive", horizonYears)
	}
	if len(a.RevenueGrowth) != horizonYears {
		return fail("revenue growth path has %d years, horizon is %d", len(a.RevenueGrowth), horizonYears)
	}
	if len(a.OperatingMargin) != horizonYears {
		return fail("operating margin path has %d years, horizon is %d", len(a.OperatingMargin), horizonYears)
	}
	for i, g := range a.RevenueGrowth {
		if g <= -1 {
			return fail("revenue growth of %.2f in year %d implies non-positive revenue", g, i+1)
		}
	}
	if a.DiscountRate <= 0 {
		return fail("discount rate %.4f is not positive", a.DiscountRate)
	}
	if a.TerminalGrowth >= a.DiscountRate {
		return fail("terminal growth %.4f is not strictly below discount rate %.4f", a.TerminalGrowth, a.DiscountRate)
	}
	if a.TaxRate < 0 || a.TaxRate >= 1 {
		return fail("tax rate %.4f outside [0, 1)", a.TaxRate)
	}
	if a.DepreciationPctRevenue < 0 || a.CapexPctRevenue < 0 {
		return fail("depreciation and capex intensities must be non-negative")
	}
	return nil
}
