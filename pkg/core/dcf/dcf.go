package dcf

import (
	"errors"
	"fmt"
	"math"

	"equitylens/pkg/models"
)

// ErrMissingStatementInput reports that the statement set lacks a metric
// every scenario needs (starting revenue, net debt, share count). This is a
// data problem, not an assumption problem, so it fails the whole valuation.
var ErrMissingStatementInput = errors.New("dcf: required statement input missing")

// ProjectedYear is one year of the explicit projection.
type ProjectedYear struct {
	Year                     int     `json:"year"` // 1-based offset from the base period
	Revenue                  float64 `json:"revenue"`
	EBIT                     float64 `json:"ebit"`
	NOPAT                    float64 `json:"nopat"`
	DepreciationAmortization float64 `json:"depreciation_amortization"`
	CapitalExpenditure       float64 `json:"capital_expenditure"`
	WorkingCapitalChange     float64 `json:"working_capital_change"`
	FreeCashFlow             float64 `json:"free_cash_flow"`
}

// Scenario is one fully computed valuation scenario.
type Scenario struct {
	Label                  ScenarioLabel   `json:"label"`
	Assumptions            Assumptions     `json:"assumptions"`
	Years                  []ProjectedYear `json:"projected_cash_flows"`
	TerminalValue          float64         `json:"terminal_value"`
	PresentValueOfCashFlow float64         `json:"pv_cash_flows"`
	PresentValueOfTerminal float64         `json:"pv_terminal"`
	EnterpriseValue        float64         `json:"enterprise_value"`
	EquityValue            float64         `json:"equity_value"`
	IntrinsicValuePerShare float64         `json:"intrinsic_value_per_share"`
}

// Range is the implied intrinsic value interval across scenarios.
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Result is the full three-scenario valuation outcome. Scenarios holds the
// successes; ScenarioErrors the per-label failures. ImpliedRange and
// BaseCase are populated only for a complete result (all three succeeded).
//
// OrderingAnomaly is set when the computed intrinsic values do not satisfy
// Bear < Base < Bull. Assumptions are caller-supplied, so the engine
// computes literally and flags the anomaly instead of reordering labels.
type Result struct {
	Scenarios       map[ScenarioLabel]*Scenario `json:"scenarios"`
	ScenarioErrors  map[ScenarioLabel]string    `json:"scenario_errors,omitempty"`
	ImpliedRange    *Range                      `json:"implied_range,omitempty"`
	BaseCase        *Scenario                   `json:"-"`
	OrderingAnomaly bool                        `json:"ordering_anomaly,omitempty"`
}

// Complete reports whether all three scenarios computed.
func (r *Result) Complete() bool {
	return len(r.Scenarios) == len(Labels())
}

// Value runs the three-scenario DCF against a canonical statement set.
// assumptions must carry exactly the Bear, Base and Bull labels.
//
// Starting revenue, net debt and a diluted share count are read from the
// statement set; their absence fails the valuation with
// ErrMissingStatementInput rather than substituting zero.
func Value(set *models.FinancialStatementSet, assumptions map[ScenarioLabel]Assumptions, horizonYears int) (*Result, error) {
	if set == nil {
		return nil, fmt.Errorf("dcf: nil statement set")
	}
	for _, label := range Labels() {
		if _, ok := assumptions[label]; !ok {
			return nil, fmt.Errorf("dcf: missing %s scenario assumptions", label)
		}
	}
	if len(assumptions) != len(Labels()) {
		return nil, fmt.Errorf("dcf: expected exactly %d scenarios, got %d", len(Labels()), len(assumptions))
	}

	baseRevenue, ok := set.Float("revenue")
	if !ok {
		return nil, fmt.Errorf("%w: revenue", ErrMissingStatementInput)
	}
	netDebt, ok := set.Float("net_debt")
	if !ok {
		// total_debt alone is an acceptable conservative bridge only when
		// cash is also known; otherwise the equity bridge is a guess.
		return nil, fmt.Errorf("%w: net_debt", ErrMissingStatementInput)
	}
	shares, ok := set.Float("diluted_shares_outstanding")
	if !ok {
		shares, ok = set.Float("shares_outstanding")
	}
	if !ok {
		return nil, fmt.Errorf("%w: shares_outstanding", ErrMissingStatementInput)
	}
	if shares <= 0 {
		return nil, fmt.Errorf("%w: shares outstanding is not positive", ErrMissingStatementInput)
	}

	res := &Result{
		Scenarios:      make(map[ScenarioLabel]*Scenario, len(Labels())),
		ScenarioErrors: make(map[ScenarioLabel]string),
	}

	for _, label := range Labels() {
		a := assumptions[label]
		sc, err := runScenario(label, a, baseRevenue, netDebt, shares, horizonYears)
		if err != nil {
			res.ScenarioErrors[label] = err.Error()
			continue
		}
		res.Scenarios[label] = sc
	}
	if len(res.ScenarioErrors) == 0 {
		res.ScenarioErrors = nil
	}

	if res.Complete() {
		bear := res.Scenarios[Bear].IntrinsicValuePerShare
		base := res.Scenarios[Base].IntrinsicValuePerShare
		bull := res.Scenarios[Bull].IntrinsicValuePerShare
		res.BaseCase = res.Scenarios[Base]
		res.ImpliedRange = &Range{
			Low:  math.Min(bear, math.Min(base, bull)),
			High: math.Max(bear, math.Max(base, bull)),
		}
		if !(bear < base && base < bull) {
			res.OrderingAnomaly = true
		}
	}
	return res, nil
}

// runScenario projects and discounts a single scenario.
func runScenario(label ScenarioLabel, a Assumptions, baseRevenue, netDebt, shares float64, horizonYears int) (*Scenario, error) {
	if err := a.Validate(label, horizonYears); err != nil {
		return nil, err
	}

	sc := &Scenario{Label: label, Assumptions: a}

	// 1. Explicit projection: compound the growth path, apply the margin
	// path, then the standard UFCF adjustments.
	revenue := baseRevenue
	prevRevenue := baseRevenue
	discount := 1.0
	pvCashFlows := 0.0
	lastFCF := 0.0

	for year := 1; year <= horizonYears; year++ {
		revenue = prevRevenue * (1 + a.RevenueGrowth[year-1])
		ebit := revenue * a.OperatingMargin[year-1]
		nopat := ebit * (1 - a.TaxRate)
		da := revenue * a.DepreciationPctRevenue
		capex := revenue * a.CapexPctRevenue
		deltaWC := (revenue - prevRevenue) * a.WorkingCapitalPctRevenue
		fcf := nopat + da - capex - deltaWC

		sc.Years = append(sc.Years, ProjectedYear{
			Year:                     year,
			Revenue:                  revenue,
			EBIT:                     ebit,
			NOPAT:                    nopat,
			DepreciationAmortization: da,
			CapitalExpenditure:       capex,
			WorkingCapitalChange:     deltaWC,
			FreeCashFlow:             fcf,
		})

		discount /= 1 + a.DiscountRate
		pvCashFlows += fcf * discount
		prevRevenue = revenue
		lastFCF = fcf
	}

	// 2. Gordon-growth terminal value at horizon end. Validate guarantees
	// the denominator is positive.
	sc.TerminalValue = lastFCF * (1 + a.TerminalGrowth) / (a.DiscountRate - a.TerminalGrowth)
	sc.PresentValueOfCashFlow = pvCashFlows
	sc.PresentValueOfTerminal = sc.TerminalValue * discount

	// 3. Enterprise value, bridge to equity, per-share.
	sc.EnterpriseValue = sc.PresentValueOfCashFlow + sc.PresentValueOfTerminal
	sc.EquityValue = sc.EnterpriseValue - netDebt
	sc.IntrinsicValuePerShare = sc.EquityValue / shares

	return sc, nil
}
