// Package summary distills a reconciled statement set into investment-sheet
// signals: bull and bear case findings, a five-category risk assessment,
// red flags, and a quick heuristic valuation range.
//
// Output is structured data only. Rendering findings into prose is the
// presentation layer's job; the core never formats user-facing text.
package summary

import (
	"equitylens/pkg/core/ratios"
	"equitylens/pkg/models"
)

// Direction marks which side of the thesis a finding supports.
type Direction string

const (
	DirectionBull Direction = "bull"
	DirectionBear Direction = "bear"
)

// Finding is one triggered thesis point: a named signal, the observed
// value, and the threshold that tripped it. Only signals whose inputs
// resolved are emitted; nothing is padded with boilerplate.
type Finding struct {
	Code      string    `json:"code"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Direction Direction `json:"direction"`
}

// RiskLevel grades one risk category.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
	// RiskUnknown marks a category whose inputs did not resolve. Missing
	// data is reported as missing, not graded with invented defaults.
	RiskUnknown RiskLevel = "UNKNOWN"
)

// RiskCategory names the five assessed categories.
type RiskCategory string

const (
	RiskFinancialHealth RiskCategory = "financial_health"
	RiskValuation       RiskCategory = "valuation"
	RiskGrowth          RiskCategory = "growth"
	RiskLiquidity       RiskCategory = "liquidity"
	RiskProfitability   RiskCategory = "profitability"
)

// RedFlag is a triggered major-concern signal.
type RedFlag struct {
	Code      string  `json:"code"`
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// ValuationRange is the quick price-anchored bear/base/bull band
// (-20% / current / +25%), distinct from the DCF engine's model-driven
// range.
type ValuationRange struct {
	BearCase float64 `json:"bear_case"`
	BaseCase float64 `json:"base_case"`
	BullCase float64 `json:"bull_case"`
}

// Summary is the assembled investment sheet.
type Summary struct {
	BullCase       []Finding                  `json:"bull_case"`
	BearCase       []Finding                  `json:"bear_case"`
	Risks          map[RiskCategory]RiskLevel `json:"risks"`
	RedFlags       []RedFlag                  `json:"red_flags"`
	Ratios         ratios.Ratios              `json:"ratios"`
	ValuationRange *ValuationRange            `json:"valuation_range,omitempty"`
}

// Generate builds the summary from current and optional prior statement
// sets.
func Generate(current, prior *models.FinancialStatementSet) Summary {
	if current == nil {
		return Summary{Risks: assessRisks(ratios.Ratios{})}
	}
	r := ratios.Compute(current, prior)
	s := Summary{
		Ratios: r,
		Risks:  assessRisks(r),
	}
	s.BullCase = bullFindings(r)
	s.BearCase = bearFindings(r)
	s.RedFlags = redFlags(r)
	if price, ok := current.Float("share_price"); ok && price > 0 {
		s.ValuationRange = &ValuationRange{
			BearCase: price * 0.80,
			BaseCase: price,
			BullCase: price * 1.25,
		}
	}
	return s
}

func bullFindings(r ratios.Ratios) []Finding {
	var out []Finding
	add := func(code, metric string, v *float64, threshold float64, pass func(float64) bool) {
		if v != nil && pass(*v) {
			out = append(out, Finding{Code: code, Metric: metric, Value: *v, Threshold: threshold, Direction: DirectionBull})
		}
	}
	above := func(th float64) func(float64) bool { return func(v float64) bool { return v > th } }
	below := func(th float64) func(float64) bool { return func(v float64) bool { return v < th } }

	add("strong_roe", "roe", r.ROE, 0.15, above(0.15))
	add("healthy_gross_margin", "gross_margin", r.GrossMargin, 0.30, above(0.30))
	add("strong_operating_margin", "operating_margin", r.OperatingMargin, 0.15, above(0.15))
	add("solid_liquidity", "current_ratio", r.CurrentRatio, 1.5, above(1.5))
	add("conservative_leverage", "debt_to_equity", r.DebtToEquity, 0.5, below(0.5))
	add("consistent_growth", "revenue_growth", r.RevenueGrowth, 0.10, above(0.10))
	// Operating cash flow outrunning net income signals earnings backed by
	// cash rather than accruals.
	add("quality_cash_generation", "ocf_to_net_income", r.OCFToNetIncome, 1.0, above(1.0))
	return out
}

func bearFindings(r ratios.Ratios) []Finding {
	var out []Finding
	add := func(code, metric string, v *float64, threshold float64, pass func(float64) bool) {
		if v != nil && pass(*v) {
			out = append(out, Finding{Code: code, Metric: metric, Value: *v, Threshold: threshold, Direction: DirectionBear})
		}
	}
	above := func(th float64) func(float64) bool { return func(v float64) bool { return v > th } }
	below := func(th float64) func(float64) bool { return func(v float64) bool { return v < th } }

	add("premium_valuation", "pe_ratio", r.PERatio, 30, above(30))
	add("high_leverage", "debt_to_equity", r.DebtToEquity, 1.5, above(1.5))
	add("slowing_growth", "revenue_growth", r.RevenueGrowth, 0.03, below(0.03))
	add("thin_margins", "operating_margin", r.OperatingMargin, 0.05, below(0.05))
	add("liquidity_pressure", "current_ratio", r.CurrentRatio, 1.0, below(1.0))
	add("weak_returns", "roe", r.ROE, 0.05, below(0.05))
	return out
}

func assessRisks(r ratios.Ratios) map[RiskCategory]RiskLevel {
	risks := make(map[RiskCategory]RiskLevel, 5)

	// Financial health: current ratio + leverage together.
	if r.CurrentRatio != nil && r.DebtToEquity != nil {
		switch {
		case *r.CurrentRatio >= 1.5 && *r.DebtToEquity <= 0.5:
			risks[RiskFinancialHealth] = RiskLow
		case *r.CurrentRatio < 1.0 || *r.DebtToEquity > 2.0:
			risks[RiskFinancialHealth] = RiskHigh
		default:
			risks[RiskFinancialHealth] = RiskModerate
		}
	} else {
		risks[RiskFinancialHealth] = RiskUnknown
	}

	// Valuation: P/E bands.
	if r.PERatio != nil {
		switch {
		case *r.PERatio < 20:
			risks[RiskValuation] = RiskLow
		case *r.PERatio > 40:
			risks[RiskValuation] = RiskHigh
		default:
			risks[RiskValuation] = RiskModerate
		}
	} else {
		risks[RiskValuation] = RiskUnknown
	}

	// Growth: revenue trend.
	if r.RevenueGrowth != nil {
		switch {
		case *r.RevenueGrowth > 0.10:
			risks[RiskGrowth] = RiskLow
		case *r.RevenueGrowth < 0:
			risks[RiskGrowth] = RiskHigh
		default:
			risks[RiskGrowth] = RiskModerate
		}
	} else {
		risks[RiskGrowth] = RiskUnknown
	}

	// Liquidity: current ratio alone.
	if r.CurrentRatio != nil {
		switch {
		case *r.CurrentRatio >= 2.0:
			risks[RiskLiquidity] = RiskLow
		case *r.CurrentRatio < 1.0:
			risks[RiskLiquidity] = RiskHigh
		default:
			risks[RiskLiquidity] = RiskModerate
		}
	} else {
		risks[RiskLiquidity] = RiskUnknown
	}

	// Profitability: returns + margins together.
	if r.ROE != nil && r.OperatingMargin != nil {
		switch {
		case *r.ROE > 0.15 && *r.OperatingMargin > 0.15:
			risks[RiskProfitability] = RiskLow
		case *r.ROE < 0 || *r.OperatingMargin < 0.05:
			risks[RiskProfitability] = RiskHigh
		default:
			risks[RiskProfitability] = RiskModerate
		}
	} else {
		risks[RiskProfitability] = RiskUnknown
	}

	return risks
}

func redFlags(r ratios.Ratios) []RedFlag {
	var out []RedFlag
	add := func(code, metric string, v *float64, threshold float64, trip func(float64) bool) {
		if v != nil && trip(*v) {
			out = append(out, RedFlag{Code: code, Metric: metric, Value: *v, Threshold: threshold})
		}
	}
	add("negative_roe", "roe", r.ROE, 0, func(v float64) bool { return v < 0 })
	add("excessive_leverage", "debt_to_equity", r.DebtToEquity, 2.0, func(v float64) bool { return v > 2.0 })
	add("liquidity_crisis", "current_ratio", r.CurrentRatio, 0.8, func(v float64) bool { return v < 0.8 })
	add("revenue_decline", "revenue_growth", r.RevenueGrowth, -0.05, func(v float64) bool { return v < -0.05 })
	add("extreme_valuation", "pe_ratio", r.PERatio, 100, func(v float64) bool { return v > 100 })
	return out
}
