// Package ratios derives the standard ratio panel from a canonical
// statement set. Every ratio is a pointer: nil means undeterminable
// (missing input or zero denominator), never a default.
package ratios

import (
	"math"

	"equitylens/pkg/models"
)

// Ratios is the computed panel for one period, with optional prior-period
// trend ratios.
type Ratios struct {
	// Profitability
	GrossMargin     *float64 `json:"gross_margin,omitempty"`
	OperatingMargin *float64 `json:"operating_margin,omitempty"`
	NetMargin       *float64 `json:"net_margin,omitempty"`
	ROE             *float64 `json:"roe,omitempty"`
	ROA             *float64 `json:"roa,omitempty"`

	// Liquidity
	CurrentRatio *float64 `json:"current_ratio,omitempty"`
	QuickRatio   *float64 `json:"quick_ratio,omitempty"`

	// Leverage
	DebtToEquity     *float64 `json:"debt_to_equity,omitempty"`
	InterestCoverage *float64 `json:"interest_coverage,omitempty"`

	// Cash quality
	OCFToNetIncome *float64 `json:"ocf_to_net_income,omitempty"`

	// Valuation
	PERatio     *float64 `json:"pe_ratio,omitempty"`
	PriceToBook *float64 `json:"price_to_book,omitempty"`

	// Trend (requires prior period)
	RevenueGrowth *float64 `json:"revenue_growth,omitempty"`
}

// Compute builds the ratio panel. prior may be nil; trend ratios are then
// omitted.
func Compute(current, prior *models.FinancialStatementSet) Ratios {
	if current == nil {
		return Ratios{}
	}
	var r Ratios

	r.GrossMargin = div(current, "gross_profit", "revenue")
	r.OperatingMargin = div(current, "operating_income", "revenue")
	r.NetMargin = div(current, "net_income", "revenue")
	r.ROE = div(current, "net_income", "total_equity")
	r.ROA = div(current, "net_income", "total_assets")

	r.CurrentRatio = div(current, "total_current_assets", "total_current_liabilities")
	r.QuickRatio = quickRatio(current)

	r.DebtToEquity = div(current, "total_debt", "total_equity")
	r.InterestCoverage = interestCoverage(current)

	r.OCFToNetIncome = div(current, "operating_cash_flow", "net_income")

	r.PERatio = div(current, "share_price", "eps_diluted")
	if r.PERatio == nil {
		r.PERatio = div(current, "share_price", "eps_basic")
	}
	r.PriceToBook = div(current, "market_cap", "total_equity")

	if prior != nil {
		cur, curOK := current.Float("revenue")
		pri, priOK := prior.Float("revenue")
		if curOK && priOK && pri != 0 {
			g := (cur - pri) / math.Abs(pri)
			r.RevenueGrowth = &g
		}
	}
	return r
}

// Lookup resolves a ratio by its JSON name, for callers that address the
// panel dynamically (peer ranking over configured metric ids).
func (r Ratios) Lookup(name string) (float64, bool) {
	byName := map[string]*float64{
		"gross_margin":      r.GrossMargin,
		"operating_margin":  r.OperatingMargin,
		"net_margin":        r.NetMargin,
		"roe":               r.ROE,
		"roa":               r.ROA,
		"current_ratio":     r.CurrentRatio,
		"quick_ratio":       r.QuickRatio,
		"debt_to_equity":    r.DebtToEquity,
		"interest_coverage": r.InterestCoverage,
		"ocf_to_net_income": r.OCFToNetIncome,
		"pe_ratio":          r.PERatio,
		"price_to_book":     r.PriceToBook,
		"revenue_growth":    r.RevenueGrowth,
	}
	v, ok := byName[name]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

func div(set *models.FinancialStatementSet, numID, denID string) *float64 {
	num, numOK := set.Float(numID)
	den, denOK := set.Float(denID)
	if !numOK || !denOK || den == 0 {
		return nil
	}
	v := num / den
	return &v
}

func quickRatio(set *models.FinancialStatementSet) *float64 {
	cash, cashOK := set.Float("cash_and_equivalents")
	sti, stiOK := set.Float("short_term_investments")
	ar, arOK := set.Float("accounts_receivable")
	cl, clOK := set.Float("total_current_liabilities")
	if !cashOK || !arOK || !clOK || cl == 0 {
		return nil
	}
	if !stiOK {
		sti = 0 // short-term investments are frequently unreported; the
		// quick ratio without them is conservative, not fabricated
	}
	v := (cash + sti + ar) / cl
	return &v
}

func interestCoverage(set *models.FinancialStatementSet) *float64 {
	ebit, ebitOK := set.Float("operating_income")
	ie, ieOK := set.Float("interest_expense")
	if !ebitOK || !ieOK || ie == 0 {
		return nil
	}
	v := ebit / math.Abs(ie)
	return &v
}
