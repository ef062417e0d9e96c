package dcf

// WACCInput holds the capital-cost parameters for deriving a discount rate
// when the caller does not supply one directly.
type WACCInput struct {
	UnleveredBeta     float64
	RiskFreeRate      float64
	MarketRiskPremium float64
	PreTaxCostOfDebt  float64
	TaxRate           float64
	DebtToEquityRatio float64 // target leverage (D/E)
}

// WACCResult carries the derived rates and weights.
type WACCResult struct {
	LeveredBeta  float64
	CostOfEquity float64
	CostOfDebt   float64 // after-tax
	WeightDebt   float64
	WeightEquity float64
	WACC         float64
}

// DeriveDiscountRate computes the weighted average cost of capital from
// CAPM, re-levering beta with the Hamada equation.
//
//	BetaL = BetaU * (1 + (1-t)*(D/E))
//	Ke    = Rf + BetaL * ERP
//	Kd    = PreTaxKd * (1 - t)
//	Wd    = (D/E) / (1 + D/E),  We = 1 / (1 + D/E)
//	WACC  = Ke*We + Kd*Wd
func DeriveDiscountRate(in WACCInput) WACCResult {
	leveredBeta := in.UnleveredBeta * (1 + (1-in.TaxRate)*in.DebtToEquityRatio)
	ke := in.RiskFreeRate + leveredBeta*in.MarketRiskPremium
	kd := in.PreTaxCostOfDebt * (1 - in.TaxRate)

	wd := in.DebtToEquityRatio / (1 + in.DebtToEquityRatio)
	we := 1.0 / (1 + in.DebtToEquityRatio)

	return WACCResult{
		LeveredBeta:  leveredBeta,
		CostOfEquity: ke,
		CostOfDebt:   kd,
		WeightDebt:   wd,
		WeightEquity: we,
		WACC:         ke*we + kd*wd,
	}
}
