package forensic

import "equitylens/pkg/models"

// Piotroski F-Score, standard nine-signal formulation. Each signal
// contributes 0 or 1; the total runs 0-9. Trend signals compare the current
// fiscal year against the prior one.
//
// Profitability:
//  1. positive return on assets
//  2. positive operating cash flow
//  3. ROA improved year over year
//  4. cash flow quality: CFO/assets exceeds ROA (accruals signal)
//
// Leverage & liquidity:
//  5. long-term leverage decreased
//  6. current ratio improved
//  7. no dilution: shares outstanding did not increase
//
// Operating efficiency:
//  8. gross margin improved
//  9. asset turnover improved
func PiotroskiF(current, prior *models.FinancialStatementSet) ScoreResult {
	cur := inputs{set: current}
	pri := inputs{set: prior}
	t := newTracker()

	score := 0.0
	determined := 0

	signal := func(name string, pass bool, ok bool, reason string) {
		if !ok {
			t.undetermined(name, reason)
			return
		}
		v := 0.0
		if pass {
			v = 1.0
		}
		t.add(name, v)
		score += v
		determined++
	}

	priorMissing := prior == nil

	// 1. Positive ROA.
	roaCur := ratioOf(cur, "net_income", "total_assets")
	signal("positive_roa", roaCur.v > 0, roaCur.ok, "net income or total assets unavailable")

	// 2. Positive operating cash flow.
	cfo, cfoOK := cur.get("operating_cash_flow")
	signal("positive_cfo", cfo > 0, cfoOK, "operating cash flow unavailable")

	// 3. ROA improvement.
	roaPri := ratioOf(pri, "net_income", "total_assets")
	signal("roa_improved", roaCur.v > roaPri.v, roaCur.ok && roaPri.ok && !priorMissing,
		"ROA unavailable for a period")

	// 4. Accruals: cash generation ahead of book profitability.
	cfoToAssets := ratioOf(cur, "operating_cash_flow", "total_assets")
	signal("cfo_exceeds_roa", cfoToAssets.v > roaCur.v, cfoToAssets.ok && roaCur.ok,
		"operating cash flow or total assets unavailable")

	// 5. Leverage decreased.
	levCur := ratioOf(cur, "long_term_debt", "total_assets")
	levPri := ratioOf(pri, "long_term_debt", "total_assets")
	signal("leverage_decreased", levCur.v < levPri.v, levCur.ok && levPri.ok && !priorMissing,
		"long-term debt ratio unavailable for a period")

	// 6. Current ratio improved.
	crCur := ratioOf(cur, "total_current_assets", "total_current_liabilities")
	crPri := ratioOf(pri, "total_current_assets", "total_current_liabilities")
	signal("liquidity_improved", crCur.v > crPri.v, crCur.ok && crPri.ok && !priorMissing,
		"current ratio unavailable for a period")

	// 7. No new shares issued.
	shCur, shCurOK := cur.get("shares_outstanding")
	shPri, shPriOK := pri.get("shares_outstanding")
	signal("no_dilution", shCur <= shPri, shCurOK && shPriOK && !priorMissing,
		"shares outstanding unavailable for a period")

	// 8. Gross margin improved.
	gmCur := ratioOf(cur, "gross_profit", "revenue")
	gmPri := ratioOf(pri, "gross_profit", "revenue")
	signal("gross_margin_improved", gmCur.v > gmPri.v, gmCur.ok && gmPri.ok && !priorMissing,
		"gross margin unavailable for a period")

	// 9. Asset turnover improved.
	atCur := ratioOf(cur, "revenue", "total_assets")
	atPri := ratioOf(pri, "revenue", "total_assets")
	signal("asset_turnover_improved", atCur.v > atPri.v, atCur.ok && atPri.ok && !priorMissing,
		"asset turnover unavailable for a period")

	return t.result(ModelPiotroskiF, score, determined, piotroskiBand)
}

func piotroskiBand(f float64) Band {
	switch {
	case f >= 7:
		return BandStrong
	case f >= 4:
		return BandModerate
	default:
		return BandWeak
	}
}
