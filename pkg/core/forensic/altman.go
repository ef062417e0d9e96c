package forensic

import "equitylens/pkg/models"

// Altman Z-Score, original publicly-traded manufacturer model:
//
//	Z = 1.2*A + 1.4*B + 3.3*C + 0.6*D + 1.0*E
//	A = Working Capital / Total Assets
//	B = Retained Earnings / Total Assets
//	C = EBIT / Total Assets
//	D = Market Value of Equity / Total Liabilities
//	E = Sales / Total Assets
//
// Bands: Z < 1.81 distress, 1.81-2.99 grey, > 2.99 safe.
const (
	altmanWeightA = 1.2
	altmanWeightB = 1.4
	altmanWeightC = 3.3
	altmanWeightD = 0.6
	altmanWeightE = 1.0

	altmanDistressBelow = 1.81
	altmanSafeAbove     = 2.99
)

// AltmanZ computes the Z-Score from a single period's statement set.
// Undetermined components are excluded from the sum and reported as
// warnings; the result is then partial with an indeterminate band.
func AltmanZ(set *models.FinancialStatementSet) ScoreResult {
	in := inputs{set: set}
	t := newTracker()

	ta, taOK := in.get("total_assets")
	score := 0.0
	determined := 0

	addRatio := func(name string, weight, num, den float64, numOK, denOK bool, reason string) {
		r, ok := ratio(num, den, numOK, denOK)
		if !ok {
			t.undetermined(name, reason)
			return
		}
		t.add(name, r)
		score += weight * r
		determined++
	}

	wc, wcOK := in.get("working_capital")
	addRatio("working_capital_to_assets", altmanWeightA, wc, ta, wcOK, taOK,
		"working capital or total assets unavailable")

	re, reOK := in.get("retained_earnings")
	addRatio("retained_earnings_to_assets", altmanWeightB, re, ta, reOK, taOK,
		"retained earnings or total assets unavailable")

	ebit, ebitOK := in.get("operating_income")
	addRatio("ebit_to_assets", altmanWeightC, ebit, ta, ebitOK, taOK,
		"operating income or total assets unavailable")

	mve, mveOK := in.get("market_cap")
	tl, tlOK := in.get("total_liabilities")
	addRatio("equity_to_liabilities", altmanWeightD, mve, tl, mveOK, tlOK,
		"market cap or total liabilities unavailable")

	sales, salesOK := in.get("revenue")
	addRatio("sales_to_assets", altmanWeightE, sales, ta, salesOK, taOK,
		"revenue or total assets unavailable")

	return t.result(ModelAltmanZ, score, determined, altmanBand)
}

func altmanBand(z float64) Band {
	switch {
	case z < altmanDistressBelow:
		return BandDistress
	case z > altmanSafeAbove:
		return BandSafe
	default:
		return BandGrey
	}
}
