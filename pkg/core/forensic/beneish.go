package forensic

import "equitylens/pkg/models"

// Beneish M-Score, eight-variable 1999 formulation:
//
//	M = -4.84 + 0.920*DSRI + 0.528*GMI + 0.404*AQI + 0.892*SGI
//	     + 0.115*DEPI - 0.172*SGAI + 4.679*TATA - 0.327*LVGI
//
// M > -1.78 flags elevated manipulation risk. Built from two consecutive
// fiscal years of canonical statements.
const (
	beneishIntercept = -4.84
	beneishThreshold = -1.78
)

var beneishWeights = map[string]float64{
	"dsri": 0.920,
	"gmi":  0.528,
	"aqi":  0.404,
	"sgi":  0.892,
	"depi": 0.115,
	"sgai": -0.172,
	"tata": 4.679,
	"lvgi": -0.327,
}

// BeneishM computes the M-Score from current and prior year statement sets.
// A nil prior marks every index undetermined.
func BeneishM(current, prior *models.FinancialStatementSet) ScoreResult {
	cur := inputs{set: current}
	pri := inputs{set: prior}
	t := newTracker()

	score := beneishIntercept
	determined := 0

	record := func(name string, v float64, ok bool, reason string) {
		if !ok {
			t.undetermined(name, reason)
			return
		}
		t.add(name, v)
		score += beneishWeights[name] * v
		determined++
	}

	if prior == nil {
		for _, name := range []string{"dsri", "gmi", "aqi", "sgi", "depi", "sgai", "tata", "lvgi"} {
			t.undetermined(name, "prior-period statement set not supplied")
		}
		return t.result(ModelBeneishM, score, 0, beneishBand)
	}

	// DSRI: (Receivables_t / Sales_t) / (Receivables_t-1 / Sales_t-1)
	dsri, dsriOK := indexOf(
		ratioOf(cur, "accounts_receivable", "revenue"),
		ratioOf(pri, "accounts_receivable", "revenue"),
	)
	record("dsri", dsri, dsriOK, "receivables-to-sales ratio unavailable for a period")

	// GMI: prior gross margin / current gross margin. GMI > 1 means margin
	// deterioration, a known manipulation pressure.
	gmi, gmiOK := indexOf(
		ratioOf(pri, "gross_profit", "revenue"),
		ratioOf(cur, "gross_profit", "revenue"),
	)
	record("gmi", gmi, gmiOK, "gross margin unavailable for a period")

	// AQI: soft-asset proportion index, where soft assets are everything
	// outside current assets and net PP&E.
	aqi, aqiOK := indexOf(softAssetRatio(cur), softAssetRatio(pri))
	record("aqi", aqi, aqiOK, "soft-asset ratio unavailable for a period")

	// SGI: Sales_t / Sales_t-1
	salesCur, salesCurOK := cur.get("revenue")
	salesPri, salesPriOK := pri.get("revenue")
	sgi, sgiOK := ratio(salesCur, salesPri, salesCurOK, salesPriOK)
	record("sgi", sgi, sgiOK, "revenue unavailable for a period")

	// DEPI: prior depreciation rate / current depreciation rate, with the
	// rate measured against net PP&E plus the year's depreciation.
	depi, depiOK := indexOf(depreciationRate(pri), depreciationRate(cur))
	record("depi", depi, depiOK, "depreciation rate unavailable for a period")

	// SGAI: (SGA_t / Sales_t) / (SGA_t-1 / Sales_t-1)
	sgai, sgaiOK := indexOf(
		ratioOf(cur, "sga_expense", "revenue"),
		ratioOf(pri, "sga_expense", "revenue"),
	)
	record("sgai", sgai, sgaiOK, "SGA-to-sales ratio unavailable for a period")

	// TATA: (Net Income - CFO) / Total Assets, current year accruals.
	ni, niOK := cur.get("net_income")
	cfo, cfoOK := cur.get("operating_cash_flow")
	taCur, taCurOK := cur.get("total_assets")
	tata, tataOK := ratio(ni-cfo, taCur, niOK && cfoOK, taCurOK)
	record("tata", tata, tataOK, "net income, operating cash flow or total assets unavailable")

	// LVGI: (Total Liabilities_t / Total Assets_t) / (prior year same)
	lvgi, lvgiOK := indexOf(
		ratioOf(cur, "total_liabilities", "total_assets"),
		ratioOf(pri, "total_liabilities", "total_assets"),
	)
	record("lvgi", lvgi, lvgiOK, "leverage ratio unavailable for a period")

	return t.result(ModelBeneishM, score, determined, beneishBand)
}

func beneishBand(m float64) Band {
	if m > beneishThreshold {
		return BandElevatedRisk
	}
	return BandNormal
}

// maybe is a float paired with its determinedness, so index construction
// can short-circuit on an unavailable side.
type maybe struct {
	v  float64
	ok bool
}

func ratioOf(in inputs, numID, denID string) maybe {
	num, numOK := in.get(numID)
	den, denOK := in.get(denID)
	v, ok := ratio(num, den, numOK, denOK)
	return maybe{v: v, ok: ok}
}

func indexOf(num, den maybe) (float64, bool) {
	return ratio(num.v, den.v, num.ok, den.ok)
}

func softAssetRatio(in inputs) maybe {
	ta, taOK := in.get("total_assets")
	ca, caOK := in.get("total_current_assets")
	ppe, ppeOK := in.get("ppe_net")
	if !taOK || !caOK || !ppeOK || ta == 0 {
		return maybe{}
	}
	return maybe{v: 1.0 - (ca+ppe)/ta, ok: true}
}

func depreciationRate(in inputs) maybe {
	dep, depOK := in.get("depreciation_amortization")
	ppe, ppeOK := in.get("ppe_net")
	v, ok := ratio(dep, ppe+dep, depOK && ppeOK, depOK && ppeOK)
	return maybe{v: v, ok: ok}
}
