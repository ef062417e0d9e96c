package forensic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func beneishCurrent() map[string]float64 {
	return map[string]float64{
		"revenue":                   1200,
		"accounts_receivable":       120,
		"gross_profit":              420,
		"total_assets":              2400,
		"total_current_assets":      1000,
		"ppe_net":                   800,
		"sga_expense":               240,
		"depreciation_amortization": 100,
		"net_income":                150,
		"operating_cash_flow":       100,
		"total_liabilities":         1200,
	}
}

func beneishPrior() map[string]float64 {
	return map[string]float64{
		"revenue":                   1000,
		"accounts_receivable":       80,
		"gross_profit":              400,
		"total_assets":              2000,
		"total_current_assets":      900,
		"ppe_net":                   700,
		"sga_expense":               180,
		"depreciation_amortization": 100,
		"total_liabilities":         900,
	}
}

func TestBeneishMFullScore(t *testing.T) {
	res := BeneishM(statements(beneishCurrent()), statements(beneishPrior()))

	// DSRI = (120/1200)/(80/1000)            = 0.10/0.08    = 1.25
	// GMI  = (400/1000)/(420/1200)           = 0.40/0.35    = 1.142857
	// AQI  = (1-1800/2400)/(1-1600/2000)     = 0.25/0.20    = 1.25
	// SGI  = 1200/1000                                      = 1.20
	// DEPI = (100/800)/(100/900)             = 0.125/0.1111 = 1.125
	// SGAI = (240/1200)/(180/1000)           = 0.20/0.18    = 1.111111
	// TATA = (150-100)/2400                                 = 0.020833
	// LVGI = (1200/2400)/(900/2000)          = 0.50/0.45    = 1.111111
	//
	// M = -4.84 + 0.920*1.25 + 0.528*1.142857 + 0.404*1.25 + 0.892*1.20
	//     + 0.115*1.125 - 0.172*1.111111 + 4.679*0.020833 - 0.327*1.111111
	//   = -1.838762
	require.NotNil(t, res.RawScore)
	assert.InDelta(t, -1.838762, *res.RawScore, 1e-5)
	assert.False(t, res.Partial)
	assert.Equal(t, BandNormal, res.Band)

	assert.InDelta(t, 1.25, res.Components["dsri"], 1e-9)
	assert.InDelta(t, 1.20, res.Components["sgi"], 1e-9)
	assert.InDelta(t, 50.0/2400.0, res.Components["tata"], 1e-9)
}

func TestBeneishMElevatedRisk(t *testing.T) {
	// Inflate receivables growth far past sales growth: DSRI alone pushes M
	// over the threshold.
	cur := beneishCurrent()
	cur["accounts_receivable"] = 400 // DSRI = (400/1200)/(80/1000) = 4.1667

	res := BeneishM(statements(cur), statements(beneishPrior()))
	require.NotNil(t, res.RawScore)
	// Full-score M shifts by 0.920 * (4.1667-1.25) = +2.683 from -1.8388.
	assert.Greater(t, *res.RawScore, beneishThreshold)
	assert.Equal(t, BandElevatedRisk, res.Band)
}

func TestBeneishMNilPriorIsFullyUndetermined(t *testing.T) {
	res := BeneishM(statements(beneishCurrent()), nil)

	assert.Nil(t, res.RawScore)
	assert.Equal(t, BandIndeterminate, res.Band)
	assert.True(t, res.Partial)
	assert.Len(t, res.Warnings, 8, "all eight indices need the prior year")
}

func TestBeneishMPartialWhenOneIndexMissing(t *testing.T) {
	cur := beneishCurrent()
	delete(cur, "sga_expense") // SGAI undetermined

	res := BeneishM(statements(cur), statements(beneishPrior()))
	require.NotNil(t, res.RawScore)
	assert.True(t, res.Partial)
	assert.Equal(t, BandIndeterminate, res.Band)
	assert.True(t, warned(res, "sgai"))

	// The other seven indices still contribute: full M minus the SGAI term.
	// -1.838762 - (-0.172*1.111111) = -1.647651
	assert.InDelta(t, -1.647651, *res.RawScore, 1e-5)
}

func TestBeneishBandThreshold(t *testing.T) {
	assert.Equal(t, BandNormal, beneishBand(-1.78))
	assert.Equal(t, BandElevatedRisk, beneishBand(-1.7799))
	assert.Equal(t, BandNormal, beneishBand(-3.0))
}
