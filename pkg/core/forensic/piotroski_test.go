package forensic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPiotroskiFAllNineSignals(t *testing.T) {
	current := statements(map[string]float64{
		"net_income":                150,  // ROA 0.075 > 0
		"total_assets":              2000,
		"operating_cash_flow":       200,  // positive, CFO/TA 0.10 > ROA 0.075
		"long_term_debt":            300,  // 0.15 < prior 0.2105
		"total_current_assets":      900,  // CR 1.8 > prior 1.6
		"total_current_liabilities": 500,
		"shares_outstanding":        100,  // no dilution
		"gross_profit":              470,  // GM 0.4273 > prior 0.40
		"revenue":                   1100, // AT 0.55 > prior 0.50
	})
	prior := statements(map[string]float64{
		"net_income":                80,
		"total_assets":              1900,
		"long_term_debt":            400,
		"total_current_assets":      800,
		"total_current_liabilities": 500,
		"shares_outstanding":        100,
		"gross_profit":              380,
		"revenue":                   950,
	})

	res := PiotroskiF(current, prior)
	require.NotNil(t, res.RawScore)
	assert.Equal(t, 9.0, *res.RawScore)
	assert.Equal(t, BandStrong, res.Band)
	assert.False(t, res.Partial)
	assert.Len(t, res.Components, 9)
}

func TestPiotroskiFZeroSignals(t *testing.T) {
	current := statements(map[string]float64{
		"net_income":                -50,  // negative ROA
		"total_assets":              2000,
		"operating_cash_flow":       -100, // negative, CFO/TA -0.05 < ROA -0.025
		"long_term_debt":            500,  // leverage up
		"total_current_assets":      400,  // CR 0.8, down
		"total_current_liabilities": 500,
		"shares_outstanding":        110, // diluted
		"gross_profit":              300, // GM down
		"revenue":                   1000,
	})
	prior := statements(map[string]float64{
		"net_income":                80,
		"total_assets":              1900,
		"long_term_debt":            400,
		"total_current_assets":      800,
		"total_current_liabilities": 500,
		"shares_outstanding":        100,
		"gross_profit":              380,
		"revenue":                   950, // AT 0.50, current is 0.50: equal is not improved
	})

	res := PiotroskiF(current, prior)
	require.NotNil(t, res.RawScore)
	assert.Equal(t, 0.0, *res.RawScore)
	assert.Equal(t, BandWeak, res.Band)
	assert.False(t, res.Partial)
}

func TestPiotroskiFNilPriorDegradesTrendSignals(t *testing.T) {
	current := statements(map[string]float64{
		"net_income":          150,
		"total_assets":        2000,
		"operating_cash_flow": 200,
	})

	res := PiotroskiF(current, nil)

	// Single-period signals still determine: positive ROA, positive CFO, and
	// the accruals comparison, three points.
	require.NotNil(t, res.RawScore)
	assert.Equal(t, 3.0, *res.RawScore)
	assert.True(t, res.Partial)
	assert.Equal(t, BandIndeterminate, res.Band)
	assert.Len(t, res.Warnings, 6)
}

func TestPiotroskiFFlatShareCountScoresNoDilution(t *testing.T) {
	current := statements(map[string]float64{"shares_outstanding": 100})
	prior := statements(map[string]float64{"shares_outstanding": 100})

	res := PiotroskiF(current, prior)
	assert.Equal(t, 1.0, res.Components["no_dilution"])
}

func TestPiotroskiBandBoundaries(t *testing.T) {
	assert.Equal(t, BandWeak, piotroskiBand(0))
	assert.Equal(t, BandWeak, piotroskiBand(3))
	assert.Equal(t, BandModerate, piotroskiBand(4))
	assert.Equal(t, BandModerate, piotroskiBand(6))
	assert.Equal(t, BandStrong, piotroskiBand(7))
	assert.Equal(t, BandStrong, piotroskiBand(9))
}
