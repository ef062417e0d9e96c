package summary

import (
	"testing"

	"equitylens/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statements(values map[string]float64) *models.FinancialStatementSet {
	vs := make(map[string]decimal.Decimal, len(values))
	ss := make(map[string]models.Provenance, len(values))
	for id, v := range values {
		vs[id] = decimal.NewFromFloat(v)
		ss[id] = models.ProvenanceSECEdgar
	}
	return models.NewFinancialStatementSet("TEST", models.AnnualPeriod(2023), vs, ss, nil)
}

// Quality compounder: high returns, fat margins, modest leverage.
func strongCompany() *models.FinancialStatementSet {
	return statements(map[string]float64{
		"revenue":                   1000,
		"gross_profit":              450,
		"operating_income":          220,
		"net_income":                180,
		"total_equity":              900,
		"total_assets":              2000,
		"total_current_assets":      1000,
		"total_current_liabilities": 500,
		"cash_and_equivalents":      400,
		"accounts_receivable":       150,
		"total_debt":                200,
		"operating_cash_flow":       220,
		"share_price":               40,
		"eps_diluted":               2.5,
	})
}

// Leveraged decliner: thin margins, stretched balance sheet.
func weakCompany() *models.FinancialStatementSet {
	return statements(map[string]float64{
		"revenue":                   1000,
		"operating_income":          30,
		"net_income":                -20,
		"total_equity":              100,
		"total_current_assets":      350,
		"total_current_liabilities": 500,
		"total_debt":                450,
		"share_price":               10,
	})
}

func findingCodes(fs []Finding) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Code)
	}
	return out
}

func TestGenerateStrongCompany(t *testing.T) {
	prior := statements(map[string]float64{"revenue": 850}) // +17.6% growth
	s := Generate(strongCompany(), prior)

	codes := findingCodes(s.BullCase)
	assert.Contains(t, codes, "strong_roe")              // 180/900 = 0.20
	assert.Contains(t, codes, "healthy_gross_margin")    // 0.45
	assert.Contains(t, codes, "strong_operating_margin") // 0.22
	assert.Contains(t, codes, "solid_liquidity")         // CR 2.0
	assert.Contains(t, codes, "conservative_leverage")   // D/E 0.22
	assert.Contains(t, codes, "consistent_growth")
	assert.Contains(t, codes, "quality_cash_generation") // 220/180 > 1

	assert.Empty(t, s.BearCase)
	assert.Empty(t, s.RedFlags)

	assert.Equal(t, RiskLow, s.Risks[RiskFinancialHealth])
	assert.Equal(t, RiskLow, s.Risks[RiskValuation]) // P/E 16
	assert.Equal(t, RiskLow, s.Risks[RiskGrowth])
	assert.Equal(t, RiskLow, s.Risks[RiskLiquidity])
	assert.Equal(t, RiskLow, s.Risks[RiskProfitability])
}

func TestGenerateWeakCompany(t *testing.T) {
	prior := statements(map[string]float64{"revenue": 1100}) // -9.1% decline
	s := Generate(weakCompany(), prior)

	codes := findingCodes(s.BearCase)
	assert.Contains(t, codes, "high_leverage")      // D/E 4.5
	assert.Contains(t, codes, "slowing_growth")
	assert.Contains(t, codes, "thin_margins")       // 0.03
	assert.Contains(t, codes, "liquidity_pressure") // CR 0.7
	assert.Contains(t, codes, "weak_returns")       // ROE -0.20

	flagCodes := make([]string, 0, len(s.RedFlags))
	for _, f := range s.RedFlags {
		flagCodes = append(flagCodes, f.Code)
	}
	assert.Contains(t, flagCodes, "negative_roe")
	assert.Contains(t, flagCodes, "excessive_leverage")
	assert.Contains(t, flagCodes, "liquidity_crisis") // CR 0.7 < 0.8
	assert.Contains(t, flagCodes, "revenue_decline")

	assert.Equal(t, RiskHigh, s.Risks[RiskFinancialHealth])
	assert.Equal(t, RiskHigh, s.Risks[RiskGrowth])
	assert.Equal(t, RiskHigh, s.Risks[RiskLiquidity])
	assert.Equal(t, RiskHigh, s.Risks[RiskProfitability])
}

func TestGenerateMissingInputsReportUnknown(t *testing.T) {
	s := Generate(statements(map[string]float64{"revenue": 1000}), nil)

	assert.Equal(t, RiskUnknown, s.Risks[RiskFinancialHealth])
	assert.Equal(t, RiskUnknown, s.Risks[RiskValuation])
	assert.Equal(t, RiskUnknown, s.Risks[RiskGrowth])
	assert.Equal(t, RiskUnknown, s.Risks[RiskLiquidity])
	assert.Equal(t, RiskUnknown, s.Risks[RiskProfitability])

	assert.Empty(t, s.BullCase, "no findings without resolved inputs")
	assert.Empty(t, s.BearCase)
	assert.Empty(t, s.RedFlags)
}

func TestGenerateValuationRange(t *testing.T) {
	s := Generate(strongCompany(), nil)

	require.NotNil(t, s.ValuationRange)
	assert.InDelta(t, 32.0, s.ValuationRange.BearCase, 1e-9) // 40 * 0.80
	assert.InDelta(t, 40.0, s.ValuationRange.BaseCase, 1e-9)
	assert.InDelta(t, 50.0, s.ValuationRange.BullCase, 1e-9) // 40 * 1.25

	noPrice := Generate(statements(map[string]float64{"revenue": 1000}), nil)
	assert.Nil(t, noPrice.ValuationRange)
}

func TestGenerateNilCurrent(t *testing.T) {
	s := Generate(nil, nil)
	assert.Len(t, s.Risks, 5)
	for cat, level := range s.Risks {
		assert.Equal(t, RiskUnknown, level, "category %s", cat)
	}
}
