package pipeline

import (
	"sync"
	"testing"
	"time"

	"equitylens/pkg/config"
	"equitylens/pkg/core/dcf"
	"equitylens/pkg/core/forensic"
	"equitylens/pkg/core/reconcile"
	"equitylens/pkg/core/taxonomy"
	"equitylens/pkg/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	cat, err := taxonomy.Default()
	require.NoError(t, err)
	eng, err := New(config.Default(), cat, zerolog.Nop())
	require.NoError(t, err)
	return eng
}

func fact(t *testing.T, key string, value float64, period models.Period, prov models.Provenance) models.RawFact {
	t.Helper()
	f, err := models.NewRawFact(key, decimal.NewFromFloat(value), "USD", period,
		prov, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), models.ConfidenceHigh)
	require.NoError(t, err)
	return f
}

// periodFacts builds a full fact collection for one fiscal year, scaled so
// consecutive years differ.
func periodFacts(t *testing.T, period models.Period, scale float64) []models.RawFact {
	t.Helper()
	filing := func(key string, v float64) models.RawFact {
		return fact(t, key, v*scale, period, models.ProvenanceSECEdgar)
	}
	market := func(key string, v float64) models.RawFact {
		return fact(t, key, v*scale, period, models.ProvenanceMarketData)
	}
	return []models.RawFact{
		filing("us-gaap:Revenues", 1000),
		filing("us-gaap:CostOfRevenue", 550),
		filing("us-gaap:OperatingIncomeLoss", 200),
		filing("us-gaap:NetIncomeLoss", 150),
		filing("us-gaap:Assets", 2000),
		filing("us-gaap:AssetsCurrent", 900),
		filing("us-gaap:LiabilitiesCurrent", 500),
		filing("us-gaap:Liabilities", 1100),
		filing("us-gaap:StockholdersEquity", 900),
		filing("us-gaap:RetainedEarningsAccumulatedDeficit", 400),
		filing("us-gaap:AccountsReceivableNetCurrent", 150),
		filing("us-gaap:PropertyPlantAndEquipmentNet", 700),
		filing("us-gaap:CashAndCashEquivalentsAtCarryingValue", 300),
		filing("us-gaap:ShortTermInvestments", 100),
		filing("us-gaap:ShortTermBorrowings", 50),
		filing("us-gaap:LongTermDebtCurrent", 50),
		filing("us-gaap:LongTermDebtNoncurrent", 500),
		filing("us-gaap:SellingGeneralAndAdministrativeExpense", 180),
		filing("us-gaap:DepreciationDepletionAndAmortization", 90),
		filing("us-gaap:NetCashProvidedByUsedInOperatingActivities", 220),
		filing("us-gaap:PaymentsToAcquirePropertyPlantAndEquipment", 80),
		market("regularMarketPrice", 45),
		market("marketCap", 4500),
		market("sharesOutstanding", 100),
	}
}

func flatAssumptions(growth float64, horizon int) dcf.Assumptions {
	growthPath := make([]float64, horizon)
	marginPath := make([]float64, horizon)
	for i := range growthPath {
		growthPath[i] = growth
		marginPath[i] = 0.20
	}
	return dcf.Assumptions{
		RevenueGrowth:            growthPath,
		OperatingMargin:          marginPath,
		DiscountRate:             0.10,
		TerminalGrowth:           0.025,
		TaxRate:                  0.25,
		DepreciationPctRevenue:   0.05,
		CapexPctRevenue:          0.07,
		WorkingCapitalPctRevenue: 0.10,
	}
}

func fullRequest(t *testing.T) Request {
	t.Helper()
	period := models.AnnualPeriod(2023)
	horizon := config.Default().DCFHorizonYears
	return Request{
		CompanyID:  "ACME",
		Period:     period,
		Facts:      periodFacts(t, period, 1.0),
		PriorFacts: periodFacts(t, period.Prior(), 0.9),
		Assumptions: map[dcf.ScenarioLabel]dcf.Assumptions{
			dcf.Bear: flatAssumptions(0.02, horizon),
			dcf.Base: flatAssumptions(0.05, horizon),
			dcf.Bull: flatAssumptions(0.08, horizon),
		},
		PeerValues: map[string][]float64{
			"altman_z": {1.5, 2.0, 2.5, 3.0},
			"roe":      {0.05, 0.10, 0.20},
			"revenue":  {800, 1200},
		},
	}
}

func TestRunEndToEnd(t *testing.T) {
	eng := newEngine(t)
	report, err := eng.Run(fullRequest(t))
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "ACME", report.CompanyID)
	require.NotNil(t, report.Statements)
	require.NotNil(t, report.PriorStatements)

	rev, ok := report.Statements.Float("revenue")
	require.True(t, ok)
	assert.Equal(t, 1000.0, rev)

	// Derived chain feeds the DCF: net_debt = 600 - 300 - 100 = 200.
	nd, ok := report.Statements.Float("net_debt")
	require.True(t, ok)
	assert.Equal(t, 200.0, nd)

	require.Len(t, report.Scores, 3)
	for _, score := range report.Scores {
		assert.False(t, score.Partial, "model %s should fully determine on complete data: %v",
			score.Model, score.Warnings)
		require.NotNil(t, score.RawScore, "model %s", score.Model)
	}

	require.NotNil(t, report.Valuation)
	assert.Empty(t, report.ValuationError)
	assert.True(t, report.Valuation.Complete())
	assert.False(t, report.Valuation.OrderingAnomaly)
	require.NotNil(t, report.Valuation.ImpliedRange)
	assert.Less(t, report.Valuation.ImpliedRange.Low, report.Valuation.ImpliedRange.High)

	assert.Len(t, report.Summary.Risks, 5)

	// All three peer ids resolve: a score, a ratio, a statement metric.
	require.Len(t, report.Percentiles, 3)
	byID := map[string]bool{}
	for _, p := range report.Percentiles {
		byID[p.MetricID] = true
		require.NotNil(t, p.Rank, "metric %s", p.MetricID)
	}
	assert.True(t, byID["altman_z"] && byID["roe"] && byID["revenue"])
}

func TestRunFailsOnInsufficientCurrentPeriod(t *testing.T) {
	eng := newEngine(t)
	req := fullRequest(t)
	req.Facts = req.Facts[:1] // revenue only

	_, err := eng.Run(req)
	require.Error(t, err)
	assert.True(t, reconcile.IsInsufficientData(err))
}

func TestRunDegradesOnBadPriorPeriod(t *testing.T) {
	eng := newEngine(t)
	req := fullRequest(t)
	req.PriorFacts = req.PriorFacts[:1] // below coverage threshold

	report, err := eng.Run(req)
	require.NoError(t, err, "a prior-period failure degrades, never fails, the request")
	assert.Nil(t, report.PriorStatements)

	// Beneish needs both years; it must report undetermined, not zero.
	for _, score := range report.Scores {
		if score.Model == forensic.ModelBeneishM {
			assert.Nil(t, score.RawScore)
			assert.Equal(t, forensic.BandIndeterminate, score.Band)
		}
	}
}

func TestRunWithoutAssumptionsSkipsValuation(t *testing.T) {
	eng := newEngine(t)
	req := fullRequest(t)
	req.Assumptions = nil

	report, err := eng.Run(req)
	require.NoError(t, err)
	assert.Nil(t, report.Valuation)
	assert.Empty(t, report.ValuationError)
}

func TestRunRecordsValuationErrorOnMissingInputs(t *testing.T) {
	eng := newEngine(t)
	req := fullRequest(t)
	// Drop the market facts: no shares outstanding for the equity bridge.
	req.Facts = req.Facts[:len(req.Facts)-3]

	report, err := eng.Run(req)
	require.NoError(t, err)
	assert.Nil(t, report.Valuation)
	assert.Contains(t, report.ValuationError, "shares_outstanding")
}

func TestRunSkipsUnresolvablePeerMetrics(t *testing.T) {
	eng := newEngine(t)
	req := fullRequest(t)
	req.PeerValues = map[string][]float64{
		"no_such_metric": {1, 2, 3},
		"roe":            {0.05, 0.10},
	}

	report, err := eng.Run(req)
	require.NoError(t, err)
	require.Len(t, report.Percentiles, 1)
	assert.Equal(t, "roe", report.Percentiles[0].MetricID)
}

func TestNewRejectsBadInputs(t *testing.T) {
	cat, err := taxonomy.Default()
	require.NoError(t, err)

	_, err = New(config.Default(), nil, zerolog.Nop())
	assert.Error(t, err)

	bad := config.Default()
	bad.DCFHorizonYears = 0
	_, err = New(bad, cat, zerolog.Nop())
	assert.Error(t, err)
}

// The engine is shared across goroutines in service use; concurrent runs
// must not interfere.
func TestRunConcurrent(t *testing.T) {
	eng := newEngine(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report, err := eng.Run(fullRequest(t))
			assert.NoError(t, err)
			assert.NotNil(t, report)
		}()
	}
	wg.Wait()
}
