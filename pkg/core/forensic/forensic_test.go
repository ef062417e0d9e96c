package forensic

import (
	"testing"

	"equitylens/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// statements builds an immutable set from plain floats, all filing-sourced.
func statements(values map[string]float64) *models.FinancialStatementSet {
	vs := make(map[string]decimal.Decimal, len(values))
	ss := make(map[string]models.Provenance, len(values))
	for id, v := range values {
		vs[id] = decimal.NewFromFloat(v)
		ss[id] = models.ProvenanceSECEdgar
	}
	return models.NewFinancialStatementSet("TEST", models.AnnualPeriod(2023), vs, ss, nil)
}

func warned(res ScoreResult, component string) bool {
	for _, w := range res.Warnings {
		if w.Component == component {
			return true
		}
	}
	return false
}

func TestScoreDispatch(t *testing.T) {
	set := statements(map[string]float64{"total_assets": 100})

	for _, model := range []Model{ModelAltmanZ, ModelBeneishM, ModelPiotroskiF} {
		res, err := Score(set, nil, model)
		require.NoError(t, err)
		assert.Equal(t, model, res.Model)
	}

	_, err := Score(set, nil, Model("dupont"))
	assert.Error(t, err)
}

func TestScoreAllRunsThreeModels(t *testing.T) {
	results := ScoreAll(statements(nil), nil)
	require.Len(t, results, 3)
	assert.Equal(t, ModelAltmanZ, results[0].Model)
	assert.Equal(t, ModelBeneishM, results[1].Model)
	assert.Equal(t, ModelPiotroskiF, results[2].Model)
}

func TestRatioGuardsZeroDenominator(t *testing.T) {
	_, ok := ratio(10, 0, true, true)
	assert.False(t, ok)

	_, ok = ratio(10, 5, false, true)
	assert.False(t, ok)

	v, ok := ratio(10, 5, true, true)
	require.True(t, ok)
	assert.Equal(t, 2.0, v)
}

func TestResultWithNoDeterminedComponents(t *testing.T) {
	// A model run over an empty set determines nothing: nil raw score, no
	// fabricated zero.
	res := AltmanZ(statements(nil))
	assert.Nil(t, res.RawScore)
	assert.Equal(t, BandIndeterminate, res.Band)
	assert.True(t, res.Partial)
	assert.Len(t, res.Warnings, 5)
}

func TestNilStatementSet(t *testing.T) {
	res := AltmanZ(nil)
	assert.Nil(t, res.RawScore)
	assert.Equal(t, BandIndeterminate, res.Band)
}
