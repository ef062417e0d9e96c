// Package forensic computes closed-form financial forensics scores from a
// canonical statement set: Altman Z-Score (distress), Beneish M-Score
// (earnings manipulation), and Piotroski F-Score (fundamental strength).
//
// Every input ratio is computed defensively. A zero or absent denominator
// makes that component undetermined: it is excluded from the total and
// listed in the result's warnings. An unknown financial figure is never
// treated as zero, since silently scoring an unknown ratio as failing would
// bias the result.
package forensic

import (
	"fmt"

	"equitylens/pkg/models"
)

// Model identifies a forensic scoring model.
type Model string

const (
	ModelAltmanZ    Model = "altman_z"
	ModelBeneishM   Model = "beneish_m"
	ModelPiotroskiF Model = "piotroski_f"
)

// Band is the categorical classification of a score.
type Band string

const (
	// Altman Z bands. Boundaries belong to the lower-adjacent band:
	// distress is Z < 1.81, grey is 1.81 <= Z <= 2.99, safe is Z > 2.99.
	BandDistress Band = "distress"
	BandGrey     Band = "grey"
	BandSafe     Band = "safe"

	// Beneish M bands: M > -1.78 flags elevated manipulation risk.
	BandElevatedRisk Band = "elevated_risk"
	BandNormal       Band = "normal"

	// Piotroski F bands: 0-3 weak, 4-6 moderate, 7-9 strong.
	BandWeak     Band = "weak"
	BandModerate Band = "moderate"
	BandStrong   Band = "strong"

	// BandIndeterminate marks a partial score. Classifying a partial sum
	// against full-model thresholds would misread it.
	BandIndeterminate Band = "indeterminate"
)

// UndeterminedComponentWarning records a score component that could not be
// computed. Non-fatal; it travels with the result.
type UndeterminedComponentWarning struct {
	Component string `json:"component"`
	Reason    string `json:"reason"`
}

func (w UndeterminedComponentWarning) String() string {
	return fmt.Sprintf("%s undetermined: %s", w.Component, w.Reason)
}

// ScoreResult is the outcome of one forensic model run.
//
// RawScore is nil, not zero, when no component could be determined. Partial
// is set when at least one component is missing; the score then covers only
// the determined components and Band is indeterminate.
type ScoreResult struct {
	Model      Model                          `json:"model"`
	RawScore   *float64                       `json:"raw_score"`
	Band       Band                           `json:"band"`
	Components map[string]float64             `json:"component_breakdown"`
	Warnings   []UndeterminedComponentWarning `json:"warnings,omitempty"`
	Partial    bool                           `json:"partial"`
}

// Score runs a single model. Beneish and Piotroski require the prior-year
// statement set; Altman ignores it.
func Score(current, prior *models.FinancialStatementSet, model Model) (ScoreResult, error) {
	switch model {
	case ModelAltmanZ:
		return AltmanZ(current), nil
	case ModelBeneishM:
		return BeneishM(current, prior), nil
	case ModelPiotroskiF:
		return PiotroskiF(current, prior), nil
	default:
		return ScoreResult{}, fmt.Errorf("forensic: unknown model %q", model)
	}
}

// ScoreAll runs all three models. prior may be nil; the two-period models
// then report every trend component as undetermined rather than failing.
func ScoreAll(current, prior *models.FinancialStatementSet) []ScoreResult {
	return []ScoreResult{
		AltmanZ(current),
		BeneishM(current, prior),
		PiotroskiF(current, prior),
	}
}

// inputs wraps a statement set with nil-safety for component extraction.
type inputs struct {
	set *models.FinancialStatementSet
}

func (in inputs) get(id string) (float64, bool) {
	if in.set == nil {
		return 0, false
	}
	return in.set.Float(id)
}

// ratio divides defensively: both operands must be present and the
// denominator nonzero.
func ratio(num, den float64, numOK, denOK bool) (float64, bool) {
	if !numOK || !denOK || den == 0 {
		return 0, false
	}
	return num / den, true
}

// tracker accumulates determined components and warnings for one model run.
type tracker struct {
	components map[string]float64
	warnings   []UndeterminedComponentWarning
}

func newTracker() *tracker {
	return &tracker{components: make(map[string]float64)}
}

func (t *tracker) add(name string, value float64) {
	t.components[name] = value
}

func (t *tracker) undetermined(name, reason string) {
	t.warnings = append(t.warnings, UndeterminedComponentWarning{Component: name, Reason: reason})
}

// result assembles a ScoreResult from the accumulated state. score is the
// total over determined components; determined==0 yields a nil RawScore.
func (t *tracker) result(model Model, score float64, determined int, fullBand func(float64) Band) ScoreResult {
	res := ScoreResult{
		Model:      model,
		Components: t.components,
		Warnings:   t.warnings,
		Partial:    len(t.warnings) > 0,
	}
	if determined == 0 {
		res.Band = BandIndeterminate
		return res
	}
	s := score
	res.RawScore = &s
	if res.Partial {
		res.Band = BandIndeterminate
	} else {
		res.Band = fullBand(score)
	}
	return res
}
