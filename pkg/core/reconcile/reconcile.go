// Package reconcile maps provenance-tagged raw facts onto the canonical
// metric taxonomy and resolves them into one FinancialStatementSet per
// company and period.
//
// Resolution is deterministic: the same fact collection always produces an
// identical statement set, regardless of input order.
package reconcile

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"equitylens/pkg/core/taxonomy"
	"equitylens/pkg/models"

	"github.com/shopspring/decimal"
)

// DefaultRequiredMetrics are the core statement items used for the coverage
// check when the caller does not configure their own list.
func DefaultRequiredMetrics() []string {
	return []string{"revenue", "total_assets", "operating_cash_flow"}
}

// Options tunes a reconciliation run. The zero value is not usable; build
// from defaults via the config package or fill every field.
type Options struct {
	CompanyID string
	// Precedence decides multi-source conflicts. Nil falls back to
	// DefaultPrecedence.
	Precedence PrecedenceTable
	// ConflictTolerance is the relative gap beyond which a derived-vs-raw
	// discrepancy is flagged on its note (e.g. 0.01 for 1%).
	ConflictTolerance float64
	// RequiredMetrics and CoverageThreshold gate the result: at least
	// threshold * len(required) of the required canonical ids must resolve.
	RequiredMetrics   []string
	CoverageThreshold float64
}

// InsufficientDataError reports that too few required canonical metrics
// resolved for the period to produce a usable statement set.
type InsufficientDataError struct {
	Period     models.Period
	Missing    []string
	Required   []string
	Threshold  float64
	ResolvedOf int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("reconcile %s: %d of %d required metrics resolved (threshold %.0f%%), missing: %s",
		e.Period, e.ResolvedOf, len(e.Required), e.Threshold*100, strings.Join(e.Missing, ", "))
}

// IsInsufficientData reports whether err is an InsufficientDataError.
func IsInsufficientData(err error) bool {
	var ide *InsufficientDataError
	return errors.As(err, &ide)
}

// Reconcile resolves raw facts into the canonical statement set for one
// period.
//
// Algorithm:
//  1. Map candidate keys onto canonical ids; unmapped keys and off-period
//     facts are dropped and recorded as notes, never fatal.
//  2. Resolve multi-source conflicts per canonical id via the precedence
//     table, breaking ties by confidence, then as-of recency.
//  3. Evaluate derivation rules in dependency order; a derived value wins
//     over a raw observation of the same id, with the discrepancy noted.
//  4. Check coverage of required metrics; below threshold the whole period
//     fails with InsufficientDataError.
func Reconcile(facts []models.RawFact, cat *taxonomy.Catalog, period models.Period, opts Options) (*models.FinancialStatementSet, error) {
	if cat == nil {
		return nil, fmt.Errorf("reconcile: nil taxonomy catalog")
	}
	prec := opts.Precedence
	if prec == nil {
		prec = DefaultPrecedence()
	}
	required := opts.RequiredMetrics
	if required == nil {
		required = DefaultRequiredMetrics()
	}

	var notes []models.ReconciliationNote

	// 1. Group facts by canonical id.
	groups := make(map[string][]models.RawFact)
	for _, f := range facts {
		if !f.Period.Equal(period) {
			notes = append(notes, models.ReconciliationNote{
				Kind:         models.NoteIgnoredPeriod,
				CandidateKey: f.CandidateKey,
			})
			continue
		}
		id, ok := cat.Lookup(f.CandidateKey)
		if !ok {
			notes = append(notes, models.ReconciliationNote{
				Kind:         models.NoteUnmappedInput,
				CandidateKey: f.CandidateKey,
			})
			continue
		}
		groups[id] = append(groups[id], f)
	}

	// 2. Resolve each group deterministically.
	values := make(map[string]decimal.Decimal, len(groups))
	sources := make(map[string]models.Provenance, len(groups))

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		group := groups[id]
		st, _ := cat.Statement(id)
		winner := selectWinner(group, st, prec)
		values[id] = winner.Value
		sources[id] = winner.Provenance

		for _, loser := range group {
			if loser == winner {
				continue
			}
			if loser.Value.Equal(winner.Value) {
				continue // agreement is not a conflict
			}
			chosen, rejected := winner.Value, loser.Value
			notes = append(notes, models.ReconciliationNote{
				Kind:           models.NoteConflictResolved,
				CanonicalID:    id,
				ChosenSource:   winner.Provenance,
				ChosenValue:    &chosen,
				RejectedSource: loser.Provenance,
				RejectedValue:  &rejected,
			})
		}
	}

	// 3. Derivation pass, in dependency order.
	for _, id := range cat.DerivedIDs() {
		def, _ := cat.Definition(id)
		derived, ok := evaluateRule(def.Derivation, values)
		if !ok {
			continue // inputs incomplete; any raw observation stands
		}
		raw, hadRaw := values[id]
		if hadRaw && !raw.Equal(derived) {
			note := models.ReconciliationNote{
				Kind:          models.NoteDerivedOverride,
				CanonicalID:   id,
				ChosenValue:   &derived,
				RejectedValue: &raw,
			}
			if src, ok := sources[id]; ok {
				note.RejectedSource = src
			}
			if !raw.IsZero() {
				gap, _ := derived.Sub(raw).Abs().Div(raw.Abs()).Float64()
				note.RelativeGap = &gap
				note.ExceedsTolerance = gap > opts.ConflictTolerance
			} else {
				note.ExceedsTolerance = true
			}
			notes = append(notes, note)
		}
		values[id] = derived
		// The derived value is a computation over already-attributed
		// inputs; it carries the provenance of the filing-side inputs by
		// convention, falling back to the raw observation's source.
		if src, ok := sources[id]; ok {
			sources[id] = src
		} else {
			sources[id] = dominantSource(def.Derivation, sources)
		}
	}

	// 4. Coverage gate.
	var missing []string
	resolved := 0
	for _, id := range required {
		if _, ok := values[id]; ok {
			resolved++
		} else {
			missing = append(missing, id)
		}
	}
	if len(required) > 0 {
		coverage := float64(resolved) / float64(len(required))
		if coverage < opts.CoverageThreshold {
			return nil, &InsufficientDataError{
				Period:     period,
				Missing:    missing,
				Required:   append([]string(nil), required...),
				Threshold:  opts.CoverageThreshold,
				ResolvedOf: resolved,
			}
		}
	}

	return models.NewFinancialStatementSet(opts.CompanyID, period, values, sources, notes), nil
}

// selectWinner picks the authoritative fact for one canonical id.
// Order: precedence rank, then confidence (higher wins), then as-of recency,
// then value/key ordering as a final deterministic tiebreak.
func selectWinner(group []models.RawFact, st models.StatementType, prec PrecedenceTable) models.RawFact {
	sorted := make([]models.RawFact, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		ra, rb := prec.rank(st, a.Provenance), prec.rank(st, b.Provenance)
		if ra != rb {
			return ra < rb
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if !a.AsOf.Equal(b.AsOf) {
			return a.AsOf.After(b.AsOf)
		}
		if a.CandidateKey != b.CandidateKey {
			return a.CandidateKey < b.CandidateKey
		}
		return a.Value.Cmp(b.Value) < 0
	})
	return sorted[0]
}

// evaluateRule computes a linear derivation over resolved values. All
// inputs must be present; absence is not zero.
func evaluateRule(rule *taxonomy.DerivationRule, values map[string]decimal.Decimal) (decimal.Decimal, bool) {
	sum := decimal.Zero
	for _, term := range rule.Terms {
		v, ok := values[term.CanonicalID]
		if !ok {
			return decimal.Zero, false
		}
		sum = sum.Add(v.Mul(decimal.NewFromFloat(term.Coefficient)))
	}
	return sum, true
}

// dominantSource attributes a derived value to the provenance of its inputs:
// if any input came from a filing the result is filing-sourced, otherwise
// market-sourced.
func dominantSource(rule *taxonomy.DerivationRule, sources map[string]models.Provenance) models.Provenance {
	out := models.ProvenanceMarketData
	for _, term := range rule.Terms {
		if sources[term.CanonicalID] == models.ProvenanceSECEdgar {
			out = models.ProvenanceSECEdgar
		}
	}
	return out
}
