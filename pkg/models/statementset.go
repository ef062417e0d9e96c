package models

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
)

// NoteKind classifies a reconciliation note.
type NoteKind string

const (
	// NoteUnmappedInput records a raw fact whose candidate key matched no
	// taxonomy entry. The input was dropped, never fatal.
	NoteUnmappedInput NoteKind = "UNMAPPED_INPUT"
	// NoteIgnoredPeriod records a raw fact reported for a different period
	// than the one being reconciled.
	NoteIgnoredPeriod NoteKind = "IGNORED_PERIOD"
	// NoteConflictResolved records a multi-source conflict settled by the
	// precedence table.
	NoteConflictResolved NoteKind = "CONFLICT_RESOLVED"
	// NoteDerivedOverride records a derived value taking precedence over a
	// raw observation for the same canonical id.
	NoteDerivedOverride NoteKind = "DERIVED_OVERRIDE"
)

// ReconciliationNote documents one resolution decision made while building a
// statement set. Notes are evidence for the presentation layer; the core
// records them and moves on.
type ReconciliationNote struct {
	Kind           NoteKind         `json:"kind"`
	CanonicalID    string           `json:"canonical_id,omitempty"`
	CandidateKey   string           `json:"candidate_key,omitempty"`
	ChosenSource   Provenance       `json:"chosen_source,omitempty"`
	ChosenValue    *decimal.Decimal `json:"chosen_value,omitempty"`
	RejectedSource Provenance       `json:"rejected_source,omitempty"`
	RejectedValue  *decimal.Decimal `json:"rejected_value,omitempty"`
	// RelativeGap is the |chosen-rejected| / |rejected| discrepancy for
	// derived overrides, when the rejected value is nonzero.
	RelativeGap *float64 `json:"relative_gap,omitempty"`
	// ExceedsTolerance marks derived-override gaps beyond the configured
	// conflict tolerance.
	ExceedsTolerance bool `json:"exceeds_tolerance,omitempty"`
}

// FinancialStatementSet is the canonical metric set for one company and
// period: at most one value per canonical id, each tagged with the provenance
// that supplied it. Missing metrics are absent from the mapping, never
// zero-filled.
//
// The set is immutable: the constructor copies its inputs and accessors
// return copies, so downstream engines can share one instance freely.
type FinancialStatementSet struct {
	companyID string
	period    Period
	values    map[string]decimal.Decimal
	sources   map[string]Provenance
	notes     []ReconciliationNote
}

// NewFinancialStatementSet builds an immutable statement set. Only ids
// present in both values and sources are retained; a value without a source
// tag would be an unexplained number, which reconciliation never produces.
func NewFinancialStatementSet(companyID string, period Period, values map[string]decimal.Decimal, sources map[string]Provenance, notes []ReconciliationNote) *FinancialStatementSet {
	vs := make(map[string]decimal.Decimal, len(values))
	ss := make(map[string]Provenance, len(values))
	for id, v := range values {
		src, ok := sources[id]
		if !ok {
			continue
		}
		vs[id] = v
		ss[id] = src
	}
	ns := make([]ReconciliationNote, len(notes))
	copy(ns, notes)
	return &FinancialStatementSet{
		companyID: companyID,
		period:    period,
		values:    vs,
		sources:   ss,
		notes:     ns,
	}
}

func (s *FinancialStatementSet) CompanyID() string { return s.companyID }
func (s *FinancialStatementSet) Period() Period    { return s.period }

// Value returns the canonical value for id, reporting presence explicitly.
func (s *FinancialStatementSet) Value(id string) (decimal.Decimal, bool) {
	v, ok := s.values[id]
	return v, ok
}

// Float returns the canonical value as a float64 for formula engines.
func (s *FinancialStatementSet) Float(id string) (float64, bool) {
	v, ok := s.values[id]
	if !ok {
		return 0, false
	}
	f, _ := v.Float64()
	return f, true
}

// Source returns the provenance that supplied id.
func (s *FinancialStatementSet) Source(id string) (Provenance, bool) {
	src, ok := s.sources[id]
	return src, ok
}

// Has reports whether every listed id resolved to a value.
func (s *FinancialStatementSet) Has(ids ...string) bool {
	for _, id := range ids {
		if _, ok := s.values[id]; !ok {
			return false
		}
	}
	return true
}

// IDs returns the resolved canonical ids in sorted order.
func (s *FinancialStatementSet) IDs() []string {
	ids := make([]string, 0, len(s.values))
	for id := range s.values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Notes returns a copy of the ordered reconciliation notes.
func (s *FinancialStatementSet) Notes() []ReconciliationNote {
	ns := make([]ReconciliationNote, len(s.notes))
	copy(ns, s.notes)
	return ns
}

// Len is the number of resolved canonical metrics.
func (s *FinancialStatementSet) Len() int { return len(s.values) }

type statementSetJSON struct {
	CompanyID string                     `json:"company_id"`
	Period    Period                     `json:"period"`
	Values    map[string]decimal.Decimal `json:"values"`
	Sources   map[string]Provenance      `json:"sources"`
	Notes     []ReconciliationNote       `json:"reconciliation_notes"`
}

// MarshalJSON exposes the set to the presentation layer as plain data.
func (s *FinancialStatementSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(statementSetJSON{
		CompanyID: s.companyID,
		Period:    s.period,
		Values:    s.values,
		Sources:   s.sources,
		Notes:     s.notes,
	})
}

// UnmarshalJSON restores a set marshaled by MarshalJSON.
func (s *FinancialStatementSet) UnmarshalJSON(b []byte) error {
	var raw statementSetJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = *NewFinancialStatementSet(raw.CompanyID, raw.Period, raw.Values, raw.Sources, raw.Notes)
	return nil
}
