package reconcile

import (
	"fmt"

	"equitylens/pkg/models"
)

// PrecedenceTable declares, per statement classification, which provenance
// wins when multiple sources report the same canonical metric. Earlier in
// the slice wins. Keeping this declarative lets the precedence rules be
// tested in isolation from the grouping machinery.
type PrecedenceTable map[models.StatementType][]models.Provenance

// DefaultPrecedence encodes the standard policy: filed statements beat
// market-derived approximations for statement items; market data beats
// filings for market-classified items (price, market cap, shares).
func DefaultPrecedence() PrecedenceTable {
	return PrecedenceTable{
		models.StatementIncome:   {models.ProvenanceSECEdgar, models.ProvenanceMarketData},
		models.StatementBalance:  {models.ProvenanceSECEdgar, models.ProvenanceMarketData},
		models.StatementCashFlow: {models.ProvenanceSECEdgar, models.ProvenanceMarketData},
		models.StatementMarket:   {models.ProvenanceMarketData, models.ProvenanceSECEdgar},
	}
}

// WithOverrides returns a copy of the table with the supplied per-statement
// priority lists applied. Unknown statement types or provenance names fail
// rather than being ignored, since a typo here silently changes which
// numbers win.
func (t PrecedenceTable) WithOverrides(overrides map[string][]string) (PrecedenceTable, error) {
	out := make(PrecedenceTable, len(t))
	for st, order := range t {
		cp := make([]models.Provenance, len(order))
		copy(cp, order)
		out[st] = cp
	}
	for stRaw, provs := range overrides {
		st := models.StatementType(stRaw)
		if !st.Valid() {
			return nil, fmt.Errorf("precedence override: unknown statement type %q", stRaw)
		}
		order := make([]models.Provenance, 0, len(provs))
		for _, p := range provs {
			prov, err := models.ParseProvenance(p)
			if err != nil {
				return nil, fmt.Errorf("precedence override for %q: %w", stRaw, err)
			}
			order = append(order, prov)
		}
		if len(order) == 0 {
			return nil, fmt.Errorf("precedence override for %q is empty", stRaw)
		}
		out[st] = order
	}
	return out, nil
}

// rank returns the priority index of prov for the given statement type;
// lower is better. Provenances absent from the list rank last.
func (t PrecedenceTable) rank(st models.StatementType, prov models.Provenance) int {
	for i, p := range t[st] {
		if p == prov {
			return i
		}
	}
	return len(t[st])
}
