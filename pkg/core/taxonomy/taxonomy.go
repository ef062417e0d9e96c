// Package taxonomy holds the fixed catalog of canonical financial metrics:
// stable identifiers, statement classification, units, the candidate keys
// sources report them under, and derivation rules for computable line items.
//
// A Catalog is built once at process start and passed read-only into every
// engine call. There is no package-level mutable state.
package taxonomy

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"equitylens/pkg/models"

	"gopkg.in/yaml.v2"
)

//go:embed taxonomy.yaml
var builtinCatalog []byte

// Term is one signed input of a derivation rule.
type Term struct {
	CanonicalID string  `yaml:"id"`
	Coefficient float64 `yaml:"coefficient"`
}

// DerivationRule expresses a metric as a signed linear combination of other
// canonical metrics, e.g. gross_profit = +revenue -cost_of_goods_sold.
// A derived value is computed only when every input resolved; it then takes
// precedence over any raw observation of the same id.
type DerivationRule struct {
	Terms []Term `yaml:"terms"`
}

// Inputs returns the canonical ids the rule reads.
func (r *DerivationRule) Inputs() []string {
	ids := make([]string, 0, len(r.Terms))
	for _, t := range r.Terms {
		ids = append(ids, t.CanonicalID)
	}
	return ids
}

// MetricDefinition is one taxonomy entry.
type MetricDefinition struct {
	CanonicalID   string               `yaml:"id"`
	DisplayName   string               `yaml:"name"`
	Statement     models.StatementType `yaml:"statement"`
	Unit          string               `yaml:"unit"`
	CandidateKeys []string             `yaml:"candidate_keys"`
	Derivation    *DerivationRule      `yaml:"derivation,omitempty"`
}

// Catalog is the immutable, validated metric taxonomy.
type Catalog struct {
	defs         map[string]MetricDefinition
	candidateIdx map[string]string // normalized candidate key -> canonical id
	derivedOrder []string          // derivation targets in dependency order
}

// NormalizeKey canonicalizes a candidate key for lookup. Source adapters
// report keys in whatever casing and separator style their provider uses.
func NormalizeKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.ReplaceAll(k, "-", "_")
	k = strings.ReplaceAll(k, " ", "_")
	return k
}

// New validates the definitions and builds a Catalog.
func New(defs []MetricDefinition) (*Catalog, error) {
	c := &Catalog{
		defs:         make(map[string]MetricDefinition, len(defs)),
		candidateIdx: make(map[string]string),
	}
	for _, d := range defs {
		if d.CanonicalID == "" {
			return nil, fmt.Errorf("taxonomy: definition with empty canonical id")
		}
		if !d.Statement.Valid() {
			return nil, fmt.Errorf("taxonomy: metric %q has unknown statement type %q", d.CanonicalID, d.Statement)
		}
		if _, dup := c.defs[d.CanonicalID]; dup {
			return nil, fmt.Errorf("taxonomy: duplicate canonical id %q", d.CanonicalID)
		}
		c.defs[d.CanonicalID] = d
	}

	for _, d := range c.defs {
		// A metric is always addressable by its own canonical id.
		keys := append([]string{d.CanonicalID}, d.CandidateKeys...)
		for _, key := range keys {
			norm := NormalizeKey(key)
			if existing, dup := c.candidateIdx[norm]; dup && existing != d.CanonicalID {
				return nil, fmt.Errorf("taxonomy: candidate key %q maps to both %q and %q", key, existing, d.CanonicalID)
			}
			c.candidateIdx[norm] = d.CanonicalID
		}
	}

	order, err := c.sortDerived()
	if err != nil {
		return nil, err
	}
	c.derivedOrder = order
	return c, nil
}

// Load parses YAML metric definitions and builds a Catalog.
func Load(data []byte) (*Catalog, error) {
	var doc struct {
		Metrics []MetricDefinition `yaml:"metrics"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("taxonomy: parse catalog: %w", err)
	}
	return New(doc.Metrics)
}

// Default builds the built-in catalog shipped with the module.
func Default() (*Catalog, error) {
	return Load(builtinCatalog)
}

// Lookup maps a source candidate key to its canonical id.
func (c *Catalog) Lookup(candidateKey string) (string, bool) {
	id, ok := c.candidateIdx[NormalizeKey(candidateKey)]
	return id, ok
}

// Definition returns the taxonomy entry for a canonical id.
func (c *Catalog) Definition(id string) (MetricDefinition, bool) {
	d, ok := c.defs[id]
	return d, ok
}

// Statement returns the statement classification for a canonical id.
func (c *Catalog) Statement(id string) (models.StatementType, bool) {
	d, ok := c.defs[id]
	if !ok {
		return "", false
	}
	return d.Statement, true
}

// Len is the number of canonical metrics in the catalog.
func (c *Catalog) Len() int { return len(c.defs) }

// IDs returns all canonical ids in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.defs))
	for id := range c.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DerivedIDs returns the derivation targets ordered so that every rule's
// inputs appear before the rule itself. Reconciliation evaluates rules in
// this order, which lets derived metrics feed other derived metrics
// (total_debt feeds net_debt, for example).
func (c *Catalog) DerivedIDs() []string {
	out := make([]string, len(c.derivedOrder))
	copy(out, c.derivedOrder)
	return out
}

// sortDerived topologically sorts derivation targets, rejecting rules that
// reference unknown metrics or form a cycle.
func (c *Catalog) sortDerived() ([]string, error) {
	var targets []string
	for id, d := range c.defs {
		if d.Derivation == nil {
			continue
		}
		if len(d.Derivation.Terms) == 0 {
			return nil, fmt.Errorf("taxonomy: metric %q has an empty derivation rule", id)
		}
		for _, term := range d.Derivation.Terms {
			if term.CanonicalID == id {
				return nil, fmt.Errorf("taxonomy: metric %q derives from itself", id)
			}
			if _, ok := c.defs[term.CanonicalID]; !ok {
				return nil, fmt.Errorf("taxonomy: metric %q derives from unknown metric %q", id, term.CanonicalID)
			}
		}
		targets = append(targets, id)
	}
	sort.Strings(targets) // deterministic walk order

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(targets))
	var order []string

	var visit func(id string) error
	visit = func(id string) error {
		def := c.defs[id]
		if def.Derivation == nil {
			return nil
		}
		switch state[id] {
		case visiting:
			return fmt.Errorf("taxonomy: derivation cycle involving %q", id)
		case done:
			return nil
		}
		state[id] = visiting
		for _, term := range def.Derivation.Terms {
			if err := visit(term.CanonicalID); err != nil {
				return err
			}
		}
		state[id] = done
		order = append(order, id)
		return nil
	}

	for _, id := range targets {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}
