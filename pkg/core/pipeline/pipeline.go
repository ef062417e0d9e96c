// Package pipeline orchestrates one analysis request end to end:
// reconciliation first, then forensic scoring and DCF valuation in
// parallel, then the investment summary and peer ranking.
//
// The engines themselves are pure and silent; progress and anomalies are
// logged here, at the orchestration boundary.
package pipeline

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"equitylens/pkg/config"
	"equitylens/pkg/core/dcf"
	"equitylens/pkg/core/forensic"
	"equitylens/pkg/core/peer"
	"equitylens/pkg/core/ratios"
	"equitylens/pkg/core/reconcile"
	"equitylens/pkg/core/summary"
	"equitylens/pkg/core/taxonomy"
	"equitylens/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Request is one company/period analysis submission. Facts for the current
// period are required; prior-period facts unlock the two-period forensic
// models and trend ratios. Assumptions enable the DCF; PeerValues enables
// percentile ranking for the listed metric or score ids.
type Request struct {
	CompanyID  string
	Period     models.Period
	Facts      []models.RawFact
	PriorFacts []models.RawFact
	// Assumptions keys must be exactly Bear/Base/Bull when present.
	Assumptions map[dcf.ScenarioLabel]dcf.Assumptions
	// PeerValues maps a canonical metric id, ratio name, or score id
	// (altman_z, beneish_m, piotroski_f) to the peer sample.
	PeerValues map[string][]float64
}

// Report is the assembled analysis output, plain immutable data for the
// presentation layer.
type Report struct {
	ID              string                        `json:"id"`
	CompanyID       string                        `json:"company_id"`
	Period          models.Period                 `json:"period"`
	GeneratedAt     time.Time                     `json:"generated_at"`
	Statements      *models.FinancialStatementSet `json:"statements"`
	PriorStatements *models.FinancialStatementSet `json:"prior_statements,omitempty"`
	Scores          []forensic.ScoreResult        `json:"scores"`
	Valuation       *dcf.Result                   `json:"valuation,omitempty"`
	ValuationError  string                        `json:"valuation_error,omitempty"`
	Summary         summary.Summary               `json:"summary"`
	Percentiles     []peer.Percentile             `json:"percentiles,omitempty"`
}

// Engine runs analysis requests against a fixed configuration and taxonomy.
// Safe for concurrent use across companies and periods.
type Engine struct {
	cfg config.AnalysisConfig
	cat *taxonomy.Catalog
	log zerolog.Logger
}

// New builds an analysis engine. The catalog and configuration are treated
// as read-only for the engine's lifetime.
func New(cfg config.AnalysisConfig, cat *taxonomy.Catalog, logger zerolog.Logger) (*Engine, error) {
	if cat == nil {
		return nil, fmt.Errorf("pipeline: nil taxonomy catalog")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, cat: cat, log: logger}, nil
}

// Run executes one analysis request. Reconciliation failure for the current
// period fails the request; a prior-period failure only degrades the
// two-period models, matching the policy that errors abort their own
// computation and nothing else.
func (e *Engine) Run(req Request) (*Report, error) {
	start := time.Now()
	logger := e.log.With().
		Str("company", req.CompanyID).
		Stringer("period", req.Period).
		Logger()

	prec, err := reconcile.DefaultPrecedence().WithOverrides(e.cfg.PrecedenceOverrides)
	if err != nil {
		return nil, err
	}
	opts := reconcile.Options{
		CompanyID:         req.CompanyID,
		Precedence:        prec,
		ConflictTolerance: e.cfg.ConflictTolerance,
		RequiredMetrics:   e.cfg.RequiredMetrics,
		CoverageThreshold: e.cfg.CoverageThreshold,
	}

	current, err := reconcile.Reconcile(req.Facts, e.cat, req.Period, opts)
	if err != nil {
		logger.Warn().Err(err).Msg("reconciliation failed")
		return nil, err
	}
	logger.Debug().
		Int("metrics", current.Len()).
		Int("notes", len(current.Notes())).
		Msg("current period reconciled")

	var prior *models.FinancialStatementSet
	if len(req.PriorFacts) > 0 {
		prior, err = reconcile.Reconcile(req.PriorFacts, e.cat, req.Period.Prior(), opts)
		if err != nil {
			logger.Warn().Err(err).Msg("prior period reconciliation failed; trend models degraded")
			prior = nil
		}
	}

	report := &Report{
		ID:              uuid.NewString(),
		CompanyID:       req.CompanyID,
		Period:          req.Period,
		GeneratedAt:     time.Now().UTC(),
		Statements:      current,
		PriorStatements: prior,
	}

	// Forensic scoring and DCF valuation are independent once the
	// statement set exists; run them concurrently.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		report.Scores = forensic.ScoreAll(current, prior)
	}()

	if len(req.Assumptions) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := dcf.Value(current, req.Assumptions, e.cfg.DCFHorizonYears)
			if err != nil {
				report.ValuationError = err.Error()
				return
			}
			report.Valuation = res
		}()
	}
	wg.Wait()

	if report.ValuationError != "" {
		logger.Warn().Str("error", report.ValuationError).Msg("valuation failed")
	}
	if report.Valuation != nil {
		for label, msg := range report.Valuation.ScenarioErrors {
			logger.Warn().Str("scenario", string(label)).Str("error", msg).Msg("scenario failed")
		}
		if report.Valuation.OrderingAnomaly {
			logger.Warn().Msg("scenario ordering anomaly: intrinsic values do not rank Bear < Base < Bull")
		}
	}

	report.Summary = summary.Generate(current, prior)
	report.Percentiles = e.rankPeers(report, req.PeerValues)

	logger.Info().
		Str("report_id", report.ID).
		Dur("elapsed", time.Since(start)).
		Int("scores", len(report.Scores)).
		Int("percentiles", len(report.Percentiles)).
		Msg("analysis complete")
	return report, nil
}

// rankPeers resolves each requested metric id against the report and ranks
// it within the supplied peer sample. Ids that resolve to nothing are
// skipped; peer ranking is additive, never a failure.
func (e *Engine) rankPeers(report *Report, peerValues map[string][]float64) []peer.Percentile {
	if len(peerValues) == 0 {
		return nil
	}
	panel := ratios.Compute(report.Statements, report.PriorStatements)

	ids := make([]string, 0, len(peerValues))
	for id := range peerValues {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []peer.Percentile
	for _, id := range ids {
		value, ok := e.resolveMetric(report, panel, id)
		if !ok {
			e.log.Debug().Str("metric", id).Msg("peer ranking skipped; company value unresolved")
			continue
		}
		out = append(out, peer.Rank(id, value, peerValues[id]))
	}
	return out
}

// resolveMetric finds the company-side value for a peer-ranked id: a
// forensic score, a canonical statement value, or a ratio, in that order.
func (e *Engine) resolveMetric(report *Report, panel ratios.Ratios, id string) (float64, bool) {
	for _, score := range report.Scores {
		if string(score.Model) == id {
			if score.RawScore == nil {
				return 0, false
			}
			return *score.RawScore, true
		}
	}
	if v, ok := report.Statements.Float(id); ok {
		return v, true
	}
	return panel.Lookup(id)
}
