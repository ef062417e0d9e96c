package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"equitylens/pkg/config"
	"equitylens/pkg/core/dcf"
	"equitylens/pkg/core/pipeline"
	"equitylens/pkg/core/taxonomy"
	"equitylens/pkg/models"

	"github.com/hjson/hjson-go/v4"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	companyID      string
	fiscalYear     int
	fiscalQuarter  int
	factsPath      string
	priorFactsPath string
	scenariosPath  string
	peersPath      string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full analysis pipeline for one company and period",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if configPath != "" {
			var err error
			if cfg, err = config.Load(configPath); err != nil {
				return err
			}
		}

		cat, err := taxonomy.Default()
		if err != nil {
			return err
		}

		engine, err := pipeline.New(cfg, cat, logger)
		if err != nil {
			return err
		}

		period := models.AnnualPeriod(fiscalYear)
		if fiscalQuarter > 0 {
			period = models.QuarterPeriod(fiscalYear, fiscalQuarter)
		}

		req := pipeline.Request{
			CompanyID: companyID,
			Period:    period,
		}
		if req.Facts, err = loadFacts(factsPath); err != nil {
			return err
		}
		if priorFactsPath != "" {
			if req.PriorFacts, err = loadFacts(priorFactsPath); err != nil {
				return err
			}
		}
		if scenariosPath != "" {
			if req.Assumptions, err = loadScenarios(scenariosPath); err != nil {
				return err
			}
		}
		if peersPath != "" {
			if req.PeerValues, err = loadPeers(peersPath); err != nil {
				return err
			}
		}

		report, err := engine.Run(req)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&companyID, "company", "", "company identifier (e.g. ticker)")
	analyzeCmd.Flags().IntVar(&fiscalYear, "year", 0, "fiscal year to analyze")
	analyzeCmd.Flags().IntVar(&fiscalQuarter, "quarter", 0, "fiscal quarter (omit for full year)")
	analyzeCmd.Flags().StringVar(&factsPath, "facts", "", "raw facts JSON file for the period")
	analyzeCmd.Flags().StringVar(&priorFactsPath, "prior-facts", "", "raw facts JSON file for the prior period")
	analyzeCmd.Flags().StringVar(&scenariosPath, "scenarios", "", "DCF scenario assumptions file (hjson or json)")
	analyzeCmd.Flags().StringVar(&peersPath, "peers", "", "peer values JSON file (metric id -> values)")
	_ = analyzeCmd.MarkFlagRequired("company")
	_ = analyzeCmd.MarkFlagRequired("year")
	_ = analyzeCmd.MarkFlagRequired("facts")
}

// factFile is the on-disk fact shape. Validation happens through
// models.NewRawFact so the CLI rejects malformed adapter output the same
// way any embedding caller would.
type factFile struct {
	CandidateKey  string `json:"candidate_key"`
	Value         string `json:"value"`
	Unit          string `json:"unit"`
	FiscalYear    int    `json:"fiscal_year"`
	FiscalQuarter *int   `json:"fiscal_quarter"`
	Provenance    string `json:"provenance"`
	AsOf          string `json:"as_of"`
	Confidence    string `json:"confidence"`
}

func parseFact(row factFile) (models.RawFact, error) {
	value, err := decimal.NewFromString(row.Value)
	if err != nil {
		return models.RawFact{}, fmt.Errorf("value %q: %w", row.Value, err)
	}
	prov, err := models.ParseProvenance(row.Provenance)
	if err != nil {
		return models.RawFact{}, err
	}
	conf, err := models.ParseConfidence(row.Confidence)
	if err != nil {
		return models.RawFact{}, err
	}
	asOf, err := time.Parse(time.RFC3339, row.AsOf)
	if err != nil {
		return models.RawFact{}, fmt.Errorf("as_of %q: %w", row.AsOf, err)
	}
	period := models.AnnualPeriod(row.FiscalYear)
	if row.FiscalQuarter != nil {
		period = models.QuarterPeriod(row.FiscalYear, *row.FiscalQuarter)
	}
	return models.NewRawFact(row.CandidateKey, value, row.Unit, period, prov, asOf, conf)
}

func loadFacts(path string) ([]models.RawFact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read facts %s: %w", path, err)
	}
	var rows []factFile
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse facts %s: %w", path, err)
	}

	facts := make([]models.RawFact, 0, len(rows))
	for i, row := range rows {
		fact, err := parseFact(row)
		if err != nil {
			return nil, fmt.Errorf("facts %s, entry %d: %w", path, i, err)
		}
		facts = append(facts, fact)
	}
	return facts, nil
}

func loadScenarios(path string) (map[dcf.ScenarioLabel]dcf.Assumptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios %s: %w", path, err)
	}
	var generic any
	if err := hjson.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("parse scenarios %s: %w", path, err)
	}
	raw, err := json.Marshal(generic)
	if err != nil {
		return nil, err
	}
	var out map[dcf.ScenarioLabel]dcf.Assumptions
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse scenarios %s: %w", path, err)
	}
	return out, nil
}

func loadPeers(path string) (map[string][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read peers %s: %w", path, err)
	}
	var out map[string][]float64
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse peers %s: %w", path, err)
	}
	return out, nil
}
