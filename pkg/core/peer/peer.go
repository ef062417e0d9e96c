// Package peer places a company's metric or score inside a peer
// distribution as a percentile rank.
package peer

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// EmptyPeerSetWarning records that ranking was requested with no comparable
// peers. The result is explicitly undetermined, never a fabricated rank.
type EmptyPeerSetWarning struct {
	MetricID string `json:"metric_id"`
}

func (w EmptyPeerSetWarning) String() string {
	return fmt.Sprintf("no peer data for %s; percentile undetermined", w.MetricID)
}

// Distribution summarizes the peer sample.
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Percentile is the outcome of ranking one company value against its peers.
// Rank is nil when the peer set was empty.
type Percentile struct {
	MetricID     string               `json:"metric_or_score_id"`
	CompanyValue float64              `json:"company_value"`
	PeerValues   []float64            `json:"peer_values"`
	Rank         *float64             `json:"percentile_rank,omitempty"`
	Undetermined bool                 `json:"undetermined,omitempty"`
	Warning      *EmptyPeerSetWarning `json:"warning,omitempty"`
	Distribution *Distribution        `json:"distribution,omitempty"`
}

// Rank computes the percentile of companyValue within peerValues: the
// fraction of peers strictly below, with ties counted at half weight,
// expressed 0-100 and rounded to one decimal. Non-finite peer values are
// excluded from the sample.
func Rank(metricID string, companyValue float64, peerValues []float64) Percentile {
	peers := make([]float64, 0, len(peerValues))
	for _, v := range peerValues {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		peers = append(peers, v)
	}

	p := Percentile{
		MetricID:     metricID,
		CompanyValue: companyValue,
		PeerValues:   peers,
	}
	if len(peers) == 0 {
		p.Undetermined = true
		p.Warning = &EmptyPeerSetWarning{MetricID: metricID}
		return p
	}

	below, ties := 0, 0
	for _, v := range peers {
		switch {
		case v < companyValue:
			below++
		case v == companyValue:
			ties++
		}
	}
	rank := (float64(below) + float64(ties)/2) / float64(len(peers)) * 100
	rank = math.Round(rank*10) / 10
	p.Rank = &rank
	p.Distribution = summarize(peers)
	return p
}

func summarize(peers []float64) *Distribution {
	sorted := make([]float64, len(peers))
	copy(sorted, peers)
	sort.Float64s(sorted)

	d := &Distribution{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
	if len(sorted) > 1 {
		d.StdDev = stat.StdDev(sorted, nil)
	}
	return d
}
