// Package aggregate computes network-wide metrics from an entity snapshot.
// Every function here is a pure function of its arguments: nothing reads the
// clock and inputs are never modified, so passes over the same snapshot may run
// concurrently.
package aggregate

import (
	"fmt"
	"math"
	"time"

	"github.com/example/railctl/internal/core/classify"
	"github.com/example/railctl/internal/models"
)

// DelayBinEdges are the fixed lower edges (minutes) of the delay histogram.
// Bins are [0,5) [5,15) [15,30) [30,+inf) and only count trains with delay > 0.
var DelayBinEdges = []int{0, 5, 15, 30}

// Config carries the tunables the aggregator depends on.
type Config struct {
	Bands       classify.Bands
	Delay       classify.DelayThresholds
	BucketWidth time.Duration // trend bucket width, e.g. 4h
	Window      time.Duration // trend window, e.g. 24h
}

// SeverityCounts counts trains per delay severity.
type SeverityCounts struct {
	None   int `json:"none"`
	Mild   int `json:"mild"`
	Severe int `json:"severe"`
}

// HistogramBin is one delay-distribution bucket. Max is 0 for the open last bin.
type HistogramBin struct {
	Label      string  `json:"label"`
	Min        int     `json:"min"`
	Max        int     `json:"max,omitempty"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// SectionThroughput compares a section's load with its capacity.
type SectionThroughput struct {
	SectionID     string  `json:"section_id"`
	CurrentTrains int     `json:"current_trains"`
	Capacity      int     `json:"capacity"`
	Percentage    float64 `json:"percentage"`
}

// Aggregates are the derived metrics of one snapshot.
type Aggregates struct {
	SnapshotID          string              `json:"snapshot_id"`
	SnapshotVersion     uint64              `json:"snapshot_version"`
	TakenAt             time.Time           `json:"taken_at"`
	TrainCount          int                 `json:"train_count"`
	ActiveTrains        int                 `json:"active_trains"`
	DelayedTrains       int                 `json:"delayed_trains"`
	AverageDelayMinutes float64             `json:"average_delay_minutes"`
	MaxDelayMinutes     int                 `json:"max_delay_minutes"`
	Punctuality         float64             `json:"punctuality"`
	SectionCount        int                 `json:"section_count"`
	MeanUtilization     float64             `json:"mean_utilization"`
	CriticalSections    int                 `json:"critical_sections"`
	TrainsInSections    int                 `json:"trains_in_sections"`
	NetworkLengthKm     float64             `json:"network_length_km"`
	Severity            SeverityCounts      `json:"severity"`
	DelayHistogram      []HistogramBin      `json:"delay_histogram"`
	Throughput          []SectionThroughput `json:"throughput"`
	Trends              []TrendBucket       `json:"trends"`
}

// Compute derives all snapshot metrics. Trends are left empty; see Trends.
func Compute(snap models.Snapshot, cfg Config) Aggregates {
	agg := Aggregates{
		SnapshotID:      snap.ID,
		SnapshotVersion: snap.Version,
		TakenAt:         snap.TakenAt,
		TrainCount:      len(snap.Trains),
		SectionCount:    len(snap.Sections),
	}

	var delaySum, punctual int
	var delays []int
	for _, t := range snap.Trains {
		if t.Status != models.TrainStopped {
			agg.ActiveTrains++
		}
		if t.DelayMinutes > 0 {
			agg.DelayedTrains++
			delaySum += t.DelayMinutes
			delays = append(delays, t.DelayMinutes)
			if t.DelayMinutes > agg.MaxDelayMinutes {
				agg.MaxDelayMinutes = t.DelayMinutes
			}
		} else {
			punctual++
		}
		switch classify.DelaySeverity(t.DelayMinutes, cfg.Delay) {
		case classify.SeverityNone:
			agg.Severity.None++
		case classify.SeverityMild:
			agg.Severity.Mild++
		case classify.SeveritySevere:
			agg.Severity.Severe++
		}
	}
	if agg.DelayedTrains > 0 {
		agg.AverageDelayMinutes = float64(delaySum) / float64(agg.DelayedTrains)
	}
	if agg.TrainCount > 0 {
		agg.Punctuality = float64(punctual) * 100 / float64(agg.TrainCount)
	}
	agg.DelayHistogram = DelayHistogram(delays)

	var utilSum float64
	agg.Throughput = make([]SectionThroughput, 0, len(snap.Sections))
	for _, s := range snap.Sections {
		utilSum += s.Utilization
		agg.NetworkLengthKm += s.LengthKm
		agg.TrainsInSections += s.CurrentTrains
		if classify.IsCritical(s, cfg.Bands) {
			agg.CriticalSections++
		}
		agg.Throughput = append(agg.Throughput, SectionThroughput{
			SectionID:     s.ID,
			CurrentTrains: s.CurrentTrains,
			Capacity:      s.Capacity,
			Percentage:    classify.Utilization(s.CurrentTrains, s.Capacity),
		})
	}
	if agg.SectionCount > 0 {
		agg.MeanUtilization = utilSum / float64(agg.SectionCount)
	}

	return agg
}

// DelayHistogram bins positive delays using DelayBinEdges.
func DelayHistogram(delays []int) []HistogramBin {
	bins := make([]HistogramBin, len(DelayBinEdges))
	for i, lo := range DelayBinEdges {
		bins[i].Min = lo
		if i+1 < len(DelayBinEdges) {
			bins[i].Max = DelayBinEdges[i+1]
			bins[i].Label = fmt.Sprintf("%d-%d min", lo, bins[i].Max)
		} else {
			bins[i].Label = fmt.Sprintf("%d+ min", lo)
		}
	}

	total := 0
	for _, d := range delays {
		if d <= 0 {
			continue
		}
		total++
		bins[binIndex(d)].Count++
	}
	if total > 0 {
		for i := range bins {
			bins[i].Percentage = math.Round(float64(bins[i].Count)*1000/float64(total)) / 10
		}
	}
	return bins
}

func binIndex(delay int) int {
	idx := 0
	for i, lo := range DelayBinEdges {
		if delay >= lo {
			idx = i
		}
	}
	return idx
}
