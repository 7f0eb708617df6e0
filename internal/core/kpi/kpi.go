// Package kpi derives the network KPIs from cycle aggregates and validates
// externally injected KPIs. This is part of the Functional Core.
package kpi

import (
	"math"
	"strings"

	"github.com/example/railctl/internal/core/aggregate"
	"github.com/example/railctl/internal/core/classify"
	"github.com/example/railctl/internal/errs"
	"github.com/example/railctl/internal/models"
)

// Names of the derived KPIs.
const (
	NamePunctuality        = "Overall Punctuality"
	NameAverageDelay       = "Average Delay"
	NameNetworkUtilization = "Network Utilization"
	NameActiveTrains       = "Active Trains"
	NameCriticalSections   = "Critical Sections"
)

// TrendEpsilon is the smallest change reported as up or down.
const TrendEpsilon = 0.01

// Target is a KPI goal with its absolute tolerance band.
type Target struct {
	Value     float64 `yaml:"value" json:"value"`
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
}

// Targets maps KPI name to target. KPIs without an entry have no target.
type Targets map[string]Target

// DefaultTargets returns the targets used when configuration sets none.
func DefaultTargets() Targets {
	return Targets{
		NamePunctuality:        {Value: 90, Tolerance: 5},
		NameAverageDelay:       {Value: 5, Tolerance: 5},
		NameNetworkUtilization: {Value: 75, Tolerance: 10},
		NameCriticalSections:   {Value: 0, Tolerance: 1},
	}
}

type definition struct {
	name           string
	unit           string
	higherIsBetter bool
	value          func(aggregate.Aggregates) float64
}

var definitions = []definition{
	{NamePunctuality, "%", true, func(a aggregate.Aggregates) float64 { return round1(a.Punctuality) }},
	{NameAverageDelay, "min", false, func(a aggregate.Aggregates) float64 { return round1(a.AverageDelayMinutes) }},
	{NameNetworkUtilization, "%", false, func(a aggregate.Aggregates) float64 { return round1(a.MeanUtilization) }},
	{NameActiveTrains, "trains", true, func(a aggregate.Aggregates) float64 { return float64(a.ActiveTrains) }},
	{NameCriticalSections, "sections", false, func(a aggregate.Aggregates) float64 { return float64(a.CriticalSections) }},
}

// Derive computes the derived KPIs for one cycle. prev holds the last value of
// each KPI by name and is used only for the trend.
// KPIs without a target are reported good.
func Derive(agg aggregate.Aggregates, prev map[string]models.KPI, targets Targets) []models.KPI {
	out := make([]models.KPI, 0, len(definitions))
	for _, d := range definitions {
		k := models.KPI{
			Name:           d.name,
			Value:          d.value(agg),
			Unit:           d.unit,
			HigherIsBetter: d.higherIsBetter,
			Status:         models.KPIGood,
		}
		if t, ok := targets[d.name]; ok {
			v := t.Value
			k.Target = &v
			k.Tolerance = t.Tolerance
			k.Status = classify.KPIStatus(k.Value, v, t.Tolerance, d.higherIsBetter)
		}
		p, hasPrev := prev[d.name]
		k.Trend = classify.Trend(p.Value, k.Value, hasPrev, TrendEpsilon)
		out = append(out, k)
	}
	return out
}

// IsDerived reports whether name belongs to a derived KPI.
func IsDerived(name string) bool {
	for _, d := range definitions {
		if d.name == name {
			return true
		}
	}
	return false
}

// PrepareExternal validates an injected KPI and fills in its status and trend.
// Rules:
// - name must be set and must not shadow a derived KPI
// - value must be a finite number
// - without a target, status must be supplied and known
// - with a target, status is classified and tolerance must not be negative
func PrepareExternal(k models.KPI, prev *models.KPI) (models.KPI, error) {
	name := strings.TrimSpace(k.Name)
	if name == "" {
		return k, errs.Validation("kpi", "", "name is required")
	}
	if IsDerived(name) {
		return k, errs.Validation("kpi", name, "name is reserved for a derived KPI")
	}
	if math.IsNaN(k.Value) || math.IsInf(k.Value, 0) {
		return k, errs.Validation("kpi", name, "value must be a finite number")
	}

	k = k.Clone()
	k.Name = name
	k.External = true
	if k.Target == nil {
		if !models.ValidKPIStatus(k.Status) {
			return k, errs.Validation("kpi", name, "status is required without a target (got %q)", k.Status)
		}
	} else {
		if k.Tolerance < 0 {
			return k, errs.Validation("kpi", name, "tolerance must not be negative")
		}
		k.Status = classify.KPIStatus(k.Value, *k.Target, k.Tolerance, k.HigherIsBetter)
	}

	if prev != nil {
		k.Trend = classify.Trend(prev.Value, k.Value, true, TrendEpsilon)
	} else {
		k.Trend = models.TrendStable
	}
	return k, nil
}

// Equal reports whether two KPI lists carry the same values, in order.
func Equal(a, b []models.KPI) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.Name != y.Name || x.Value != y.Value || x.Status != y.Status || x.Trend != y.Trend {
			return false
		}
		if (x.Target == nil) != (y.Target == nil) || (x.Target != nil && *x.Target != *y.Target) {
			return false
		}
	}
	return true
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
