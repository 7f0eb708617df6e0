package models

import "time"

// KPITrend is the direction of a KPI relative to its previous value.
type KPITrend string

const (
	TrendUp     KPITrend = "up"
	TrendDown   KPITrend = "down"
	TrendStable KPITrend = "stable"
)

// KPIStatus is the classified health of a KPI.
type KPIStatus string

const (
	KPIGood     KPIStatus = "good"
	KPIWarning  KPIStatus = "warning"
	KPICritical KPIStatus = "critical"
)

// KPI is a named metric. Target is nil when the KPI has no target, in which
// case Status is supplied by whoever injected it.
type KPI struct {
	Name           string    `json:"name"`
	Value          float64   `json:"value"`
	Unit           string    `json:"unit"`
	Trend          KPITrend  `json:"trend"`
	Target         *float64  `json:"target,omitempty"`
	Tolerance      float64   `json:"tolerance,omitempty"`
	Status         KPIStatus `json:"status"`
	HigherIsBetter bool      `json:"higher_is_better"`
	External       bool      `json:"external,omitempty"`
}

// ValidKPIStatus reports whether s is a known KPI status.
func ValidKPIStatus(s KPIStatus) bool {
	switch s {
	case KPIGood, KPIWarning, KPICritical:
		return true
	}
	return false
}

// Snapshot is an immutable point-in-time copy of all entities.
// Version increases with every committed change in the entity store.
type Snapshot struct {
	ID       string    `json:"id"`
	Version  uint64    `json:"version"`
	TakenAt  time.Time `json:"taken_at"`
	Trains   []Train   `json:"trains"`
	Sections []Section `json:"sections"`
	KPIs     []KPI     `json:"kpis"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Trains = append([]Train(nil), s.Trains...)
	out.Sections = append([]Section(nil), s.Sections...)
	out.KPIs = make([]KPI, len(s.KPIs))
	for i, k := range s.KPIs {
		out.KPIs[i] = k.Clone()
	}
	return out
}

// Clone returns a copy of the KPI that shares no pointers with the original.
func (k KPI) Clone() KPI {
	if k.Target != nil {
		t := *k.Target
		k.Target = &t
	}
	return k
}
