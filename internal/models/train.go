// Package models contains domain types for railctl entities.
// Persistence of advisory records lives in internal/adapters/sqlite/*.go.
package models

import "time"

// TrainKind is the service class of a train.
type TrainKind string

const (
	KindExpress TrainKind = "Express"
	KindLocal   TrainKind = "Local"
	KindFreight TrainKind = "Freight"
	KindSpecial TrainKind = "Special"
)

// TrainStatus is the operational status reported for a train.
type TrainStatus string

const (
	TrainOnTime  TrainStatus = "OnTime"
	TrainDelayed TrainStatus = "Delayed"
	TrainAhead   TrainStatus = "Ahead"
	TrainStopped TrainStatus = "Stopped"
)

// Priority is shared by trains and recommendations.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Position is a lat/lng pair in degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Train is the current snapshot of one train.
// Invariants: Stopped implies SpeedKmh == 0; Delayed implies DelayMinutes > 0;
// Ahead implies DelayMinutes < 0; OnTime implies DelayMinutes == 0.
type Train struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Kind            TrainKind   `json:"kind"`
	CurrentLocation string      `json:"current_location"`
	Destination     string      `json:"destination"`
	Status          TrainStatus `json:"status"`
	DelayMinutes    int         `json:"delay_minutes"` // negative = running ahead
	SpeedKmh        float64     `json:"speed_kmh"`
	Priority        Priority    `json:"priority"`
	Position        Position    `json:"position"`
	NextSignal      string      `json:"next_signal"`
	Platform        string      `json:"platform,omitempty"`
	Route           string      `json:"route,omitempty"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// ValidTrainKind reports whether k is a known train kind.
func ValidTrainKind(k TrainKind) bool {
	switch k {
	case KindExpress, KindLocal, KindFreight, KindSpecial:
		return true
	}
	return false
}

// ValidTrainStatus reports whether s is a known train status.
func ValidTrainStatus(s TrainStatus) bool {
	switch s {
	case TrainOnTime, TrainDelayed, TrainAhead, TrainStopped:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ArchivedTrain is the last state of a train removed from the live view.
type ArchivedTrain struct {
	Train     Train     `json:"train"`
	Reason    string    `json:"reason"` // RetireArrived or RetireWithdrawn
	RetiredAt time.Time `json:"retired_at"`
}
