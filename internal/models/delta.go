package models

// Retirement reasons end a train's lifecycle in the entity store.
const (
	RetireArrived   = "arrived"
	RetireWithdrawn = "withdrawn"
)

// TrainDelta is a partial telemetry update for one train.
// Nil fields are left unchanged. The first delta for an unknown train must
// carry Kind, Status, Priority and Position.
type TrainDelta struct {
	Name            *string      `json:"name,omitempty"`
	Kind            *TrainKind   `json:"kind,omitempty"`
	CurrentLocation *string      `json:"current_location,omitempty"`
	Destination     *string      `json:"destination,omitempty"`
	Status          *TrainStatus `json:"status,omitempty"`
	DelayMinutes    *int         `json:"delay_minutes,omitempty"`
	SpeedKmh        *float64     `json:"speed_kmh,omitempty"`
	Priority        *Priority    `json:"priority,omitempty"`
	Position        *Position    `json:"position,omitempty"`
	NextSignal      *string      `json:"next_signal,omitempty"`
	Platform        *string      `json:"platform,omitempty"`
	Route           *string      `json:"route,omitempty"`
	Retire          string       `json:"retire,omitempty"` // RetireArrived or RetireWithdrawn
}

// SectionDelta is a partial occupancy update for one section.
// Capacity and length are topology and cannot be changed by a delta.
type SectionDelta struct {
	CurrentTrains *int         `json:"current_trains,omitempty"`
	TrainsEntered int          `json:"trains_entered,omitempty"`
	TrainsLeft    int          `json:"trains_left,omitempty"`
	Flag          *SectionFlag `json:"flag,omitempty"` // pointer to FlagNone clears a flag
}

// SectionSpec is the fixed topology of one section.
type SectionSpec struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	LengthKm float64 `json:"length_km" yaml:"length_km"`
	Capacity int     `json:"capacity" yaml:"capacity"`
}

// UpdateKind discriminates UpdateRecord.
type UpdateKind string

const (
	UpdateTrain   UpdateKind = "train"
	UpdateSection UpdateKind = "section"
)

// UpdateRecord is one typed entry of an ingestion feed, keyed by entity id.
type UpdateRecord struct {
	Kind     UpdateKind    `json:"kind"`
	EntityID string        `json:"entity_id"`
	Train    *TrainDelta   `json:"train,omitempty"`
	Section  *SectionDelta `json:"section,omitempty"`
}
