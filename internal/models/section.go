package models

// SectionStatus is the classified state of a track section.
type SectionStatus string

const (
	SectionNormal      SectionStatus = "Normal"
	SectionCongested   SectionStatus = "Congested"
	SectionBlocked     SectionStatus = "Blocked"
	SectionMaintenance SectionStatus = "Maintenance"
)

// SectionFlag is an externally imposed state. A flag overrides the
// utilization bands and stays set until explicitly cleared.
type SectionFlag string

const (
	FlagNone        SectionFlag = ""
	FlagBlocked     SectionFlag = "Blocked"
	FlagMaintenance SectionFlag = "Maintenance"
)

// Section is the current snapshot of one track section.
// Utilization is always CurrentTrains/Capacity*100 and is never set independently.
type Section struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	LengthKm      float64       `json:"length_km"`
	Capacity      int           `json:"capacity"`
	CurrentTrains int           `json:"current_trains"`
	Status        SectionStatus `json:"status"`
	Utilization   float64       `json:"utilization"`
	Flag          SectionFlag   `json:"flag,omitempty"`
}

// ValidSectionFlag reports whether f is a known flag value (including none).
func ValidSectionFlag(f SectionFlag) bool {
	switch f {
	case FlagNone, FlagBlocked, FlagMaintenance:
		return true
	}
	return false
}
