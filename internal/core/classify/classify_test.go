package classify

import (
	"testing"

	"github.com/example/railctl/internal/models"
)

func TestSectionStatus(t *testing.T) {
	bands := DefaultBands()
	tests := []struct {
		name     string
		current  int
		capacity int
		flag     models.SectionFlag
		want     models.SectionStatus
	}{
		{"empty section is normal", 0, 10, models.FlagNone, models.SectionNormal},
		{"exactly 60 percent is normal", 6, 10, models.FlagNone, models.SectionNormal},
		{"above 60 percent is congested", 7, 10, models.FlagNone, models.SectionCongested},
		{"exactly 85 percent is congested", 17, 20, models.FlagNone, models.SectionCongested},
		{"above 85 percent is blocked", 9, 10, models.FlagNone, models.SectionBlocked},
		{"at capacity is blocked", 15, 15, models.FlagNone, models.SectionBlocked},
		{"over capacity is blocked", 17, 15, models.FlagNone, models.SectionBlocked},
		{"blocked flag wins over low utilization", 1, 10, models.FlagBlocked, models.SectionBlocked},
		{"maintenance flag wins over congestion", 8, 10, models.FlagMaintenance, models.SectionMaintenance},
		{"maintenance flag wins over full section", 10, 10, models.FlagMaintenance, models.SectionMaintenance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SectionStatus(tt.current, tt.capacity, tt.flag, bands)
			if got != tt.want {
				t.Errorf("SectionStatus(%d, %d, %q) = %s, want %s", tt.current, tt.capacity, tt.flag, got, tt.want)
			}
		})
	}
}

func TestSectionStatus_Deterministic(t *testing.T) {
	bands := Bands{NormalMax: 50, CongestedMax: 75}
	first := SectionStatus(7, 10, models.FlagNone, bands)
	for i := 0; i < 100; i++ {
		if got := SectionStatus(7, 10, models.FlagNone, bands); got != first {
			t.Fatalf("iteration %d: got %s, want %s", i, got, first)
		}
	}
	if first != models.SectionCongested {
		t.Errorf("custom bands: got %s, want Congested", first)
	}
}

func TestUtilization(t *testing.T) {
	tests := []struct {
		current, capacity int
		want              float64
	}{
		{15, 15, 100},
		{6, 8, 75},
		{0, 12, 0},
		{18, 15, 120},
		{3, 0, 0},
	}
	for _, tt := range tests {
		if got := Utilization(tt.current, tt.capacity); got != tt.want {
			t.Errorf("Utilization(%d, %d) = %v, want %v", tt.current, tt.capacity, got, tt.want)
		}
	}
}

func TestIsCritical(t *testing.T) {
	bands := DefaultBands()
	tests := []struct {
		name    string
		section models.Section
		want    bool
	}{
		{"blocked", models.Section{Status: models.SectionBlocked, Utilization: 20}, true},
		{"maintenance above band", models.Section{Status: models.SectionMaintenance, Utilization: 90}, true},
		{"congested", models.Section{Status: models.SectionCongested, Utilization: 80}, false},
		{"normal", models.Section{Status: models.SectionNormal, Utilization: 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCritical(tt.section, bands); got != tt.want {
				t.Errorf("IsCritical = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDelaySeverity(t *testing.T) {
	th := DefaultDelayThresholds()
	tests := []struct {
		delay int
		want  Severity
	}{
		{-10, SeverityNone},
		{0, SeverityNone},
		{1, SeverityMild},
		{9, SeverityMild},
		{10, SeveritySevere},
		{25, SeveritySevere},
	}
	for _, tt := range tests {
		if got := DelaySeverity(tt.delay, th); got != tt.want {
			t.Errorf("DelaySeverity(%d) = %s, want %s", tt.delay, got, tt.want)
		}
	}
}

func TestKPIStatus(t *testing.T) {
	tests := []struct {
		name           string
		value, target  float64
		tolerance      float64
		higherIsBetter bool
		want           models.KPIStatus
	}{
		{"punctuality meets target", 92, 90, 5, true, models.KPIGood},
		{"punctuality within tolerance", 87.5, 90, 5, true, models.KPIWarning},
		{"punctuality beyond tolerance", 80, 90, 5, true, models.KPICritical},
		{"average delay under target", 4, 5, 5, false, models.KPIGood},
		{"average delay within tolerance", 8.2, 5, 5, false, models.KPIWarning},
		{"average delay beyond tolerance", 12, 5, 5, false, models.KPICritical},
		{"exactly on tolerance edge", 85, 90, 5, true, models.KPIWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KPIStatus(tt.value, tt.target, tt.tolerance, tt.higherIsBetter)
			if got != tt.want {
				t.Errorf("KPIStatus = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name        string
		prev, cur   float64
		hasPrevious bool
		want        models.KPITrend
	}{
		{"no history", 0, 50, false, models.TrendStable},
		{"rising", 50, 60, true, models.TrendUp},
		{"falling", 60, 50, true, models.TrendDown},
		{"within epsilon", 50, 50.005, true, models.TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Trend(tt.prev, tt.cur, tt.hasPrevious, 0.01); got != tt.want {
				t.Errorf("Trend = %s, want %s", got, tt.want)
			}
		})
	}
}
