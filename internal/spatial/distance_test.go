package spatial

import (
	"math"
	"testing"

	"github.com/example/railctl/internal/models"
)

func TestValidPosition(t *testing.T) {
	tests := []struct {
		name string
		pos  models.Position
		want bool
	}{
		{"new delhi", models.Position{Lat: 28.6139, Lng: 77.1025}, true},
		{"origin", models.Position{Lat: 0, Lng: 0}, true},
		{"latitude out of range", models.Position{Lat: 91, Lng: 0}, false},
		{"longitude out of range", models.Position{Lat: 10, Lng: 181}, false},
		{"nan", models.Position{Lat: math.NaN(), Lng: 0}, false},
		{"inf", models.Position{Lat: 0, Lng: math.Inf(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidPosition(tt.pos); got != tt.want {
				t.Errorf("ValidPosition(%v) = %v, want %v", tt.pos, got, tt.want)
			}
		})
	}
}

func TestDistanceKm(t *testing.T) {
	delhi := models.Position{Lat: 28.6139, Lng: 77.2090}
	mathura := models.Position{Lat: 27.4924, Lng: 77.6739}

	d := DistanceKm(delhi, mathura)
	// roughly 132 km as the crow flies
	if d < 125 || d > 140 {
		t.Errorf("DistanceKm(delhi, mathura) = %.1f, want ~132", d)
	}
	if DistanceKm(delhi, delhi) != 0 {
		t.Error("distance to self should be 0")
	}
}

func TestNearby(t *testing.T) {
	center := models.Position{Lat: 28.6139, Lng: 77.2090}
	trains := []models.Train{
		{ID: "FAR", Position: models.Position{Lat: 27.4924, Lng: 77.6739}},
		{ID: "NEAR", Position: models.Position{Lat: 28.6200, Lng: 77.2100}},
		{ID: "MID", Position: models.Position{Lat: 28.4595, Lng: 77.0266}},
	}

	got := Nearby(trains, center, 50)
	if len(got) != 2 {
		t.Fatalf("expected 2 trains within 50km, got %d", len(got))
	}
	if got[0].Train.ID != "NEAR" || got[1].Train.ID != "MID" {
		t.Errorf("order = %s, %s; want NEAR, MID", got[0].Train.ID, got[1].Train.ID)
	}
}
