// Package spatial wraps the s2 geometry helpers used for train positions.
package spatial

import (
	"math"
	"sort"

	"github.com/golang/geo/s2"

	"github.com/example/railctl/internal/models"
)

// EarthRadiusKm is the mean Earth radius.
const EarthRadiusKm = 6371.0088

// ValidPosition reports whether p is a finite, in-range lat/lng pair.
func ValidPosition(p models.Position) bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return s2.LatLngFromDegrees(p.Lat, p.Lng).IsValid()
}

// DistanceKm returns the great-circle distance between two positions.
func DistanceKm(a, b models.Position) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lng)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// TrainDistance pairs a train with its distance from a query point.
type TrainDistance struct {
	Train      models.Train `json:"train"`
	DistanceKm float64      `json:"distance_km"`
}

// Nearby returns trains within radiusKm of center, nearest first.
// Ties keep the input order.
func Nearby(trains []models.Train, center models.Position, radiusKm float64) []TrainDistance {
	var out []TrainDistance
	for _, t := range trains {
		d := DistanceKm(center, t.Position)
		if d <= radiusKm {
			out = append(out, TrainDistance{Train: t, DistanceKm: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}
