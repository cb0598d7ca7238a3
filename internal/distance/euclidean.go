package distance

import (
	"context"
	"math"

	"fieldroute/internal/model"
)

const (
	// Rough planar approximation: one degree spans about 69 miles.
	milesPerDegree = 69.0
	// Assumed average driving speed for the fallback estimate.
	avgSpeedMph   = 30.0
	metersPerMile = 1609.344
)

// Euclidean estimates travel time from straight-line coordinate distance.
// It is a deliberate simplification for when no routing API is configured;
// swap in an HTTP-backed Estimator for road-network accuracy.
type Euclidean struct{}

func (Euclidean) Matrix(_ context.Context, points []model.GeoPoint) (*Matrix, error) {
	m := newMatrix(len(points))
	for i, p := range points {
		if p.IsZero() {
			m.Degraded = append(m.Degraded, i)
		}
	}
	for i, from := range points {
		for j, to := range points {
			if i == j {
				continue
			}
			if from.IsZero() || to.IsZero() {
				// Unlocated nodes degrade to zero distance; the caller
				// is warned via Degraded.
				continue
			}
			miles := math.Hypot(from.Lat-to.Lat, from.Lng-to.Lng) * milesPerDegree
			m.Minutes[i][j] = int(miles / avgSpeedMph * 60)
			m.Meters[i][j] = int(miles * metersPerMile)
		}
	}
	return m, nil
}
