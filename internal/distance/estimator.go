package distance

import (
	"context"

	"fieldroute/internal/model"
)

// Matrix is a full pairwise travel estimate over a node list. Index 0 is the
// depot. Minutes drive the solver's time dimension; Meters feed the reported
// route distances. The diagonal is always zero. A Euclidean matrix is
// symmetric; road-network backed matrices need not be.
type Matrix struct {
	Minutes [][]int
	Meters  [][]int

	// Degraded lists indices whose coordinates were missing. Rows and
	// columns for those nodes are zero, so their placement in a route is
	// best-effort only.
	Degraded []int
}

// Size returns the node count N of the N×N matrix.
func (m *Matrix) Size() int { return len(m.Minutes) }

// Estimator produces a travel matrix for an ordered list of coordinates.
// Implementations backed by external routing APIs own their request timeout
// and retry policy; the solver treats the estimator as opaque.
type Estimator interface {
	Matrix(ctx context.Context, points []model.GeoPoint) (*Matrix, error)
}

func newMatrix(n int) *Matrix {
	mins := make([][]int, n)
	mets := make([][]int, n)
	for i := range mins {
		mins[i] = make([]int, n)
		mets[i] = make([]int, n)
	}
	return &Matrix{Minutes: mins, Meters: mets}
}
