package distance

import (
	"context"
	"testing"

	"fieldroute/internal/model"
)

func TestEuclideanMatrix(t *testing.T) {
	pts := []model.GeoPoint{
		{Lat: 40.0, Lng: -75.0},
		{Lat: 40.5, Lng: -75.0}, // half a degree north: ~34.5 miles
		{Lat: 40.0, Lng: -75.0}, // same spot as node 0
	}
	m, err := Euclidean{}.Matrix(context.Background(), pts)
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	if m.Size() != 3 {
		t.Fatalf("size: %d", m.Size())
	}
	// 34.5 miles at 30 mph is 69 minutes, floored to the integer.
	if m.Minutes[0][1] != 69 || m.Minutes[1][0] != 69 {
		t.Fatalf("minutes 0<->1: %d / %d", m.Minutes[0][1], m.Minutes[1][0])
	}
	if m.Meters[0][1] != 55522 {
		t.Fatalf("meters 0->1: %d", m.Meters[0][1])
	}
	if m.Minutes[0][2] != 0 || m.Minutes[0][0] != 0 {
		t.Fatalf("coincident and diagonal entries must be zero")
	}
	if len(m.Degraded) != 0 {
		t.Fatalf("unexpected degraded nodes: %v", m.Degraded)
	}
}

func TestEuclideanFlooring(t *testing.T) {
	// 0.01 degrees is 0.69 miles: 1.38 minutes of driving, floored to 1.
	pts := []model.GeoPoint{{Lat: 40.0, Lng: -75.0}, {Lat: 40.01, Lng: -75.0}}
	m, err := Euclidean{}.Matrix(context.Background(), pts)
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	if m.Minutes[0][1] != 1 {
		t.Fatalf("minutes: got %d, want 1 (floored, not rounded)", m.Minutes[0][1])
	}
}

func TestEuclideanDegradedNodes(t *testing.T) {
	pts := []model.GeoPoint{
		{Lat: 40.0, Lng: -75.0},
		{}, // unlocated
		{Lat: 41.0, Lng: -75.0},
	}
	m, err := Euclidean{}.Matrix(context.Background(), pts)
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	if len(m.Degraded) != 1 || m.Degraded[0] != 1 {
		t.Fatalf("degraded: %v", m.Degraded)
	}
	for j := range pts {
		if m.Minutes[1][j] != 0 || m.Minutes[j][1] != 0 {
			t.Fatalf("arcs touching an unlocated node must be zero")
		}
	}
	if m.Minutes[0][2] == 0 {
		t.Fatal("located pair should still get a real estimate")
	}
}
