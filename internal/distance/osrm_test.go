package distance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"fieldroute/internal/model"
)

const tableOK = `{"code":"Ok",
  "durations":[[0,600,900],[660,0,300],[840,360,0]],
  "distances":[[0,8000,12000],[8800,0,4000],[11200,4800,0]]}`

func TestOSRMMatrix(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(tableOK))
	}))
	defer srv.Close()

	o := NewOSRM(srv.URL)
	pts := []model.GeoPoint{
		{Lat: 40.0, Lng: -75.0},
		{Lat: 40.1, Lng: -75.1},
		{Lat: 40.2, Lng: -75.2},
	}
	m, err := o.Matrix(context.Background(), pts)
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	if !strings.HasPrefix(gotPath, "/table/v1/driving/") {
		t.Fatalf("path: %s", gotPath)
	}
	// lng,lat ordering on the wire.
	if !strings.HasPrefix(strings.TrimPrefix(gotPath, "/table/v1/driving/"), "-75.000000,40.000000;") {
		t.Fatalf("coordinates: %s", gotPath)
	}
	if m.Minutes[0][1] != 10 || m.Minutes[1][0] != 11 {
		t.Fatalf("asymmetric durations lost: %d / %d", m.Minutes[0][1], m.Minutes[1][0])
	}
	if m.Meters[1][2] != 4000 {
		t.Fatalf("meters: %d", m.Meters[1][2])
	}
}

func TestOSRMRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(tableOK))
	}))
	defer srv.Close()

	o := NewOSRM(srv.URL)
	pts := []model.GeoPoint{{Lat: 40, Lng: -75}, {Lat: 40.1, Lng: -75.1}, {Lat: 40.2, Lng: -75.2}}
	if _, err := o.Matrix(context.Background(), pts); err != nil {
		t.Fatalf("Matrix after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls: %d", calls.Load())
	}
}

func TestOSRMDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	o := NewOSRM(srv.URL)
	pts := []model.GeoPoint{{Lat: 40, Lng: -75}, {Lat: 40.1, Lng: -75.1}}
	if _, err := o.Matrix(context.Background(), pts); err == nil {
		t.Fatal("want error")
	}
	if calls.Load() != 1 {
		t.Fatalf("400 must not be retried, got %d calls", calls.Load())
	}
}

func TestOSRMSingleNodeSkipsRequest(t *testing.T) {
	o := NewOSRM("http://127.0.0.1:1") // would fail if contacted
	m, err := o.Matrix(context.Background(), []model.GeoPoint{{Lat: 40, Lng: -75}})
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	if m.Size() != 1 {
		t.Fatalf("size: %d", m.Size())
	}
}
