package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path"},
	)

	// SolveRuns counts optimization runs by outcome (completed, infeasible, failed)
	SolveRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solver_runs_total", Help: "Optimization runs by outcome."},
		[]string{"outcome"},
	)
	// SolveDuration tracks wall-clock solve time in seconds
	SolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solver_duration_seconds", Help: "Wall-clock solve duration in seconds.", Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60}},
	)
	// SolveIterations tracks search iterations per run
	SolveIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solver_iterations", Help: "Search iterations per run.", Buckets: []float64{10, 100, 1000, 10000, 100000}},
	)
	// SolveBestCost is the objective value of the last completed run
	SolveBestCost = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "solver_best_cost_minutes", Help: "Objective (travel minutes) of the last completed run."},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(SolveRuns)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(SolveIterations)
		Registry.MustRegister(SolveBestCost)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
