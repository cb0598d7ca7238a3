package metrics

import "testing"

func TestRegisterDefaultIdempotent(t *testing.T) {
	RegisterDefault()
	RegisterDefault() // second call must not panic on duplicate registration

	SolveRuns.WithLabelValues("completed").Inc()
	HTTPRequests.WithLabelValues("GET", "/healthz", "200").Inc()
	HTTPDuration.WithLabelValues("GET", "/healthz").Observe(0.01)

	mfs, err := Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := map[string]bool{}
	for _, mf := range mfs {
		found[mf.GetName()] = true
	}
	for _, name := range []string{"http_requests_total", "http_request_duration_seconds", "solver_runs_total"} {
		if !found[name] {
			t.Errorf("metric %s not registered", name)
		}
	}
}
