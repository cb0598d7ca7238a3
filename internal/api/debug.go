package api

import (
	"net/http"
	"os"
	"time"

	"fieldroute/internal/buildinfo"
)

// DebugJSON reports build and effective-environment facts for support
// tickets. Secrets are reported as presence flags only.
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"PORT":                   os.Getenv("PORT"),
			"OSRM_URL":               os.Getenv("OSRM_URL"),
			"SOLVER_TIME_BUDGET_SEC": os.Getenv("SOLVER_TIME_BUDGET_SEC"),
			"SOLVER_SEED":            os.Getenv("SOLVER_SEED"),
			"HAS_DATABASE_URL":       os.Getenv("DATABASE_URL") != "",
			"HAS_REDIS_URL":          os.Getenv("REDIS_URL") != "",
		},
		"solver": s.Solver,
	})
}
