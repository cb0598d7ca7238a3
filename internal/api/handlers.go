package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"fieldroute/internal/buildinfo"
	"fieldroute/internal/model"
	"fieldroute/internal/solver"
	"fieldroute/internal/store"
)

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Info()})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Store unavailable", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// StopsHandler serves GET and POST /v1/stops. POST upserts the supplied stop
// records; records with IDs replace existing rows.
func (s *Server) StopsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		stops, err := s.Store.ListStops(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List stops failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": stops})
	case http.MethodPost:
		var body struct {
			Stops []model.Stop `json:"stops"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateStops(body.Stops); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid stops", err.Error(), r.URL.Path)
			return
		}
		n, err := s.Store.UpsertStops(r.Context(), body.Stops)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Upsert stops failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"upserted": n})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// TechniciansHandler serves GET and POST /v1/technicians.
func (s *Server) TechniciansHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		techs, err := s.Store.ListTechnicians(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List technicians failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": techs})
	case http.MethodPost:
		var body struct {
			Technicians []model.Technician `json:"technicians"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateTechnicians(body.Technicians); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid technicians", err.Error(), r.URL.Path)
			return
		}
		n, err := s.Store.UpsertTechnicians(r.Context(), body.Technicians)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Upsert technicians failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"upserted": n})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// OptimizeHandler runs a synchronous optimization and blocks for up to the
// request's time budget. Callers needing responsiveness should POST
// /v1/plans instead and poll.
func (s *Server) OptimizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.OptimizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateOptimizeRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid optimize request", err.Error(), r.URL.Path)
		return
	}

	res, m, err := s.Run(r.Context(), req, nil)
	if err != nil {
		var cfgErr *solver.ConfigurationError
		switch {
		case errors.As(err, &cfgErr):
			writeProblem(w, http.StatusBadRequest, "Invalid problem", cfgErr.Reason, r.URL.Path)
		case errors.Is(err, solver.ErrInfeasible):
			// Expected, recoverable outcome: report as a structured failure
			// with no partial routes.
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"success": false,
				"reason":  "no feasible assignment within the time windows and slack budget",
				"metrics": m,
			})
		default:
			writeProblem(w, http.StatusInternalServerError, "Optimization failed", err.Error(), r.URL.Path)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": res, "metrics": m})
}

// PlansHandler serves POST /v1/plans (enqueue a background run) and
// GET /v1/plans (recent runs, newest first).
func (s *Server) PlansHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req model.OptimizeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateOptimizeRequest(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid optimize request", err.Error(), r.URL.Path)
			return
		}
		plan, err := s.Store.CreatePlan(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create plan failed", err.Error(), r.URL.Path)
			return
		}
		s.Broker.Publish(plan.ID, PlanEvent{Type: "plan.queued", Data: map[string]any{"planId": plan.ID}})
		writeJSON(w, http.StatusAccepted, plan)
	case http.MethodGet:
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			limit, _ = strconv.Atoi(v)
		}
		plans, err := s.Store.ListPlans(r.Context(), limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List plans failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": plans})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// PlanByIDHandler serves GET /v1/plans/{id} and the WebSocket progress
// stream at /v1/plans/{id}/stream.
func (s *Server) PlanByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/plans/")
	if rest == "" {
		writeProblem(w, http.StatusBadRequest, "Plan ID required", "", r.URL.Path)
		return
	}
	if id, ok := strings.CutSuffix(rest, "/stream"); ok {
		s.planStream(w, r, id)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	plan, err := s.Store.GetPlan(r.Context(), rest)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Plan not found", rest, r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Get plan failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}
