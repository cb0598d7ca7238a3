package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"fieldroute/internal/config"
	"fieldroute/internal/distance"
	"fieldroute/internal/metrics"
	"fieldroute/internal/model"
	"fieldroute/internal/solver"
	"fieldroute/internal/store"
)

type Server struct {
	Store     store.Store
	Broker    EventBroker
	Estimator distance.Estimator
	Solver    config.Solver
}

// NewServer wires the store, broker and distance estimator from config.
// Without DATABASE_URL it runs on the in-memory store; without OSRM_URL the
// Euclidean estimator; without REDIS_URL the in-process broker and no matrix
// cache.
func NewServer(cfg config.Server) (*Server, error) {
	var s store.Store
	if cfg.DatabaseURL == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s = sp
	}

	var rdb *redis.Client
	var broker EventBroker
	if cfg.RedisURL != "" {
		rb, err := NewRedisBroker(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis broker: %w", err)
		}
		broker = rb
		if opt, err := redis.ParseURL(cfg.RedisURL); err == nil {
			rdb = redis.NewClient(opt)
		}
	} else {
		broker = NewBroker()
	}

	var est distance.Estimator = distance.Euclidean{}
	if cfg.OSRMURL != "" {
		est = distance.NewOSRM(cfg.OSRMURL)
	}
	if rdb != nil {
		est = distance.NewCached(est, rdb)
	}

	metrics.RegisterDefault()
	return &Server{Store: s, Broker: broker, Estimator: est, Solver: cfg.Solver}, nil
}

// Run executes one optimization: resolves the requested stops and
// technicians from the store, builds the problem and solves it. It blocks
// for up to the request's time budget and records solver metrics.
func (s *Server) Run(ctx context.Context, req model.OptimizeRequest, progress solver.ProgressFunc) (*model.Result, solver.Metrics, error) {
	stops, techs, err := s.resolveInputs(ctx, req)
	if err != nil {
		return nil, solver.Metrics{}, err
	}

	cfg := s.Solver
	if req.TimeBudgetSec > 0 {
		cfg.TimeBudgetSec = req.TimeBudgetSec
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	if req.DepotPolicy != "" {
		cfg.DepotPolicy = req.DepotPolicy
	}
	if req.Depot != nil {
		cfg.Depot = req.Depot
	}

	p, err := solver.BuildProblem(ctx, stops, techs, cfg, s.Estimator)
	if err != nil {
		return nil, solver.Metrics{}, err
	}

	start := time.Now()
	sv := solver.New(p, cfg.Seed, time.Duration(cfg.TimeBudgetSec)*time.Second)
	res, m, err := sv.Solve(ctx, progress)
	metrics.SolveDuration.Observe(time.Since(start).Seconds())
	metrics.SolveIterations.Observe(float64(m.Iterations))
	switch {
	case err == nil:
		metrics.SolveRuns.WithLabelValues("completed").Inc()
		metrics.SolveBestCost.Set(float64(m.BestCost))
	case errors.Is(err, solver.ErrInfeasible):
		metrics.SolveRuns.WithLabelValues("infeasible").Inc()
	default:
		metrics.SolveRuns.WithLabelValues("failed").Inc()
	}
	return res, m, err
}

// resolveInputs loads the request's stop and technician selections. Empty ID
// lists select everything (technicians: everything active).
func (s *Server) resolveInputs(ctx context.Context, req model.OptimizeRequest) ([]model.Stop, []model.Technician, error) {
	allStops, err := s.Store.ListStops(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list stops: %w", err)
	}
	allTechs, err := s.Store.ListTechnicians(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list technicians: %w", err)
	}

	stops := allStops
	if len(req.StopIDs) > 0 {
		want := map[string]bool{}
		for _, id := range req.StopIDs {
			want[id] = true
		}
		stops = nil
		for _, st := range allStops {
			if want[st.ID] {
				stops = append(stops, st)
			}
		}
	}

	var techs []model.Technician
	if len(req.TechnicianIDs) > 0 {
		want := map[string]bool{}
		for _, id := range req.TechnicianIDs {
			want[id] = true
		}
		for _, t := range allTechs {
			if want[t.ID] {
				techs = append(techs, t)
			}
		}
	} else {
		for _, t := range allTechs {
			if t.Active {
				techs = append(techs, t)
			}
		}
	}
	return stops, techs, nil
}
