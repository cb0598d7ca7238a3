package store

import (
	"context"
	"errors"

	"fieldroute/internal/model"
)

// ErrNotFound is returned for lookups of unknown IDs.
var ErrNotFound = errors.New("not found")

// Store is the persistence interface used by the API server and the plan
// worker. The optimization core never touches it; stops and technicians are
// read out, solved, and the result snapshot written back as a plan record.
type Store interface {
	// Stops
	UpsertStops(ctx context.Context, stops []model.Stop) (int, error)
	ListStops(ctx context.Context) ([]model.Stop, error)

	// Technicians
	UpsertTechnicians(ctx context.Context, techs []model.Technician) (int, error)
	ListTechnicians(ctx context.Context) ([]model.Technician, error)

	// Plans (optimization runs)
	CreatePlan(ctx context.Context, req model.OptimizeRequest) (model.Plan, error)
	GetPlan(ctx context.Context, id string) (model.Plan, error)
	ListPlans(ctx context.Context, limit int) ([]model.Plan, error)
	// ClaimQueuedPlan atomically moves the oldest queued plan to running.
	// It returns nil when nothing is queued.
	ClaimQueuedPlan(ctx context.Context) (*model.Plan, error)
	FinishPlan(ctx context.Context, id, status string, result *model.Result, errMsg string) error

	Ping(ctx context.Context) error
}
