package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"fieldroute/internal/api"
	"fieldroute/internal/model"
	"fieldroute/internal/solver"
	"fieldroute/internal/store"
)

// Runner executes one optimization request. *api.Server implements it.
type Runner interface {
	Run(ctx context.Context, req model.OptimizeRequest, progress solver.ProgressFunc) (*model.Result, solver.Metrics, error)
}

// Worker drains queued plans from the store and runs the solver for each,
// publishing lifecycle events on the broker. One claim at a time per worker;
// run several workers for parallel solves.
type Worker struct {
	Store  store.Store
	Runner Runner
	Broker api.EventBroker
	Stop   chan struct{}

	// PollInterval controls how often the queue is checked when idle.
	PollInterval time.Duration
}

func NewWorker(s store.Store, r Runner, b api.EventBroker) *Worker {
	return &Worker{Store: s, Runner: r, Broker: b, Stop: make(chan struct{}), PollInterval: time.Second}
}

func (w *Worker) Start() {
	go func() {
		ticker := time.NewTicker(w.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-w.Stop:
				return
			case <-ticker.C:
				w.processOnce()
			}
		}
	}()
}

// processOnce claims and runs queued plans until the queue is empty.
func (w *Worker) processOnce() {
	for {
		claimCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		plan, err := w.Store.ClaimQueuedPlan(claimCtx)
		cancel()
		if err != nil {
			log.Printf("jobs: claim plan: %v", err)
			return
		}
		if plan == nil {
			return
		}
		w.runPlan(plan)
	}
}

func (w *Worker) runPlan(plan *model.Plan) {
	w.Broker.Publish(plan.ID, api.PlanEvent{Type: "plan.started", Data: map[string]any{"planId": plan.ID}})

	progress := func(iteration, bestCost int) {
		w.Broker.Publish(plan.ID, api.PlanEvent{Type: "plan.progress", Data: map[string]any{
			"planId": plan.ID, "iteration": iteration, "bestCost": bestCost,
		}})
	}

	res, m, err := w.Runner.Run(context.Background(), plan.Request, progress)

	status := model.PlanCompleted
	evtType := "plan.completed"
	errMsg := ""
	switch {
	case err == nil:
	case errors.Is(err, solver.ErrInfeasible):
		status, evtType = model.PlanInfeasible, "plan.infeasible"
		errMsg = err.Error()
	default:
		status, evtType = model.PlanFailed, "plan.failed"
		errMsg = err.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Store.FinishPlan(ctx, plan.ID, status, res, errMsg); err != nil {
		log.Printf("jobs: finish plan %s: %v", plan.ID, err)
	}

	data := map[string]any{"planId": plan.ID, "status": status, "iterations": m.Iterations}
	if res != nil {
		data["bestCost"] = m.BestCost
		data["vehiclesUsed"] = res.VehiclesUsed
	}
	w.Broker.Publish(plan.ID, api.PlanEvent{Type: evtType, Data: data})
}
