package jobs

import (
	"context"
	"testing"
	"time"

	"fieldroute/internal/api"
	"fieldroute/internal/config"
	"fieldroute/internal/distance"
	"fieldroute/internal/model"
	"fieldroute/internal/store"
)

func testWorker(t *testing.T) (*Worker, *api.Server) {
	t.Helper()
	cfg := config.DefaultSolver()
	cfg.Seed = 11
	cfg.TimeBudgetSec = 1
	srv := &api.Server{
		Store:     store.NewMemory(),
		Broker:    api.NewBroker(),
		Estimator: distance.Euclidean{},
		Solver:    cfg,
	}
	return NewWorker(srv.Store, srv, srv.Broker), srv
}

func seed(t *testing.T, s store.Store, stops []model.Stop) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.UpsertStops(ctx, stops); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpsertTechnicians(ctx, []model.Technician{{Name: "Tech", Active: true}}); err != nil {
		t.Fatal(err)
	}
}

func collect(ch chan api.PlanEvent, until time.Duration) []api.PlanEvent {
	var out []api.PlanEvent
	deadline := time.After(until)
	for {
		select {
		case evt := <-ch:
			out = append(out, evt)
			switch evt.Type {
			case "plan.completed", "plan.infeasible", "plan.failed":
				return out
			}
		case <-deadline:
			return out
		}
	}
}

func TestWorkerCompletesPlan(t *testing.T) {
	w, srv := testWorker(t)
	seed(t, srv.Store, []model.Stop{
		{Name: "A", Location: &model.GeoPoint{Lat: 40.05, Lng: -75.0}},
		{Name: "B", Location: &model.GeoPoint{Lat: 40.0, Lng: -74.95}},
	})
	plan, err := srv.Store.CreatePlan(context.Background(), model.OptimizeRequest{TimeBudgetSec: 1})
	if err != nil {
		t.Fatal(err)
	}
	ch := srv.Broker.Subscribe(plan.ID)
	defer srv.Broker.Unsubscribe(plan.ID, ch)

	done := make(chan struct{})
	go func() {
		w.processOnce()
		close(done)
	}()
	events := collect(ch, 5*time.Second)
	<-done

	got, err := srv.Store.GetPlan(context.Background(), plan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.PlanCompleted {
		t.Fatalf("status: %s (error %q)", got.Status, got.Error)
	}
	if got.Result == nil || !got.Result.Success || got.Result.VehiclesUsed != 1 {
		t.Fatalf("result: %+v", got.Result)
	}
	if got.FinishedAt == "" {
		t.Fatal("finishedAt not set")
	}

	var sawStart, sawTerminal bool
	for _, evt := range events {
		switch evt.Type {
		case "plan.started":
			sawStart = true
		case "plan.completed":
			sawTerminal = true
		}
	}
	if !sawStart || !sawTerminal {
		t.Fatalf("events: %+v", events)
	}
}

func TestWorkerMarksInfeasiblePlan(t *testing.T) {
	w, srv := testWorker(t)
	seed(t, srv.Store, []model.Stop{
		// Unreachable window: closes at the work-day open, an hour out.
		{Name: "Far", Location: &model.GeoPoint{Lat: 41.0, Lng: -75.0}, WindowStart: "08:00", WindowEnd: "08:00"},
		{Name: "Near", Location: &model.GeoPoint{Lat: 40.0, Lng: -75.0}},
	})
	plan, err := srv.Store.CreatePlan(context.Background(), model.OptimizeRequest{TimeBudgetSec: 1})
	if err != nil {
		t.Fatal(err)
	}

	w.processOnce()

	got, err := srv.Store.GetPlan(context.Background(), plan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.PlanInfeasible {
		t.Fatalf("status: %s", got.Status)
	}
	if got.Result != nil {
		t.Fatal("no partial result on infeasibility")
	}
	if got.Error == "" {
		t.Fatal("error message not recorded")
	}
}

func TestWorkerFailsPlanOnBadConfiguration(t *testing.T) {
	w, srv := testWorker(t)
	// No stops at all: the problem builder rejects the run.
	if _, err := srv.Store.UpsertTechnicians(context.Background(), []model.Technician{{Name: "Tech", Active: true}}); err != nil {
		t.Fatal(err)
	}
	plan, err := srv.Store.CreatePlan(context.Background(), model.OptimizeRequest{})
	if err != nil {
		t.Fatal(err)
	}

	w.processOnce()

	got, err := srv.Store.GetPlan(context.Background(), plan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.PlanFailed || got.Error == "" {
		t.Fatalf("plan: %+v", got)
	}
}

func TestWorkerIdlesOnEmptyQueue(t *testing.T) {
	w, _ := testWorker(t)
	done := make(chan struct{})
	go func() {
		w.processOnce()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("processOnce should return when nothing is queued")
	}
}
