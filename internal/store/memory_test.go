package store

import (
	"context"
	"errors"
	"testing"

	"fieldroute/internal/model"
)

func TestMemoryStopsUpsert(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	n, err := m.UpsertStops(ctx, []model.Stop{
		{Name: "Alpha"},
		{ID: "s-fixed", Name: "Beta"},
	})
	if err != nil || n != 2 {
		t.Fatalf("upsert: %d, %v", n, err)
	}

	stops, err := m.ListStops(ctx)
	if err != nil || len(stops) != 2 {
		t.Fatalf("list: %d, %v", len(stops), err)
	}
	if stops[0].ID == "" {
		t.Fatal("missing ID must be generated")
	}
	if stops[0].Name != "Alpha" || stops[1].Name != "Beta" {
		t.Fatalf("insertion order lost: %s, %s", stops[0].Name, stops[1].Name)
	}

	// Same ID replaces in place, keeping position.
	if _, err := m.UpsertStops(ctx, []model.Stop{{ID: "s-fixed", Name: "Beta 2"}}); err != nil {
		t.Fatal(err)
	}
	stops, _ = m.ListStops(ctx)
	if len(stops) != 2 || stops[1].Name != "Beta 2" {
		t.Fatalf("upsert replace: %+v", stops)
	}
}

func TestMemoryPlanLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	p, err := m.CreatePlan(ctx, model.OptimizeRequest{TimeBudgetSec: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != model.PlanQueued || p.ID == "" || p.CreatedAt == "" {
		t.Fatalf("created plan: %+v", p)
	}

	claimed, err := m.ClaimQueuedPlan(ctx)
	if err != nil || claimed == nil {
		t.Fatalf("claim: %+v, %v", claimed, err)
	}
	if claimed.ID != p.ID || claimed.Status != model.PlanRunning || claimed.StartedAt == "" {
		t.Fatalf("claimed: %+v", claimed)
	}

	// Nothing else queued.
	if again, _ := m.ClaimQueuedPlan(ctx); again != nil {
		t.Fatalf("second claim: %+v", again)
	}

	res := &model.Result{Success: true, VehiclesUsed: 1}
	if err := m.FinishPlan(ctx, p.ID, model.PlanCompleted, res, ""); err != nil {
		t.Fatalf("finish: %v", err)
	}
	got, err := m.GetPlan(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.PlanCompleted || got.Result == nil || got.FinishedAt == "" {
		t.Fatalf("finished plan: %+v", got)
	}

	if _, err := m.GetPlan(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing plan: %v", err)
	}
	if err := m.FinishPlan(ctx, "missing", model.PlanFailed, nil, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("finish missing: %v", err)
	}
}

func TestMemoryListPlansNewestFirst(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		p, _ := m.CreatePlan(ctx, model.OptimizeRequest{})
		ids = append(ids, p.ID)
	}
	plans, err := m.ListPlans(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("limit: %d", len(plans))
	}
	if plans[0].ID != ids[2] || plans[1].ID != ids[1] {
		t.Fatalf("order: %s, %s", plans[0].ID, plans[1].ID)
	}
}
