package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"fieldroute/internal/model"
)

// Memory is a mutex-guarded in-memory store used when no DATABASE_URL is set
// and in tests.
type Memory struct {
	mu        sync.Mutex
	stops     map[string]model.Stop
	stopOrder []string
	techs     map[string]model.Technician
	techOrder []string
	plans     map[string]*model.Plan
	planOrder []string
}

func NewMemory() *Memory {
	return &Memory{
		stops: map[string]model.Stop{},
		techs: map[string]model.Technician{},
		plans: map[string]*model.Plan{},
	}
}

func (m *Memory) UpsertStops(_ context.Context, stops []model.Stop) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range stops {
		if s.ID == "" {
			s.ID = uuid.New().String()
		}
		if _, ok := m.stops[s.ID]; !ok {
			m.stopOrder = append(m.stopOrder, s.ID)
		}
		m.stops[s.ID] = s
		n++
	}
	return n, nil
}

func (m *Memory) ListStops(_ context.Context) ([]model.Stop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Stop, 0, len(m.stopOrder))
	for _, id := range m.stopOrder {
		out = append(out, m.stops[id])
	}
	return out, nil
}

func (m *Memory) UpsertTechnicians(_ context.Context, techs []model.Technician) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range techs {
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		if _, ok := m.techs[t.ID]; !ok {
			m.techOrder = append(m.techOrder, t.ID)
		}
		m.techs[t.ID] = t
		n++
	}
	return n, nil
}

func (m *Memory) ListTechnicians(_ context.Context) ([]model.Technician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Technician, 0, len(m.techOrder))
	for _, id := range m.techOrder {
		out = append(out, m.techs[id])
	}
	return out, nil
}

func (m *Memory) CreatePlan(_ context.Context, req model.OptimizeRequest) (model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := model.Plan{
		ID:        uuid.New().String(),
		Status:    model.PlanQueued,
		Request:   req,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	m.plans[p.ID] = &p
	m.planOrder = append(m.planOrder, p.ID)
	return p, nil
}

func (m *Memory) GetPlan(_ context.Context, id string) (model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return model.Plan{}, ErrNotFound
	}
	return *p, nil
}

func (m *Memory) ListPlans(_ context.Context, limit int) ([]model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	// Newest first.
	ids := m.planOrder
	out := []model.Plan{}
	for i := len(ids) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *m.plans[ids[i]])
	}
	return out, nil
}

func (m *Memory) ClaimQueuedPlan(_ context.Context) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.planOrder {
		p := m.plans[id]
		if p.Status == model.PlanQueued {
			p.Status = model.PlanRunning
			p.StartedAt = time.Now().UTC().Format(time.RFC3339)
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) FinishPlan(_ context.Context, id, status string, result *model.Result, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	p.Result = result
	p.Error = errMsg
	p.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }
