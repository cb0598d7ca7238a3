package solver

import (
	"context"
	"fmt"

	"fieldroute/internal/config"
	"fieldroute/internal/distance"
	"fieldroute/internal/model"
)

// Problem is the assembled optimization input: depot plus stop nodes, their
// time windows and service durations, the travel matrix, and the vehicle
// count. Node 0 is always the depot; node i+1 corresponds to Stops[i].
// A Problem is request-scoped and never mutated by the solver.
type Problem struct {
	Stops       []model.Stop
	Technicians []model.Technician
	Windows     []model.TimeWindow
	ServiceMin  []int
	Matrix      *distance.Matrix
	SlackMin    int
	MaxSpanMin  int

	Degraded         bool
	UnlocatedStopIDs []string
}

func (p *Problem) vehicles() int { return len(p.Technicians) }
func (p *Problem) nodes() int    { return len(p.Stops) + 1 }

// depotWindow is the global working-day window pinned to node 0.
func (p *Problem) depotWindow() model.TimeWindow { return p.Windows[0] }

// BuildProblem validates the inputs, resolves the depot coordinate, parses
// per-stop time windows and computes the travel matrix. Validation failures
// surface as *ConfigurationError before any solver work.
func BuildProblem(ctx context.Context, stops []model.Stop, techs []model.Technician, cfg config.Solver, est distance.Estimator) (*Problem, error) {
	if len(stops) == 0 {
		return nil, configErrf("no stops to route")
	}
	if len(techs) == 0 {
		return nil, configErrf("no technicians available")
	}

	workDay := cfg.WorkDayWindow()
	windows := make([]model.TimeWindow, 1, len(stops)+1)
	windows[0] = workDay
	service := make([]int, 1, len(stops)+1)
	for _, s := range stops {
		w, err := stopWindow(s, workDay)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
		sv := s.ServiceMin
		if sv <= 0 {
			sv = cfg.DefaultServiceMin
		}
		service = append(service, sv)
	}

	depot, err := resolveDepot(cfg, stops)
	if err != nil {
		return nil, err
	}

	points := make([]model.GeoPoint, 0, len(stops)+1)
	points = append(points, depot)
	for _, s := range stops {
		if s.Location != nil {
			points = append(points, *s.Location)
		} else {
			points = append(points, model.GeoPoint{})
		}
	}

	m, err := est.Matrix(ctx, points)
	if err != nil {
		return nil, fmt.Errorf("build problem: estimate travel matrix: %w", err)
	}

	p := &Problem{
		Stops:       stops,
		Technicians: techs,
		Windows:     windows,
		ServiceMin:  service,
		Matrix:      m,
		SlackMin:    cfg.SlackMin,
		MaxSpanMin:  cfg.MaxSpanMin,
	}
	for _, idx := range m.Degraded {
		if idx == 0 {
			p.Degraded = true
			continue
		}
		p.Degraded = true
		p.UnlocatedStopIDs = append(p.UnlocatedStopIDs, stops[idx-1].ID)
	}
	return p, nil
}

// stopWindow parses a stop's HH:MM bounds. Malformed strings fall back to the
// working-day window; a window that parses but is inverted is rejected rather
// than clamped.
func stopWindow(s model.Stop, fallback model.TimeWindow) (model.TimeWindow, error) {
	if s.WindowStart == "" || s.WindowEnd == "" {
		return fallback, nil
	}
	start, err1 := model.ParseClock(s.WindowStart)
	end, err2 := model.ParseClock(s.WindowEnd)
	if err1 != nil || err2 != nil {
		return fallback, nil
	}
	if start > end {
		return model.TimeWindow{}, configErrf("stop %s: window %s-%s is inverted", s.ID, s.WindowStart, s.WindowEnd)
	}
	return model.TimeWindow{Start: start, End: end}, nil
}

// resolveDepot picks the depot coordinate per the configured policy. The
// centroid of located stops is the default; first-stop reproduces the legacy
// behavior where the first stop doubles as the depot.
func resolveDepot(cfg config.Solver, stops []model.Stop) (model.GeoPoint, error) {
	switch cfg.DepotPolicy {
	case "explicit":
		if cfg.Depot == nil || cfg.Depot.IsZero() {
			return model.GeoPoint{}, configErrf("depot policy explicit requires a depot coordinate")
		}
		return *cfg.Depot, nil
	case "first-stop":
		if stops[0].Location != nil {
			return *stops[0].Location, nil
		}
		return model.GeoPoint{}, nil
	case "", "centroid":
		var sumLat, sumLng float64
		n := 0
		for _, s := range stops {
			if s.Location != nil && !s.Location.IsZero() {
				sumLat += s.Location.Lat
				sumLng += s.Location.Lng
				n++
			}
		}
		if n == 0 {
			return model.GeoPoint{}, nil
		}
		return model.GeoPoint{Lat: sumLat / float64(n), Lng: sumLng / float64(n)}, nil
	default:
		return model.GeoPoint{}, configErrf("unknown depot policy %q", cfg.DepotPolicy)
	}
}
