package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"fieldroute/internal/model"
)

// Solver holds the tunable optimization defaults. These are explicit request
// inputs to the problem builder, not ambient module state.
type Solver struct {
	WorkDayStart      string          `yaml:"work_day_start"`
	WorkDayEnd        string          `yaml:"work_day_end"`
	DefaultServiceMin int             `yaml:"default_service_min"`
	SlackMin          int             `yaml:"slack_min"`
	MaxSpanMin        int             `yaml:"max_span_min"`
	TimeBudgetSec     int             `yaml:"time_budget_sec"`
	Seed              int64           `yaml:"seed"`
	DepotPolicy       string          `yaml:"depot_policy"` // explicit, centroid, first-stop
	Depot             *model.GeoPoint `yaml:"depot"`
}

// Server is the process-level configuration.
type Server struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`
	OSRMURL     string `yaml:"osrm_url"`
	Solver      Solver `yaml:"solver"`
}

// DefaultSolver mirrors the standard field-service working day: 08:00-17:00,
// 30 minute visits, 30 minutes of permitted waiting, a full-day span ceiling
// and a 30 second search budget.
func DefaultSolver() Solver {
	return Solver{
		WorkDayStart:      "08:00",
		WorkDayEnd:        "17:00",
		DefaultServiceMin: 30,
		SlackMin:          30,
		MaxSpanMin:        1440,
		TimeBudgetSec:     30,
		DepotPolicy:       "centroid",
	}
}

// WorkDayWindow parses the working-day bounds. Defaults are substituted for
// malformed values so a bad config file cannot produce an inverted window.
func (s Solver) WorkDayWindow() model.TimeWindow {
	w := model.ParseWindow(s.WorkDayStart, s.WorkDayEnd, model.TimeWindow{Start: 480, End: 1020})
	if w.Start > w.End {
		return model.TimeWindow{Start: 480, End: 1020}
	}
	return w
}

// Load reads the YAML config at path (optional) and applies environment
// overrides. Missing file is not an error; the defaults stand.
func Load(path string) (Server, error) {
	cfg := Server{Port: "8080", Solver: DefaultSolver()}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Solver.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Server) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("OSRM_URL"); v != "" {
		cfg.OSRMURL = v
	}
	if v := os.Getenv("SOLVER_TIME_BUDGET_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Solver.TimeBudgetSec = n
		}
	}
	if v := os.Getenv("SOLVER_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Solver.Seed = n
		}
	}
}

func (s Solver) validate() error {
	if s.DefaultServiceMin <= 0 {
		return fmt.Errorf("config: default_service_min must be positive, got %d", s.DefaultServiceMin)
	}
	if s.SlackMin < 0 {
		return fmt.Errorf("config: slack_min must be >= 0, got %d", s.SlackMin)
	}
	if s.MaxSpanMin <= 0 {
		return fmt.Errorf("config: max_span_min must be positive, got %d", s.MaxSpanMin)
	}
	if s.TimeBudgetSec <= 0 {
		return fmt.Errorf("config: time_budget_sec must be positive, got %d", s.TimeBudgetSec)
	}
	switch s.DepotPolicy {
	case "", "explicit", "centroid", "first-stop":
	default:
		return fmt.Errorf("config: unknown depot_policy %q", s.DepotPolicy)
	}
	if s.DepotPolicy == "explicit" && (s.Depot == nil || s.Depot.IsZero()) {
		return fmt.Errorf("config: depot_policy explicit requires a depot coordinate")
	}
	return nil
}
