package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port: %s", cfg.Port)
	}
	s := cfg.Solver
	if s.WorkDayStart != "08:00" || s.WorkDayEnd != "17:00" {
		t.Fatalf("work day: %s - %s", s.WorkDayStart, s.WorkDayEnd)
	}
	if s.DefaultServiceMin != 30 || s.SlackMin != 30 || s.MaxSpanMin != 1440 || s.TimeBudgetSec != 30 {
		t.Fatalf("solver defaults: %+v", s)
	}
	if s.DepotPolicy != "centroid" {
		t.Fatalf("depot policy: %s", s.DepotPolicy)
	}
	w := s.WorkDayWindow()
	if w.Start != 480 || w.End != 1020 {
		t.Fatalf("work day window: %+v", w)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("port: \"9090\"\nsolver:\n  work_day_start: \"07:00\"\n  work_day_end: \"19:00\"\n  default_service_min: 20\n  slack_min: 30\n  max_span_min: 1440\n  time_budget_sec: 10\n  depot_policy: first-stop\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "7070")
	t.Setenv("SOLVER_TIME_BUDGET_SEC", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("env should override file port, got %s", cfg.Port)
	}
	if cfg.Solver.TimeBudgetSec != 5 {
		t.Fatalf("env should override budget, got %d", cfg.Solver.TimeBudgetSec)
	}
	if w := cfg.Solver.WorkDayWindow(); w.Start != 420 || w.End != 1140 {
		t.Fatalf("work day window: %+v", w)
	}
	if cfg.Solver.DepotPolicy != "first-stop" {
		t.Fatalf("depot policy: %s", cfg.Solver.DepotPolicy)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("missing config file: %v", err)
	}
}

func TestWorkDayWindowFallsBackWhenInverted(t *testing.T) {
	s := DefaultSolver()
	s.WorkDayStart, s.WorkDayEnd = "18:00", "08:00"
	if w := s.WorkDayWindow(); w.Start != 480 || w.End != 1020 {
		t.Fatalf("inverted work day should fall back, got %+v", w)
	}
	s.WorkDayStart = "late"
	if w := s.WorkDayWindow(); w.Start != 480 || w.End != 1020 {
		t.Fatalf("malformed work day should fall back, got %+v", w)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	for name, body := range map[string]string{
		"zero service":    "solver:\n  default_service_min: 0\n  slack_min: 30\n  max_span_min: 1440\n  time_budget_sec: 30\n",
		"negative slack":  "solver:\n  default_service_min: 30\n  slack_min: -1\n  max_span_min: 1440\n  time_budget_sec: 30\n",
		"bad policy":      "solver:\n  default_service_min: 30\n  slack_min: 30\n  max_span_min: 1440\n  time_budget_sec: 30\n  depot_policy: nowhere\n",
		"explicit, blank": "solver:\n  default_service_min: 30\n  slack_min: 30\n  max_span_min: 1440\n  time_budget_sec: 30\n  depot_policy: explicit\n",
	} {
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: want validation error", name)
		}
	}
}
