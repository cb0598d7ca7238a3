package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"fieldroute/internal/model"
)

// Postgres persists stops, technicians and plan records. Stop and technician
// rows use flat columns for the fields the optimizer reads; request and
// result snapshots are stored as JSONB since downstream consumers treat them
// as read-only documents.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	p := &Postgres{db: db}
	if err := p.ensureSchema(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stops (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			address TEXT,
			lat DOUBLE PRECISION,
			lng DOUBLE PRECISION,
			service_min INT,
			window_start TEXT,
			window_end TEXT,
			priority INT,
			notes TEXT,
			customer_name TEXT,
			customer_phone TEXT,
			customer_email TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS technicians (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT,
			phone TEXT,
			active BOOLEAN NOT NULL DEFAULT true,
			skills TEXT[],
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			request JSONB NOT NULL,
			result JSONB,
			error TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			started_at TIMESTAMPTZ,
			finished_at TIMESTAMPTZ
		)`,
	}
	for _, s := range stmts {
		if _, err := p.db.Exec(s); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}
	return nil
}

func (p *Postgres) UpsertStops(ctx context.Context, stops []model.Stop) (int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()
	n := 0
	for _, s := range stops {
		if s.ID == "" {
			s.ID = uuid.New().String()
		}
		var lat, lng any
		if s.Location != nil {
			lat, lng = s.Location.Lat, s.Location.Lng
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO stops
			(id, name, address, lat, lng, service_min, window_start, window_end, priority, notes, customer_name, customer_phone, customer_email)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			ON CONFLICT (id) DO UPDATE SET
				name=EXCLUDED.name, address=EXCLUDED.address, lat=EXCLUDED.lat, lng=EXCLUDED.lng,
				service_min=EXCLUDED.service_min, window_start=EXCLUDED.window_start, window_end=EXCLUDED.window_end,
				priority=EXCLUDED.priority, notes=EXCLUDED.notes, customer_name=EXCLUDED.customer_name,
				customer_phone=EXCLUDED.customer_phone, customer_email=EXCLUDED.customer_email`,
			s.ID, s.Name, s.Address, lat, lng, s.ServiceMin, s.WindowStart, s.WindowEnd,
			s.Priority, s.Notes, s.CustomerName, s.CustomerPhone, s.CustomerEmail)
		if err != nil {
			return 0, fmt.Errorf("postgres: upsert stop %s: %w", s.ID, err)
		}
		n++
	}
	return n, tx.Commit()
}

func (p *Postgres) ListStops(ctx context.Context) ([]model.Stop, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, name, COALESCE(address,''), lat, lng,
		COALESCE(service_min,0), COALESCE(window_start,''), COALESCE(window_end,''),
		COALESCE(priority,0), COALESCE(notes,''), COALESCE(customer_name,''),
		COALESCE(customer_phone,''), COALESCE(customer_email,'')
		FROM stops ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Stop
	for rows.Next() {
		var s model.Stop
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &lat, &lng, &s.ServiceMin,
			&s.WindowStart, &s.WindowEnd, &s.Priority, &s.Notes,
			&s.CustomerName, &s.CustomerPhone, &s.CustomerEmail); err != nil {
			return nil, err
		}
		if lat.Valid && lng.Valid {
			s.Location = &model.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) UpsertTechnicians(ctx context.Context, techs []model.Technician) (int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()
	n := 0
	for _, t := range techs {
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO technicians (id, name, email, phone, active, skills)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (id) DO UPDATE SET
				name=EXCLUDED.name, email=EXCLUDED.email, phone=EXCLUDED.phone,
				active=EXCLUDED.active, skills=EXCLUDED.skills`,
			t.ID, t.Name, t.Email, t.Phone, t.Active, pqStringArray(t.Skills))
		if err != nil {
			return 0, fmt.Errorf("postgres: upsert technician %s: %w", t.ID, err)
		}
		n++
	}
	return n, tx.Commit()
}

func (p *Postgres) ListTechnicians(ctx context.Context) ([]model.Technician, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, name, COALESCE(email,''), COALESCE(phone,''), active
		FROM technicians ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Technician
	for rows.Next() {
		var t model.Technician
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &t.Active); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) CreatePlan(ctx context.Context, req model.OptimizeRequest) (model.Plan, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	b, err := json.Marshal(req)
	if err != nil {
		return model.Plan{}, err
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO plans (id, status, request, created_at) VALUES ($1,$2,$3,$4)`,
		id, model.PlanQueued, b, now)
	if err != nil {
		return model.Plan{}, fmt.Errorf("postgres: create plan: %w", err)
	}
	return model.Plan{ID: id, Status: model.PlanQueued, Request: req, CreatedAt: now.Format(time.RFC3339)}, nil
}

func (p *Postgres) GetPlan(ctx context.Context, id string) (model.Plan, error) {
	row := p.db.QueryRowContext(ctx, `SELECT id, status, request, result, COALESCE(error,''),
		created_at, started_at, finished_at FROM plans WHERE id=$1`, id)
	return scanPlan(row)
}

func (p *Postgres) ListPlans(ctx context.Context, limit int) ([]model.Plan, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx, `SELECT id, status, request, result, COALESCE(error,''),
		created_at, started_at, finished_at FROM plans ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Plan
	for rows.Next() {
		pl, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pl)
	}
	return out, rows.Err()
}

func (p *Postgres) ClaimQueuedPlan(ctx context.Context) (*model.Plan, error) {
	row := p.db.QueryRowContext(ctx, `UPDATE plans SET status=$1, started_at=now()
		WHERE id = (
			SELECT id FROM plans WHERE status=$2 ORDER BY created_at
			FOR UPDATE SKIP LOCKED LIMIT 1
		)
		RETURNING id, status, request, result, COALESCE(error,''), created_at, started_at, finished_at`,
		model.PlanRunning, model.PlanQueued)
	pl, err := scanPlan(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pl, nil
}

func (p *Postgres) FinishPlan(ctx context.Context, id, status string, result *model.Result, errMsg string) error {
	var res any
	if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			return err
		}
		res = b
	}
	ct, err := p.db.ExecContext(ctx, `UPDATE plans SET status=$1, result=$2, error=$3, finished_at=now() WHERE id=$4`,
		status, res, nullIfEmpty(errMsg), id)
	if err != nil {
		return fmt.Errorf("postgres: finish plan %s: %w", id, err)
	}
	if n, _ := ct.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (model.Plan, error) {
	var pl model.Plan
	var reqB []byte
	var resB []byte
	var created time.Time
	var started, finished sql.NullTime
	err := row.Scan(&pl.ID, &pl.Status, &reqB, &resB, &pl.Error, &created, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Plan{}, ErrNotFound
	}
	if err != nil {
		return model.Plan{}, err
	}
	if err := json.Unmarshal(reqB, &pl.Request); err != nil {
		return model.Plan{}, fmt.Errorf("postgres: decode plan request: %w", err)
	}
	if len(resB) > 0 {
		var r model.Result
		if err := json.Unmarshal(resB, &r); err != nil {
			return model.Plan{}, fmt.Errorf("postgres: decode plan result: %w", err)
		}
		pl.Result = &r
	}
	pl.CreatedAt = created.UTC().Format(time.RFC3339)
	if started.Valid {
		pl.StartedAt = started.Time.UTC().Format(time.RFC3339)
	}
	if finished.Valid {
		pl.FinishedAt = finished.Time.UTC().Format(time.RFC3339)
	}
	return pl, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// pqStringArray renders a text[] literal for the pgx stdlib driver.
func pqStringArray(items []string) any {
	if len(items) == 0 {
		return "{}"
	}
	out := "{"
	for i, s := range items {
		if i > 0 {
			out += ","
		}
		out += `"` + s + `"`
	}
	return out + "}"
}
