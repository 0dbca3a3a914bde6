// Package store keeps generated datasets in SQLite: generation runs, accepted
// rockets and their trajectory and wind samples.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sebastiankruger/trajectory-dataset/internal/artifact"
	"github.com/sebastiankruger/trajectory-dataset/internal/rocket"
)

// ErrNotFound is returned when a run or rocket does not exist
var ErrNotFound = errors.New("not found")

// Run is a stored generation run
type Run struct {
	RunID          string        `json:"run_id"`
	Seed           int64         `json:"seed"`
	Target         int           `json:"target"`
	Attempts       int           `json:"attempts"`
	Successes      int           `json:"successes"`
	Failures       int           `json:"failures"`
	AcceptanceRate float64       `json:"acceptance_rate"`
	Metrics        string        `json:"metrics,omitempty"` // JSON document
	OutputDir      string        `json:"output_dir"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
}

// Rocket is a stored accepted configuration
type Rocket struct {
	ID             string               `json:"rocket_id"`
	RunID          string               `json:"run_id,omitempty"`
	Config         rocket.Configuration `json:"config"`
	InitWindX      float64              `json:"init_wind_x"`
	InitWindY      float64              `json:"init_wind_y"`
	TrajectoryFile string               `json:"trajectory_file"`
	WindFile       string               `json:"wind_file,omitempty"`
	SampleCount    int                  `json:"sample_count"`
	Apogee         float64              `json:"apogee"`
	CreatedAt      time.Time            `json:"created_at"`
}

// Stats counts stored rows
type Stats struct {
	Runs    int `json:"runs"`
	Rockets int `json:"rockets"`
	Samples int `json:"samples"`
}

// SqlStore is a SQLite-backed store
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at path and creates the schema
func Open(path string) (*SqlStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var v int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case v != schemaVersion:
		return fmt.Errorf("unsupported schema version %d", v)
	}
	return nil
}

// Close closes the database
func (s *SqlStore) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable
func (s *SqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// SaveRun inserts or replaces a run
func (s *SqlStore) SaveRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, seed, target, attempts, successes, failures,
			acceptance_rate, metrics, output_dir, started_at, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			seed = excluded.seed,
			target = excluded.target,
			attempts = excluded.attempts,
			successes = excluded.successes,
			failures = excluded.failures,
			acceptance_rate = excluded.acceptance_rate,
			metrics = excluded.metrics,
			output_dir = excluded.output_dir,
			started_at = excluded.started_at,
			duration_ms = excluded.duration_ms`,
		r.RunID, r.Seed, r.Target, r.Attempts, r.Successes, r.Failures,
		r.AcceptanceRate, nullIfEmpty(r.Metrics), r.OutputDir,
		formatTime(r.StartedAt), r.Duration.Milliseconds(), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", r.RunID, err)
	}
	return nil
}

const runColumns = `run_id, seed, target, attempts, successes, failures,
	acceptance_rate, metrics, output_dir, started_at, duration_ms`

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	var (
		r         Run
		metrics   sql.NullString
		outputDir sql.NullString
		started   string
		durMs     int64
	)
	err := row.Scan(&r.RunID, &r.Seed, &r.Target, &r.Attempts, &r.Successes, &r.Failures,
		&r.AcceptanceRate, &metrics, &outputDir, &started, &durMs)
	if err != nil {
		return nil, err
	}
	r.Metrics = metrics.String
	r.OutputDir = outputDir.String
	r.StartedAt = parseTime(started)
	r.Duration = time.Duration(durMs) * time.Millisecond
	return &r, nil
}

// GetRun returns a run by id
func (s *SqlStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE run_id = ?", runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return r, nil
}

// LatestRun returns the most recently started run
func (s *SqlStore) LatestRun(ctx context.Context) (*Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs ORDER BY started_at DESC LIMIT 1"))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest run: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return r, nil
}

// SaveRocket stores a rocket and replaces its samples in one transaction
func (s *SqlStore) SaveRocket(ctx context.Context, r Rocket, trajectory []artifact.TrajectorySample, wind []artifact.WindSample) error {
	cfg, err := json.Marshal(r.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config of %s: %w", r.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rockets (rocket_id, run_id, motor_name, fin_cat, parachute_trigger, config,
			init_wind_x, init_wind_y, trajectory_file, wind_file, sample_count, apogee, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(rocket_id) DO UPDATE SET
			run_id = excluded.run_id,
			motor_name = excluded.motor_name,
			fin_cat = excluded.fin_cat,
			parachute_trigger = excluded.parachute_trigger,
			config = excluded.config,
			init_wind_x = excluded.init_wind_x,
			init_wind_y = excluded.init_wind_y,
			trajectory_file = excluded.trajectory_file,
			wind_file = excluded.wind_file,
			sample_count = excluded.sample_count,
			apogee = excluded.apogee`,
		r.ID, nullIfEmpty(r.RunID), r.Config.MotorName, r.Config.FinCategory, r.Config.Trigger, string(cfg),
		r.InitWindX, r.InitWindY, r.TrajectoryFile, nullIfEmpty(r.WindFile), len(trajectory), r.Apogee,
		formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to save rocket %s: %w", r.ID, err)
	}

	for _, table := range []string{"trajectory_samples", "wind_samples"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE rocket_id = ?", r.ID); err != nil {
			return fmt.Errorf("failed to clear %s of %s: %w", table, r.ID, err)
		}
	}

	trajStmt, err := tx.PrepareContext(ctx, "INSERT INTO trajectory_samples (rocket_id, seq, time, x, y, z) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare trajectory insert: %w", err)
	}
	defer trajStmt.Close()
	for i, p := range trajectory {
		if _, err := trajStmt.ExecContext(ctx, r.ID, i, p.Time, p.X, p.Y, p.Z); err != nil {
			return fmt.Errorf("failed to insert trajectory sample %d of %s: %w", i, r.ID, err)
		}
	}

	windStmt, err := tx.PrepareContext(ctx, "INSERT INTO wind_samples (rocket_id, seq, time, z, wind_velocity_x, wind_velocity_y) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare wind insert: %w", err)
	}
	defer windStmt.Close()
	for i, w := range wind {
		if _, err := windStmt.ExecContext(ctx, r.ID, i, w.Time, w.Z, w.VelocityX, w.VelocityY); err != nil {
			return fmt.Errorf("failed to insert wind sample %d of %s: %w", i, r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rocket %s: %w", r.ID, err)
	}
	return nil
}

const rocketColumns = `rocket_id, run_id, config, init_wind_x, init_wind_y,
	trajectory_file, wind_file, sample_count, apogee, created_at`

func scanRocket(row interface{ Scan(...any) error }) (*Rocket, error) {
	var (
		r        Rocket
		runID    sql.NullString
		cfg      string
		windFile sql.NullString
		apogee   sql.NullFloat64
		created  string
	)
	err := row.Scan(&r.ID, &runID, &cfg, &r.InitWindX, &r.InitWindY,
		&r.TrajectoryFile, &windFile, &r.SampleCount, &apogee, &created)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cfg), &r.Config); err != nil {
		return nil, fmt.Errorf("failed to decode config of %s: %w", r.ID, err)
	}
	r.RunID = runID.String
	r.WindFile = windFile.String
	r.Apogee = apogee.Float64
	r.CreatedAt = parseTime(created)
	return &r, nil
}

// ListRockets returns rockets ordered by id
func (s *SqlStore) ListRockets(ctx context.Context, limit, offset int) ([]Rocket, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+rocketColumns+" FROM rockets ORDER BY rocket_id LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list rockets: %w", err)
	}
	defer rows.Close()

	var out []Rocket
	for rows.Next() {
		r, err := scanRocket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rocket: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// GetRocket returns a rocket by id
func (s *SqlStore) GetRocket(ctx context.Context, id string) (*Rocket, error) {
	r, err := scanRocket(s.db.QueryRowContext(ctx, "SELECT "+rocketColumns+" FROM rockets WHERE rocket_id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rocket %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rocket %s: %w", id, err)
	}
	return r, nil
}

// Trajectory returns the trajectory samples of a rocket in time order
func (s *SqlStore) Trajectory(ctx context.Context, id string) ([]artifact.TrajectorySample, error) {
	if _, err := s.GetRocket(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT time, x, y, z FROM trajectory_samples WHERE rocket_id = ? ORDER BY seq", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query trajectory of %s: %w", id, err)
	}
	defer rows.Close()

	var out []artifact.TrajectorySample
	for rows.Next() {
		var p artifact.TrajectorySample
		if err := rows.Scan(&p.Time, &p.X, &p.Y, &p.Z); err != nil {
			return nil, fmt.Errorf("failed to scan trajectory sample: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Wind returns the wind samples of a rocket in time order
func (s *SqlStore) Wind(ctx context.Context, id string) ([]artifact.WindSample, error) {
	if _, err := s.GetRocket(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT time, z, wind_velocity_x, wind_velocity_y FROM wind_samples WHERE rocket_id = ? ORDER BY seq", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query wind of %s: %w", id, err)
	}
	defer rows.Close()

	var out []artifact.WindSample
	for rows.Next() {
		var w artifact.WindSample
		if err := rows.Scan(&w.Time, &w.Z, &w.VelocityX, &w.VelocityY); err != nil {
			return nil, fmt.Errorf("failed to scan wind sample: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Stats counts runs, rockets and trajectory samples
func (s *SqlStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM runs),
			(SELECT COUNT(*) FROM rockets),
			(SELECT COUNT(*) FROM trajectory_samples)`).Scan(&st.Runs, &st.Rockets, &st.Samples)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count rows: %w", err)
	}
	return st, nil
}
