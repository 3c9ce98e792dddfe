package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/storyloom/storyloom-agent/internal/export"
)

// Store persists export job history and agent config for the session.
// It implements export.JobStore.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateJob(ctx context.Context, rec *export.JobRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO export_jobs (id, state, progress, resolution, format, scene_count, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, string(rec.State), rec.Progress, string(rec.Resolution), string(rec.Format),
		rec.SceneCount, nullString(rec.Error), rec.CreatedAt.Format(time.RFC3339Nano), rec.UpdatedAt.Format(time.RFC3339Nano))
	return err
}

func (s *Store) UpdateJob(ctx context.Context, id string, state export.State, progress float64, errMsg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE export_jobs SET state = ?, progress = ?, error = ?, updated_at = ? WHERE id = ?
	`, string(state), progress, nullString(errMsg), time.Now().Format(time.RFC3339Nano), id)
	return err
}

func (s *Store) GetJob(ctx context.Context, id string) (*export.JobRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, state, progress, resolution, format, scene_count, error, created_at, updated_at
		FROM export_jobs WHERE id = ?
	`, id)
	return scanJob(row)
}

func (s *Store) ListJobs(ctx context.Context, limit int) ([]*export.JobRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, state, progress, resolution, format, scene_count, error, created_at, updated_at
		FROM export_jobs ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*export.JobRecord
	for rows.Next() {
		rec, err := scanJobRows(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, rec)
	}
	return jobs, rows.Err()
}

func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row *sql.Row) (*export.JobRecord, error) {
	rec, err := scanJobRows(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func scanJobRows(row rowScanner) (*export.JobRecord, error) {
	var rec export.JobRecord
	var state, resolution, format, createdAt, updatedAt string
	var errMsg sql.NullString

	if err := row.Scan(&rec.ID, &state, &rec.Progress, &resolution, &format,
		&rec.SceneCount, &errMsg, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	rec.State = export.State(state)
	rec.Resolution = export.Resolution(resolution)
	rec.Format = export.Format(format)
	rec.Error = errMsg.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &rec, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
