package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS generation_progress (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id     TEXT    NOT NULL,
	step       TEXT    NOT NULL,
	message    TEXT    NOT NULL DEFAULT '',
	metadata   TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_generation_progress_job ON generation_progress (job_id, id);
`

// SQLiteStore persists progress in a local SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the progress database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// single writer; also keeps ":memory:" databases on one connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create progress schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec *Record) error {
	var meta []byte
	if len(rec.Metadata) > 0 {
		var err error
		if meta, err = json.Marshal(rec.Metadata); err != nil {
			return fmt.Errorf("failed to encode progress metadata: %w", err)
		}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO generation_progress (job_id, step, message, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.JobID, string(rec.Step), rec.Message, nullableString(meta), rec.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to append progress: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read progress id: %w", err)
	}
	rec.ID = id
	return nil
}

func (s *SQLiteStore) Latest(ctx context.Context, jobID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, job_id, step, message, metadata, created_at FROM generation_progress WHERE job_id = ? ORDER BY id DESC LIMIT 1`, jobID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoProgress
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest progress: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context, jobID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, step, message, metadata, created_at FROM generation_progress WHERE job_id = ? ORDER BY id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM generation_progress WHERE created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old progress: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var (
		rec     Record
		step    string
		meta    sql.NullString
		created int64
	)
	if err := sc.Scan(&rec.ID, &rec.JobID, &step, &rec.Message, &meta, &created); err != nil {
		return nil, err
	}
	rec.Step = Step(step)
	rec.CreatedAt = time.Unix(0, created).UTC()
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode progress metadata: %w", err)
		}
	}
	return &rec, nil
}

func nullableString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
