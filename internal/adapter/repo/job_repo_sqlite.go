package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"videoads/internal/domain"
	"videoads/internal/infra"
	"videoads/internal/sqlinline"
)

// JobRepositorySQLite implements domain.JobLogStore on a single SQLite file.
type JobRepositorySQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewJobRepositorySQLite creates the video_logs table when missing and
// returns a store using db.
func NewJobRepositorySQLite(ctx context.Context, db *sql.DB) (*JobRepositorySQLite, error) {
	if _, err := db.ExecContext(ctx, sqlinline.QSQLiteCreateJobs); err != nil {
		return nil, fmt.Errorf("create video_logs: %w", err)
	}
	return &JobRepositorySQLite{db: db, now: time.Now}, nil
}

// Insert persists a new record and returns its id.
func (r *JobRepositorySQLite) Insert(ctx context.Context, fields domain.Fields) (int64, error) {
	norm, err := prepareInsert(fields, r.now())
	if err != nil {
		return 0, err
	}
	query, args := buildInsert(sqlinline.QSQLiteInsertJobPrefix, norm, question)

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert video log: %w", err)
	}
	return id, nil
}

// Update overwrites the given columns of record id.
func (r *JobRepositorySQLite) Update(ctx context.Context, id int64, fields domain.Fields) error {
	norm, err := prepareUpdate(fields)
	if err != nil {
		return err
	}
	query, args := buildUpdate(sqlinline.QSQLiteUpdateJobPrefix, id, norm, r.now(), question, "is not")

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update video log %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update video log %d: %w", id, err)
	}
	if affected > 0 {
		return nil
	}

	var status string
	err = r.db.QueryRowContext(ctx, sqlinline.QSQLiteSelectJobStatusByID, id).Scan(&status)
	if infra.IsNoRows(err) {
		return fmt.Errorf("video log %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load video log %d status: %w", id, err)
	}
	return fmt.Errorf("video log %d is %s: %w", id, status, domain.ErrInvalidTransition)
}

// Get fetches a record by id.
func (r *JobRepositorySQLite) Get(ctx context.Context, id int64) (*domain.Job, error) {
	job, err := scanSQLiteJob(r.db.QueryRowContext(ctx, sqlinline.QSQLiteSelectJobByID, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, fmt.Errorf("video log %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return job, nil
}

// List returns records newest first.
func (r *JobRepositorySQLite) List(ctx context.Context, filter domain.ListFilter) ([]domain.Job, error) {
	var before any
	if !filter.CreatedBefore.IsZero() {
		before = filter.CreatedBefore.UTC().Format(domain.TimestampLayout)
	}
	status := string(filter.Status)
	rows, err := r.db.QueryContext(ctx, sqlinline.QSQLiteListJobs,
		status, status, before, before, clampLimit(filter.Limit))
	if err != nil {
		return nil, fmt.Errorf("list video logs: %w", err)
	}
	defer rows.Close()

	jobs := make([]domain.Job, 0)
	for rows.Next() {
		job, err := scanSQLiteJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list video logs: %w", err)
	}
	return jobs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteJob(row rowScanner) (*domain.Job, error) {
	var (
		job                  domain.Job
		status               string
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&job.ID,
		&job.AdIdea,
		&job.Title,
		&job.Prompt,
		&status,
		&job.TaskID,
		&job.VideoURL,
		&job.Error,
		&job.Model,
		&job.Resolution,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)

	var err error
	if job.CreatedAt, err = parseStamp(createdAt); err != nil {
		return nil, fmt.Errorf("video log %d created_at: %w", job.ID, err)
	}
	if job.UpdatedAt, err = parseStamp(updatedAt); err != nil {
		return nil, fmt.Errorf("video log %d updated_at: %w", job.ID, err)
	}
	return &job, nil
}

func parseStamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

var _ domain.JobLogStore = (*JobRepositorySQLite)(nil)
