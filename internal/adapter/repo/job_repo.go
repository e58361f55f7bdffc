package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"videoads/internal/domain"
	"videoads/internal/infra"
	"videoads/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobLogStore on PostgreSQL.
type JobRepositoryPG struct {
	db  infra.SQLExecutor
	now func() time.Time
}

// NewJobRepository creates a new job log store backed by PostgreSQL.
func NewJobRepository(db infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{db: db, now: time.Now}
}

// Insert persists a new record and returns its id.
func (r *JobRepositoryPG) Insert(ctx context.Context, fields domain.Fields) (int64, error) {
	norm, err := prepareInsert(fields, r.now())
	if err != nil {
		return 0, err
	}
	query, args := buildInsert(sqlinline.QInsertJobPrefix, norm, dollar)

	var id int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert video log: %w", err)
	}
	return id, nil
}

// Update overwrites the given columns of record id.
func (r *JobRepositoryPG) Update(ctx context.Context, id int64, fields domain.Fields) error {
	norm, err := prepareUpdate(fields)
	if err != nil {
		return err
	}
	query, args := buildUpdate(sqlinline.QUpdateJobPrefix, id, norm, r.now(), dollar, "is distinct from")

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update video log %d: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	return r.explainMiss(ctx, id)
}

// explainMiss tells a missing record apart from a rejected status change.
func (r *JobRepositoryPG) explainMiss(ctx context.Context, id int64) error {
	var status string
	err := r.db.QueryRow(ctx, sqlinline.QSelectJobStatusByID, id).Scan(&status)
	if infra.IsNoRows(err) {
		return fmt.Errorf("video log %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load video log %d status: %w", id, err)
	}
	return fmt.Errorf("video log %d is %s: %w", id, status, domain.ErrInvalidTransition)
}

// Get fetches a record by id.
func (r *JobRepositoryPG) Get(ctx context.Context, id int64) (*domain.Job, error) {
	job, err := scanJob(r.db.QueryRow(ctx, sqlinline.QSelectJobByID, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, fmt.Errorf("video log %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return job, nil
}

// List returns records newest first.
func (r *JobRepositoryPG) List(ctx context.Context, filter domain.ListFilter) ([]domain.Job, error) {
	var before any
	if !filter.CreatedBefore.IsZero() {
		before = filter.CreatedBefore.UTC()
	}
	rows, err := r.db.Query(ctx, sqlinline.QListJobs, string(filter.Status), before, clampLimit(filter.Limit))
	if err != nil {
		return nil, fmt.Errorf("list video logs: %w", err)
	}
	defer rows.Close()

	jobs := make([]domain.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
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

func scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		job    domain.Job
		status string
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
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}

var _ domain.JobLogStore = (*JobRepositoryPG)(nil)
