package domain

import (
	"context"
	"time"
)

// JobLogStore persists workflow records. Insert and Update must be durable
// before they return.
type JobLogStore interface {
	Insert(ctx context.Context, fields Fields) (int64, error)
	Update(ctx context.Context, id int64, fields Fields) error
	Get(ctx context.Context, id int64) (*Job, error)
	List(ctx context.Context, filter ListFilter) ([]Job, error)
}

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	Status        JobStatus
	CreatedBefore time.Time
	Limit         int
}
