package domain

import "time"

// JobStatus enumerates workflow record lifecycle states.
type JobStatus string

const (
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further status change is allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusInProgress, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// Job is one row of the video log: a single run of the generation workflow.
// The row is created once and mutated in place by ID across workflow steps.
type Job struct {
	ID         int64     `json:"id"`
	AdIdea     string    `json:"ad_idea,omitempty"`
	Title      string    `json:"title"`
	Prompt     string    `json:"prompt"`
	Status     JobStatus `json:"status"`
	TaskID     string    `json:"task_id,omitempty"`
	VideoURL   string    `json:"video_url,omitempty"`
	Error      string    `json:"error,omitempty"`
	Model      string    `json:"model,omitempty"`
	Resolution string    `json:"resolution,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Column names of the video_logs table.
const (
	ColID         = "id"
	ColAdIdea     = "ad_idea"
	ColTitle      = "title"
	ColPrompt     = "prompt"
	ColStatus     = "status"
	ColTaskID     = "task_id"
	ColVideoURL   = "video_url"
	ColError      = "error"
	ColModel      = "model"
	ColResolution = "resolution"
	ColCreatedAt  = "created_at"
	ColUpdatedAt  = "updated_at"
)
