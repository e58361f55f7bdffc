// Package video defines the provider boundary the generation workflow talks
// to: one structured text completion, one long-running video job, and the
// extraction of the produced media.
package video

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"videoads/internal/providers/prompt"
)

// ErrMalformedResponse marks a completion whose text holds no usable brief.
var ErrMalformedResponse = errors.New("malformed completion response")

// Provider is the set of upstream calls one workflow run needs.
type Provider interface {
	CompleteStructured(ctx context.Context, systemPrompt, userMessage string) (prompt.VideoDetails, error)
	SubmitJob(ctx context.Context, req SubmitRequest) (JobHandle, error)
	PollJob(ctx context.Context, handle JobHandle) (PollResult, error)
	ExtractMediaURL(result *JobResult) (string, error)
}

// Factory builds a Provider bound to a caller-supplied API key.
type Factory interface {
	ForKey(apiKey string) (Provider, error)
}

// SubmitRequest describes one video job. Empty Model and Resolution fall
// back to the provider defaults.
type SubmitRequest struct {
	Prompt      string
	Model       string
	Resolution  string
	AspectRatio string
}

// JobHandle references a submitted job. Name alone is enough to resume
// polling, so it doubles as the persisted task id.
type JobHandle struct {
	Name string
}

// HandleFromTaskID rebuilds a pollable handle from a persisted task id.
func HandleFromTaskID(taskID string) JobHandle {
	return JobHandle{Name: strings.TrimSpace(taskID)}
}

// TaskID returns the value to persist for this handle.
func (h JobHandle) TaskID() string {
	return h.Name
}

// Valid reports whether the handle can be polled.
func (h JobHandle) Valid() bool {
	return h.Name != ""
}

// MediaEntry is one generated file.
type MediaEntry struct {
	URI      string `json:"uri"`
	MimeType string `json:"mime_type,omitempty"`
}

// JobResult is the payload of a finished job. Media only holds entries with
// a URI; FilteredReasons lists safety filter explanations when the provider
// withheld output.
type JobResult struct {
	Media           []MediaEntry `json:"media"`
	FilteredReasons []string     `json:"filtered_reasons,omitempty"`
}

// PollResult is the outcome of one probe. Result is set only when Done.
type PollResult struct {
	Done   bool
	Result *JobResult
}

// SubmissionError carries the raw upstream text of a rejected submission.
type SubmissionError struct {
	Raw string
	Err error
}

func (e *SubmissionError) Error() string {
	return "video job submission failed: " + e.Raw
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// PollError reports a failed probe or a job that finished with an error.
type PollError struct {
	Handle JobHandle
	Raw    string
	Err    error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("polling %s failed: %s", e.Handle.Name, e.Raw)
}

func (e *PollError) Unwrap() error { return e.Err }

// ExtractionError reports a finished job whose result holds no media.
type ExtractionError struct {
	Reason          string
	FilteredReasons []string
}

func (e *ExtractionError) Error() string {
	if len(e.FilteredReasons) == 0 {
		return "media extraction failed: " + e.Reason
	}
	return fmt.Sprintf("media extraction failed: %s (filtered: %s)", e.Reason, strings.Join(e.FilteredReasons, "; "))
}

// ExtractFirstMedia returns the URI of the first media entry of result.
func ExtractFirstMedia(result *JobResult) (string, error) {
	if result == nil {
		return "", &ExtractionError{Reason: "job finished without a result"}
	}
	for _, m := range result.Media {
		if uri := strings.TrimSpace(m.URI); uri != "" {
			return uri, nil
		}
	}
	return "", &ExtractionError{Reason: "no generated media in result", FilteredReasons: result.FilteredReasons}
}
