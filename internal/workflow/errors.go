package workflow

import (
	"context"
	"errors"
	"fmt"

	"videoads/internal/apierror"
	"videoads/internal/providers/video"
)

// Kind names the workflow step a failure came from.
type Kind string

const (
	KindPromptGeneration Kind = "PromptGenerationError"
	KindSubmission       Kind = "SubmissionError"
	KindPoll             Kind = "PollError"
	KindExtraction       Kind = "ExtractionError"
	KindUnexpected       Kind = "UnexpectedError"
)

// ErrPollExhausted is returned when the poll loop runs out of attempts.
var ErrPollExhausted = errors.New("poll attempts exhausted")

// ErrEngineClosed is returned by Start and Resume once Wait has begun.
var ErrEngineClosed = errors.New("workflow engine is shutting down")

// Error is the single failure type returned by Engine. Message is the text
// recorded on the job; Entry is its classification.
type Error struct {
	Kind    Kind
	JobID   int64
	Entry   apierror.Entry
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// classify maps err onto the error table. Cancellation and deadlines map to
// their canonical entries instead of UNKNOWN_ERROR.
func classify(err error) apierror.Entry {
	switch {
	case errors.Is(err, context.Canceled):
		if entry, ok := apierror.Lookup("CANCELLED"); ok {
			return entry
		}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrPollExhausted):
		if entry, ok := apierror.Lookup("DEADLINE_EXCEEDED"); ok {
			return entry
		}
	case errors.Is(err, ErrEngineClosed):
		if entry, ok := apierror.Lookup("UNAVAILABLE"); ok {
			return entry
		}
	}
	return apierror.FromError(err)
}

// detail returns the upstream text of provider errors and the plain message
// of anything else.
func detail(err error) string {
	var subErr *video.SubmissionError
	if errors.As(err, &subErr) {
		return subErr.Raw
	}
	var pollErr *video.PollError
	if errors.As(err, &pollErr) {
		return pollErr.Raw
	}
	return err.Error()
}

func failureMessage(kind Kind, err error) string {
	switch kind {
	case KindPromptGeneration:
		return "prompt generation failed: " + detail(err)
	case KindSubmission:
		return "video job submission failed: " + detail(err)
	case KindPoll:
		return "polling failed: " + detail(err)
	case KindExtraction:
		var extErr *video.ExtractionError
		if errors.As(err, &extErr) {
			return extErr.Error()
		}
		return "media extraction failed: " + detail(err)
	}
	return "unexpected error: " + detail(err)
}

type panicError struct {
	value any
}

func (p panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}
