// Package workflow drives one video ad generation from idea to media URL:
// prompt synthesis, job submission, polling and extraction, recording every
// transition on a single job log row.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"videoads/internal/domain"
	"videoads/internal/providers/prompt"
	"videoads/internal/providers/video"
)

// Step names used in logs.
const (
	StepPrompt  = "prompt"
	StepSubmit  = "submit"
	StepPoll    = "poll"
	StepExtract = "extract"
)

// Request is the caller input of one workflow run.
type Request struct {
	AdIdea      string
	Prompt      string
	Model       string
	Resolution  string
	AspectRatio string
}

// Result is the outcome of a completed run.
type Result struct {
	JobID    int64  `json:"job_id"`
	Title    string `json:"title"`
	Prompt   string `json:"prompt"`
	VideoURL string `json:"video_url"`
}

// Outcome is delivered by Start once a run finishes.
type Outcome struct {
	Result *Result
	Err    error
}

// Engine runs workflows against a shared job log store.
type Engine struct {
	store  domain.JobLogStore
	policy PollPolicy
	logger zerolog.Logger

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// NewEngine returns an engine writing to store and polling with policy.
func NewEngine(store domain.JobLogStore, policy PollPolicy, logger zerolog.Logger) *Engine {
	return &Engine{
		store:  store,
		policy: policy.normalized(),
		logger: logger.With().Str("component", "workflow").Logger(),
	}
}

// Start runs the workflow on its own goroutine. The outcome channel receives
// exactly one value and is then closed.
func (e *Engine) Start(ctx context.Context, provider video.Provider, req Request) <-chan Outcome {
	out := make(chan Outcome, 1)
	if !e.track() {
		out <- Outcome{Err: closedError()}
		close(out)
		return out
	}
	go func() {
		defer e.wg.Done()
		defer close(out)
		res, err := e.Run(ctx, provider, req)
		out <- Outcome{Result: res, Err: err}
	}()
	return out
}

// Wait blocks until every run started with Start or Resume has returned, or
// ctx is done. Once Wait is called the engine accepts no new runs.
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	e.closing = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// track registers a run unless the engine is closing. Add and the closing
// check share the lock Wait takes, so no run is added after Wait starts.
func (e *Engine) track() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closing {
		return false
	}
	e.wg.Add(1)
	return true
}

func closedError() error {
	return &Error{Kind: KindUnexpected, Entry: classify(ErrEngineClosed), Message: ErrEngineClosed.Error(), Err: ErrEngineClosed}
}

// Run executes all four steps synchronously. It returns either a result or a
// *Error, never both, and never panics.
func (e *Engine) Run(ctx context.Context, provider video.Provider, req Request) (res *Result, err error) {
	run := &run{engine: e, provider: provider, req: req, storeCtx: context.WithoutCancel(ctx)}
	defer run.recover(&res, &err)
	return run.execute(ctx)
}

// Resume continues a persisted in-progress job from its task id, entering
// the workflow at the poll step. The job is left untouched when the engine is
// already closing.
func (e *Engine) Resume(ctx context.Context, provider video.Provider, job domain.Job) (res *Result, err error) {
	if !e.track() {
		return nil, closedError()
	}
	defer e.wg.Done()

	run := &run{
		engine:   e,
		provider: provider,
		req:      Request{AdIdea: job.AdIdea, Model: job.Model, Resolution: job.Resolution},
		jobID:    job.ID,
		details:  prompt.VideoDetails{Title: job.Title, Prompt: job.Prompt},
		storeCtx: context.WithoutCancel(ctx),
	}
	defer run.recover(&res, &err)

	handle := video.HandleFromTaskID(job.TaskID)
	if !handle.Valid() {
		return nil, run.fail(KindPoll, errors.New("job has no task id to resume"))
	}
	run.log(StepPoll).Str("task_id", handle.Name).Msg("resuming job")
	return run.fromPoll(ctx, handle)
}

// run holds the state of one invocation. Store writes use storeCtx, which
// ignores caller cancellation so an abandoned request still leaves an
// auditable row.
type run struct {
	engine   *Engine
	provider video.Provider
	req      Request
	jobID    int64
	details  prompt.VideoDetails
	storeCtx context.Context
}

func (r *run) execute(ctx context.Context) (*Result, error) {
	// Init -> PromptSynthesized
	details, err := r.provider.CompleteStructured(ctx, prompt.SystemPrompt, prompt.UserMessage(r.req.AdIdea, r.req.Prompt))
	if err == nil && strings.TrimSpace(details.Prompt) == "" {
		err = fmt.Errorf("%w: completion returned no video prompt", video.ErrMalformedResponse)
	}
	if err != nil {
		return nil, r.failBeforeInsert(err)
	}
	r.details = details

	id, err := r.engine.store.Insert(r.storeCtx, domain.Fields{
		domain.ColAdIdea:     r.req.AdIdea,
		domain.ColTitle:      details.Title,
		domain.ColPrompt:     details.Prompt,
		domain.ColStatus:     domain.JobStatusInProgress,
		domain.ColModel:      r.req.Model,
		domain.ColResolution: r.req.Resolution,
	})
	if err != nil {
		return nil, r.unexpected(fmt.Errorf("record job: %w", err))
	}
	r.jobID = id
	r.log(StepPrompt).Str("title", details.Title).Msg("prompt synthesized")

	// PromptSynthesized -> JobSubmitted
	if err := ctx.Err(); err != nil {
		return nil, r.fail(KindSubmission, err)
	}
	handle, err := r.provider.SubmitJob(ctx, video.SubmitRequest{
		Prompt:      details.Prompt,
		Model:       r.req.Model,
		Resolution:  r.req.Resolution,
		AspectRatio: r.req.AspectRatio,
	})
	if err == nil && !handle.Valid() {
		err = errors.New("provider returned an empty job handle")
	}
	if err != nil {
		return nil, r.fail(KindSubmission, err)
	}
	if err := r.engine.store.Update(r.storeCtx, r.jobID, domain.Fields{domain.ColTaskID: handle.TaskID()}); err != nil {
		return nil, r.unexpected(fmt.Errorf("record task id: %w", err))
	}
	r.log(StepSubmit).Str("task_id", handle.Name).Msg("video job submitted")

	return r.fromPoll(ctx, handle)
}

// fromPoll runs JobSubmitted -> Polling -> Extracted -> terminal.
func (r *run) fromPoll(ctx context.Context, handle video.JobHandle) (*Result, error) {
	result, err := r.engine.waitForCompletion(ctx, r.provider, handle, r.log)
	if err != nil {
		return nil, r.fail(KindPoll, err)
	}

	url, err := r.provider.ExtractMediaURL(result)
	if err != nil {
		return nil, r.fail(KindExtraction, err)
	}

	if err := r.engine.store.Update(r.storeCtx, r.jobID, domain.Fields{
		domain.ColStatus:   domain.JobStatusCompleted,
		domain.ColVideoURL: url,
	}); err != nil {
		return nil, r.unexpected(fmt.Errorf("record completion: %w", err))
	}
	r.log(StepExtract).Str("video_url", url).Msg("job completed")

	return &Result{
		JobID:    r.jobID,
		Title:    r.details.Title,
		Prompt:   r.details.Prompt,
		VideoURL: url,
	}, nil
}

// failBeforeInsert records a prompt generation failure as a new failed row.
func (r *run) failBeforeInsert(cause error) error {
	msg := failureMessage(KindPromptGeneration, cause)
	id, logErr := r.engine.store.Insert(r.storeCtx, domain.Fields{
		domain.ColAdIdea:     r.req.AdIdea,
		domain.ColStatus:     domain.JobStatusFailed,
		domain.ColError:      msg,
		domain.ColModel:      r.req.Model,
		domain.ColResolution: r.req.Resolution,
	})
	if logErr == nil {
		r.jobID = id
	}
	return r.finish(KindPromptGeneration, cause, msg, logErr)
}

// fail marks the existing row failed with the message of kind.
func (r *run) fail(kind Kind, cause error) error {
	msg := failureMessage(kind, cause)
	logErr := r.markFailed(msg)
	return r.finish(kind, cause, msg, logErr)
}

// unexpected handles errors outside the step contract, including store
// failures and panics.
func (r *run) unexpected(cause error) error {
	msg := failureMessage(KindUnexpected, cause)
	var logErr error
	if r.jobID != 0 {
		logErr = r.markFailed(msg)
	}
	return r.finish(KindUnexpected, cause, msg, logErr)
}

func (r *run) markFailed(msg string) error {
	err := r.engine.store.Update(r.storeCtx, r.jobID, domain.Fields{
		domain.ColStatus: domain.JobStatusFailed,
		domain.ColError:  msg,
	})
	if errors.Is(err, domain.ErrInvalidTransition) {
		// Already terminal; the earlier outcome stands.
		return nil
	}
	return err
}

func (r *run) finish(kind Kind, cause error, msg string, logErr error) error {
	entry := classify(cause)
	if logErr != nil {
		r.engine.logger.Error().Err(logErr).Int64("job_id", r.jobID).Msg("failed to record job failure")
		msg = fmt.Sprintf("%s (failed to record failure: %v)", msg, logErr)
	}
	r.engine.logger.Warn().
		Err(cause).
		Str("step", stepOf(kind)).
		Int64("job_id", r.jobID).
		Str("kind", string(kind)).
		Int("http_code", entry.HTTPCode).
		Str("status", entry.Status).
		Msg("job failed")

	return &Error{Kind: kind, JobID: r.jobID, Entry: entry, Message: msg, Err: cause}
}

// recover converts a panic escaping the steps into an unexpected error.
func (r *run) recover(res **Result, err *error) {
	if v := recover(); v != nil {
		*res = nil
		*err = r.unexpected(panicError{value: v})
	}
}

func (r *run) log(step string) *zerolog.Event {
	ev := r.engine.logger.Info().Str("step", step)
	if r.jobID != 0 {
		ev = ev.Int64("job_id", r.jobID)
	}
	return ev
}

func stepOf(kind Kind) string {
	switch kind {
	case KindPromptGeneration:
		return StepPrompt
	case KindSubmission:
		return StepSubmit
	case KindPoll:
		return StepPoll
	case KindExtraction:
		return StepExtract
	}
	return "unexpected"
}
