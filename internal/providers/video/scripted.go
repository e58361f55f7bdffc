package video

import (
	"context"
	"errors"
	"sync"
	"time"

	"videoads/internal/providers/prompt"
)

// Scripted is an in-memory Provider that replays a fixed sequence of
// answers. It backs offline runs and tests. Each call waits Latency first
// and gives up when ctx is done.
type Scripted struct {
	Details     prompt.VideoDetails
	CompleteErr error
	Handle      JobHandle
	SubmitErr   error
	Polls       []PollResult
	PollErr     error
	Latency     time.Duration

	mu          sync.Mutex
	completions int
	submissions []SubmitRequest
	polls       int
}

// NewScripted returns a provider whose job finishes after pending not-done
// polls with one media entry at uri.
func NewScripted(details prompt.VideoDetails, pending int, uri string) *Scripted {
	polls := make([]PollResult, pending, pending+1)
	polls = append(polls, PollResult{Done: true, Result: &JobResult{Media: []MediaEntry{{URI: uri, MimeType: "video/mp4"}}}})
	return &Scripted{
		Details: details,
		Handle:  JobHandle{Name: "operations/scripted"},
		Polls:   polls,
	}
}

func (s *Scripted) wait(ctx context.Context) error {
	if s.Latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(s.Latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scripted) CompleteStructured(ctx context.Context, _, _ string) (prompt.VideoDetails, error) {
	if err := s.wait(ctx); err != nil {
		return prompt.VideoDetails{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completions++
	if s.CompleteErr != nil {
		return prompt.VideoDetails{}, s.CompleteErr
	}
	return s.Details, nil
}

func (s *Scripted) SubmitJob(ctx context.Context, req SubmitRequest) (JobHandle, error) {
	if err := s.wait(ctx); err != nil {
		return JobHandle{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, req)
	if s.SubmitErr != nil {
		return JobHandle{}, &SubmissionError{Raw: s.SubmitErr.Error(), Err: s.SubmitErr}
	}
	return s.Handle, nil
}

func (s *Scripted) PollJob(ctx context.Context, handle JobHandle) (PollResult, error) {
	if err := s.wait(ctx); err != nil {
		return PollResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PollErr != nil {
		return PollResult{}, &PollError{Handle: handle, Raw: s.PollErr.Error(), Err: s.PollErr}
	}
	if len(s.Polls) == 0 {
		return PollResult{}, &PollError{Handle: handle, Raw: "script exhausted", Err: errors.New("script exhausted")}
	}
	idx := s.polls
	if idx >= len(s.Polls) {
		idx = len(s.Polls) - 1
	}
	s.polls++
	return s.Polls[idx], nil
}

func (s *Scripted) ExtractMediaURL(result *JobResult) (string, error) {
	return ExtractFirstMedia(result)
}

// Calls reports how many completions, submissions and polls were served.
func (s *Scripted) Calls() (completions, submissions, polls int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completions, len(s.submissions), s.polls
}

// Submissions returns the submitted requests in order.
func (s *Scripted) Submissions() []SubmitRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SubmitRequest(nil), s.submissions...)
}

// ScriptedFactory hands out the same Scripted provider for every key.
type ScriptedFactory struct {
	Provider *Scripted

	mu   sync.Mutex
	keys []string
}

func (f *ScriptedFactory) ForKey(apiKey string) (Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, apiKey)
	return f.Provider, nil
}

// Keys returns the keys providers were requested for.
func (f *ScriptedFactory) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

var (
	_ Provider = (*Scripted)(nil)
	_ Factory  = (*ScriptedFactory)(nil)
)
