package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"videoads/internal/providers/video"
)

// DefaultPollInterval is the delay between two probes of a running job.
const DefaultPollInterval = 10 * time.Second

// PollPolicy bounds the wait for a submitted job. Each delay is the previous
// one times Multiplier, capped at MaxInterval. Zero MaxAttempts or Timeout
// means no bound of that kind.
type PollPolicy struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Multiplier  float64
	MaxAttempts int
	Timeout     time.Duration
}

// DefaultPollPolicy probes every ten seconds for at most twenty minutes.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Interval:    DefaultPollInterval,
		MaxInterval: DefaultPollInterval,
		Multiplier:  1,
		Timeout:     20 * time.Minute,
	}
}

func (p PollPolicy) normalized() PollPolicy {
	if p.Interval <= 0 {
		p.Interval = DefaultPollInterval
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}
	if p.MaxInterval < p.Interval {
		p.MaxInterval = p.Interval
	}
	return p
}

func (p PollPolicy) next(d time.Duration) time.Duration {
	n := time.Duration(float64(d) * p.Multiplier)
	if n > p.MaxInterval {
		return p.MaxInterval
	}
	return n
}

// waitForCompletion probes handle until the job is done, the attempts run
// out, the policy timeout fires or ctx is cancelled. The delay comes before
// each probe since a fresh submission is never already done.
func (e *Engine) waitForCompletion(ctx context.Context, provider video.Provider, handle video.JobHandle, log func(string) *zerolog.Event) (*video.JobResult, error) {
	p := e.policy
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	timer := time.NewTimer(p.Interval)
	defer timer.Stop()
	delay := p.Interval

	for attempt := 1; ; attempt++ {
		if p.MaxAttempts > 0 && attempt > p.MaxAttempts {
			return nil, fmt.Errorf("%w after %d probes", ErrPollExhausted, p.MaxAttempts)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := provider.PollJob(ctx, handle)
		if err != nil {
			return nil, err
		}
		if res.Done {
			log(StepPoll).Str("task_id", handle.Name).Int("attempt", attempt).Msg("job finished")
			return res.Result, nil
		}
		delay = p.next(delay)
		log(StepPoll).Str("task_id", handle.Name).Int("attempt", attempt).Dur("next_in", delay).Msg("job still running")
		timer.Reset(delay)
	}
}
