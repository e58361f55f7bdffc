package workflow

import (
	"testing"
	"time"
)

func TestPollPolicyNormalized(t *testing.T) {
	p := PollPolicy{Interval: 0, MaxInterval: time.Second, Multiplier: 0.5}.normalized()
	if p.Interval != DefaultPollInterval {
		t.Fatalf("Interval = %v, want %v", p.Interval, DefaultPollInterval)
	}
	if p.MaxInterval != DefaultPollInterval {
		t.Fatalf("MaxInterval = %v, want clamp to interval", p.MaxInterval)
	}
	if p.Multiplier != 1 {
		t.Fatalf("Multiplier = %v, want 1", p.Multiplier)
	}
}

func TestPollPolicyNextBacksOffToCap(t *testing.T) {
	p := PollPolicy{Interval: time.Second, MaxInterval: 5 * time.Second, Multiplier: 2}.normalized()
	want := []time.Duration{2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	d := p.Interval
	for i, w := range want {
		d = p.next(d)
		if d != w {
			t.Fatalf("step %d: delay = %v, want %v", i, d, w)
		}
	}
}

func TestDefaultPollPolicyIsFixed(t *testing.T) {
	p := DefaultPollPolicy().normalized()
	if got := p.next(p.Interval); got != DefaultPollInterval {
		t.Fatalf("default policy should not back off, got %v", got)
	}
}
