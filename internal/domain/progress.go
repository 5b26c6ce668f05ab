package domain

import (
	"math"
	"time"
)

// Progress is one download telemetry sample
type Progress struct {
	BytesDownloaded int64
	BytesTotal      int64 // 0 when the source did not report a size
	Elapsed         time.Duration
	Done            bool
}

// Percent returns the downloaded fraction in [0, 1], 0 when the total is unknown
func (p Progress) Percent() float64 {
	if p.BytesTotal <= 0 || p.BytesDownloaded <= 0 {
		return 0
	}
	f := float64(p.BytesDownloaded) / float64(p.BytesTotal)
	if f > 1 {
		return 1
	}
	return f
}

// ElapsedMinutes returns the time since the first byte arrived, in minutes
func (p Progress) ElapsedMinutes() float64 {
	return p.Elapsed.Minutes()
}

// RemainingMinutes estimates elapsed/percent - elapsed. ok is false when
// the estimate is undefined.
func (p Progress) RemainingMinutes() (minutes float64, ok bool) {
	pct := p.Percent()
	if pct <= 0 {
		return 0, false
	}
	elapsed := p.ElapsedMinutes()
	remaining := elapsed/pct - elapsed
	if math.IsNaN(remaining) || math.IsInf(remaining, 0) {
		return 0, false
	}
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// ProgressSink receives progress samples. Publish must not block.
type ProgressSink interface {
	Publish(p Progress)
}

// ProgressSlot is a single-slot mailbox holding the latest unconsumed
// sample. Publishing replaces a pending sample instead of queueing it.
type ProgressSlot struct {
	ch chan Progress
}

// NewProgressSlot creates an empty slot
func NewProgressSlot() *ProgressSlot {
	return &ProgressSlot{ch: make(chan Progress, 1)}
}

// Publish stores p, dropping any sample the consumer has not taken yet
func (s *ProgressSlot) Publish(p Progress) {
	for {
		select {
		case s.ch <- p:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// C exposes the slot for select loops
func (s *ProgressSlot) C() <-chan Progress {
	return s.ch
}

// Latest takes the pending sample, if any
func (s *ProgressSlot) Latest() (Progress, bool) {
	select {
	case p := <-s.ch:
		return p, true
	default:
		return Progress{}, false
	}
}

// DiscardProgress is a sink that drops every sample
type DiscardProgress struct{}

func (DiscardProgress) Publish(Progress) {}
