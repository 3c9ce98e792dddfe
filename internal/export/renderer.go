package export

import (
	"context"
	"log/slog"
	"time"
)

// EventType tags renderer events. The job state machine only depends on
// receiving them in order with non-decreasing pct; it makes no assumption
// about the renderer's timing source.
type EventType string

const (
	EventProgress EventType = "progress"
	EventResult   EventType = "result"
	EventError    EventType = "error"
)

// Event is one message from the renderer: progress updates terminated by a
// result or an error.
type Event struct {
	Type EventType
	Pct  float64
	ETA  *time.Duration
	Err  *ErrorInfo
}

// Renderer is the compositing collaborator. Render emits events into the
// channel and closes it when done; it is free to run out of process behind
// this boundary. Cancellation arrives via ctx.
type Renderer interface {
	Render(ctx context.Context, req *Request, events chan<- Event)
}

// SimRenderer paces progress against wall-clock time instead of doing real
// compositing (v0 has no encoder; the artifact is described, not produced).
type SimRenderer struct {
	logger *slog.Logger
	// simulated render time per second of timeline content
	perSecond time.Duration
	minTotal  time.Duration
	tick      time.Duration
	now       func() time.Time
}

func NewSimRenderer(perSecond, minTotal time.Duration, logger *slog.Logger) *SimRenderer {
	return &SimRenderer{
		logger:    logger,
		perSecond: perSecond,
		minTotal:  minTotal,
		tick:      25 * time.Millisecond,
		now:       time.Now,
	}
}

func (r *SimRenderer) Render(ctx context.Context, req *Request, events chan<- Event) {
	defer close(events)

	total := time.Duration(req.TotalDuration() * float64(r.perSecond))
	if total < r.minTotal {
		total = r.minTotal
	}

	if r.logger != nil {
		r.logger.Info("render started",
			"scenes", len(req.Scenes),
			"resolution", req.Options.Resolution,
			"format", req.Options.Format,
			"estimated", total,
		)
	}

	start := r.now()
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if r.logger != nil {
				r.logger.Info("render cancelled")
			}
			return
		case <-ticker.C:
			elapsed := r.now().Sub(start)
			pct := float64(elapsed) / float64(total)
			if pct >= 1 {
				select {
				case events <- Event{Type: EventResult, Pct: 1}:
				case <-ctx.Done():
				}
				if r.logger != nil {
					r.logger.Info("render finished", "elapsed", elapsed)
				}
				return
			}

			eta := total - elapsed
			select {
			case events <- Event{Type: EventProgress, Pct: pct, ETA: &eta}:
			case <-ctx.Done():
				return
			}
		}
	}
}
