package preview

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/storyloom/storyloom-agent/internal/storyboard"
)

// Frame is one preview tick: overall progress plus the scene under the
// playhead at that instant.
type Frame struct {
	Progress   float64 `json:"progress"`
	SceneIndex int     `json:"scene_index"`
	SceneID    string  `json:"scene_id,omitempty"`
	Done       bool    `json:"done"`
}

// Player drives a cooperative preview loop over the timeline. Starting a new
// playback supersedes the active one; two loops never run concurrently.
type Player struct {
	timeline *storyboard.Timeline
	logger   *slog.Logger
	tick     time.Duration
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPlayer(timeline *storyboard.Timeline, tick time.Duration, logger *slog.Logger) *Player {
	return &Player{
		timeline: timeline,
		logger:   logger,
		tick:     tick,
		now:      time.Now,
	}
}

// Play starts a playback loop and returns a channel of frames. Any loop
// already running is cancelled first and drained before the new one starts.
// The returned channel is closed when playback finishes, is stopped, or the
// context is cancelled.
func (p *Player) Play(ctx context.Context) <-chan Frame {
	p.mu.Lock()
	// Re-check after reacquiring the lock: a concurrent Play may have
	// installed its own loop while this one waited for the old one to drain.
	for p.cancel != nil {
		p.cancel()
		prev := p.done
		p.mu.Unlock()
		<-prev
		p.mu.Lock()
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	frames := make(chan Frame, 1)
	go p.run(loopCtx, cancel, done, frames)
	return frames
}

// Stop cancels the active playback loop, if any, and waits for it to exit.
func (p *Player) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (p *Player) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}, frames chan<- Frame) {
	defer func() {
		cancel()
		close(frames)
		close(done)

		p.mu.Lock()
		if p.done == done {
			p.cancel = nil
			p.done = nil
		}
		p.mu.Unlock()
	}()

	total := p.timeline.TotalDuration()
	if total <= 0 {
		total = 1
	}

	if p.logger != nil {
		p.logger.Info("preview started", "total_duration_s", total)
	}

	start := p.now()
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if p.logger != nil {
				p.logger.Info("preview stopped")
			}
			return
		case <-ticker.C:
			elapsed := p.now().Sub(start).Seconds()
			pct := elapsed / total
			if pct > 1 {
				pct = 1
			}

			// Scene lookup happens against the timeline as it is right now,
			// so edits made mid-playback show up on the next tick.
			scenes := p.timeline.Scenes()
			idx := SceneAt(scenes, elapsed)

			frame := Frame{Progress: pct, SceneIndex: idx, Done: pct >= 1}
			if idx >= 0 && idx < len(scenes) {
				frame.SceneID = scenes[idx].ID
			}

			select {
			case frames <- frame:
			case <-ctx.Done():
				return
			default:
				// Slow consumer: drop the frame rather than stall the loop.
			}

			if frame.Done {
				if p.logger != nil {
					p.logger.Info("preview finished")
				}
				return
			}
		}
	}
}
