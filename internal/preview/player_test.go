package preview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/storyloom/storyloom-agent/internal/storyboard"
)

func shortTimeline() *storyboard.Timeline {
	tl := storyboard.NewTimeline()
	tl.Seed([]*storyboard.Scene{
		{ID: "s1", Title: "Scene 1", Transition: storyboard.TransitionFade, DurationSeconds: 1},
	})
	return tl
}

func TestPlayer_RunsToCompletion(t *testing.T) {
	tl := shortTimeline()
	p := NewPlayer(tl, time.Millisecond, nil)

	// Compress time: each tick advances the virtual clock by 100ms.
	base := time.Now()
	ticks := 0
	p.now = func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * 100 * time.Millisecond)
	}

	frames := p.Play(context.Background())

	var last Frame
	for f := range frames {
		if f.Progress < last.Progress {
			t.Errorf("progress went backwards: %v after %v", f.Progress, last.Progress)
		}
		last = f
	}

	if !last.Done {
		t.Error("final frame should be marked done")
	}
	if last.Progress != 1 {
		t.Errorf("final progress = %v, want 1", last.Progress)
	}
	if last.SceneIndex != 0 {
		t.Errorf("final scene index = %d, want 0", last.SceneIndex)
	}
}

func TestPlayer_NewPlaySupersedesPrior(t *testing.T) {
	tl := storyboard.NewTimeline()
	tl.Seed([]*storyboard.Scene{{ID: "s1", DurationSeconds: 3600}})

	p := NewPlayer(tl, time.Millisecond, nil)

	first := p.Play(context.Background())
	second := p.Play(context.Background())
	defer p.Stop()

	// The first loop must have been cancelled and its channel closed before
	// the second loop started.
	select {
	case _, open := <-first:
		for open {
			_, open = <-first
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first playback was not superseded")
	}

	select {
	case _, ok := <-second:
		if !ok {
			t.Fatal("second playback should still be running")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second playback produced no frames")
	}
}

// drainedWithin consumes frames until the channel closes, reporting false if
// it is still producing when the deadline hits.
func drainedWithin(ch <-chan Frame, d time.Duration) bool {
	deadline := time.After(d)
	for {
		select {
		case _, open := <-ch:
			if !open {
				return true
			}
		case <-deadline:
			return false
		}
	}
}

func TestPlayer_OverlappingPlaysLeaveOneLoop(t *testing.T) {
	tl := storyboard.NewTimeline()
	tl.Seed([]*storyboard.Scene{{ID: "s1", DurationSeconds: 3600}})

	p := NewPlayer(tl, time.Millisecond, nil)

	first := p.Play(context.Background())
	defer p.Stop()

	// Two Plays racing each other while the first loop is still live. Both
	// wait out the supersede; only one of their loops may survive.
	var wg sync.WaitGroup
	channels := make([]<-chan Frame, 2)
	for i := range channels {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			channels[i] = p.Play(context.Background())
		}(i)
	}
	wg.Wait()

	if !drainedWithin(first, 2*time.Second) {
		t.Fatal("first playback was not superseded")
	}

	alive := 0
	for _, ch := range channels {
		if !drainedWithin(ch, 500*time.Millisecond) {
			alive++
		}
	}
	if alive != 1 {
		t.Fatalf("live playback loops = %d, want exactly 1", alive)
	}
}

func TestPlayer_StopCancelsLoop(t *testing.T) {
	tl := storyboard.NewTimeline()
	tl.Seed([]*storyboard.Scene{{ID: "s1", DurationSeconds: 3600}})

	p := NewPlayer(tl, time.Millisecond, nil)
	frames := p.Play(context.Background())

	p.Stop()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-frames:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("frames channel not closed after Stop")
		}
	}
}
