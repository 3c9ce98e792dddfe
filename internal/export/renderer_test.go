package export

import (
	"context"
	"testing"
	"time"

	"github.com/storyloom/storyloom-agent/internal/storyboard"
)

func TestSimRenderer_EmitsMonotonicProgressThenResult(t *testing.T) {
	req := BuildRequest([]*storyboard.Scene{
		{ID: "s1", DurationSeconds: 2},
	}, Options{Resolution: Resolution720p, Format: FormatMP4}, newEmptyRegistry())

	r := NewSimRenderer(10*time.Millisecond, 20*time.Millisecond, nil)
	r.tick = time.Millisecond

	events := make(chan Event, 64)
	go r.Render(context.Background(), req, events)

	last := -1.0
	var terminal *Event
	for ev := range events {
		switch ev.Type {
		case EventProgress:
			if ev.Pct < last {
				t.Errorf("progress regressed: %v after %v", ev.Pct, last)
			}
			last = ev.Pct
			if ev.ETA == nil {
				t.Error("progress events should carry an ETA")
			}
		case EventResult, EventError:
			cp := ev
			terminal = &cp
		}
	}

	if terminal == nil {
		t.Fatal("renderer must terminate with a result or error event")
	}
	if terminal.Type != EventResult {
		t.Fatalf("terminal event = %s, want result", terminal.Type)
	}
}

func TestSimRenderer_StopsOnCancel(t *testing.T) {
	req := BuildRequest([]*storyboard.Scene{
		{ID: "s1", DurationSeconds: 3600},
	}, Options{Resolution: Resolution720p, Format: FormatMP4}, newEmptyRegistry())

	r := NewSimRenderer(time.Second, time.Second, nil)
	r.tick = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan Event, 64)
	go r.Render(ctx, req, events)

	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, open := <-events:
			if !open {
				return
			}
			if ev.Type == EventResult {
				t.Fatal("cancelled render must not emit a result")
			}
		case <-deadline:
			t.Fatal("renderer did not stop after cancellation")
		}
	}
}
