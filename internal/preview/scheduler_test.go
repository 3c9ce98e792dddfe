package preview

import (
	"testing"

	"github.com/storyloom/storyloom-agent/internal/storyboard"
)

func scenesWithDurations(durations ...float64) []*storyboard.Scene {
	scenes := make([]*storyboard.Scene, len(durations))
	for i, d := range durations {
		scenes[i] = &storyboard.Scene{ID: string(rune('a' + i)), DurationSeconds: d}
	}
	return scenes
}

func TestSceneAt(t *testing.T) {
	scenes := scenesWithDurations(5, 7, 6)

	tests := []struct {
		name string
		t    float64
		want int
	}{
		{"start", 0, 0},
		{"inside first", 4.9, 0},
		{"boundary enters second", 5, 1},
		{"inside second", 11.9, 1},
		{"boundary enters third", 12, 2},
		{"inside third", 17.5, 2},
		{"exactly total clamps to last", 18, 2},
		{"past total clamps to last", 100, 2},
		{"negative clamps to first", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SceneAt(scenes, tt.t); got != tt.want {
				t.Errorf("SceneAt(%v) = %d, want %d", tt.t, got, tt.want)
			}
		})
	}
}

func TestSceneAt_Empty(t *testing.T) {
	if got := SceneAt(nil, 3); got != -1 {
		t.Errorf("SceneAt(empty) = %d, want -1", got)
	}
}
