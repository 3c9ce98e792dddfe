// Package preview maps a continuous playhead over the timeline for live
// preview. It is a read model: nothing here mutates the timeline or the
// asset registry.
package preview

import "github.com/storyloom/storyloom-agent/internal/storyboard"

// SceneAt resolves the playhead time t (seconds) to the index of the active
// scene by cumulative duration lookup. t past the total clamps to the last
// scene. Returns -1 for an empty scene list.
func SceneAt(scenes []*storyboard.Scene, t float64) int {
	if len(scenes) == 0 {
		return -1
	}
	if t < 0 {
		return 0
	}

	var cumulative float64
	for i, s := range scenes {
		cumulative += s.DurationSeconds
		if t < cumulative {
			return i
		}
	}
	return len(scenes) - 1
}
