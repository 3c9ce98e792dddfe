package storyboard

import "sync"

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Timeline is the ordered sequence of scenes. All mutations go through the
// single mutex so concurrent callers see each operation as atomic; reads hand
// out deep copies, never live slices.
//
// Keyboard and drag-and-drop reordering in a client are expected to route
// through MoveAdjacent and MoveTo respectively, so both input paths share the
// exact same ordering semantics.
type Timeline struct {
	mu     sync.Mutex
	scenes []*Scene
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

// Seed replaces the timeline content. Used once at startup to install the
// initial demo storyboard.
func (t *Timeline) Seed(scenes []*Scene) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.scenes = t.scenes[:0]
	for _, s := range scenes {
		t.scenes = append(t.scenes, s.clone())
	}
}

// AddScene appends a scene with a fresh id, default transition and duration,
// and a title numbered from the current length.
func (t *Timeline) AddScene() *Scene {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := newScene(len(t.scenes) + 1)
	t.scenes = append(t.scenes, s)
	return s.clone()
}

// RemoveScene deletes the scene by id. Removing an absent id is a no-op.
// Asset references held by the scene are dropped with it; the assets stay
// in the registry.
func (t *Timeline) RemoveScene(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, s := range t.scenes {
		if s.ID == id {
			t.scenes = append(t.scenes[:i], t.scenes[i+1:]...)
			return
		}
	}
}

// MoveAdjacent moves the scene at index one slot up or down. Moving the first
// scene up or the last scene down clamps to a no-op.
func (t *Timeline) MoveAdjacent(index int, dir Direction) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= len(t.scenes) {
		return
	}

	target := index
	switch dir {
	case DirectionUp:
		target = index - 1
	case DirectionDown:
		target = index + 1
	default:
		return
	}
	if target < 0 || target >= len(t.scenes) {
		return
	}

	t.scenes[index], t.scenes[target] = t.scenes[target], t.scenes[index]
}

// MoveTo removes the scene with sourceID and reinserts it at the slot
// currently occupied by targetID, shifting the scenes in between. This is the
// drag-and-drop primitive. Missing ids or source == target are no-ops.
func (t *Timeline) MoveTo(sourceID, targetID string) {
	if sourceID == targetID {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	from, to := -1, -1
	for i, s := range t.scenes {
		switch s.ID {
		case sourceID:
			from = i
		case targetID:
			to = i
		}
	}
	if from == -1 || to == -1 {
		return
	}

	moved := t.scenes[from]
	t.scenes = append(t.scenes[:from], t.scenes[from+1:]...)
	t.scenes = append(t.scenes[:to], append([]*Scene{moved}, t.scenes[to:]...)...)
}

// UpdateScene merges the patch into the scene. Non-positive durations clamp
// to MinDurationSeconds; the other fields are taken as provided. Updating an
// absent id is a no-op.
func (t *Timeline) UpdateScene(id string, patch ScenePatch) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.findLocked(id)
	if s == nil {
		return
	}

	if patch.Title != nil {
		s.Title = *patch.Title
	}
	if patch.Description != nil {
		s.Description = *patch.Description
	}
	if patch.Transition != nil {
		s.Transition = *patch.Transition
	}
	if patch.DurationSeconds != nil {
		d := *patch.DurationSeconds
		if d <= 0 {
			d = MinDurationSeconds
		}
		s.DurationSeconds = d
	}
}

// AssignMedia appends the asset id to the scene's media references.
// Duplicates are allowed; appearance order is insertion order.
func (t *Timeline) AssignMedia(sceneID, assetID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s := t.findLocked(sceneID); s != nil {
		s.MediaRefs = append(s.MediaRefs, assetID)
	}
}

// AssignAudio replaces the scene's voiceover reference. Last write wins.
func (t *Timeline) AssignAudio(sceneID, assetID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s := t.findLocked(sceneID); s != nil {
		s.AudioRef = assetID
	}
}

// TotalDuration sums the scene durations. Always recomputed from the current
// order, never cached.
func (t *Timeline) TotalDuration() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var total float64
	for _, s := range t.scenes {
		total += s.DurationSeconds
	}
	return total
}

// Len returns the number of scenes.
func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.scenes)
}

// Scenes returns a deep copy of the current scene order.
func (t *Timeline) Scenes() []*Scene {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*Scene, len(t.scenes))
	for i, s := range t.scenes {
		out[i] = s.clone()
	}
	return out
}

func (t *Timeline) findLocked(id string) *Scene {
	for _, s := range t.scenes {
		if s.ID == id {
			return s
		}
	}
	return nil
}
