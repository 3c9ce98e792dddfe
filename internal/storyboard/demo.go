package storyboard

import "github.com/google/uuid"

// DemoStoryboard returns the starter scenes a fresh session opens with.
func DemoStoryboard() []*Scene {
	return []*Scene{
		{
			ID:              uuid.NewString(),
			Title:           "Scene 1",
			Description:     "Hook the audience",
			Transition:      TransitionFade,
			DurationSeconds: 5,
			MediaRefs:       []string{},
		},
		{
			ID:              uuid.NewString(),
			Title:           "Scene 2",
			Description:     "Key points with visuals",
			Transition:      TransitionSlide,
			DurationSeconds: 7,
			MediaRefs:       []string{},
		},
		{
			ID:              uuid.NewString(),
			Title:           "Scene 3",
			Description:     "Summary & CTA",
			Transition:      TransitionCrossZoom,
			DurationSeconds: 6,
			MediaRefs:       []string{},
		},
	}
}
