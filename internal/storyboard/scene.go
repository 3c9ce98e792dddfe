// Package storyboard implements the ordered scene timeline that defines
// playback and export order for the session.
package storyboard

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Transition string

const (
	TransitionFade      Transition = "fade"
	TransitionSlide     Transition = "slide"
	TransitionWipe      Transition = "wipe"
	TransitionCrossZoom Transition = "cross-zoom"
)

var ErrUnknownTransition = errors.New("unknown transition")

func ParseTransition(s string) (Transition, error) {
	switch Transition(s) {
	case TransitionFade, TransitionSlide, TransitionWipe, TransitionCrossZoom:
		return Transition(s), nil
	default:
		return "", ErrUnknownTransition
	}
}

const (
	DefaultDurationSeconds = 5.0

	// Floor applied when a non-positive duration is submitted. Duration edits
	// clamp rather than fail so the editing surface stays responsive.
	MinDurationSeconds = 1.0
)

// Scene is one ordered unit of the storyboard. MediaRefs and AudioRef hold
// asset ids, never the assets themselves; a reference may go dangling when
// the asset is removed from the registry.
type Scene struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Transition      Transition `json:"transition"`
	DurationSeconds float64    `json:"duration_s"`
	MediaRefs       []string   `json:"media_refs"`
	AudioRef        string     `json:"audio_ref,omitempty"`
}

func (s *Scene) clone() *Scene {
	cp := *s
	cp.MediaRefs = append([]string(nil), s.MediaRefs...)
	return &cp
}

// newScene builds a scene with defaults. The title is derived from the
// timeline length at insertion time and is never renumbered afterwards, so
// titles can drift out of sequence after reorders and removals.
func newScene(position int) *Scene {
	return &Scene{
		ID:              uuid.NewString(),
		Title:           fmt.Sprintf("Scene %d", position),
		Transition:      TransitionFade,
		DurationSeconds: DefaultDurationSeconds,
		MediaRefs:       []string{},
	}
}

// ScenePatch carries a partial scene update. Nil fields keep prior values.
type ScenePatch struct {
	Title           *string
	Description     *string
	Transition      *Transition
	DurationSeconds *float64
}
