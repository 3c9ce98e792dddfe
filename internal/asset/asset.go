// Package asset holds the session's media library: images, video clips,
// audio tracks and branding logos, keyed by id within their kind.
package asset

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindLogo  Kind = "logo"
)

// Kinds lists every valid kind in display order.
var Kinds = []Kind{KindImage, KindVideo, KindAudio, KindLogo}

var ErrUnknownKind = errors.New("unknown asset kind")

// ParseKind validates a kind string coming from the API boundary.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindImage, KindVideo, KindAudio, KindLogo:
		return Kind(s), nil
	default:
		return "", ErrUnknownKind
	}
}

// Item is a registered media resource. Immutable after creation; scenes hold
// references to its ID, never the item itself.
type Item struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Kind            Kind      `json:"kind"`
	SourceRef       string    `json:"source_ref"`
	DurationSeconds *float64  `json:"duration_s,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewID() string {
	return uuid.NewString()
}
