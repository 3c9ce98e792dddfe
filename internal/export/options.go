// Package export validates an export configuration against the timeline and
// asset registry, snapshots both into an immutable request, and drives the
// resulting job through its lifecycle.
package export

import "errors"

type Resolution string

const (
	Resolution720p  Resolution = "720p"
	Resolution1080p Resolution = "1080p"
	Resolution4K    Resolution = "4k"
)

type Format string

const (
	FormatMP4 Format = "mp4"
	FormatMOV Format = "mov"
)

var (
	ErrUnknownResolution = errors.New("unknown resolution")
	ErrUnknownFormat     = errors.New("unknown format")
)

func ParseResolution(s string) (Resolution, error) {
	switch Resolution(s) {
	case Resolution720p, Resolution1080p, Resolution4K:
		return Resolution(s), nil
	default:
		return "", ErrUnknownResolution
	}
}

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatMP4, FormatMOV:
		return Format(s), nil
	default:
		return "", ErrUnknownFormat
	}
}

// pixels per frame, used for the size estimate
var resolutionPixels = map[Resolution]int64{
	Resolution720p:  1280 * 720,
	Resolution1080p: 1920 * 1080,
	Resolution4K:    3840 * 2160,
}

// Options is the export configuration. It is a value object: Submit copies
// it, so later edits by the caller never reach a running job.
type Options struct {
	Resolution      Resolution `json:"resolution"`
	Format          Format     `json:"format"`
	WatermarkText   string     `json:"watermark_text"`
	LogoRef         string     `json:"logo_ref,omitempty"`
	IncludeBranding bool       `json:"include_branding"`
}
