package export

import (
	"fmt"

	"github.com/storyloom/storyloom-agent/internal/asset"
	"github.com/storyloom/storyloom-agent/internal/storyboard"
)

// Issue is one reason an export submission is blocked. Validation reports
// every issue it finds, not just the first.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	SceneID string `json:"scene_id,omitempty"`
	AssetID string `json:"asset_id,omitempty"`
}

const (
	IssueEmptyTimeline     = "EMPTY_TIMELINE"
	IssueInvalidDuration   = "INVALID_DURATION"
	IssueUnknownResolution = "UNKNOWN_RESOLUTION"
	IssueUnknownFormat     = "UNKNOWN_FORMAT"
	IssueDanglingLogo      = "DANGLING_LOGO"
	IssueLogoWrongKind     = "LOGO_WRONG_KIND"
	IssueDanglingMediaRef  = "DANGLING_MEDIA_REF"
	IssueDanglingAudioRef  = "DANGLING_AUDIO_REF"
)

// Validate checks a timeline snapshot and options against the registry.
// An empty result means the export may be submitted.
func Validate(scenes []*storyboard.Scene, opts Options, reg *asset.Registry) []Issue {
	var issues []Issue

	if len(scenes) == 0 {
		issues = append(issues, Issue{
			Code:    IssueEmptyTimeline,
			Message: "timeline has no scenes",
		})
	}

	if _, err := ParseResolution(string(opts.Resolution)); err != nil {
		issues = append(issues, Issue{
			Code:    IssueUnknownResolution,
			Message: fmt.Sprintf("unknown resolution %q", opts.Resolution),
		})
	}
	if _, err := ParseFormat(string(opts.Format)); err != nil {
		issues = append(issues, Issue{
			Code:    IssueUnknownFormat,
			Message: fmt.Sprintf("unknown format %q", opts.Format),
		})
	}

	if opts.LogoRef != "" {
		if _, ok := reg.Find(asset.KindLogo, opts.LogoRef); !ok {
			if _, anyKind := reg.FindAny(opts.LogoRef); anyKind {
				issues = append(issues, Issue{
					Code:    IssueLogoWrongKind,
					Message: fmt.Sprintf("logo_ref %s is not a logo asset", opts.LogoRef),
					AssetID: opts.LogoRef,
				})
			} else {
				issues = append(issues, Issue{
					Code:    IssueDanglingLogo,
					Message: fmt.Sprintf("logo_ref %s does not resolve", opts.LogoRef),
					AssetID: opts.LogoRef,
				})
			}
		}
	}

	for _, s := range scenes {
		// Durations are clamped at the mutation boundary; re-check anyway so
		// a bad snapshot can never reach a renderer.
		if s.DurationSeconds <= 0 {
			issues = append(issues, Issue{
				Code:    IssueInvalidDuration,
				Message: fmt.Sprintf("scene %q has non-positive duration", s.Title),
				SceneID: s.ID,
			})
		}
		for _, ref := range s.MediaRefs {
			if _, ok := reg.FindAny(ref); !ok {
				issues = append(issues, Issue{
					Code:    IssueDanglingMediaRef,
					Message: fmt.Sprintf("scene %q references removed media %s", s.Title, ref),
					SceneID: s.ID,
					AssetID: ref,
				})
			}
		}
		if s.AudioRef != "" {
			if _, ok := reg.Find(asset.KindAudio, s.AudioRef); !ok {
				issues = append(issues, Issue{
					Code:    IssueDanglingAudioRef,
					Message: fmt.Sprintf("scene %q references removed audio %s", s.Title, s.AudioRef),
					SceneID: s.ID,
					AssetID: s.AudioRef,
				})
			}
		}
	}

	return issues
}

// ManifestEntry pairs a scene with its resolved assets, in timeline order.
type ManifestEntry struct {
	Scene    *storyboard.Scene `json:"scene"`
	Media    []*asset.Item     `json:"media"`
	Audio    *asset.Item       `json:"audio,omitempty"`
	Dangling []string          `json:"dangling_refs,omitempty"`
}

// Request is the validated, immutable snapshot handed to the renderer.
// Timeline and registry mutations after submission never reach it.
type Request struct {
	Scenes   []*storyboard.Scene `json:"scenes"`
	Options  Options             `json:"options"`
	Logo     *asset.Item         `json:"logo,omitempty"`
	Manifest []ManifestEntry     `json:"manifest"`
}

// TotalDuration sums the snapshot's scene durations.
func (r *Request) TotalDuration() float64 {
	var total float64
	for _, s := range r.Scenes {
		total += s.DurationSeconds
	}
	return total
}

// BuildRequest deep-copies the scene snapshot and resolves every asset
// reference into the manifest. Unresolvable references are recorded rather
// than dropped; validation has already rejected them for submission, so the
// resolver only sees them when tolerating a race with asset removal.
func BuildRequest(scenes []*storyboard.Scene, opts Options, reg *asset.Registry) *Request {
	req := &Request{Options: opts}
	req.Options.WatermarkText = SanitizeName(opts.WatermarkText, 120)

	if opts.LogoRef != "" {
		if logo, ok := reg.Find(asset.KindLogo, opts.LogoRef); ok {
			req.Logo = logo
		}
	}

	for _, s := range scenes {
		cp := *s
		cp.MediaRefs = append([]string(nil), s.MediaRefs...)
		req.Scenes = append(req.Scenes, &cp)

		entry := ManifestEntry{Scene: &cp}
		for _, ref := range cp.MediaRefs {
			if item, ok := reg.FindAny(ref); ok {
				entry.Media = append(entry.Media, item)
			} else {
				entry.Dangling = append(entry.Dangling, ref)
			}
		}
		if cp.AudioRef != "" {
			if item, ok := reg.Find(asset.KindAudio, cp.AudioRef); ok {
				entry.Audio = item
			} else {
				entry.Dangling = append(entry.Dangling, cp.AudioRef)
			}
		}
		req.Manifest = append(req.Manifest, entry)
	}

	return req
}

// EstimateSizeBytes is a coarse artifact size guess from resolution and
// duration, for the result descriptor only.
func EstimateSizeBytes(res Resolution, durationSeconds float64) int64 {
	pixels, ok := resolutionPixels[res]
	if !ok || durationSeconds <= 0 {
		return 0
	}
	// Assume ~0.05 bits per pixel at 30fps, divided down to bytes.
	bitsPerSecond := float64(pixels) * 30 * 0.05
	return int64(bitsPerSecond * durationSeconds / 8)
}
