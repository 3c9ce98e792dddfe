package api

import (
	"time"

	"github.com/storyloom/storyloom-agent/internal/asset"
	"github.com/storyloom/storyloom-agent/internal/export"
	"github.com/storyloom/storyloom-agent/internal/storyboard"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State          string         `json:"state"`
	SceneCount     int            `json:"scene_count"`
	TotalDurationS float64        `json:"total_duration_s"`
	Assets         map[string]int `json:"assets"`
	CaptureActive  bool           `json:"capture_active"`
	JobsRunning    int            `json:"jobs_running"`
}

type AssetResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	DurationS *float64 `json:"duration_s,omitempty"`
	CreatedAt string   `json:"created_at"`
}

type AssetsResponse struct {
	Assets []AssetResponse `json:"assets"`
}

type SceneResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Transition  string   `json:"transition"`
	DurationS   float64  `json:"duration_s"`
	MediaRefs   []string `json:"media_refs"`
	AudioRef    string   `json:"audio_ref,omitempty"`
}

type TimelineResponse struct {
	Scenes         []SceneResponse `json:"scenes"`
	TotalDurationS float64         `json:"total_duration_s"`
}

type UpdateSceneRequest struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Transition  *string  `json:"transition,omitempty"`
	DurationS   *float64 `json:"duration_s,omitempty"`
}

type MoveSceneRequest struct {
	Direction string `json:"direction"`
}

type ReorderRequest struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

type AssignMediaRequest struct {
	AssetID string `json:"asset_id"`
}

type AssignAudioRequest struct {
	AssetID string `json:"asset_id"`
}

type CaptureStartRequest struct {
	Name string `json:"name,omitempty"`
}

type CaptureStatusResponse struct {
	Active bool `json:"active"`
}

type ScriptResponse struct {
	Text string `json:"text"`
}

type ScriptRequest struct {
	Text string `json:"text"`
}

type PreviewSceneResponse struct {
	SceneIndex     int     `json:"scene_index"`
	SceneID        string  `json:"scene_id,omitempty"`
	TotalDurationS float64 `json:"total_duration_s"`
}

type ExportRequestBody struct {
	Resolution      string `json:"resolution"`
	Format          string `json:"format"`
	WatermarkText   string `json:"watermark_text,omitempty"`
	LogoRef         string `json:"logo_ref,omitempty"`
	IncludeBranding bool   `json:"include_branding"`
}

type ExportSubmitResponse struct {
	JobID string `json:"job_id"`
}

type ValidationErrorResponse struct {
	Error  string         `json:"error"`
	Code   string         `json:"code"`
	Issues []export.Issue `json:"issues"`
}

type JobResponse struct {
	ID         string         `json:"id"`
	State      string         `json:"state"`
	Progress   float64        `json:"progress"`
	Resolution string         `json:"resolution"`
	Format     string         `json:"format"`
	SceneCount int            `json:"scene_count"`
	Error      string         `json:"error,omitempty"`
	Result     *export.Result `json:"result,omitempty"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func AssetToResponse(a *asset.Item) AssetResponse {
	return AssetResponse{
		ID:        a.ID,
		Name:      a.Name,
		Kind:      string(a.Kind),
		DurationS: a.DurationSeconds,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}

func SceneToResponse(s *storyboard.Scene) SceneResponse {
	return SceneResponse{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Transition:  string(s.Transition),
		DurationS:   s.DurationSeconds,
		MediaRefs:   s.MediaRefs,
		AudioRef:    s.AudioRef,
	}
}

func JobToResponse(j *export.Job) JobResponse {
	resp := JobResponse{
		ID:         j.ID,
		State:      string(j.State()),
		Progress:   j.Progress(),
		Resolution: string(j.Request.Options.Resolution),
		Format:     string(j.Request.Options.Format),
		SceneCount: len(j.Request.Scenes),
		Result:     j.Result(),
		CreatedAt:  j.CreatedAt().Format(time.RFC3339),
		UpdatedAt:  j.UpdatedAt().Format(time.RFC3339),
	}
	if info := j.Error(); info != nil {
		resp.Error = info.Message
	}
	return resp
}

func JobRecordToResponse(rec *export.JobRecord) JobResponse {
	return JobResponse{
		ID:         rec.ID,
		State:      string(rec.State),
		Progress:   rec.Progress,
		Resolution: string(rec.Resolution),
		Format:     string(rec.Format),
		SceneCount: rec.SceneCount,
		Error:      rec.Error,
		CreatedAt:  rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  rec.UpdatedAt.Format(time.RFC3339),
	}
}
