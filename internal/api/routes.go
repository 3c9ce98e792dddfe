package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/storyloom/storyloom-agent/internal/asset"
	"github.com/storyloom/storyloom-agent/internal/config"
	"github.com/storyloom/storyloom-agent/internal/export"
	"github.com/storyloom/storyloom-agent/internal/preview"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Store, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Get("/assets", listAssetsHandler(cfg))
		r.Get("/assets/{kind}", listAssetsHandler(cfg))
		r.Post("/assets/{kind}", addAssetHandler(cfg))
		r.Delete("/assets/{kind}/{id}", deleteAssetHandler(cfg))
		r.Get("/assets/{kind}/{id}/content", assetContentHandler(cfg))
		r.Head("/assets/{kind}/{id}/content", assetContentHandler(cfg))

		r.Post("/capture/start", captureStartHandler(cfg))
		r.Post("/capture/stop", captureStopHandler(cfg))
		r.Get("/capture", captureStatusHandler(cfg))

		r.Get("/script", getScriptHandler(cfg))
		r.Put("/script", putScriptHandler(cfg))
		r.Post("/script/assist", assistScriptHandler(cfg))

		r.Get("/timeline", getTimelineHandler(cfg))
		r.Post("/timeline/scenes", addSceneHandler(cfg))
		r.Patch("/timeline/scenes/{id}", updateSceneHandler(cfg))
		r.Delete("/timeline/scenes/{id}", deleteSceneHandler(cfg))
		r.Post("/timeline/scenes/{id}/move", moveSceneHandler(cfg))
		r.Post("/timeline/reorder", reorderHandler(cfg))
		r.Post("/timeline/scenes/{id}/media", assignMediaHandler(cfg))
		r.Post("/timeline/scenes/{id}/audio", assignAudioHandler(cfg))

		r.Get("/preview/scene", previewSceneHandler(cfg))
		r.Get("/preview/ws", previewSocketHandler(cfg))

		r.Post("/export", submitExportHandler(cfg))
		r.Get("/export/jobs", listExportJobsHandler(cfg))
		r.Get("/export/jobs/{id}", getExportJobHandler(cfg))
		r.Post("/export/jobs/{id}/cancel", cancelExportJobHandler(cfg))
		r.Get("/export/jobs/{id}/events", jobEventsSocketHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: config.Version,
			UptimeS: uptime,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts := make(map[string]int, len(asset.Kinds))
		for _, kind := range asset.Kinds {
			counts[string(kind)] = cfg.Registry.Count(kind)
		}

		running := cfg.Exports.Running()
		state := "idle"
		if running > 0 {
			state = "exporting"
		} else if cfg.Capture.Active() {
			state = "recording"
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			State:          state,
			SceneCount:     cfg.Timeline.Len(),
			TotalDurationS: cfg.Timeline.TotalDuration(),
			Assets:         counts,
			CaptureActive:  cfg.Capture.Active(),
			JobsRunning:    running,
		})
	}
}

func getScriptHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, ScriptResponse{Text: cfg.Script.Get()})
	}
}

func putScriptHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScriptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		cfg.Script.Set(req.Text)
		WriteJSON(w, http.StatusOK, ScriptResponse{Text: cfg.Script.Get()})
	}
}

func assistScriptHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, ScriptResponse{Text: cfg.Script.Assist()})
	}
}

func previewSceneHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "t must be a number of seconds", "BAD_REQUEST")
			return
		}

		scenes := cfg.Timeline.Scenes()
		idx := preview.SceneAt(scenes, t)
		resp := PreviewSceneResponse{
			SceneIndex:     idx,
			TotalDurationS: cfg.Timeline.TotalDuration(),
		}
		if idx >= 0 {
			resp.SceneID = scenes[idx].ID
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// exportIssueStatus distinguishes a malformed request from a well-formed one
// the current session state cannot satisfy.
func exportIssueStatus(issues []export.Issue) int {
	for _, issue := range issues {
		if issue.Code == export.IssueUnknownResolution || issue.Code == export.IssueUnknownFormat {
			return http.StatusBadRequest
		}
	}
	return http.StatusUnprocessableEntity
}
