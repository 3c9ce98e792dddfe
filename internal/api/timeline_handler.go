package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storyloom/storyloom-agent/internal/storyboard"
)

func getTimelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, timelineResponse(cfg))
	}
}

func addSceneHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scene := cfg.Timeline.AddScene()
		WriteJSON(w, http.StatusCreated, SceneToResponse(scene))
	}
}

func updateSceneHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateSceneRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		patch := storyboard.ScenePatch{
			Title:           req.Title,
			Description:     req.Description,
			DurationSeconds: req.DurationS,
		}
		if req.Transition != nil {
			transition, err := storyboard.ParseTransition(*req.Transition)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "unknown transition", "BAD_REQUEST")
				return
			}
			patch.Transition = &transition
		}

		cfg.Timeline.UpdateScene(chi.URLParam(r, "id"), patch)
		WriteJSON(w, http.StatusOK, timelineResponse(cfg))
	}
}

func deleteSceneHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Timeline.RemoveScene(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func moveSceneHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MoveSceneRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var dir storyboard.Direction
		switch storyboard.Direction(req.Direction) {
		case storyboard.DirectionUp, storyboard.DirectionDown:
			dir = storyboard.Direction(req.Direction)
		default:
			WriteError(w, http.StatusBadRequest, "direction must be up or down", "BAD_REQUEST")
			return
		}

		id := chi.URLParam(r, "id")
		for i, scene := range cfg.Timeline.Scenes() {
			if scene.ID == id {
				cfg.Timeline.MoveAdjacent(i, dir)
				break
			}
		}
		WriteJSON(w, http.StatusOK, timelineResponse(cfg))
	}
}

func reorderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReorderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.SourceID == "" || req.TargetID == "" {
			WriteError(w, http.StatusBadRequest, "source_id and target_id are required", "BAD_REQUEST")
			return
		}

		cfg.Timeline.MoveTo(req.SourceID, req.TargetID)
		WriteJSON(w, http.StatusOK, timelineResponse(cfg))
	}
}

func assignMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AssignMediaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.AssetID == "" {
			WriteError(w, http.StatusBadRequest, "asset_id is required", "BAD_REQUEST")
			return
		}

		cfg.Timeline.AssignMedia(chi.URLParam(r, "id"), req.AssetID)
		WriteJSON(w, http.StatusOK, timelineResponse(cfg))
	}
}

func assignAudioHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AssignAudioRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.AssetID == "" {
			WriteError(w, http.StatusBadRequest, "asset_id is required", "BAD_REQUEST")
			return
		}

		cfg.Timeline.AssignAudio(chi.URLParam(r, "id"), req.AssetID)
		WriteJSON(w, http.StatusOK, timelineResponse(cfg))
	}
}

func timelineResponse(cfg ServerConfig) TimelineResponse {
	scenes := cfg.Timeline.Scenes()
	resp := TimelineResponse{
		Scenes:         make([]SceneResponse, len(scenes)),
		TotalDurationS: cfg.Timeline.TotalDuration(),
	}
	for i, s := range scenes {
		resp.Scenes[i] = SceneToResponse(s)
	}
	return resp
}
