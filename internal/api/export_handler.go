package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storyloom/storyloom-agent/internal/export"
)

func submitExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequestBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		opts := export.Options{
			Resolution:      export.Resolution(req.Resolution),
			Format:          export.Format(req.Format),
			WatermarkText:   req.WatermarkText,
			LogoRef:         req.LogoRef,
			IncludeBranding: req.IncludeBranding,
		}

		job, issues := cfg.Exports.Submit(cfg.Timeline.Scenes(), opts)
		if len(issues) > 0 {
			WriteJSON(w, exportIssueStatus(issues), ValidationErrorResponse{
				Error:  "export configuration is invalid",
				Code:   "VALIDATION_FAILED",
				Issues: issues,
			})
			return
		}

		WriteJSON(w, http.StatusAccepted, ExportSubmitResponse{JobID: job.ID})
	}
}

func listExportJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs := cfg.Exports.List()
		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getExportJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		job, err := cfg.Exports.Get(id)
		if err == nil {
			WriteJSON(w, http.StatusOK, JobToResponse(job))
			return
		}
		if !errors.Is(err, export.ErrJobNotFound) {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		// The live handle can be gone while the session store still has the
		// row, so fall back before answering 404.
		rec, err := cfg.Store.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to read job history", "INTERNAL_ERROR")
			return
		}
		if rec == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, JobRecordToResponse(rec))
	}
}

func cancelExportJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := cfg.Exports.Cancel(id); err != nil {
			if errors.Is(err, export.ErrJobNotFound) {
				WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		job, err := cfg.Exports.Get(id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}
