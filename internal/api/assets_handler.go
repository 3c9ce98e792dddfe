package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/storyloom/storyloom-agent/internal/asset"
	"github.com/storyloom/storyloom-agent/internal/capture"
)

// maxUploadBytes caps a single asset upload at 512 MiB.
const maxUploadBytes = 512 << 20

type registerAssetRequest struct {
	Name      string   `json:"name"`
	SourceRef string   `json:"source_ref"`
	DurationS *float64 `json:"duration_s,omitempty"`
}

func listAssetsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kinds := asset.Kinds
		q := chi.URLParam(r, "kind")
		if q == "" {
			q = r.URL.Query().Get("kind")
		}
		if q != "" {
			kind, err := asset.ParseKind(q)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "unknown asset kind", "BAD_REQUEST")
				return
			}
			kinds = []asset.Kind{kind}
		}

		resp := AssetsResponse{Assets: []AssetResponse{}}
		for _, kind := range kinds {
			for _, item := range cfg.Registry.List(kind) {
				resp.Assets = append(resp.Assets, AssetToResponse(item))
			}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// addAssetHandler accepts either a multipart upload (bytes land in the media
// directory) or a JSON registration of an existing source reference.
func addAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := asset.ParseKind(chi.URLParam(r, "kind"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "unknown asset kind", "BAD_REQUEST")
			return
		}

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			uploadAsset(cfg, kind, w, r)
			return
		}

		var req registerAssetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Name == "" || req.SourceRef == "" {
			WriteError(w, http.StatusBadRequest, "name and source_ref are required", "BAD_REQUEST")
			return
		}

		item, err := cfg.Registry.Add(kind, req.Name, req.SourceRef, req.DurationS)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusCreated, AssetToResponse(item))
	}
}

func uploadAsset(cfg ServerConfig, kind asset.Kind, w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "file field is required", "BAD_REQUEST")
		return
	}
	defer file.Close()

	var durationS *float64
	if raw := r.FormValue("duration_s"); raw != "" {
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "duration_s must be a number", "BAD_REQUEST")
			return
		}
		durationS = &d
	}

	name := filepath.Base(header.Filename)
	dest := filepath.Join(cfg.MediaDir, asset.NewID()+"_"+name)
	out, err := os.Create(dest)
	if err != nil {
		cfg.Logger.Error("failed to create media file", "error", err, "path", dest)
		WriteError(w, http.StatusInternalServerError, "failed to store upload", "INTERNAL_ERROR")
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(dest)
		WriteError(w, http.StatusInternalServerError, "failed to store upload", "INTERNAL_ERROR")
		return
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		WriteError(w, http.StatusInternalServerError, "failed to store upload", "INTERNAL_ERROR")
		return
	}

	item, err := cfg.Registry.Add(kind, name, dest, durationS)
	if err != nil {
		os.Remove(dest)
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		return
	}
	WriteJSON(w, http.StatusCreated, AssetToResponse(item))
}

// deleteAssetHandler removes the registry entry. Scene references to the id
// are left in place and surface as dangling at export validation.
func deleteAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := asset.ParseKind(chi.URLParam(r, "kind"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "unknown asset kind", "BAD_REQUEST")
			return
		}
		cfg.Registry.Remove(kind, chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func assetContentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := asset.ParseKind(chi.URLParam(r, "kind"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "unknown asset kind", "BAD_REQUEST")
			return
		}

		item, ok := cfg.Registry.Find(kind, chi.URLParam(r, "id"))
		if !ok {
			WriteError(w, http.StatusNotFound, "asset not found", "NOT_FOUND")
			return
		}

		if err := cfg.PlaybackServer.ServeAsset(w, r, item); err != nil {
			cfg.Logger.Error("playback error", "error", err, "asset_id", item.ID)
		}
	}
}

func captureStartHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CaptureStartRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
				return
			}
		}

		if err := cfg.Capture.Start(req.Name); err != nil {
			if errors.Is(err, capture.ErrDeviceBusy) {
				WriteError(w, http.StatusConflict, "a recording is already in progress", "DEVICE_BUSY")
				return
			}
			if errors.Is(err, capture.ErrPermissionDenied) {
				WriteError(w, http.StatusForbidden, "microphone access denied", "PERMISSION_DENIED")
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusAccepted, CaptureStatusResponse{Active: true})
	}
}

func captureStopHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := cfg.Capture.Stop()
		if err != nil {
			if errors.Is(err, capture.ErrNoActiveSession) {
				WriteError(w, http.StatusConflict, "no recording in progress", "NO_ACTIVE_SESSION")
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, AssetToResponse(item))
	}
}

func captureStatusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, CaptureStatusResponse{Active: cfg.Capture.Active()})
	}
}
