package playback

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/storyloom/storyloom-agent/internal/asset"
)

// Service serves the bytes behind an asset's source reference.
type Service interface {
	ServeAsset(w http.ResponseWriter, r *http.Request, item *asset.Item) error
}

type Server struct {
	logger *slog.Logger
}

func NewServer(logger *slog.Logger) *Server {
	return &Server{logger: logger}
}

// ServeAsset streams the asset content, honoring a Range header. The source
// reference is treated as an opaque path into the session media directory;
// a reference whose bytes are gone answers 404 without touching the registry.
func (s *Server) ServeAsset(w http.ResponseWriter, r *http.Request, item *asset.Item) error {
	file, err := os.Open(item.SourceRef)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "asset content not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open asset content: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat asset content: %w", err)
	}

	size := stat.Size()
	contentType := mime.TypeByExtension(filepath.Ext(item.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	byteRange, err := ParseRange(r.Header.Get("Range"), size)

	if err == ErrUnsatisfiable {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	}

	// A malformed Range header falls back to serving the full asset.
	if err != nil && err != ErrInvalidRange {
		return err
	}

	if byteRange == nil || err == ErrInvalidRange {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return nil
		}
		_, err = io.Copy(w, file)
		return err
	}

	if _, err := file.Seek(byteRange.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek asset content: %w", err)
	}

	w.Header().Set("Content-Range", byteRange.ContentRange(size))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", byteRange.ContentLength()))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method == http.MethodHead {
		return nil
	}

	_, err = io.CopyN(w, file, byteRange.ContentLength())
	return err
}
