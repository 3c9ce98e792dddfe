package playback

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/storyloom/storyloom-agent/internal/asset"
)

func writeAsset(t *testing.T, content string) *asset.Item {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write asset content: %v", err)
	}
	return &asset.Item{ID: "a1", Name: "clip.mp4", Kind: asset.KindVideo, SourceRef: path}
}

func TestServeAsset_FullContent(t *testing.T) {
	item := writeAsset(t, "0123456789")
	s := NewServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/assets/video/a1/content", nil)
	rr := httptest.NewRecorder()

	if err := s.ServeAsset(rr, req, item); err != nil {
		t.Fatalf("ServeAsset() error = %v", err)
	}
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if rr.Body.String() != "0123456789" {
		t.Errorf("body = %q", rr.Body.String())
	}
	if got := rr.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges = %q", got)
	}
	if got := rr.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestServeAsset_PartialContent(t *testing.T) {
	item := writeAsset(t, "0123456789")
	s := NewServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/assets/video/a1/content", nil)
	req.Header.Set("Range", "bytes=2-5")
	rr := httptest.NewRecorder()

	if err := s.ServeAsset(rr, req, item); err != nil {
		t.Fatalf("ServeAsset() error = %v", err)
	}
	if rr.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rr.Code)
	}
	if rr.Body.String() != "2345" {
		t.Errorf("body = %q, want 2345", rr.Body.String())
	}
	if got := rr.Header().Get("Content-Range"); got != "bytes 2-5/10" {
		t.Errorf("Content-Range = %q", got)
	}
}

func TestServeAsset_UnsatisfiableRange(t *testing.T) {
	item := writeAsset(t, "0123456789")
	s := NewServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/assets/video/a1/content", nil)
	req.Header.Set("Range", "bytes=100-")
	rr := httptest.NewRecorder()

	if err := s.ServeAsset(rr, req, item); err != nil {
		t.Fatalf("ServeAsset() error = %v", err)
	}
	if rr.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("status = %d, want 416", rr.Code)
	}
}

func TestServeAsset_MissingBytes(t *testing.T) {
	item := &asset.Item{ID: "a1", Name: "gone.mp4", Kind: asset.KindVideo, SourceRef: "/nonexistent/gone.mp4"}
	s := NewServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/assets/video/a1/content", nil)
	rr := httptest.NewRecorder()

	if err := s.ServeAsset(rr, req, item); err != nil {
		t.Fatalf("ServeAsset() error = %v", err)
	}
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}
