package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/storyloom/storyloom-agent/internal/asset"
	"github.com/storyloom/storyloom-agent/internal/capture"
	"github.com/storyloom/storyloom-agent/internal/db"
	"github.com/storyloom/storyloom-agent/internal/export"
	"github.com/storyloom/storyloom-agent/internal/playback"
	"github.com/storyloom/storyloom-agent/internal/preview"
	"github.com/storyloom/storyloom-agent/internal/script"
	"github.com/storyloom/storyloom-agent/internal/storyboard"
)

const testToken = "test-token"

type testEnv struct {
	server *httptest.Server
	cfg    ServerConfig
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	database, err := db.New(db.MemoryDSN, logger)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := db.NewStore(database.Conn())
	if err := store.SetConfig(context.Background(), "auth_token", testToken); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	registry := asset.NewRegistry()
	timeline := storyboard.NewTimeline()
	timeline.Seed(storyboard.DemoStoryboard())

	mediaDir := t.TempDir()
	captureMgr := capture.NewManager(
		capture.NewStubDevice(logger),
		capture.NewFileSink(mediaDir),
		registry,
		logger,
	)

	renderer := export.NewSimRenderer(time.Millisecond, 5*time.Millisecond, logger)
	exports := export.NewManager(renderer, registry, store, logger)

	cfg := ServerConfig{
		Port:           0,
		MediaDir:       mediaDir,
		Registry:       registry,
		Timeline:       timeline,
		Script:         script.NewEditor(),
		Capture:        captureMgr,
		Player:         preview.NewPlayer(timeline, time.Millisecond, logger),
		PlaybackServer: playback.NewServer(logger),
		Exports:        exports,
		Store:          store,
		Logger:         logger,
		StartTime:      time.Now(),
	}

	server := httptest.NewServer(NewRouter(cfg))
	t.Cleanup(server.Close)

	return &testEnv{server: server, cfg: cfg}
}

// do issues an authenticated request against the test server and decodes the
// JSON response into out (when out is non-nil).
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, out interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+testToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp
}

func (e *testEnv) registerAsset(t *testing.T, kind, name string) AssetResponse {
	t.Helper()

	var created AssetResponse
	resp := e.do(t, http.MethodPost, "/assets/"+kind,
		registerAssetRequest{Name: name, SourceRef: "/nonexistent/" + name}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register asset status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	return created
}
