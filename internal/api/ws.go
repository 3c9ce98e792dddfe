package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

// The agent binds to loopback only, so cross-origin upgrades from the local
// UI are accepted.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// jobEventsSocketHandler streams a job's progress updates over a websocket.
// The stream is primed with the current state and ends with a close frame
// once the job reaches a terminal state.
func jobEventsSocketHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		updates, unsubscribe, err := cfg.Exports.Subscribe(id)
		if err != nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}
		defer unsubscribe()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			cfg.Logger.Error("websocket upgrade failed", "error", err, "job_id", id)
			return
		}
		defer conn.Close()

		done := watchClose(conn)

		for {
			select {
			case update, ok := <-updates:
				if !ok {
					deadline := time.Now().Add(wsWriteTimeout)
					conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"),
						deadline)
					return
				}
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(update); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}
}

// previewSocketHandler streams playback frames for the current timeline.
// Connecting starts a fresh run from zero; an existing run is superseded.
func previewSocketHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			cfg.Logger.Error("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		frames := cfg.Player.Play(ctx)
		done := watchClose(conn)

		for {
			select {
			case frame, ok := <-frames:
				if !ok {
					deadline := time.Now().Add(wsWriteTimeout)
					conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "playback finished"),
						deadline)
					return
				}
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(frame); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}
}

// watchClose drains incoming frames so close messages are processed, and
// signals when the peer goes away.
func watchClose(conn *websocket.Conn) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return done
}
