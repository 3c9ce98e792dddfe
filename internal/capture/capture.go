// Package capture manages voiceover recording sessions. The capture device
// is an exclusive resource: one session at a time, released deterministically
// on stop, error, or manager close.
package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/storyloom/storyloom-agent/internal/asset"
)

var (
	// ErrDeviceBusy is returned when a session is started while another one
	// is still active. The active session is unaffected.
	ErrDeviceBusy = errors.New("capture device busy")

	// ErrPermissionDenied is returned when the device refuses access.
	ErrPermissionDenied = errors.New("capture permission denied")

	// ErrNoActiveSession is returned by Stop when nothing is recording.
	ErrNoActiveSession = errors.New("no active capture session")
)

// Device is the boundary to the actual recording hardware. Open acquires the
// device, Record drains the recorded bytes, Close releases it.
type Device interface {
	Open() error
	Record() ([]byte, error)
	Close() error
}

// Sink persists a finished recording and hands back an opaque source
// reference for the registry.
type Sink interface {
	Store(name string, data []byte) (sourceRef string, err error)
}

// Manager owns the exclusive capture session and registers every completed
// recording as an audio asset.
type Manager struct {
	device   Device
	sink     Sink
	registry *asset.Registry
	logger   *slog.Logger
	clock    func() time.Time

	mu      sync.Mutex
	active  bool
	started time.Time
	name    string
}

func NewManager(device Device, sink Sink, registry *asset.Registry, logger *slog.Logger) *Manager {
	return &Manager{
		device:   device,
		sink:     sink,
		registry: registry,
		logger:   logger,
		clock:    time.Now,
	}
}

// Start acquires the capture device. A second Start while a session is
// active fails with ErrDeviceBusy and leaves the first session untouched.
// No asset is created until the session is stopped.
func (m *Manager) Start(displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active {
		return ErrDeviceBusy
	}

	if err := m.device.Open(); err != nil {
		return fmt.Errorf("open capture device: %w", err)
	}

	m.active = true
	m.started = m.clock()
	// The display name becomes a file name in the media dir; strip any path
	// components so a crafted name cannot escape it.
	m.name = filepath.Base(displayName)
	if m.name == "" || m.name == "." || m.name == ".." || m.name == string(filepath.Separator) {
		m.name = fmt.Sprintf("voiceover-%d.webm", m.started.UnixMilli())
	}

	if m.logger != nil {
		m.logger.Info("capture started", "name", m.name)
	}
	return nil
}

// Stop ends the active session, releases the device and registers the
// recording as an audio asset. The device is released even when recording or
// storage fails; in that case no asset is created.
func (m *Manager) Stop() (*asset.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return nil, ErrNoActiveSession
	}

	data, recErr := m.device.Record()
	closeErr := m.device.Close()
	elapsed := m.clock().Sub(m.started).Seconds()
	name := m.name
	m.active = false

	if recErr != nil {
		return nil, fmt.Errorf("capture failed: %w", recErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("release capture device: %w", closeErr)
	}

	sourceRef, err := m.sink.Store(name, data)
	if err != nil {
		return nil, fmt.Errorf("store recording: %w", err)
	}

	item, err := m.registry.Add(asset.KindAudio, name, sourceRef, &elapsed)
	if err != nil {
		return nil, err
	}

	if m.logger != nil {
		m.logger.Info("capture stopped", "name", name, "duration_s", elapsed, "asset_id", item.ID)
	}
	return item, nil
}

// Active reports whether a session is currently recording.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Close releases the device if a session is still active. Used on teardown.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return nil
	}
	m.active = false
	return m.device.Close()
}
