package capture

import (
	"log/slog"
	"os"
	"path/filepath"
)

// StubDevice stands in for real microphone hardware (v0 does not talk to an
// OS capture API). It yields a fixed synthetic payload.
type StubDevice struct {
	logger *slog.Logger
	open   bool
}

func NewStubDevice(logger *slog.Logger) *StubDevice {
	return &StubDevice{logger: logger}
}

func (d *StubDevice) Open() error {
	if d.logger != nil {
		d.logger.Info("capture stub: device opened")
	}
	d.open = true
	return nil
}

func (d *StubDevice) Record() ([]byte, error) {
	// 1KiB of silence.
	return make([]byte, 1024), nil
}

func (d *StubDevice) Close() error {
	if d.logger != nil {
		d.logger.Info("capture stub: device released")
	}
	d.open = false
	return nil
}

// FileSink writes recordings into the session media directory.
type FileSink struct {
	dir string
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

func (s *FileSink) Store(name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
