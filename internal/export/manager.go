package export

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/storyloom/storyloom-agent/internal/asset"
	"github.com/storyloom/storyloom-agent/internal/storyboard"
)

var ErrJobNotFound = errors.New("export job not found")

// JobRecord is the flattened job row mirrored into the session store.
type JobRecord struct {
	ID         string
	State      State
	Progress   float64
	Resolution Resolution
	Format     Format
	SceneCount int
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// JobStore receives every job transition so the session keeps a queryable
// history independent of the live job handles.
type JobStore interface {
	CreateJob(ctx context.Context, rec *JobRecord) error
	UpdateJob(ctx context.Context, id string, state State, progress float64, errMsg string) error
}

// Update is one progress notification pushed to job subscribers.
type Update struct {
	JobID    string     `json:"job_id"`
	State    State      `json:"state"`
	Progress float64    `json:"progress"`
	Error    *ErrorInfo `json:"error,omitempty"`
}

// Manager owns export jobs: validation, snapshotting, the render goroutine,
// cancellation, and progress fan-out to subscribers.
type Manager struct {
	renderer Renderer
	registry *asset.Registry
	store    JobStore
	logger   *slog.Logger
	clock    func() time.Time

	mu      sync.Mutex
	jobs    map[string]*Job
	order   []string
	cancels map[string]context.CancelFunc
	subs    map[string]map[chan Update]struct{}
}

func NewManager(renderer Renderer, registry *asset.Registry, store JobStore, logger *slog.Logger) *Manager {
	return &Manager{
		renderer: renderer,
		registry: registry,
		store:    store,
		logger:   logger,
		clock:    time.Now,
		jobs:     make(map[string]*Job),
		cancels:  make(map[string]context.CancelFunc),
		subs:     make(map[string]map[chan Update]struct{}),
	}
}

// Submit validates the configuration and, if clean, creates a job, snapshots
// the timeline and options into its request, and starts rendering. On
// validation failure no job is created and every issue is returned.
func (m *Manager) Submit(scenes []*storyboard.Scene, opts Options) (*Job, []Issue) {
	if issues := Validate(scenes, opts, m.registry); len(issues) > 0 {
		return nil, issues
	}

	req := BuildRequest(scenes, opts, m.registry)
	now := m.clock()
	job := newJob(req, now)

	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)
	m.cancels[job.ID] = cancel
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.CreateJob(context.Background(), recordOf(job)); err != nil && m.logger != nil {
			m.logger.Warn("failed to record export job", "job_id", job.ID, "error", err)
		}
	}

	job.start(m.clock())
	m.persistAndPublish(job)

	if m.logger != nil {
		m.logger.Info("export submitted",
			"job_id", job.ID,
			"scenes", len(req.Scenes),
			"resolution", opts.Resolution,
			"format", opts.Format,
		)
	}

	go m.run(ctx, job)
	return job, nil
}

// Cancel stops the job's renderer and moves it to cancelled. Cancelling a
// job that is already terminal is a no-op; an unknown id reports
// ErrJobNotFound.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	job, ok := m.jobs[id]
	cancel := m.cancels[id]
	m.mu.Unlock()

	if !ok {
		return ErrJobNotFound
	}

	if job.cancel(m.clock()) {
		if cancel != nil {
			cancel()
		}
		if m.logger != nil {
			m.logger.Info("export cancelled", "job_id", id)
		}
		m.persistAndPublish(job)
		m.closeSubscribers(id)
	}
	return nil
}

// Get returns the live job handle.
func (m *Manager) Get(id string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// List returns the session's jobs, newest first.
func (m *Manager) List() []*Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Job, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		out = append(out, m.jobs[m.order[i]])
	}
	return out
}

// Running reports whether any job is currently pending or running.
func (m *Manager) Running() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, j := range m.jobs {
		if !j.State().Terminal() {
			n++
		}
	}
	return n
}

// Subscribe returns a channel of progress updates for the job, primed with
// its current state. The returned func unsubscribes; the channel closes when
// the job reaches a terminal state.
func (m *Manager) Subscribe(id string) (<-chan Update, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, nil, ErrJobNotFound
	}

	// The channel is buffered, so priming under the lock never blocks. It
	// must happen here: once the lock is released a terminal fan-out may
	// close every registered channel at any moment.
	ch := make(chan Update, 16)
	ch <- updateOf(job)

	if job.State().Terminal() {
		close(ch)
		return ch, func() {}, nil
	}

	if m.subs[id] == nil {
		m.subs[id] = make(map[chan Update]struct{})
	}
	m.subs[id][ch] = struct{}{}

	unsubscribe := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if set, ok := m.subs[id]; ok {
			if _, member := set[ch]; member {
				delete(set, ch)
				close(ch)
			}
		}
	}
	return ch, unsubscribe, nil
}

// run consumes renderer events until a terminal event, cancellation, or the
// renderer closing its channel.
func (m *Manager) run(ctx context.Context, job *Job) {
	events := make(chan Event, 16)
	go m.renderer.Render(ctx, job.Request, events)

	for ev := range events {
		switch ev.Type {
		case EventProgress:
			job.setProgress(ev.Pct, m.clock())
			m.persistAndPublish(job)

		case EventResult:
			res := &Result{
				Format:             job.Request.Options.Format,
				Resolution:         job.Request.Options.Resolution,
				EstimatedSizeBytes: EstimateSizeBytes(job.Request.Options.Resolution, job.Request.TotalDuration()),
				Manifest:           job.Request.Manifest,
			}
			if job.complete(res, m.clock()) {
				if m.logger != nil {
					m.logger.Info("export completed", "job_id", job.ID)
				}
				m.persistAndPublish(job)
				m.closeSubscribers(job.ID)
			}
			return

		case EventError:
			info := ErrorInfo{Code: "RENDER_FAILURE", Message: "render failed"}
			if ev.Err != nil {
				info = *ev.Err
			}
			if job.fail(info, m.clock()) {
				if m.logger != nil {
					m.logger.Error("export failed", "job_id", job.ID, "error", info.Message)
				}
				m.persistAndPublish(job)
				m.closeSubscribers(job.ID)
			}
			return
		}
	}
}

func (m *Manager) persistAndPublish(job *Job) {
	if m.store != nil {
		errMsg := ""
		if info := job.Error(); info != nil {
			errMsg = info.Message
		}
		if err := m.store.UpdateJob(context.Background(), job.ID, job.State(), job.Progress(), errMsg); err != nil && m.logger != nil {
			m.logger.Warn("failed to update export job record", "job_id", job.ID, "error", err)
		}
	}

	update := updateOf(job)
	m.mu.Lock()
	for ch := range m.subs[job.ID] {
		select {
		case ch <- update:
		default:
			// Slow subscriber: drop instead of blocking the job.
		}
	}
	m.mu.Unlock()
}

func (m *Manager) closeSubscribers(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for ch := range m.subs[id] {
		close(ch)
	}
	delete(m.subs, id)
}

func updateOf(job *Job) Update {
	return Update{
		JobID:    job.ID,
		State:    job.State(),
		Progress: job.Progress(),
		Error:    job.Error(),
	}
}

func recordOf(job *Job) *JobRecord {
	errMsg := ""
	if info := job.Error(); info != nil {
		errMsg = info.Message
	}
	return &JobRecord{
		ID:         job.ID,
		State:      job.State(),
		Progress:   job.Progress(),
		Resolution: job.Request.Options.Resolution,
		Format:     job.Request.Options.Format,
		SceneCount: len(job.Request.Scenes),
		Error:      errMsg,
		CreatedAt:  job.CreatedAt(),
		UpdatedAt:  job.UpdatedAt(),
	}
}
