package export

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// terminal states absorb: no transition leaves them
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// ErrorInfo describes a render failure attached to a failed job.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result describes the rendered artifact of a completed job.
type Result struct {
	Format             Format          `json:"format"`
	Resolution         Resolution      `json:"resolution"`
	EstimatedSizeBytes int64           `json:"estimated_size_bytes,omitempty"`
	Manifest           []ManifestEntry `json:"manifest"`
}

// Job tracks one export through its lifecycle. Progress is monotonically
// non-decreasing; state only moves forward:
//
//	pending -> running -> completed | failed
//	pending | running -> cancelled
type Job struct {
	ID      string
	Request *Request

	mu        sync.RWMutex
	state     State
	progress  float64
	result    *Result
	errInfo   *ErrorInfo
	createdAt time.Time
	updatedAt time.Time
}

func newJob(req *Request, now time.Time) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Request:   req,
		state:     StatePending,
		createdAt: now,
		updatedAt: now,
	}
}

func (j *Job) State() State {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

func (j *Job) Progress() float64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.progress
}

func (j *Job) Result() *Result {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.result
}

func (j *Job) Error() *ErrorInfo {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.errInfo
}

func (j *Job) CreatedAt() time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.createdAt
}

func (j *Job) UpdatedAt() time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.updatedAt
}

// start moves pending -> running.
func (j *Job) start(now time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state != StatePending {
		return false
	}
	j.state = StateRunning
	j.updatedAt = now
	return true
}

// setProgress publishes pct, keeping the published value monotonic. Ignored
// once the job is terminal.
func (j *Job) setProgress(pct float64, now time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state.Terminal() {
		return
	}
	if pct < j.progress {
		return
	}
	if pct > 1 {
		pct = 1
	}
	j.progress = pct
	j.updatedAt = now
}

// complete moves running -> completed with the result descriptor.
func (j *Job) complete(res *Result, now time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state != StateRunning {
		return false
	}
	j.state = StateCompleted
	j.progress = 1
	j.result = res
	j.updatedAt = now
	return true
}

// fail moves pending|running -> failed with the attached error.
func (j *Job) fail(info ErrorInfo, now time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state.Terminal() {
		return false
	}
	j.state = StateFailed
	j.errInfo = &info
	j.updatedAt = now
	return true
}

// cancel moves pending|running -> cancelled.
func (j *Job) cancel(now time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state.Terminal() {
		return false
	}
	j.state = StateCancelled
	j.updatedAt = now
	return true
}
