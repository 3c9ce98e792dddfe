package export

import (
	"testing"
	"time"
)

func pendingJob() *Job {
	return newJob(&Request{Options: Options{Resolution: Resolution720p, Format: FormatMP4}}, time.Now())
}

func TestJob_Lifecycle(t *testing.T) {
	j := pendingJob()
	now := time.Now()

	if j.State() != StatePending {
		t.Fatalf("new job state = %s, want pending", j.State())
	}
	if !j.start(now) {
		t.Fatal("start from pending should succeed")
	}
	if j.State() != StateRunning {
		t.Fatalf("state = %s, want running", j.State())
	}
	if !j.complete(&Result{}, now) {
		t.Fatal("complete from running should succeed")
	}
	if j.Progress() != 1 {
		t.Errorf("completed progress = %v, want 1", j.Progress())
	}
}

func TestJob_TerminalStatesAbsorb(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name string
		prep func(*Job)
	}{
		{"completed", func(j *Job) { j.start(now); j.complete(&Result{}, now) }},
		{"failed", func(j *Job) { j.start(now); j.fail(ErrorInfo{Message: "x"}, now) }},
		{"cancelled", func(j *Job) { j.cancel(now) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			j := pendingJob()
			tc.prep(j)
			terminal := j.State()

			if j.start(now) || j.complete(&Result{}, now) || j.fail(ErrorInfo{}, now) || j.cancel(now) {
				t.Error("no transition may leave a terminal state")
			}
			if j.State() != terminal {
				t.Errorf("state changed from %s to %s", terminal, j.State())
			}
		})
	}
}

func TestJob_CancelFromPendingAndRunning(t *testing.T) {
	now := time.Now()

	j := pendingJob()
	if !j.cancel(now) {
		t.Error("cancel from pending should succeed")
	}

	j = pendingJob()
	j.start(now)
	if !j.cancel(now) {
		t.Error("cancel from running should succeed")
	}
}

func TestJob_ProgressClampedAndMonotonic(t *testing.T) {
	now := time.Now()
	j := pendingJob()
	j.start(now)

	j.setProgress(0.6, now)
	j.setProgress(0.3, now)
	if j.Progress() != 0.6 {
		t.Errorf("progress = %v, regression must be ignored", j.Progress())
	}

	j.setProgress(7, now)
	if j.Progress() != 1 {
		t.Errorf("progress = %v, want clamp to 1", j.Progress())
	}
}

func TestJob_ProgressIgnoredAfterTerminal(t *testing.T) {
	now := time.Now()
	j := pendingJob()
	j.cancel(now)

	j.setProgress(0.9, now)
	if j.Progress() != 0 {
		t.Errorf("progress = %v after cancel, want 0", j.Progress())
	}
}
