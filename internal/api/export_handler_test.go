package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/storyloom/storyloom-agent/internal/export"
)

func submitDemoExport(t *testing.T, env *testEnv) string {
	t.Helper()

	var submitted ExportSubmitResponse
	resp := env.do(t, http.MethodPost, "/export", ExportRequestBody{
		Resolution: "1080p",
		Format:     "mp4",
	}, &submitted)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("submit status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}
	return submitted.JobID
}

func waitForTerminal(t *testing.T, env *testEnv, jobID string) JobResponse {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("job did not reach a terminal state in time")
		default:
		}

		var job JobResponse
		env.do(t, http.MethodGet, "/export/jobs/"+jobID, nil, &job)
		switch export.State(job.State) {
		case export.StateCompleted, export.StateFailed, export.StateCancelled:
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestExport_HappyPath(t *testing.T) {
	env := newTestEnv(t)

	jobID := submitDemoExport(t, env)
	job := waitForTerminal(t, env, jobID)

	if export.State(job.State) != export.StateCompleted {
		t.Fatalf("State = %q, want %q (error: %s)", job.State, export.StateCompleted, job.Error)
	}
	if job.Progress != 1 {
		t.Errorf("Progress = %v, want 1", job.Progress)
	}
	if job.Result == nil {
		t.Fatal("Result is nil for a completed job")
	}
	if job.Result.EstimatedSizeBytes <= 0 {
		t.Errorf("EstimatedSizeBytes = %d, want > 0", job.Result.EstimatedSizeBytes)
	}
	if job.SceneCount != 3 {
		t.Errorf("SceneCount = %d, want 3", job.SceneCount)
	}
}

func TestExport_UnknownResolutionIsBadRequest(t *testing.T) {
	env := newTestEnv(t)

	var failure ValidationErrorResponse
	resp := env.do(t, http.MethodPost, "/export", ExportRequestBody{
		Resolution: "8k",
		Format:     "mp4",
	}, &failure)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if len(failure.Issues) == 0 || failure.Issues[0].Code != export.IssueUnknownResolution {
		t.Fatalf("Issues = %+v, want UNKNOWN_RESOLUTION", failure.Issues)
	}
}

func TestExport_DanglingLogoIsUnprocessable(t *testing.T) {
	env := newTestEnv(t)

	var failure ValidationErrorResponse
	resp := env.do(t, http.MethodPost, "/export", ExportRequestBody{
		Resolution: "720p",
		Format:     "mov",
		LogoRef:    "no-such-asset",
	}, &failure)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}

	found := false
	for _, issue := range failure.Issues {
		if issue.Code == export.IssueDanglingLogo && issue.AssetID == "no-such-asset" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Issues = %+v, want DANGLING_LOGO naming the asset", failure.Issues)
	}
}

func TestExport_ListNewestFirst(t *testing.T) {
	env := newTestEnv(t)

	first := submitDemoExport(t, env)
	waitForTerminal(t, env, first)
	second := submitDemoExport(t, env)
	waitForTerminal(t, env, second)

	var jobs JobsResponse
	env.do(t, http.MethodGet, "/export/jobs", nil, &jobs)
	if len(jobs.Jobs) != 2 {
		t.Fatalf("len(Jobs) = %d, want 2", len(jobs.Jobs))
	}
	if jobs.Jobs[0].ID != second || jobs.Jobs[1].ID != first {
		t.Fatalf("job order = %s, %s; want newest first", jobs.Jobs[0].ID, jobs.Jobs[1].ID)
	}
}

func TestExport_GetUnknownJob(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/export/jobs/nope", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestExport_CancelUnknownJob(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/export/jobs/nope/cancel", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestExport_EventsSocketStreamsToTerminal(t *testing.T) {
	env := newTestEnv(t)

	jobID := submitDemoExport(t, env)

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") +
		"/export/jobs/" + jobID + "/events?token=" + testToken
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var lastProgress float64 = -1
	sawTerminal := false
	for {
		var update export.Update
		if err := conn.ReadJSON(&update); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				break
			}
			t.Fatalf("read update: %v", err)
		}

		if update.JobID != jobID {
			t.Fatalf("JobID = %q, want %q", update.JobID, jobID)
		}
		if update.Progress < lastProgress {
			t.Fatalf("progress regressed: %v after %v", update.Progress, lastProgress)
		}
		lastProgress = update.Progress

		if update.State.Terminal() {
			sawTerminal = true
			break
		}
	}

	if !sawTerminal && lastProgress < 0 {
		t.Fatal("socket closed before any update arrived")
	}
}

func TestExport_SnapshotSurvivesTimelineEdit(t *testing.T) {
	env := newTestEnv(t)

	var tl TimelineResponse
	env.do(t, http.MethodGet, "/timeline", nil, &tl)

	jobID := submitDemoExport(t, env)

	// Gutting the timeline while the job runs must not affect its snapshot.
	for _, scene := range tl.Scenes {
		env.do(t, http.MethodDelete, "/timeline/scenes/"+scene.ID, nil, nil)
	}

	job := waitForTerminal(t, env, jobID)
	if export.State(job.State) != export.StateCompleted {
		t.Fatalf("State = %q, want completed", job.State)
	}
	if job.SceneCount != 3 {
		t.Errorf("SceneCount = %d, want the snapshotted 3", job.SceneCount)
	}
}
