package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"

	"github.com/framefarm/framefarm/internal/config"
	"github.com/framefarm/framefarm/internal/jobs"
	"github.com/framefarm/framefarm/internal/models"
	"github.com/framefarm/framefarm/pkg/logger"
	"github.com/framefarm/framefarm/pkg/store"
)

func testLogger() logger.Logger {
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "Development"},
		Logger: config.Logger{Encoding: "console", Level: "error"},
	}
	log := logger.NewApiLogger(cfg)
	log.InitLogger()
	return log
}

func newTestRepo(t *testing.T) (jobs.Repository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.json")
	repo, err := NewJobRepo(store.NewFileStore(path), testLogger())
	if err != nil {
		t.Fatalf("NewJobRepo: %v", err)
	}
	return repo, path
}

func newTestJob(t *testing.T, repo jobs.Repository, frames int) *models.Job {
	t.Helper()
	job := models.NewRenderJob(&models.RenderJobInfo{
		FileURL:    "http://example.com/scene.blend",
		FrameRange: [2]int{0, frames},
	})
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return job
}

func TestConcurrentPollsNeverShareATask(t *testing.T) {
	const frames = 16
	repo, _ := newTestRepo(t)
	newTestJob(t, repo, frames)
	ctx := context.Background()

	var (
		mu       sync.Mutex
		assigned = map[string]int{}
		wg       sync.WaitGroup
	)
	for i := 0; i < frames; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			_, task, err := repo.NextAssignment(ctx, "node")
			if err != nil {
				t.Errorf("NextAssignment: %v", err)
				return
			}
			if task == nil {
				t.Error("poll with available tasks returned none")
				return
			}
			mu.Lock()
			assigned[task.TaskID]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if len(assigned) != frames {
		t.Fatalf("assigned %d distinct tasks, want %d", len(assigned), frames)
	}
	for taskID, count := range assigned {
		if count != 1 {
			t.Fatalf("task %s handed out %d times", taskID, count)
		}
	}

	// Every task is now in progress; the farm is drained.
	_, task, err := repo.NextAssignment(ctx, "node")
	if err != nil {
		t.Fatal(err)
	}
	if task != nil {
		t.Fatalf("drained job still produced task %s", task.TaskID)
	}
}

func TestAssignmentOrderIsFIFO(t *testing.T) {
	repo, _ := newTestRepo(t)
	job := newTestJob(t, repo, 3)
	ctx := context.Background()

	for want := 0; want < 3; want++ {
		_, task, err := repo.NextAssignment(ctx, "node")
		if err != nil {
			t.Fatal(err)
		}
		if task == nil {
			t.Fatalf("no task for frame %d", want)
		}
		if got := task.Info.(*models.RenderTaskInfo).Frame; got != want {
			t.Fatalf("assignment %d handed out frame %d", want, got)
		}
		if task.JobID != job.JobID {
			t.Fatalf("task belongs to job %s, want %s", task.JobID, job.JobID)
		}
	}
}

func TestCompletedTaskIsNeverReassigned(t *testing.T) {
	repo, _ := newTestRepo(t)
	newTestJob(t, repo, 1)
	ctx := context.Background()

	_, task, err := repo.NextAssignment(ctx, "node-1")
	if err != nil {
		t.Fatal(err)
	}
	job, done, err := repo.SubmitResult(ctx, task.JobID, task.TaskID, "node-1")
	if err != nil {
		t.Fatalf("SubmitResult: %v", err)
	}
	if !done.Complete || done.InProgress {
		t.Fatalf("result not recorded: %+v", done)
	}
	if job.Status != models.JobStatusComplete {
		t.Fatalf("job status = %s, want complete", job.Status)
	}

	for i := 0; i < 3; i++ {
		_, again, err := repo.NextAssignment(ctx, "node-2")
		if err != nil {
			t.Fatal(err)
		}
		if again != nil {
			t.Fatalf("completed task handed out again: %s", again.TaskID)
		}
	}
}

func TestPausedJobBlocksAssignmentButAcceptsResults(t *testing.T) {
	repo, _ := newTestRepo(t)
	created := newTestJob(t, repo, 2)
	ctx := context.Background()

	_, task, err := repo.NextAssignment(ctx, "node-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err = repo.Pause(ctx, created.JobID); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	_, blocked, err := repo.NextAssignment(ctx, "node-2")
	if err != nil {
		t.Fatal(err)
	}
	if blocked != nil {
		t.Fatal("paused job still hands out tasks")
	}

	// The in-flight worker may still report its result.
	job, _, err := repo.SubmitResult(ctx, task.JobID, task.TaskID, "node-1")
	if err != nil {
		t.Fatalf("result on paused job: %v", err)
	}
	if job.Status != models.JobStatusPaused {
		t.Fatalf("result flipped paused job to %s", job.Status)
	}

	resumed, err := repo.Resume(ctx, created.JobID)
	if err != nil {
		t.Fatal(err)
	}
	if resumed.Status != models.JobStatusWorking {
		t.Fatalf("resume set status %s, want working", resumed.Status)
	}
	_, next, err := repo.NextAssignment(ctx, "node-2")
	if err != nil {
		t.Fatal(err)
	}
	if next == nil {
		t.Fatal("resumed job hands out nothing")
	}
}

func TestLastResultWhilePausedCompletesOnResume(t *testing.T) {
	repo, _ := newTestRepo(t)
	created := newTestJob(t, repo, 1)
	ctx := context.Background()

	_, task, err := repo.NextAssignment(ctx, "node-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err = repo.Pause(ctx, created.JobID); err != nil {
		t.Fatal(err)
	}
	job, _, err := repo.SubmitResult(ctx, task.JobID, task.TaskID, "node-1")
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != models.JobStatusPaused {
		t.Fatalf("result flipped paused job to %s", job.Status)
	}

	// Resuming a fully drained job must land on complete, not leave it
	// working with nothing assignable.
	resumed, err := repo.Resume(ctx, created.JobID)
	if err != nil {
		t.Fatal(err)
	}
	if resumed.Status != models.JobStatusComplete {
		t.Fatalf("resumed status = %s, want complete", resumed.Status)
	}
	_, next, err := repo.NextAssignment(ctx, "node-2")
	if err != nil {
		t.Fatal(err)
	}
	if next != nil {
		t.Fatalf("complete job handed out task %s", next.TaskID)
	}
}

func TestStateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	repo, err := NewJobRepo(store.NewFileStore(path), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	created := newTestJob(t, repo, 3)
	ctx := context.Background()

	_, task, err := repo.NextAssignment(ctx, "node-1")
	if err != nil {
		t.Fatal(err)
	}

	reopened, err := NewJobRepo(store.NewFileStore(path), testLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	job, err := reopened.GetByID(ctx, created.JobID)
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != models.JobStatusWorking {
		t.Fatalf("reopened job status = %s, want working", job.Status)
	}
	restored := job.Task(task.TaskID)
	if restored == nil || !restored.InProgress {
		t.Fatal("in-progress flag lost across reopen")
	}
	if len(job.Tasks) != 3 {
		t.Fatalf("reopened job has %d tasks, want 3", len(job.Tasks))
	}
}

func TestUnknownJobAndTask(t *testing.T) {
	repo, _ := newTestRepo(t)
	created := newTestJob(t, repo, 1)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Fatalf("GetByID returned %v, want ErrJobNotFound", err)
	}
	if _, _, err := repo.SubmitResult(ctx, "missing", "t", "node"); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Fatalf("SubmitResult returned %v, want ErrJobNotFound", err)
	}
	if _, _, err := repo.SubmitResult(ctx, created.JobID, "missing", "node"); !errors.Is(err, jobs.ErrTaskNotFound) {
		t.Fatalf("SubmitResult returned %v, want ErrTaskNotFound", err)
	}
}
