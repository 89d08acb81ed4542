package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/framefarm/framefarm/internal/config"
	"github.com/framefarm/framefarm/internal/jobs"
	jobsRepository "github.com/framefarm/framefarm/internal/jobs/repository"
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

func newTestUC(t *testing.T) (jobs.UseCase, string) {
	t.Helper()
	base := t.TempDir()
	log := testLogger()
	jobsRepo, err := jobsRepository.NewJobRepo(store.NewFileStore(filepath.Join(base, "jobs.json")), log)
	if err != nil {
		t.Fatalf("NewJobRepo: %v", err)
	}
	resultsDir := filepath.Join(base, "results")
	resultsRepo := jobsRepository.NewLocalResultsRepo(resultsDir)
	uc := NewJobsUseCase(&config.Config{}, jobsRepo, resultsRepo, nil, log)
	return uc, resultsDir
}

func TestSubmitResultRequiresKnownJobAndTask(t *testing.T) {
	uc, resultsDir := newTestUC(t)
	ctx := context.Background()

	job, err := uc.CreateRenderJob(ctx, &models.RenderJobInfo{
		FileURL:    "http://example.com/scene.blend",
		FrameRange: [2]int{0, 1},
	})
	if err != nil {
		t.Fatalf("CreateRenderJob: %v", err)
	}

	err = uc.SubmitResult(ctx, "missing", "t", "node", 0, strings.NewReader("x"))
	if !errors.Is(err, jobs.ErrJobNotFound) {
		t.Fatalf("unknown job: got %v, want ErrJobNotFound", err)
	}
	err = uc.SubmitResult(ctx, job.JobID, "missing", "node", 0, strings.NewReader("x"))
	if !errors.Is(err, jobs.ErrTaskNotFound) {
		t.Fatalf("unknown task: got %v, want ErrTaskNotFound", err)
	}

	// Neither refusal may leave a result file behind.
	if _, err := os.Stat(resultsDir); !os.IsNotExist(err) {
		t.Fatalf("refused submissions wrote under %s", resultsDir)
	}

	// The IDs come off the wire; a traversal id must die at the job lookup,
	// not reach the filesystem.
	err = uc.SubmitResult(ctx, "../../owned", "users.json", "node", 0, strings.NewReader("x"))
	if !errors.Is(err, jobs.ErrJobNotFound) {
		t.Fatalf("traversal id: got %v, want ErrJobNotFound", err)
	}
}

func TestSubmitResultStoresForKnownTask(t *testing.T) {
	uc, resultsDir := newTestUC(t)
	ctx := context.Background()

	job, err := uc.CreateRenderJob(ctx, &models.RenderJobInfo{
		FileURL:    "http://example.com/scene.blend",
		FrameRange: [2]int{0, 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, task, err := uc.NextTask(ctx, "node")
	if err != nil || task == nil {
		t.Fatalf("NextTask: %v, %v", task, err)
	}

	if err = uc.SubmitResult(ctx, job.JobID, task.TaskID, "node", 1.0, strings.NewReader("frame")); err != nil {
		t.Fatalf("SubmitResult: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(resultsDir, job.JobID, task.TaskID))
	if err != nil || string(raw) != "frame" {
		t.Fatalf("stored result = %q, %v", raw, err)
	}
}
