package usecase

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/framefarm/framefarm/internal/config"
	"github.com/framefarm/framefarm/internal/jobs"
	"github.com/framefarm/framefarm/internal/models"
	"github.com/framefarm/framefarm/pkg/logger"
	"github.com/framefarm/framefarm/pkg/utils"
)

type jobsUC struct {
	cfg         *config.Config
	jobsRepo    jobs.Repository
	resultsRepo jobs.ResultsRepository
	cacheRepo   jobs.CacheRepository
	logger      logger.Logger
}

// NewJobsUseCase wires the scheduling repository with result storage and the
// optional progress cache; cacheRepo may be nil when Redis is unavailable.
func NewJobsUseCase(cfg *config.Config, jobsRepo jobs.Repository, resultsRepo jobs.ResultsRepository, cacheRepo jobs.CacheRepository, log logger.Logger) jobs.UseCase {
	return &jobsUC{
		cfg:         cfg,
		jobsRepo:    jobsRepo,
		resultsRepo: resultsRepo,
		cacheRepo:   cacheRepo,
		logger:      log,
	}
}

func (u *jobsUC) CreateRenderJob(ctx context.Context, info *models.RenderJobInfo) (*models.Job, error) {
	if err := utils.ValidateStruct(ctx, info); err != nil {
		return nil, errors.Wrap(err, "invalid render info")
	}
	if info.FrameRange[1] <= info.FrameRange[0] {
		return nil, errors.Errorf("empty frame range [%d, %d)", info.FrameRange[0], info.FrameRange[1])
	}
	job := models.NewRenderJob(info)
	if err := u.jobsRepo.Create(ctx, job); err != nil {
		return nil, err
	}
	u.logger.Infof("created render job %s: %d frames of %s", job.JobID, len(job.Tasks), info.FileURL)
	return job, nil
}

func (u *jobsUC) GetByID(ctx context.Context, jobID string) (*models.Job, error) {
	return u.jobsRepo.GetByID(ctx, jobID)
}

func (u *jobsUC) List(ctx context.Context) ([]*models.Job, error) {
	return u.jobsRepo.List(ctx)
}

func (u *jobsUC) NextTask(ctx context.Context, worker string) (*models.Job, *models.Task, error) {
	job, task, err := u.jobsRepo.NextAssignment(ctx, worker)
	if err != nil {
		return nil, nil, err
	}
	if task != nil {
		u.logger.Infof("assigned task %s of job %s to %q", task.TaskID, job.JobID, worker)
	}
	return job, task, nil
}

// SubmitResult stores the result file, then marks the task complete and
// persists the job store. The store write happens before the caller sees
// success; if it fails the worker gets an error and resubmits. The job and
// task must exist before any result byte is stored; the IDs come straight
// off the wire and must never reach a storage path unchecked.
func (u *jobsUC) SubmitResult(ctx context.Context, jobID, taskID, worker string, elapsed float64, result io.Reader) error {
	job, err := u.jobsRepo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Task(taskID) == nil {
		return jobs.ErrTaskNotFound
	}
	location, err := u.resultsRepo.SaveResult(ctx, jobID, taskID, result)
	if err != nil {
		return err
	}
	job, task, err := u.jobsRepo.SubmitResult(ctx, jobID, taskID, worker)
	if err != nil {
		return err
	}
	u.logger.Infof("task %s of job %s completed by %q in %.1fs, result at %s (job now %s)",
		task.TaskID, job.JobID, worker, elapsed, location, job.Status)
	return nil
}

func (u *jobsUC) Pause(ctx context.Context, jobID string) (*models.Job, error) {
	job, err := u.jobsRepo.Pause(ctx, jobID)
	if err != nil {
		return nil, err
	}
	u.logger.Infof("paused job %s", jobID)
	return job, nil
}

func (u *jobsUC) Resume(ctx context.Context, jobID string) (*models.Job, error) {
	job, err := u.jobsRepo.Resume(ctx, jobID)
	if err != nil {
		return nil, err
	}
	u.logger.Infof("resumed job %s (now %s)", jobID, job.Status)
	return job, nil
}

func (u *jobsUC) ReportProgress(ctx context.Context, jobID, taskID string, progress float64) error {
	if u.cacheRepo == nil {
		return nil
	}
	return u.cacheRepo.SetProgress(ctx, jobID, taskID, progress)
}

func (u *jobsUC) Progress(ctx context.Context, jobID string) (map[string]float64, error) {
	if u.cacheRepo == nil {
		return map[string]float64{}, nil
	}
	return u.cacheRepo.GetProgress(ctx, jobID)
}
