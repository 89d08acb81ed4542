package repository

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/framefarm/framefarm/internal/jobs"
	"github.com/framefarm/framefarm/internal/models"
	"github.com/framefarm/framefarm/pkg/logger"
	"github.com/framefarm/framefarm/pkg/store"
)

// jobRepo keeps the job list in memory under one process-wide lock and
// mirrors every mutation to the backing JSON document. The lock spans
// check-and-set of in_progress plus the save, which is the whole scheduling
// guarantee.
type jobRepo struct {
	mu     sync.Mutex
	store  *store.FileStore
	jobs   []*models.Job
	logger logger.Logger
}

func NewJobRepo(st *store.FileStore, log logger.Logger) (jobs.Repository, error) {
	r := &jobRepo{
		store:  st,
		logger: log,
	}
	found, err := r.store.Restore(&r.jobs)
	if err != nil {
		return nil, errors.Wrap(err, "jobs.NewJobRepo")
	}
	if !found {
		if err = r.store.Save(r.jobs); err != nil {
			return nil, errors.Wrap(err, "jobs.NewJobRepo.Save")
		}
	}
	return r, nil
}

// refresh re-reads the on-disk document. Caller holds the lock.
func (r *jobRepo) refresh() error {
	var loaded []*models.Job
	found, err := r.store.Restore(&loaded)
	if err != nil {
		return errors.Wrap(err, "jobs.refresh")
	}
	if found {
		r.jobs = loaded
	}
	return nil
}

func (r *jobRepo) find(jobID string) *models.Job {
	for _, j := range r.jobs {
		if j.JobID == jobID {
			return j
		}
	}
	return nil
}

// copyJob returns a deep snapshot so callers never share memory with the
// repository past the call.
func copyJob(j *models.Job) (*models.Job, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return nil, errors.Wrap(err, "jobs.copyJob")
	}
	cp := &models.Job{}
	if err = json.Unmarshal(data, cp); err != nil {
		return nil, errors.Wrap(err, "jobs.copyJob")
	}
	return cp, nil
}

func (r *jobRepo) snapshot(j *models.Job, taskID string) (*models.Job, *models.Task, error) {
	cp, err := copyJob(j)
	if err != nil {
		return nil, nil, err
	}
	if taskID == "" {
		return cp, nil, nil
	}
	return cp, cp.Task(taskID), nil
}

func (r *jobRepo) Create(ctx context.Context, job *models.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refresh(); err != nil {
		return err
	}
	r.jobs = append(r.jobs, job)
	return errors.Wrap(r.store.Save(r.jobs), "jobs.Create.Save")
}

func (r *jobRepo) GetByID(ctx context.Context, jobID string) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refresh(); err != nil {
		return nil, err
	}
	job := r.find(jobID)
	if job == nil {
		return nil, jobs.ErrJobNotFound
	}
	cp, _, err := r.snapshot(job, "")
	return cp, err
}

func (r *jobRepo) List(ctx context.Context) ([]*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refresh(); err != nil {
		return nil, err
	}
	out := make([]*models.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		cp, _, err := r.snapshot(j, "")
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

func (r *jobRepo) NextAssignment(ctx context.Context, worker string) (*models.Job, *models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refresh(); err != nil {
		return nil, nil, err
	}
	for _, job := range r.jobs {
		if !job.Schedulable() {
			continue
		}
		task := job.NextAssignableTask()
		if task == nil {
			continue
		}
		job.Assign(task, worker)
		if err := r.store.Save(r.jobs); err != nil {
			// The next refresh reloads the unassigned on-disk state,
			// so the task is not lost to this failed hand-out.
			return nil, nil, errors.Wrap(err, "jobs.NextAssignment.Save")
		}
		return r.snapshot(job, task.TaskID)
	}
	return nil, nil, nil
}

func (r *jobRepo) SubmitResult(ctx context.Context, jobID, taskID, worker string) (*models.Job, *models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refresh(); err != nil {
		return nil, nil, err
	}
	job := r.find(jobID)
	if job == nil {
		return nil, nil, jobs.ErrJobNotFound
	}
	task := job.Task(taskID)
	if task == nil {
		return nil, nil, jobs.ErrTaskNotFound
	}
	job.CompleteTask(task, worker)
	if err := r.store.Save(r.jobs); err != nil {
		return nil, nil, errors.Wrap(err, "jobs.SubmitResult.Save")
	}
	return r.snapshot(job, taskID)
}

func (r *jobRepo) Pause(ctx context.Context, jobID string) (*models.Job, error) {
	return r.setStatus(jobID, models.JobStatusPaused, "")
}

func (r *jobRepo) Resume(ctx context.Context, jobID string) (*models.Job, error) {
	return r.setStatus(jobID, models.JobStatusWorking, models.JobStatusPaused)
}

// setStatus flips a job to next; when only is non-empty the change applies
// just from that status, so resuming a job that is not paused is a no-op.
// A job whose last result arrived while paused resumes straight to complete;
// nothing later would re-run the completion check.
func (r *jobRepo) setStatus(jobID string, next, only models.JobStatus) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.refresh(); err != nil {
		return nil, err
	}
	job := r.find(jobID)
	if job == nil {
		return nil, jobs.ErrJobNotFound
	}
	if only == "" || job.Status == only {
		if next == models.JobStatusWorking && job.AllTasksComplete() {
			next = models.JobStatusComplete
		}
		job.Status = next
		if err := r.store.Save(r.jobs); err != nil {
			return nil, errors.Wrap(err, "jobs.setStatus.Save")
		}
	}
	cp, _, err := r.snapshot(job, "")
	return cp, err
}
