package jobs

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/framefarm/framefarm/internal/models"
)

var (
	ErrJobNotFound  = errors.New("job not found")
	ErrTaskNotFound = errors.New("task not found")
)

// Repository is the durable job list plus the scheduling critical section.
// Assignment (check-and-set of in_progress) and result acceptance are single
// atomic operations under the store lock, so two concurrently polling
// workers can never be handed the same unfinished task.
type Repository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, jobID string) (*models.Job, error)
	List(ctx context.Context) ([]*models.Job, error)

	// NextAssignment picks the first assignable task, FIFO over jobs and
	// tasks in insertion order, marks it in progress for worker and
	// persists before returning. (nil, nil, nil) means none available.
	NextAssignment(ctx context.Context, worker string) (*models.Job, *models.Task, error)

	// SubmitResult marks the task complete and persists before returning.
	// Accepting a resubmitted result for an already-complete task is not
	// an error; a worker retries after a persistence failure.
	SubmitResult(ctx context.Context, jobID, taskID, worker string) (*models.Job, *models.Task, error)

	Pause(ctx context.Context, jobID string) (*models.Job, error)
	Resume(ctx context.Context, jobID string) (*models.Job, error)
}

// ResultsRepository stores accepted result files. Only opaque locations come
// back out; rendering and transfer stay outside the core.
type ResultsRepository interface {
	SaveResult(ctx context.Context, jobID, taskID string, body io.Reader) (string, error)
}

// CacheRepository is the ephemeral, non-authoritative progress cache. It
// never touches the job store; losing it loses nothing durable.
type CacheRepository interface {
	SetProgress(ctx context.Context, jobID, taskID string, progress float64) error
	GetProgress(ctx context.Context, jobID string) (map[string]float64, error)
}
