package jobs

import (
	"context"
	"io"

	"github.com/framefarm/framefarm/internal/models"
)

type UseCase interface {
	CreateRenderJob(ctx context.Context, info *models.RenderJobInfo) (*models.Job, error)
	GetByID(ctx context.Context, jobID string) (*models.Job, error)
	List(ctx context.Context) ([]*models.Job, error)
	NextTask(ctx context.Context, worker string) (*models.Job, *models.Task, error)
	SubmitResult(ctx context.Context, jobID, taskID, worker string, elapsed float64, result io.Reader) error
	Pause(ctx context.Context, jobID string) (*models.Job, error)
	Resume(ctx context.Context, jobID string) (*models.Job, error)
	ReportProgress(ctx context.Context, jobID, taskID string, progress float64) error
	Progress(ctx context.Context, jobID string) (map[string]float64, error)
}
