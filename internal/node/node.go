package node

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/framefarm/framefarm/internal/config"
	"github.com/framefarm/framefarm/internal/models"
	"github.com/framefarm/framefarm/pkg/logger"
	"github.com/framefarm/framefarm/pkg/utils"
)

// Node is one render worker: it polls the coordinator for tasks, fetches the
// scene file, renders the assigned frame and uploads the result.
type Node struct {
	cfg      *config.Config
	client   *Client
	renderer Renderer
	logger   logger.Logger
}

func NewNode(cfg *config.Config, client *Client, renderer Renderer, logger logger.Logger) *Node {
	return &Node{
		cfg:      cfg,
		client:   client,
		renderer: renderer,
		logger:   logger,
	}
}

func (n *Node) Run(ctx context.Context) error {
	if err := n.client.AuthTest(ctx); err != nil {
		return err
	}
	n.logger.Infof("authenticated against %s as %q", n.cfg.Worker.ServerURL, n.cfg.Worker.Username)

	pollInterval := time.Duration(n.cfg.Worker.PollInterval) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if max := n.cfg.Worker.MaxCPUUsage; max > 0 {
			usage, err := utils.CPUUsage(0)
			if err != nil {
				n.logger.Warnf("CPU usage sample failed: %v", err)
			} else if usage > max {
				n.logger.Infof("CPU usage too high to accept work: %.1f%%", usage)
				n.sleep(ctx, pollInterval)
				continue
			}
		}
		job, task, err := n.client.NextTask(ctx)
		if err != nil {
			n.logger.Errorf("poll failed: %v", err)
			n.sleep(ctx, pollInterval)
			continue
		}
		if task == nil {
			n.sleep(ctx, pollInterval)
			continue
		}
		if err = n.perform(ctx, job, task); err != nil {
			n.logger.Errorf("task %s failed: %v", task.TaskID, err)
			n.sleep(ctx, pollInterval)
		}
	}
}

func (n *Node) perform(ctx context.Context, job *models.Job, task *models.Task) error {
	renderInfo, ok := task.Info.(*models.RenderTaskInfo)
	if !ok {
		n.logger.Warnf("task %s has unsupported info, skipping", task.TaskID)
		return nil
	}
	jobInfo, ok := job.Info.(*models.RenderJobInfo)
	if !ok {
		n.logger.Warnf("job %s has unsupported info, skipping task %s", job.JobID, task.TaskID)
		return nil
	}
	n.logger.Infof("rendering frame %d of job %s (task %s)", renderInfo.Frame, job.JobID, task.TaskID)
	start := time.Now()

	workDir := filepath.Join(n.cfg.Worker.WorkDir, job.JobID)
	scenePath := filepath.Join(workDir, "scene.blend")
	if _, err := os.Stat(scenePath); err != nil {
		if err = FetchFile(ctx, jobInfo.FileURL, scenePath); err != nil {
			return err
		}
	}
	_ = n.client.ReportProgress(ctx, job.JobID, task.TaskID, 0)

	resultPath, err := n.renderer.RenderFrame(ctx, scenePath, renderInfo.Frame, renderInfo.Resolution, filepath.Join(workDir, "out"))
	if err != nil {
		return err
	}
	result, err := os.Open(resultPath)
	if err != nil {
		return err
	}
	defer result.Close()

	elapsed := time.Since(start).Seconds()
	if err = n.client.SubmitResult(ctx, job.JobID, task.TaskID, elapsed, result); err != nil {
		return err
	}
	_ = n.client.ReportProgress(ctx, job.JobID, task.TaskID, 1)
	n.logger.Infof("frame %d of job %s done in %.1fs", renderInfo.Frame, job.JobID, elapsed)
	return nil
}

func (n *Node) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
