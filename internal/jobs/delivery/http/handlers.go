package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/framefarm/framefarm/internal/config"
	"github.com/framefarm/framefarm/internal/jobs"
	"github.com/framefarm/framefarm/internal/models"
	"github.com/framefarm/framefarm/pkg/logger"
	"github.com/framefarm/framefarm/pkg/utils"
)

type jobsHandler struct {
	cfg    *config.Config
	jobsUC jobs.UseCase
	logger logger.Logger
}

func NewJobsHandler(cfg *config.Config, jobsUC jobs.UseCase, logger logger.Logger) jobs.Handler {
	return &jobsHandler{
		cfg:    cfg,
		jobsUC: jobsUC,
		logger: logger,
	}
}

func (h *jobsHandler) internalError(c echo.Context, op string, err error) error {
	h.logger.Errorf("%s failed, RequestID: %s: %v", op, utils.GetRequestID(c), err)
	return utils.RespondError(c, http.StatusInternalServerError, utils.CodeInternal,
		"internal server error", "")
}

func (h *jobsHandler) New() echo.HandlerFunc {
	return func(c echo.Context) error {
		info := &models.RenderJobInfo{}
		if err := c.Bind(info); err != nil {
			return utils.RespondError(c, http.StatusBadRequest, utils.CodeBadRequest,
				"invalid request payload", "")
		}
		job, err := h.jobsUC.CreateRenderJob(c.Request().Context(), info)
		if err != nil {
			return utils.RespondError(c, http.StatusBadRequest, utils.CodeBadRequest,
				err.Error(), "")
		}
		net, err := job.NetJSON()
		if err != nil {
			return h.internalError(c, "job new", err)
		}
		return utils.RespondOK(c, map[string]interface{}{"job": net})
	}
}

func (h *jobsHandler) Get() echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID := c.QueryParam("job_id")
		if jobID == "" {
			return utils.RespondError(c, http.StatusBadRequest, utils.CodeBadRequest,
				"missing required parameter", "job_id")
		}
		job, err := h.jobsUC.GetByID(c.Request().Context(), jobID)
		if err != nil {
			if errors.Is(err, jobs.ErrJobNotFound) {
				return utils.RespondError(c, http.StatusOK, utils.CodeInvalidJob,
					"no such job", jobID)
			}
			return h.internalError(c, "job get", err)
		}
		net, err := job.NetJSON()
		if err != nil {
			return h.internalError(c, "job get", err)
		}
		return utils.RespondOK(c, map[string]interface{}{"job": net})
	}
}

func (h *jobsHandler) List() echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := h.jobsUC.List(c.Request().Context())
		if err != nil {
			return h.internalError(c, "job list", err)
		}
		nets := make([]interface{}, 0, len(list))
		for _, job := range list {
			net, err := job.NetJSON()
			if err != nil {
				return h.internalError(c, "job list", err)
			}
			nets = append(nets, net)
		}
		return utils.RespondOK(c, map[string]interface{}{"jobs": nets})
	}
}

func (h *jobsHandler) Pause() echo.HandlerFunc {
	return h.setStatus("job pause", h.jobsUC.Pause)
}

func (h *jobsHandler) Resume() echo.HandlerFunc {
	return h.setStatus("job resume", h.jobsUC.Resume)
}

func (h *jobsHandler) setStatus(op string, change func(ctx context.Context, jobID string) (*models.Job, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID := c.QueryParam("job_id")
		if jobID == "" {
			return utils.RespondError(c, http.StatusBadRequest, utils.CodeBadRequest,
				"missing required parameter", "job_id")
		}
		job, err := change(c.Request().Context(), jobID)
		if err != nil {
			if errors.Is(err, jobs.ErrJobNotFound) {
				return utils.RespondError(c, http.StatusOK, utils.CodeInvalidJob,
					"no such job", jobID)
			}
			return h.internalError(c, op, err)
		}
		net, err := job.NetJSON()
		if err != nil {
			return h.internalError(c, op, err)
		}
		return utils.RespondOK(c, map[string]interface{}{"job": net})
	}
}

func (h *jobsHandler) Status() echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID := c.QueryParam("job_id")
		if jobID == "" {
			return utils.RespondError(c, http.StatusBadRequest, utils.CodeBadRequest,
				"missing required parameter", "job_id")
		}
		job, err := h.jobsUC.GetByID(c.Request().Context(), jobID)
		if err != nil {
			if errors.Is(err, jobs.ErrJobNotFound) {
				return utils.RespondError(c, http.StatusOK, utils.CodeInvalidJob,
					"no such job", jobID)
			}
			return h.internalError(c, "job status", err)
		}
		progress, err := h.jobsUC.Progress(c.Request().Context(), jobID)
		if err != nil {
			h.logger.Warnf("progress cache unavailable for job %s: %v", jobID, err)
			progress = map[string]float64{}
		}
		return utils.RespondOK(c, map[string]interface{}{
			"job_id":     job.JobID,
			"job_status": job.Status,
			"progress":   progress,
		})
	}
}

// NextTask is the worker poll: the first assignable task, atomically marked
// in progress for the authenticated worker, or {task: null} when the farm is
// drained.
func (h *jobsHandler) NextTask() echo.HandlerFunc {
	return func(c echo.Context) error {
		worker, err := utils.GetUserFromCtx(c.Request().Context())
		if err != nil {
			return h.internalError(c, "task next", err)
		}
		job, task, err := h.jobsUC.NextTask(c.Request().Context(), worker.Username)
		if err != nil {
			return h.internalError(c, "task next", err)
		}
		if task == nil {
			return utils.RespondOK(c, map[string]interface{}{"task": nil})
		}
		net, err := job.NetJSON()
		if err != nil {
			return h.internalError(c, "task next", err)
		}
		return utils.RespondOK(c, map[string]interface{}{
			"job":  net,
			"task": task,
		})
	}
}

// SubmitResult accepts the raw result file as the request body. The task is
// marked complete and the job store persisted before the ok goes out; on a
// storage failure the worker sees a 500 and resubmits.
func (h *jobsHandler) SubmitResult() echo.HandlerFunc {
	return func(c echo.Context) error {
		worker, err := utils.GetUserFromCtx(c.Request().Context())
		if err != nil {
			return h.internalError(c, "task result", err)
		}
		jobID := c.QueryParam("job_id")
		if jobID == "" {
			return utils.RespondError(c, http.StatusBadRequest, utils.CodeBadRequest,
				"missing required parameter", "job_id")
		}
		taskID := c.QueryParam("task_id")
		if taskID == "" {
			return utils.RespondError(c, http.StatusBadRequest, utils.CodeBadRequest,
				"missing required parameter", "task_id")
		}
		elapsed, _ := strconv.ParseFloat(c.QueryParam("elapsed"), 64)

		err = h.jobsUC.SubmitResult(c.Request().Context(), jobID, taskID, worker.Username,
			elapsed, c.Request().Body)
		if err != nil {
			if errors.Is(err, jobs.ErrJobNotFound) {
				return utils.RespondError(c, http.StatusOK, utils.CodeInvalidJob,
					"no such job", jobID)
			}
			if errors.Is(err, jobs.ErrTaskNotFound) {
				return utils.RespondError(c, http.StatusOK, utils.CodeInvalidTask,
					"no such task", taskID)
			}
			return h.internalError(c, "task result", err)
		}
		return utils.RespondOK(c, nil)
	}
}

func (h *jobsHandler) ReportProgress() echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID := c.QueryParam("job_id")
		if jobID == "" {
			return utils.RespondError(c, http.StatusBadRequest, utils.CodeBadRequest,
				"missing required parameter", "job_id")
		}
		taskID := c.QueryParam("task_id")
		if taskID == "" {
			return utils.RespondError(c, http.StatusBadRequest, utils.CodeBadRequest,
				"missing required parameter", "task_id")
		}
		progress, err := strconv.ParseFloat(c.QueryParam("progress"), 64)
		if err != nil {
			return utils.RespondError(c, http.StatusBadRequest, utils.CodeBadRequest,
				"malformed parameter", "progress")
		}
		if err = h.jobsUC.ReportProgress(c.Request().Context(), jobID, taskID, progress); err != nil {
			h.logger.Warnf("progress cache write failed for job %s: %v", jobID, err)
		}
		return utils.RespondOK(c, nil)
	}
}
