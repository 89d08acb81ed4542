package http

import (
	"github.com/labstack/echo/v4"

	"github.com/framefarm/framefarm/internal/jobs"
	"github.com/framefarm/framefarm/internal/middleware"
)

func MapJobsRoutes(jobGroup, taskGroup *echo.Group, h jobs.Handler, mw *middleware.MiddlewareManager) {
	jobGroup.Use(mw.DigestAuthMiddleware())
	jobGroup.POST("/new.json", h.New())
	jobGroup.GET("/get.json", h.Get())
	jobGroup.GET("/list.json", h.List())
	jobGroup.POST("/pause.json", h.Pause())
	jobGroup.POST("/resume.json", h.Resume())
	jobGroup.GET("/status.json", h.Status())

	taskGroup.Use(mw.DigestAuthMiddleware())
	taskGroup.GET("/next.json", h.NextTask())
	taskGroup.POST("/result.json", h.SubmitResult())
	taskGroup.POST("/progress.json", h.ReportProgress())
}
