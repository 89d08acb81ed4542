package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/framefarm/framefarm/internal/config"
	"github.com/framefarm/framefarm/internal/users"
	"github.com/framefarm/framefarm/pkg/logger"
	"github.com/framefarm/framefarm/pkg/utils"
)

type MiddlewareManager struct {
	usersUC users.UseCase
	cfg     *config.Config
	logger  logger.Logger
}

// Middleware manager constructor
func NewMiddlewareManager(usersUC users.UseCase, cfg *config.Config, logger logger.Logger) *MiddlewareManager {
	return &MiddlewareManager{usersUC: usersUC, cfg: cfg, logger: logger}
}

func (mw *MiddlewareManager) RequestLoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		mw.logger.Infof("%s %s, Status: %d, RequestID: %s, Took: %s",
			c.Request().Method,
			c.Request().URL.Path,
			c.Response().Status,
			utils.GetRequestID(c),
			time.Since(start),
		)
		return err
	}
}
