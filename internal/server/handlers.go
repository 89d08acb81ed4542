package server

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/framefarm/framefarm/internal/jobs"
	jobsHttp "github.com/framefarm/framefarm/internal/jobs/delivery/http"
	jobsRepository "github.com/framefarm/framefarm/internal/jobs/repository"
	jobsUsecase "github.com/framefarm/framefarm/internal/jobs/usecase"
	"github.com/framefarm/framefarm/internal/middleware"
	usersHttp "github.com/framefarm/framefarm/internal/users/delivery/http"
	usersRepository "github.com/framefarm/framefarm/internal/users/repository"
	usersUsecase "github.com/framefarm/framefarm/internal/users/usecase"
	"github.com/framefarm/framefarm/pkg/store"
	"github.com/framefarm/framefarm/pkg/utils"
)

// apiVersions routes the first path segment; a path outside this set is a
// 400, a missing route inside a known version is that version's 404.
var apiVersions = map[string]bool{"v1": true}

func (s *Server) MapHandlers(e *echo.Echo) error {
	storeDir := s.cfg.Store.Dir
	usersFile := s.cfg.Store.UsersFile
	if usersFile == "" {
		usersFile = "users.json"
	}
	jobsFile := s.cfg.Store.JobsFile
	if jobsFile == "" {
		jobsFile = "jobs.json"
	}
	resultsDir := s.cfg.Store.ResultsDir
	if resultsDir == "" {
		resultsDir = filepath.Join(storeDir, "results")
	}

	// A corrupt store document fails here, before the server binds.
	uRepo, err := usersRepository.NewUserRepo(store.NewFileStore(filepath.Join(storeDir, usersFile)), s.cfg.Auth.BootstrapUser, s.logger)
	if err != nil {
		return err
	}
	jRepo, err := jobsRepository.NewJobRepo(store.NewFileStore(filepath.Join(storeDir, jobsFile)), s.logger)
	if err != nil {
		return err
	}

	var resultsRepo jobs.ResultsRepository
	if s.s3Client != nil && s.cfg.S3.ResultBucket != "" {
		resultsRepo = jobsRepository.NewAwsResultsRepo(s.s3Client, s.cfg.S3.ResultBucket)
	} else {
		resultsRepo = jobsRepository.NewLocalResultsRepo(resultsDir)
	}
	var cacheRepo jobs.CacheRepository
	if s.redisClient != nil {
		cacheRepo = jobsRepository.NewJobRedisRepo(s.redisClient, s.cfg.Redis.ProgressKey)
	}

	usersUC := usersUsecase.NewUsersUseCase(s.cfg, uRepo, s.logger)
	jobsUC := jobsUsecase.NewJobsUseCase(s.cfg, jRepo, resultsRepo, cacheRepo, s.logger)

	usersHandlers := usersHttp.NewUsersHandler(s.cfg, usersUC, s.logger)
	jobsHandlers := jobsHttp.NewJobsHandler(s.cfg, jobsUC, s.logger)

	mw := middleware.NewMiddlewareManager(usersUC, s.cfg, s.logger)

	e.HTTPErrorHandler = s.httpErrorHandler
	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.Recover())
	e.Use(mw.RequestLoggerMiddleware)

	v1 := e.Group("/v1")
	v1.GET("/info.json", s.infoHandler())

	authGroup := v1.Group("/auth")
	userGroup := v1.Group("/user")
	jobGroup := v1.Group("/job")
	taskGroup := v1.Group("/task")

	usersHttp.MapUsersRoutes(authGroup, userGroup, usersHandlers, mw)
	jobsHttp.MapJobsRoutes(jobGroup, taskGroup, jobsHandlers, mw)
	return nil
}

// infoHandler is the only unauthenticated route.
func (s *Server) infoHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return utils.RespondOK(c, map[string]interface{}{
			"version": s.cfg.Server.AppVersion,
			"uptime":  time.Since(s.startTime).Seconds(),
			"time":    time.Now().Unix(),
		})
	}
}

// httpErrorHandler converts everything reaching the router boundary into the
// uniform envelope: unknown version 400, missing route 404, anything else
// (including recovered panics) a 500 with no internal detail in the body.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
	}
	switch status {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		segments := strings.SplitN(strings.TrimPrefix(c.Request().URL.Path, "/"), "/", 2)
		if len(segments) == 0 || !apiVersions[segments[0]] {
			_ = utils.RespondError(c, http.StatusBadRequest, utils.CodeBadRequest,
				"unknown API version", c.Request().URL.Path)
			return
		}
		_ = utils.RespondError(c, http.StatusNotFound, utils.CodeNotFound, "404 Not Found", "")
	case http.StatusBadRequest:
		_ = utils.RespondError(c, http.StatusBadRequest, utils.CodeBadRequest, "bad request", "")
	default:
		s.logger.Errorf("unhandled error, RequestID: %s: %v", utils.GetRequestID(c), err)
		_ = utils.RespondError(c, http.StatusInternalServerError, utils.CodeInternal,
			"internal server error", "")
	}
}
