package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/framefarm/framefarm/internal/config"
	"github.com/framefarm/framefarm/internal/users"
	"github.com/framefarm/framefarm/pkg/logger"
	"github.com/framefarm/framefarm/pkg/utils"
)

type usersHandler struct {
	cfg     *config.Config
	usersUC users.UseCase
	logger  logger.Logger
}

func NewUsersHandler(cfg *config.Config, usersUC users.UseCase, logger logger.Logger) users.Handler {
	return &usersHandler{
		cfg:     cfg,
		usersUC: usersUC,
		logger:  logger,
	}
}

// AuthTest succeeds for any request that passed digest auth; workers use it
// to verify their credentials.
func (h *usersHandler) AuthTest() echo.HandlerFunc {
	return func(c echo.Context) error {
		return utils.RespondOK(c, nil)
	}
}

// Add creates a user and returns the generated key. This response is the
// only time the key leaves the server for this user.
func (h *usersHandler) Add() echo.HandlerFunc {
	return func(c echo.Context) error {
		username := c.QueryParam("username")
		if username == "" {
			return utils.RespondError(c, http.StatusBadRequest, utils.CodeBadRequest,
				"missing required parameter", "username")
		}
		user, err := h.usersUC.Add(c.Request().Context(), username)
		if err != nil {
			if errors.Is(err, users.ErrUserExists) {
				return utils.RespondError(c, http.StatusOK, utils.CodeInvalidUser,
					"user already exists", username)
			}
			h.logger.Errorf("user add failed, RequestID: %s: %v", utils.GetRequestID(c), err)
			return utils.RespondError(c, http.StatusInternalServerError, utils.CodeInternal,
				"internal server error", "")
		}
		return utils.RespondOK(c, map[string]interface{}{"user": user})
	}
}

func (h *usersHandler) Remove() echo.HandlerFunc {
	return func(c echo.Context) error {
		username := c.QueryParam("username")
		if username == "" {
			return utils.RespondError(c, http.StatusBadRequest, utils.CodeBadRequest,
				"missing required parameter", "username")
		}
		if err := h.usersUC.Remove(c.Request().Context(), username); err != nil {
			if errors.Is(err, users.ErrUserNotFound) {
				return utils.RespondError(c, http.StatusOK, utils.CodeInvalidUser,
					"no such user", username)
			}
			h.logger.Errorf("user remove failed, RequestID: %s: %v", utils.GetRequestID(c), err)
			return utils.RespondError(c, http.StatusInternalServerError, utils.CodeInternal,
				"internal server error", "")
		}
		return utils.RespondOK(c, nil)
	}
}

func (h *usersHandler) Rekey() echo.HandlerFunc {
	return func(c echo.Context) error {
		username := c.QueryParam("username")
		if username == "" {
			return utils.RespondError(c, http.StatusBadRequest, utils.CodeBadRequest,
				"missing required parameter", "username")
		}
		user, err := h.usersUC.Rekey(c.Request().Context(), username)
		if err != nil {
			if errors.Is(err, users.ErrUserNotFound) {
				return utils.RespondError(c, http.StatusOK, utils.CodeInvalidUser,
					"no such user", username)
			}
			h.logger.Errorf("user rekey failed, RequestID: %s: %v", utils.GetRequestID(c), err)
			return utils.RespondError(c, http.StatusInternalServerError, utils.CodeInternal,
				"internal server error", "")
		}
		return utils.RespondOK(c, map[string]interface{}{"user": user})
	}
}

func (h *usersHandler) List() echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := h.usersUC.List(c.Request().Context())
		if err != nil {
			h.logger.Errorf("user list failed, RequestID: %s: %v", utils.GetRequestID(c), err)
			return utils.RespondError(c, http.StatusInternalServerError, utils.CodeInternal,
				"internal server error", "")
		}
		return utils.RespondOK(c, map[string]interface{}{"users": list})
	}
}
