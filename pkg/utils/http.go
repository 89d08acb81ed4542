package utils

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/framefarm/framefarm/internal/models"
)

// Error envelope codes shared with workers.
const (
	CodeInvalidUser = "invalid-user"
	CodeInvalidKey  = "invalid-key"
	CodeInvalidJob  = "invalid-job"
	CodeInvalidTask = "invalid-task"
	CodeStaleTime   = "stale-time"
	CodeBadRequest  = "400"
	CodeNotFound    = "404"
	CodeInternal    = "500"
)

type UserCtxKey struct{}

// RespondOK writes the uniform ok envelope with fields merged at top level.
func RespondOK(c echo.Context, fields map[string]interface{}) error {
	body := map[string]interface{}{"status": "ok"}
	for k, v := range fields {
		body[k] = v
	}
	return c.JSON(http.StatusOK, body)
}

// RespondError writes the uniform error envelope. Auth and domain errors ride
// on a 200 so clients can tell "well-formed but refused" from transport
// failure; transport-level problems carry their HTTP status.
func RespondError(c echo.Context, httpStatus int, code, message, errCtx string) error {
	body := map[string]interface{}{
		"status":  "error",
		"code":    code,
		"message": message,
	}
	if errCtx != "" {
		body["context"] = errCtx
	}
	return c.JSON(httpStatus, body)
}

func GetUserFromCtx(ctx context.Context) (*models.User, error) {
	user, ok := ctx.Value(UserCtxKey{}).(*models.User)
	if !ok {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

func GetRequestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

func GetIPAddress(c echo.Context) string {
	return c.Request().RemoteAddr
}
