package http

import (
	"github.com/labstack/echo/v4"

	"github.com/framefarm/framefarm/internal/middleware"
	"github.com/framefarm/framefarm/internal/users"
)

func MapUsersRoutes(authGroup, userGroup *echo.Group, h users.Handler, mw *middleware.MiddlewareManager) {
	authGroup.Use(mw.DigestAuthMiddleware())
	authGroup.GET("/test.json", h.AuthTest())

	userGroup.Use(mw.DigestAuthMiddleware())
	userGroup.POST("/add.json", h.Add())
	userGroup.POST("/remove.json", h.Remove())
	userGroup.POST("/rekey.json", h.Rekey())
	userGroup.GET("/list.json", h.List())
}
