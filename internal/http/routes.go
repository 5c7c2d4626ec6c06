package http

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	middleware "easyplan-sync.com/easyplan-sync/internal/http/middlewares"
	pkgLog "easyplan-sync.com/easyplan-sync/pkg/log"
)

func Register(e *echo.Echo, h *Handler, rateLimitPerMinute int, l pkgLog.Logger) {
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(l))
	e.Use(middleware.RateLimiter(rateLimitPerMinute, time.Minute))

	e.GET("/tasks", h.ListTasks)
	e.POST("/tasks", h.CreateTask)
	e.GET("/tasks/:id", h.GetTask)
	e.PUT("/tasks/:id", h.UpdateTask)
	e.DELETE("/tasks/:id", h.DeleteTask)
	e.POST("/tasks/:id/toggle", h.ToggleTask)

	e.POST("/sync", h.SyncNow)
	e.POST("/sync/pull", h.Pull)
	e.POST("/backup/export", h.ExportBackup)
	e.POST("/backup/import", h.ImportBackup)

	e.GET("/status", h.Status)
	e.GET("/stats", h.Stats)
	e.GET("/meta", h.Meta)

	e.POST("/session", h.SignIn)
	e.DELETE("/session", h.SignOut)
}
