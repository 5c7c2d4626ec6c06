package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"easyplan-sync.com/easyplan-sync/internal/errors"
	"easyplan-sync.com/easyplan-sync/internal/http/validators"
	"easyplan-sync.com/easyplan-sync/internal/services"
	"easyplan-sync.com/easyplan-sync/pkg/constants"
	pkgLog "easyplan-sync.com/easyplan-sync/pkg/log"
)

type SessionManager interface {
	SignIn(ctx context.Context, userID string) error
	SignOut(ctx context.Context) error
}

type SyncTrigger interface {
	Trigger()
}

type Handler struct {
	syncService  *services.SyncService
	statsService *services.StatsService
	session      SessionManager
	trigger      SyncTrigger
	l            pkgLog.Logger
}

func NewHandler(
	syncService *services.SyncService,
	statsService *services.StatsService,
	session SessionManager,
	trigger SyncTrigger,
	l pkgLog.Logger,
) *Handler {
	return &Handler{
		syncService:  syncService,
		statsService: statsService,
		session:      session,
		trigger:      trigger,
		l:            l,
	}
}

func httpError(err error) error {
	return echo.NewHTTPError(errors.StatusCode(err), errors.Message(err))
}

func (h *Handler) ListTasks(c echo.Context) error {
	tasks := h.syncService.GetAllTasks()

	if date := c.QueryParam("date"); date != "" {
		day, err := validators.ParseDate(date, h.syncService.Location())
		if err != nil {
			return httpError(err)
		}
		tasks = h.syncService.GetTasksForDate(day)
	} else if today, _ := strconv.ParseBool(c.QueryParam("today")); today {
		tasks = h.syncService.GetTodayTasks()
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count": len(tasks),
		"tasks": tasks,
	})
}

func (h *Handler) GetTask(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return httpError(errors.ErrTaskIDRequired)
	}

	task, err := h.syncService.GetTask(id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, task)
}

func (h *Handler) CreateTask(c echo.Context) error {
	var req validators.TaskRequest
	if err := c.Bind(&req); err != nil {
		return httpError(errors.ErrInvalidJSON)
	}
	if err := validators.ValidateTaskRequest(&req); err != nil {
		return httpError(err)
	}

	task, err := req.ToTask("", h.syncService.Location())
	if err != nil {
		return httpError(err)
	}

	created, status, err := h.syncService.AddTask(c.Request().Context(), task)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"task":       created,
		"syncStatus": status,
	})
}

func (h *Handler) UpdateTask(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return httpError(errors.ErrTaskIDRequired)
	}

	var req validators.TaskRequest
	if err := c.Bind(&req); err != nil {
		return httpError(errors.ErrInvalidJSON)
	}
	if err := validators.ValidateTaskRequest(&req); err != nil {
		return httpError(err)
	}

	task, err := req.ToTask(id, h.syncService.Location())
	if err != nil {
		return httpError(err)
	}

	updated, status, err := h.syncService.UpdateTask(c.Request().Context(), task)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"task":       updated,
		"syncStatus": status,
	})
}

func (h *Handler) ToggleTask(c echo.Context) error {
	task, status, err := h.syncService.ToggleCompletion(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"task":       task,
		"syncStatus": status,
	})
}

func (h *Handler) DeleteTask(c echo.Context) error {
	status, err := h.syncService.DeleteTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"syncStatus": status})
}

func (h *Handler) SyncNow(c echo.Context) error {
	report, err := h.syncService.SyncPendingTasks(c.Request().Context())
	if err != nil {
		h.l.Warnf(c.Request().Context(), "manual sync failed: %v", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, report)
}

func (h *Handler) Pull(c echo.Context) error {
	n, err := h.syncService.LoadTasksForUser(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"pulled": n})
}

func (h *Handler) ExportBackup(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.syncService.ExportToBackup(ctx); err != nil {
		return httpError(err)
	}

	binID, _ := h.syncService.BackupBinID(ctx)
	return c.JSON(http.StatusOK, echo.Map{"binId": binID})
}

func (h *Handler) ImportBackup(c echo.Context) error {
	n, err := h.syncService.ImportFromBackup(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"imported": n})
}

func (h *Handler) Status(c echo.Context) error {
	status, err := h.syncService.Status(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, status)
}

func (h *Handler) Stats(c echo.Context) error {
	tasks := h.syncService.GetAllTasks()
	now := h.syncService.Now()

	return c.JSON(http.StatusOK, echo.Map{
		"statistics":  h.statsService.Calculate(tasks, now),
		"overdue":     h.statsService.Overdue(tasks, now),
		"dueThisWeek": h.statsService.DueWithin(tasks, now, 7),
	})
}

type sessionRequest struct {
	UserID string `json:"userId"`
}

// Meta lists the accepted priorities and categories with their display data.
func (h *Handler) Meta(c echo.Context) error {
	priorities := make([]echo.Map, 0, len(constants.Priorities))
	for _, p := range constants.Priorities {
		priorities = append(priorities, echo.Map{
			"value": p,
			"name":  p.DisplayName(),
			"color": p.ColorHex(),
		})
	}
	categories := make([]echo.Map, 0, len(constants.Categories))
	for _, cat := range constants.Categories {
		categories = append(categories, echo.Map{
			"value": cat,
			"name":  cat.DisplayName(),
			"icon":  cat.Icon(),
			"color": cat.ColorHex(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"priorities": priorities,
		"categories": categories,
	})
}

// SignIn stores the session and, when reachable, pulls the user's tasks.
func (h *Handler) SignIn(c echo.Context) error {
	var req sessionRequest
	if err := c.Bind(&req); err != nil {
		return httpError(errors.ErrInvalidJSON)
	}

	ctx := c.Request().Context()
	if err := h.session.SignIn(ctx, req.UserID); err != nil {
		return httpError(err)
	}

	pulled, err := h.syncService.LoadTasksForUser(ctx)
	if err != nil {
		h.l.Warnf(ctx, "pull after sign in failed: %v", err)
	}
	if h.trigger != nil {
		h.trigger.Trigger()
	}

	return c.JSON(http.StatusOK, echo.Map{
		"userId": req.UserID,
		"pulled": pulled,
	})
}

func (h *Handler) SignOut(c echo.Context) error {
	if err := h.session.SignOut(c.Request().Context()); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
