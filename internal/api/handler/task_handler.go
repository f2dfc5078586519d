package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/task-tracker/internal/api/metrics"
	"github.com/taskhive/task-tracker/internal/core/ports"
)

const maxPatchBody = 1 << 20 // 1 MiB

type TaskHandler struct {
	taskService ports.TaskService
}

func NewTaskHandler(taskService ports.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// List returns the caller's tasks; admins see every task.
//
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Success      200  {array}  taskResponse
// @Router       /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	tasks, err := h.taskService.List(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponses(tasks))
}

// Create adds a task owned by the caller.
//
// @Summary      Create task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        body  body      createTaskRequest  true  "Task"
// @Success      201   {object}  taskResponse
// @Failure      400   {object}  map[string]string
// @Router       /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.Create(c.Request().Context(), actor, ports.CreateTaskInput{
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}

	metrics.TaskMutationsTotal.WithLabelValues("create").Inc()
	return c.JSON(http.StatusCreated, toTaskResponse(task))
}

// Get returns a single task.
//
// @Summary      Get task
// @Tags         tasks
// @Produce      json
// @Param        id  path  string  true  "Task id"
// @Success      200  {object}  taskResponse
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	task, err := h.taskService.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponse(task))
}

// Replace is the full-replace write path.
//
// @Summary      Replace task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "Task id"
// @Param        body  body      replaceTaskRequest  true  "New task content"
// @Success      200   {object}  taskResponse
// @Failure      404   {object}  map[string]string
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Replace(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req replaceTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.Replace(c.Request().Context(), actor, c.Param("id"), ports.ReplaceTaskInput{
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}

	metrics.TaskMutationsTotal.WithLabelValues("replace").Inc()
	return c.JSON(http.StatusOK, toTaskResponse(task))
}

// UpdateStatus is the status-only write path.
//
// @Summary      Update task status
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "Task id"
// @Param        body  body      updateStatusRequest  true  "New status"
// @Success      200   {object}  taskResponse
// @Failure      404   {object}  map[string]string
// @Router       /tasks/{id}/status [put]
func (h *TaskHandler) UpdateStatus(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	task, err := h.taskService.UpdateStatus(c.Request().Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		return err
	}

	metrics.TaskMutationsTotal.WithLabelValues("status").Inc()
	return c.JSON(http.StatusOK, toTaskResponse(task))
}

// PatchStatus is the partial write path: the body is an RFC 6902 patch
// document (application/json-patch+json), read raw rather than bound, since
// Echo's JSON binder does not know the media type.
//
// @Summary      Patch task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "Task id"
// @Success      200  {object}  taskResponse
// @Failure      400  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /tasks/{id}/status [patch]
func (h *TaskHandler) PatchStatus(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPatchBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable patch body")
	}

	task, err := h.taskService.Patch(c.Request().Context(), actor, c.Param("id"), body)
	if err != nil {
		return err
	}

	metrics.TaskMutationsTotal.WithLabelValues("patch").Inc()
	return c.JSON(http.StatusOK, toTaskResponse(task))
}

// Delete removes a task.
//
// @Summary      Delete task
// @Tags         tasks
// @Produce      json
// @Param        id  path  string  true  "Task id"
// @Success      200  {object}  deleteTaskResponse
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	id := c.Param("id")
	if err := h.taskService.Delete(c.Request().Context(), actor, id); err != nil {
		return err
	}

	metrics.TaskMutationsTotal.WithLabelValues("delete").Inc()
	return c.JSON(http.StatusOK, deleteTaskResponse{TaskID: id, Message: "task deleted"})
}
