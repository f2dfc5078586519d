package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/task-tracker/internal/api/middleware"
	"github.com/taskhive/task-tracker/internal/core/domain"
	"github.com/taskhive/task-tracker/internal/core/ports"
)

type stubTaskService struct {
	createFn       func(ctx context.Context, actor ports.Actor, in ports.CreateTaskInput) (*domain.Task, error)
	getFn          func(ctx context.Context, actor ports.Actor, id string) (*domain.Task, error)
	listFn         func(ctx context.Context, actor ports.Actor) ([]*domain.Task, error)
	replaceFn      func(ctx context.Context, actor ports.Actor, id string, in ports.ReplaceTaskInput) (*domain.Task, error)
	updateStatusFn func(ctx context.Context, actor ports.Actor, id, status string) (*domain.Task, error)
	patchFn        func(ctx context.Context, actor ports.Actor, id string, patch []byte) (*domain.Task, error)
	deleteFn       func(ctx context.Context, actor ports.Actor, id string) error
}

func (s *stubTaskService) Create(ctx context.Context, actor ports.Actor, in ports.CreateTaskInput) (*domain.Task, error) {
	return s.createFn(ctx, actor, in)
}

func (s *stubTaskService) Get(ctx context.Context, actor ports.Actor, id string) (*domain.Task, error) {
	return s.getFn(ctx, actor, id)
}

func (s *stubTaskService) List(ctx context.Context, actor ports.Actor) ([]*domain.Task, error) {
	return s.listFn(ctx, actor)
}

func (s *stubTaskService) Replace(ctx context.Context, actor ports.Actor, id string, in ports.ReplaceTaskInput) (*domain.Task, error) {
	return s.replaceFn(ctx, actor, id, in)
}

func (s *stubTaskService) UpdateStatus(ctx context.Context, actor ports.Actor, id, status string) (*domain.Task, error) {
	return s.updateStatusFn(ctx, actor, id, status)
}

func (s *stubTaskService) Patch(ctx context.Context, actor ports.Actor, id string, patch []byte) (*domain.Task, error) {
	return s.patchFn(ctx, actor, id, patch)
}

func (s *stubTaskService) Delete(ctx context.Context, actor ports.Actor, id string) error {
	return s.deleteFn(ctx, actor, id)
}

// newActorContext builds an echo.Context carrying the identity values the
// Auth gate would have attached.
func newActorContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	c, rec := newTestContext(t, method, target, body)
	c.Set(middleware.ContextUserID, "u1")
	c.Set(middleware.ContextUsername, "alice")
	c.Set(middleware.ContextRole, domain.RoleUser)
	return c, rec
}

func TestTaskHandler_Create(t *testing.T) {
	stub := &stubTaskService{
		createFn: func(ctx context.Context, actor ports.Actor, in ports.CreateTaskInput) (*domain.Task, error) {
			if actor.UserID != "u1" || actor.Role != domain.RoleUser {
				t.Fatalf("unexpected actor: %+v", actor)
			}
			if in.Description != "write the report" || in.Status != "in_progress" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Task{ID: "t1", Description: in.Description, Status: domain.StatusInProgress, OwnerID: actor.UserID}, nil
		},
	}
	h := NewTaskHandler(stub)

	c, rec := newActorContext(t, http.MethodPost, "/tasks",
		`{"description":"write the report","status":"in_progress"}`)

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["id"] != "t1" || resp["status"] != "in_progress" || resp["owner"] != "u1" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestTaskHandler_Create_ShortDescription(t *testing.T) {
	stub := &stubTaskService{
		createFn: func(ctx context.Context, actor ports.Actor, in ports.CreateTaskInput) (*domain.Task, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewTaskHandler(stub)

	c, _ := newActorContext(t, http.MethodPost, "/tasks", `{"description":"abc"}`)

	if code := httpCode(t, h.Create(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestTaskHandler_Create_Unauthenticated(t *testing.T) {
	h := NewTaskHandler(&stubTaskService{})

	c, _ := newTestContext(t, http.MethodPost, "/tasks", `{"description":"write the report"}`)

	if code := httpCode(t, h.Create(c)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestTaskHandler_List(t *testing.T) {
	stub := &stubTaskService{
		listFn: func(ctx context.Context, actor ports.Actor) ([]*domain.Task, error) {
			return []*domain.Task{
				{ID: "t1", Description: "first task", Status: domain.StatusTodo, OwnerID: "u1"},
				{ID: "t2", Description: "second task", Status: domain.StatusDone, OwnerID: "u1"},
			}, nil
		},
	}
	h := NewTaskHandler(stub)

	c, rec := newActorContext(t, http.MethodGet, "/tasks", "")

	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 2 || resp[0]["id"] != "t1" || resp[1]["status"] != "done" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestTaskHandler_Get_NotFound(t *testing.T) {
	stub := &stubTaskService{
		getFn: func(ctx context.Context, actor ports.Actor, id string) (*domain.Task, error) {
			return nil, domain.ErrTaskNotFound
		},
	}
	h := NewTaskHandler(stub)

	c, _ := newActorContext(t, http.MethodGet, "/tasks/ghost", "")
	c.SetParamNames("id")
	c.SetParamValues("ghost")

	if err := h.Get(c); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTaskHandler_Replace(t *testing.T) {
	stub := &stubTaskService{
		replaceFn: func(ctx context.Context, actor ports.Actor, id string, in ports.ReplaceTaskInput) (*domain.Task, error) {
			if id != "t1" || in.Description != "rewritten task" || in.Status != "done" {
				t.Fatalf("unexpected args: %s %+v", id, in)
			}
			return &domain.Task{ID: id, Description: in.Description, Status: domain.StatusDone, OwnerID: "u1"}, nil
		},
	}
	h := NewTaskHandler(stub)

	c, rec := newActorContext(t, http.MethodPut, "/tasks/t1",
		`{"description":"rewritten task","status":"done"}`)
	c.SetParamNames("id")
	c.SetParamValues("t1")

	if err := h.Replace(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestTaskHandler_UpdateStatus(t *testing.T) {
	stub := &stubTaskService{
		updateStatusFn: func(ctx context.Context, actor ports.Actor, id, status string) (*domain.Task, error) {
			if id != "t1" || status != "done" {
				t.Fatalf("unexpected args: %s %s", id, status)
			}
			return &domain.Task{ID: id, Description: "first task", Status: domain.StatusDone, OwnerID: "u1"}, nil
		},
	}
	h := NewTaskHandler(stub)

	c, rec := newActorContext(t, http.MethodPut, "/tasks/t1/status", `{"status":"done"}`)
	c.SetParamNames("id")
	c.SetParamValues("t1")

	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestTaskHandler_PatchStatus_RawBodyForwarded(t *testing.T) {
	patchDoc := `[{"op":"replace","path":"/status","value":"done"}]`
	stub := &stubTaskService{
		patchFn: func(ctx context.Context, actor ports.Actor, id string, patch []byte) (*domain.Task, error) {
			if id != "t1" {
				t.Fatalf("unexpected id: %s", id)
			}
			if string(patch) != patchDoc {
				t.Fatalf("patch body altered: %s", patch)
			}
			return &domain.Task{ID: id, Description: "first task", Status: domain.StatusDone, OwnerID: "u1"}, nil
		},
	}
	h := NewTaskHandler(stub)

	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPatch, "/tasks/t1/status", strings.NewReader(patchDoc))
	req.Header.Set(echo.HeaderContentType, "application/json-patch+json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextUserID, "u1")
	c.Set(middleware.ContextUsername, "alice")
	c.Set(middleware.ContextRole, domain.RoleUser)
	c.SetParamNames("id")
	c.SetParamValues("t1")

	if err := h.PatchStatus(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["status"] != "done" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestTaskHandler_Delete(t *testing.T) {
	deleted := ""
	stub := &stubTaskService{
		deleteFn: func(ctx context.Context, actor ports.Actor, id string) error {
			deleted = id
			return nil
		},
	}
	h := NewTaskHandler(stub)

	c, rec := newActorContext(t, http.MethodDelete, "/tasks/t1", "")
	c.SetParamNames("id")
	c.SetParamValues("t1")

	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if deleted != "t1" {
		t.Fatalf("expected delete of t1, got %q", deleted)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["task_id"] != "t1" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}
