package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskhive/task-tracker/internal/core/domain"
	"github.com/taskhive/task-tracker/internal/core/ports"
	"github.com/taskhive/task-tracker/internal/pkg/jsonpatch"
)

// TaskService implements the task mutation engine. All write paths share the
// same shape: load the current record by id, mutate, persist, return the
// post-update record. id and owner are never taken from a payload, and a
// task's status is never left empty.
//
// Writes carry no optimistic version check: two concurrent writers racing on
// the same id are last-writer-wins, and the loser's intermediate read is
// discarded. This mirrors the store's per-record atomicity contract.
type TaskService struct {
	repo   ports.TaskRepository
	events ports.EventRecorder
	log    zerolog.Logger
}

// NewTaskService returns a TaskService. events may be nil to disable the
// activity trail.
func NewTaskService(repo ports.TaskRepository, events ports.EventRecorder, log zerolog.Logger) *TaskService {
	return &TaskService{repo: repo, events: events, log: log}
}

// Create persists a new task owned by the actor. An absent status defaults
// to todo.
func (s *TaskService) Create(ctx context.Context, actor ports.Actor, in ports.CreateTaskInput) (*domain.Task, error) {
	if err := domain.ValidateDescription(in.Description); err != nil {
		return nil, err
	}
	status, err := domain.ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := &domain.Task{
		Description: in.Description,
		Status:      status,
		OwnerID:     actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Save(ctx, task)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create task")
		return nil, err
	}

	s.log.Info().Str("task_id", created.ID).Str("owner", actor.Username).Msg("task created")
	s.record(created, actor, "created")
	return created, nil
}

// Get returns a single task, scoped to the actor's access.
func (s *TaskService) Get(ctx context.Context, actor ports.Actor, id string) (*domain.Task, error) {
	return s.load(ctx, actor, id)
}

// List returns all tasks for admins and the actor's own tasks otherwise.
func (s *TaskService) List(ctx context.Context, actor ports.Actor) ([]*domain.Task, error) {
	owner := actor.UserID
	if actor.Role == domain.RoleAdmin {
		owner = ""
	}
	return s.repo.FindAll(ctx, owner)
}

// Replace is the full-replace write path: description and status are
// overwritten from the payload, an empty status is coerced to todo, id and
// owner stay untouched.
func (s *TaskService) Replace(ctx context.Context, actor ports.Actor, id string, in ports.ReplaceTaskInput) (*domain.Task, error) {
	task, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateDescription(in.Description); err != nil {
		return nil, err
	}
	status, err := domain.ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}

	task.Description = in.Description
	task.Status = status
	task.UpdatedAt = time.Now().UTC()

	return s.persist(ctx, task, actor, "replaced")
}

// UpdateStatus is the status-only write path: a full replace restricted to
// one field.
func (s *TaskService) UpdateStatus(ctx context.Context, actor ports.Actor, id string, status string) (*domain.Task, error) {
	task, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	parsed, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	task.Status = parsed
	task.UpdatedAt = time.Now().UTC()

	return s.persist(ctx, task, actor, "status updated")
}

// taskDocument is the generic record representation patches are applied to.
// The patch can in principle touch any of these fields; id and owner are
// restored from the stored record afterwards.
type taskDocument struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Owner       string `json:"owner"`
}

// Patch is the partial write path: the task is serialized to a generic
// document, the RFC 6902 operations run against it in order, and the result
// is validated and persisted. Either every operation succeeds and the result
// is stored, or nothing is.
func (s *TaskService) Patch(ctx context.Context, actor ports.Actor, id string, patchDoc []byte) (*domain.Task, error) {
	patch, err := jsonpatch.Decode(patchDoc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPatch, err)
	}

	task, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	doc, err := toGeneric(taskDocument{
		ID:          task.ID,
		Description: task.Description,
		Status:      string(task.Status),
		Owner:       task.OwnerID,
	})
	if err != nil {
		return nil, err
	}

	patched, err := patch.Apply(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPatchFailed, err)
	}

	var result taskDocument
	if err := fromGeneric(patched, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPatchFailed, err)
	}

	if err := domain.ValidateDescription(result.Description); err != nil {
		return nil, err
	}
	status, err := domain.ParseStatus(result.Status)
	if err != nil {
		return nil, err
	}

	task.Description = result.Description
	task.Status = status
	task.UpdatedAt = time.Now().UTC()

	return s.persist(ctx, task, actor, "patched")
}

// Delete removes a task by id. The existence pre-check makes deleting a
// missing id an error rather than a no-op.
func (s *TaskService) Delete(ctx context.Context, actor ports.Actor, id string) error {
	task, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteByID(ctx, task.ID); err != nil {
		return err
	}

	s.log.Info().Str("task_id", id).Str("actor", actor.Username).Msg("task deleted")
	s.record(task, actor, "deleted")
	return nil
}

// load fetches a task and enforces ownership: non-admin actors may only
// touch their own tasks.
func (s *TaskService) load(ctx context.Context, actor ports.Actor, id string) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin && task.OwnerID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	return task, nil
}

func (s *TaskService) persist(ctx context.Context, task *domain.Task, actor ports.Actor, note string) (*domain.Task, error) {
	updated, err := s.repo.Save(ctx, task)
	if err != nil {
		s.log.Error().Err(err).Str("task_id", task.ID).Msg("failed to persist task")
		return nil, err
	}
	s.record(updated, actor, note)
	return updated, nil
}

func (s *TaskService) record(task *domain.Task, actor ports.Actor, note string) {
	if s.events == nil {
		return
	}
	s.events.Enqueue(ports.TaskEventInput{
		TaskID:    task.ID,
		Status:    string(task.Status),
		Actor:     actor.Username,
		Timestamp: time.Now().UTC(),
		Note:      note,
	})
}

func toGeneric(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromGeneric(doc any, out any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
