package ports

import (
	"context"

	"github.com/taskhive/task-tracker/internal/core/domain"
)

// Actor identifies the authenticated caller of a task operation. Role drives
// access scoping: RoleUser is restricted to tasks it owns, RoleAdmin sees
// everything.
type Actor struct {
	UserID   string
	Username string
	Role     string
}

// CreateTaskInput carries the data needed to create a task. Owner is always
// the actor; it is never taken from the payload.
type CreateTaskInput struct {
	Description string
	Status      string
}

// ReplaceTaskInput is the payload of a full-replace update.
type ReplaceTaskInput struct {
	Description string
	Status      string
}

// TaskService defines the use-case operations over tasks, including the
// three write paths of the mutation engine (full replace, status-only
// replace, JSON-Patch partial update).
type TaskService interface {
	Create(ctx context.Context, actor Actor, in CreateTaskInput) (*domain.Task, error)
	Get(ctx context.Context, actor Actor, id string) (*domain.Task, error)
	List(ctx context.Context, actor Actor) ([]*domain.Task, error)
	Replace(ctx context.Context, actor Actor, id string, in ReplaceTaskInput) (*domain.Task, error)
	UpdateStatus(ctx context.Context, actor Actor, id string, status string) (*domain.Task, error)
	Patch(ctx context.Context, actor Actor, id string, patchDoc []byte) (*domain.Task, error)
	Delete(ctx context.Context, actor Actor, id string) error
}
