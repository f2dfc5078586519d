package ports

import (
	"context"

	"github.com/taskhive/task-tracker/internal/core/domain"
)

// TaskRepository defines the persistence boundary for tasks. The store
// guarantees per-record atomicity only; read-modify-write sequences in the
// service layer race last-writer-wins.
type TaskRepository interface {
	// FindAll lists tasks. A non-empty ownerID scopes the result to that
	// owner's tasks.
	FindAll(ctx context.Context, ownerID string) ([]*domain.Task, error)
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	// Save inserts the task when its ID is empty and replaces the stored
	// record otherwise. Returns the persisted task including its ID.
	Save(ctx context.Context, task *domain.Task) (*domain.Task, error)
	DeleteByID(ctx context.Context, id string) error
	ExistsByID(ctx context.Context, id string) (bool, error)
}
