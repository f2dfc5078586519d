package ports

import (
	"context"

	"github.com/taskhive/task-tracker/internal/core/domain"
)

// UserRepository defines the persistence boundary for user accounts.
// Username uniqueness is enforced by the store.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Save inserts the user when its ID is empty and replaces the stored
	// record otherwise. Returns the persisted user including its ID.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, user *domain.User) error
	ExistsByID(ctx context.Context, id string) (bool, error)
	FindAll(ctx context.Context) ([]*domain.User, error)
}
