package ports

import (
	"context"
	"time"

	"github.com/taskhive/task-tracker/internal/core/domain"
)

// TokenIssued carries the outcome of a successful authentication back to the
// transport layer. The token itself is never persisted server-side.
type TokenIssued struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthService turns credentials into tokens and tokens back into identities.
type AuthService interface {
	Register(ctx context.Context, username, password, role string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*TokenIssued, error)
	// ResolveToken validates a raw bearer token and returns the identity it
	// was issued for along with the role claim embedded in the token.
	ResolveToken(ctx context.Context, raw string) (*domain.User, string, error)
	Users(ctx context.Context) ([]*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// TokenResolver is the narrow slice of AuthService the request
// authentication gate depends on.
type TokenResolver interface {
	ResolveToken(ctx context.Context, raw string) (*domain.User, string, error)
}
