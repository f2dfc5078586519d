package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/taskhive/task-tracker/internal/core/domain"
	"github.com/taskhive/task-tracker/internal/core/ports"
)

const identityTTL = 5 * time.Minute

// cachedUser mirrors domain.User for cache serialization; the password hash
// must survive the round trip (domain.User hides it from JSON).
type cachedUser struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IdentityCache is a read-through cache over a UserRepository, keyed by
// username. Token resolution hits FindByUsername on every request; the cache
// bounds that load. Entries expire after identityTTL and are invalidated on
// Save/Delete. Only identity records are cached — never tokens, so
// authentication stays stateless.
type IdentityCache struct {
	client *redis.Client
	next   ports.UserRepository
	log    zerolog.Logger
}

// NewIdentityCache wraps next with a redis-backed identity cache.
func NewIdentityCache(client *redis.Client, next ports.UserRepository, log zerolog.Logger) *IdentityCache {
	return &IdentityCache{client: client, next: next, log: log}
}

func identityKey(username string) string {
	return fmt.Sprintf("identity:%s", username)
}

func (c *IdentityCache) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	raw, err := c.client.Get(ctx, identityKey(username)).Bytes()
	if err == nil {
		var cu cachedUser
		if err := json.Unmarshal(raw, &cu); err == nil {
			return cu.toDomain(), nil
		}
		// Corrupt entry: fall through to the store and rewrite it.
	} else if err != redis.Nil {
		c.log.Warn().Err(err).Msg("identity cache read failed, falling back to store")
	}

	user, err := c.next.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	c.store(ctx, user)
	return user, nil
}

func (c *IdentityCache) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return c.next.FindByID(ctx, id)
}

func (c *IdentityCache) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	saved, err := c.next.Save(ctx, user)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, saved.Username)
	return saved, nil
}

func (c *IdentityCache) Delete(ctx context.Context, user *domain.User) error {
	if err := c.next.Delete(ctx, user); err != nil {
		return err
	}
	c.invalidate(ctx, user.Username)
	return nil
}

func (c *IdentityCache) ExistsByID(ctx context.Context, id string) (bool, error) {
	return c.next.ExistsByID(ctx, id)
}

func (c *IdentityCache) FindAll(ctx context.Context) ([]*domain.User, error) {
	return c.next.FindAll(ctx)
}

func (c *IdentityCache) store(ctx context.Context, user *domain.User) {
	data, err := json.Marshal(cachedUser{
		ID:           user.ID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		Enabled:      user.Enabled,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, identityKey(user.Username), data, identityTTL).Err(); err != nil {
		c.log.Warn().Err(err).Msg("identity cache write failed")
	}
}

func (c *IdentityCache) invalidate(ctx context.Context, username string) {
	if err := c.client.Del(ctx, identityKey(username)).Err(); err != nil {
		c.log.Warn().Err(err).Msg("identity cache invalidation failed")
	}
}

func (cu cachedUser) toDomain() *domain.User {
	return &domain.User{
		ID:           cu.ID,
		Username:     cu.Username,
		PasswordHash: cu.PasswordHash,
		Role:         cu.Role,
		Enabled:      cu.Enabled,
		CreatedAt:    cu.CreatedAt,
		UpdatedAt:    cu.UpdatedAt,
	}
}
