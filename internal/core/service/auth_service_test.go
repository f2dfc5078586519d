package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhive/task-tracker/internal/core/domain"
	"github.com/taskhive/task-tracker/internal/core/token"
)

type stubUserRepo struct {
	users  map[string]*domain.User
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if u, ok := r.users[username]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	if user.ID == "" {
		if _, exists := r.users[user.Username]; exists {
			return nil, domain.ErrUserExists
		}
		r.nextID++
		user = cloneUser(user)
		user.ID = fmt.Sprintf("u-%d", r.nextID)
	}
	r.users[user.Username] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) Delete(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.Username]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, user.Username)
	return nil
}

func (r *stubUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, err := r.FindByID(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *stubUserRepo) FindAll(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func newAuthService(repo *stubUserRepo) *AuthService {
	codec := token.NewCodec(token.Config{Secret: "secret", Issuer: "task-tracker", TTL: time.Hour})
	return NewAuthService(repo, codec, zerolog.Nop())
}

func TestAuthService_Register(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	user, err := svc.Register(context.Background(), "alice", "secret123", "")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected default role user, got %q", user.Role)
	}
	if !user.Enabled {
		t.Fatalf("registered account should be enabled")
	}
	if user.PasswordHash == "secret123" {
		t.Fatalf("password stored in clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
	if user.CreatedAt.IsZero() || !user.CreatedAt.Equal(user.UpdatedAt) {
		t.Fatalf("unexpected timestamps: %v / %v", user.CreatedAt, user.UpdatedAt)
	}
}

func TestAuthService_Register_Invalid(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	if _, err := svc.Register(context.Background(), "", "pass", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "bob", "pass", "superuser"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad role, got %v", err)
	}
}

func TestAuthService_Authenticate_RoundTrip(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(repo)

	registered, err := svc.Register(context.Background(), "alice", "secret123", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	issued, err := svc.Authenticate(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if issued.Token == "" {
		t.Fatalf("expected a token")
	}
	if issued.UserID != registered.ID {
		t.Fatalf("issued for %q, want %q", issued.UserID, registered.ID)
	}
	if got := issued.ExpiresAt.Sub(issued.IssuedAt); got != time.Hour {
		t.Fatalf("unexpected lifetime %v", got)
	}

	// A token the service issued must resolve back to the same identity.
	user, role, err := svc.ResolveToken(context.Background(), issued.Token)
	if err != nil {
		t.Fatalf("ResolveToken returned error: %v", err)
	}
	if user.ID != registered.ID || user.Username != "alice" {
		t.Fatalf("resolved wrong identity: %+v", user)
	}
	if role != domain.RoleAdmin {
		t.Fatalf("expected admin role claim, got %q", role)
	}
}

func TestAuthService_Authenticate_WrongPassword(t *testing.T) {
	svc := newAuthService(newStubUserRepo())
	_, _ = svc.Register(context.Background(), "bob", "goodpass", "")

	if _, err := svc.Authenticate(context.Background(), "bob", "badpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Authenticate_UnknownUser(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	if _, err := svc.Authenticate(context.Background(), "ghost", "pass"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_Authenticate_DisabledAccount(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(repo)

	user, _ := svc.Register(context.Background(), "alice", "secret123", "")
	user.Enabled = false
	if _, err := repo.Save(context.Background(), user); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Even the correct password must not authenticate a disabled account,
	// and no token is issued.
	if _, err := svc.Authenticate(context.Background(), "alice", "secret123"); !errors.Is(err, domain.ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestAuthService_ResolveToken_Malformed(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	if _, _, err := svc.ResolveToken(context.Background(), "not-a-token"); !errors.Is(err, domain.ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
}

func TestAuthService_ResolveToken_Expired(t *testing.T) {
	repo := newStubUserRepo()
	now := time.Now().UTC()
	clock := now
	codec := token.NewCodec(token.Config{
		Secret: "secret",
		TTL:    time.Minute,
		Clock:  func() time.Time { return clock },
	})
	svc := NewAuthService(repo, codec, zerolog.Nop())

	_, _ = svc.Register(context.Background(), "alice", "secret123", "")
	issued, err := svc.Authenticate(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	clock = now.Add(2 * time.Minute)
	if _, _, err := svc.ResolveToken(context.Background(), issued.Token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestAuthService_ResolveToken_DeletedSubject(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(repo)

	user, _ := svc.Register(context.Background(), "alice", "secret123", "")
	issued, err := svc.Authenticate(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if err := repo.Delete(context.Background(), user); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := svc.ResolveToken(context.Background(), issued.Token); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

// caseFoldedLookupRepo mimics a store with case-insensitive username lookup:
// a lookup for "alice" can resolve a record whose username is "Alice".
type caseFoldedLookupRepo struct {
	*stubUserRepo
}

func (r *caseFoldedLookupRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for name, u := range r.users {
		if strings.EqualFold(name, username) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func TestAuthService_ResolveToken_SubjectMismatch(t *testing.T) {
	repo := &caseFoldedLookupRepo{newStubUserRepo()}
	codec := token.NewCodec(token.Config{Secret: "secret", Issuer: "task-tracker", TTL: time.Hour})
	svc := NewAuthService(repo, codec, zerolog.Nop())

	stored, err := repo.Save(context.Background(), &domain.User{
		Username:     "Alice",
		PasswordHash: "irrelevant",
		Role:         domain.RoleUser,
		Enabled:      true,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	// Token subject "alice" resolves a record named "Alice": the lookup
	// succeeds but the subject no longer matches the stored username.
	signed, _, _, err := codec.Issue(&domain.User{ID: stored.ID, Username: "alice", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, _, err := svc.ResolveToken(context.Background(), signed); !errors.Is(err, domain.ErrSubjectMismatch) {
		t.Fatalf("expected ErrSubjectMismatch, got %v", err)
	}
}

func TestAuthService_DeleteUser_Missing(t *testing.T) {
	svc := newAuthService(newStubUserRepo())

	if err := svc.DeleteUser(context.Background(), "u-999"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
