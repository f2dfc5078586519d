package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhive/task-tracker/internal/core/domain"
	"github.com/taskhive/task-tracker/internal/core/ports"
	"github.com/taskhive/task-tracker/internal/core/token"
)

// dummyHash is compared against when the username does not resolve, so the
// missing-user path does the same bcrypt work as the mismatch path.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("credential-padding"), bcrypt.DefaultCost)

// AuthService implements registration, login, and stateless token
// resolution. It never logs plaintext passwords, raw tokens, or the signing
// secret.
type AuthService struct {
	users  ports.UserRepository
	tokens *token.Codec
	log    zerolog.Logger
}

func NewAuthService(users ports.UserRepository, tokens *token.Codec, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

// Register creates an enabled account with a bcrypt-hashed password. An
// empty role defaults to RoleUser.
func (s *AuthService) Register(ctx context.Context, username, password, role string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.ValidRole(role) {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Save(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", created.Username).Str("role", created.Role).Msg("user registered")
	return created, nil
}

// Authenticate verifies the credentials and issues a signed token carrying
// the user's role and id, subject = username. Failure order: user lookup,
// account status, credential check — with the password compared before
// branching so the three outcomes do comparable work.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*ports.TokenIssued, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, err
	}

	match := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil

	if !user.Enabled {
		s.log.Warn().Str("username", username).Msg("login attempt on disabled account")
		return nil, domain.ErrAccountDisabled
	}
	if !match {
		return nil, domain.ErrInvalidCredentials
	}

	signed, issuedAt, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", username).Time("expires_at", expiresAt).Msg("token issued")

	return &ports.TokenIssued{
		UserID:    user.ID,
		Token:     signed,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// ResolveToken turns a raw bearer token back into the identity it was issued
// for. Checks run in a fixed order so callers can distinguish failure kinds:
// signature/structure, identity lookup, expiry, subject match.
func (s *AuthService) ResolveToken(ctx context.Context, raw string) (*domain.User, string, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.FindByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, "", err
	}

	if s.tokens.IsExpired(claims) {
		return nil, "", domain.ErrTokenExpired
	}

	// Guards against a renamed or deleted-and-recreated account reusing an
	// old token.
	if claims.Subject != user.Username {
		return nil, "", domain.ErrSubjectMismatch
	}

	return user, claims.Role, nil
}

// Users lists all accounts.
func (s *AuthService) Users(ctx context.Context) ([]*domain.User, error) {
	return s.users.FindAll(ctx)
}

// DeleteUser removes an account by id. Missing ids are an error, not a
// no-op.
func (s *AuthService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return s.users.Delete(ctx, user)
}
