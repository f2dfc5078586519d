// Package token signs and parses the bearer tokens used for stateless
// authentication. Signature verification and expiry are checked separately so
// callers can tell a tampered token apart from a legitimate but stale one.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskhive/task-tracker/internal/core/domain"
)

const defaultTTL = time.Hour

// Claims is the typed claim set embedded in every issued token.
type Claims struct {
	Role   string `json:"role"`
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Config carries the settings for a Codec.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
	// Clock overrides the time source. Defaults to time.Now.
	Clock func() time.Time
}

// Codec issues and parses HS256-signed tokens. It holds no mutable state and
// is safe for concurrent use.
type Codec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(cfg Config) *Codec {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Codec{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: ttl, now: now}
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for the user: subject is the username, role and user id
// are carried as claims, exp = iat + TTL.
func (c *Codec) Issue(user *domain.User) (signed string, issuedAt, expiresAt time.Time, err error) {
	issuedAt = c.now().UTC().Truncate(time.Second)
	expiresAt = issuedAt.Add(c.ttl)

	claims := &Claims{
		Role:   user.Role,
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	return signed, issuedAt, expiresAt, nil
}

// Parse verifies the signature and structure of a raw token and returns its
// claims. Expiry is deliberately not checked here; use IsExpired on the
// result. Any verification or structural failure maps to ErrMalformedToken.
func (c *Codec) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !parsed.Valid {
		return nil, domain.ErrMalformedToken
	}
	if claims.Subject == "" {
		return nil, domain.ErrMalformedToken
	}
	return claims, nil
}

// IsExpired reports whether the claims' expiry has passed. A token without an
// exp claim counts as expired.
func (c *Codec) IsExpired(claims *Claims) bool {
	if claims.ExpiresAt == nil {
		return true
	}
	return !c.now().Before(claims.ExpiresAt.Time)
}

// Subject extracts the subject from a raw token.
func (c *Codec) Subject(raw string) (string, error) {
	claims, err := c.Parse(raw)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IssuedAt extracts the issue time from a raw token.
func (c *Codec) IssuedAt(raw string) (time.Time, error) {
	claims, err := c.Parse(raw)
	if err != nil {
		return time.Time{}, err
	}
	if claims.IssuedAt == nil {
		return time.Time{}, domain.ErrMalformedToken
	}
	return claims.IssuedAt.Time, nil
}

// ExpiresAt extracts the expiry time from a raw token.
func (c *Codec) ExpiresAt(raw string) (time.Time, error) {
	claims, err := c.Parse(raw)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, domain.ErrMalformedToken
	}
	return claims.ExpiresAt.Time, nil
}
