package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskhive/task-tracker/internal/api/metrics"
	"github.com/taskhive/task-tracker/internal/core/domain"
	"github.com/taskhive/task-tracker/internal/core/ports"
)

// Context keys under which the gate attaches the authenticated caller.
// Values live on the Echo request context only, for exactly the duration of
// one request.
const (
	ContextIdentity = "identity"
	ContextUsername = "username"
	ContextUserID   = "user_id"
	ContextRole     = "role"
)

// Auth is the request authentication gate. It runs once per request, before
// any authorization check:
//
//   - no Authorization header: the request proceeds anonymous;
//   - a garbled header or a token that fails signature/structure checks is a
//     client error and short-circuits with 401 — distinct from anonymity;
//   - any other resolution failure (unknown subject, expired token, subject
//     mismatch, disabled account) leaves the request anonymous; rejecting it
//     is the authorization layer's job, not the gate's;
//   - success attaches identity, username, user id and the token's role
//     claim to the request context.
func Auth(resolver ports.TokenResolver, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				metrics.TokenRejectionsTotal.WithLabelValues("malformed").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "malformed authorization header")
			}

			user, role, err := resolver.ResolveToken(c.Request().Context(), parts[1])
			if err != nil {
				if errors.Is(err, domain.ErrMalformedToken) {
					metrics.TokenRejectionsTotal.WithLabelValues("malformed").Inc()
					return echo.NewHTTPError(http.StatusUnauthorized, "malformed token")
				}
				reason := rejectionReason(err)
				metrics.TokenRejectionsTotal.WithLabelValues(reason).Inc()
				log.Debug().Str("reason", reason).Msg("token rejected, proceeding unauthenticated")
				return next(c)
			}

			if !user.Enabled {
				metrics.TokenRejectionsTotal.WithLabelValues("disabled").Inc()
				log.Debug().Str("username", user.Username).Msg("token for disabled account, proceeding unauthenticated")
				return next(c)
			}

			c.Set(ContextIdentity, user)
			c.Set(ContextUsername, user.Username)
			c.Set(ContextUserID, user.ID)
			c.Set(ContextRole, role)

			return next(c)
		}
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrUserNotFound):
		return "unknown_subject"
	case errors.Is(err, domain.ErrSubjectMismatch):
		return "subject_mismatch"
	default:
		return "error"
	}
}
