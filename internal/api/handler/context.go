package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/task-tracker/internal/api/middleware"
	"github.com/taskhive/task-tracker/internal/core/ports"
)

// ctxActor extracts the authenticated caller injected by the Auth gate and
// performs a fast-fail check before any service call: a populated role
// proves the gate attached an identity. Handlers behind RBAC should never
// see this fail, but the check keeps them safe when wired without it.
func ctxActor(c echo.Context) (ports.Actor, error) {
	role, _ := c.Get(middleware.ContextRole).(string)
	if role == "" {
		return ports.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	userID, _ := c.Get(middleware.ContextUserID).(string)
	username, _ := c.Get(middleware.ContextUsername).(string)
	if userID == "" || username == "" {
		return ports.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	return ports.Actor{UserID: userID, Username: username, Role: role}, nil
}
