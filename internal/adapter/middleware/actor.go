package middleware

import (
	"net/http"
	"slices"
	"strings"

	"microloan-backend/internal/domain/user"

	"github.com/labstack/echo/v4"
)

// Set by the identity gateway in front of the service.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

const actorKey = "actor"

type Actor struct {
	UserID string
	Role   user.Role
}

// Authenticate rejects requests without a well-formed actor and stores it on
// the echo context.
func Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid := strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
			if !reHex32.MatchString(uid) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing or invalid " + HeaderUserID})
			}
			role := user.Role(strings.ToLower(strings.TrimSpace(c.Request().Header.Get(HeaderUserRole))))
			if !role.Valid() {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing or invalid " + HeaderUserRole})
			}
			c.Set(actorKey, Actor{UserID: uid, Role: role})
			return next(c)
		}
	}
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			a, ok := ActorFrom(c)
			if !ok || !slices.Contains(roles, a.Role) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

func ActorFrom(c echo.Context) (Actor, bool) {
	a, ok := c.Get(actorKey).(Actor)
	return a, ok
}
