package middleware

// identity.go holds the context keys JWTAuth fills in and the accessors the
// handlers and the other middleware use to read them back.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	ContextUserID = "user_id" // uint64
	ContextRole   = "role"    // string
)

// UserID returns the authenticated user's ID.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ContextUserID).(uint64)
	return id, ok && id != 0
}

// Role returns the authenticated user's role, or "" for anonymous requests.
func Role(c echo.Context) string {
	role, _ := c.Get(ContextRole).(string)
	return role
}

// identityKey is the user part of rate limit keys: the user ID, or "anon"
// when no token was presented.
func identityKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
