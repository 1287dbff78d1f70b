package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lof/customer-profile/internal/core/domain"
)

// SessionKey is the echo context key holding the domain.Session.
const SessionKey = "session"

// Authenticator resolves a bearer token to a session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Session, error)
}

// Auth requires a valid bearer token and stores the session in the context.
func Auth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			if err := authenticate(c, auth, authHeader); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// OptionalAuth lets anonymous requests through with an empty session. A
// header that is present must still carry a valid token.
func OptionalAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				c.Set(SessionKey, domain.Session{})
				return next(c)
			}
			if err := authenticate(c, auth, authHeader); err != nil {
				return err
			}
			return next(c)
		}
	}
}

func authenticate(c echo.Context, auth Authenticator, authHeader string) error {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	session, err := auth.Authenticate(c.Request().Context(), strings.TrimSpace(parts[1]))
	if err != nil {
		if errors.Is(err, domain.ErrSessionExpired) {
			return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
		}
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		return err
	}

	c.Set(SessionKey, session)
	return nil
}

// SessionFrom returns the session stored by Auth or OptionalAuth, or an empty
// session when neither ran.
func SessionFrom(c echo.Context) domain.Session {
	session, _ := c.Get(SessionKey).(domain.Session)
	return session
}
