package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lof/customer-profile/internal/api/middleware"
	"github.com/lof/customer-profile/internal/core/domain"
)

// ctxSession returns the session stored by the auth middleware and fails fast
// with 401 when the request is anonymous.
func ctxSession(c echo.Context) (domain.Session, error) {
	session := middleware.SessionFrom(c)
	if !session.LoggedIn() {
		return domain.Session{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return session, nil
}
