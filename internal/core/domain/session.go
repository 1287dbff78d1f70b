package domain

import "errors"

var ErrSessionExpired = errors.New("session expired")

// Session identifies the customer behind a request. The zero value is an
// anonymous session.
type Session struct {
	CustomerID string
	SessionID  string
}

// LoggedIn reports whether the session belongs to a customer.
func (s Session) LoggedIn() bool {
	return s.CustomerID != ""
}
