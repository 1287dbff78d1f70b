package ports

import (
	"context"

	"github.com/lof/customer-profile/internal/core/domain"
)

// RegisterInput carries the fields of a new customer account.
type RegisterInput struct {
	Email     string
	Password  string
	Firstname string
	Lastname  string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (string, *domain.Customer, error)
	Logout(ctx context.Context, session domain.Session) error
	// Authenticate resolves a session token to the session it was issued for.
	Authenticate(ctx context.Context, token string) (domain.Session, error)
}
