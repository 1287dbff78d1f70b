package ports

import (
	"context"

	"github.com/lof/customer-profile/internal/core/domain"
)

// CustomerRepository defines persistence operations for customers.
type CustomerRepository interface {
	// GetByID returns domain.ErrCustomerNotFound for unknown or malformed ids.
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)
	Create(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
	// Save replaces the stored customer with the given state.
	Save(ctx context.Context, customer *domain.Customer) error
}
