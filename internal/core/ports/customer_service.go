package ports

import (
	"context"

	"github.com/lof/customer-profile/internal/core/domain"
)

// UpdateCustomerInput carries the fields of the update mutation. Empty values
// leave the stored field unchanged.
type UpdateCustomerInput struct {
	Firstname string
	Lastname  string
	Email     string
}

// AvatarUpload is a profile picture posted by a customer.
type AvatarUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CustomAttributeView is a flattened custom attribute.
type CustomAttributeView struct {
	Code  string
	Value string
}

// RegionView is the region sub-object of an address.
type RegionView struct {
	RegionCode string
	Region     string
}

// AddressView is the response shape of one address.
type AddressView struct {
	Firstname   string
	Lastname    string
	Street      []string
	City        string
	Region      RegionView
	Postcode    string
	CountryCode string
	Telephone   string
}

// CustomerView is the read-after-write projection of a customer.
type CustomerView struct {
	ID               string
	Firstname        string
	Lastname         string
	Suffix           string
	Email            string
	ProfilePicture   string
	CustomAttributes []CustomAttributeView
	Addresses        []AddressView
}

// CustomerService defines use-case operations on the session customer.
type CustomerService interface {
	Current(ctx context.Context, session domain.Session) (*CustomerView, error)
	UpdateCustomer(ctx context.Context, session domain.Session, input UpdateCustomerInput) (*CustomerView, error)
	UploadAvatar(ctx context.Context, session domain.Session, upload AvatarUpload) (*CustomerView, error)
}
