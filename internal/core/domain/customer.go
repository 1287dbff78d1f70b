package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrCustomerExists     = errors.New("customer already exists")
	ErrInvalidCustomer    = errors.New("invalid customer data")
	ErrNotLoggedIn        = errors.New("customer is not logged in")
	ErrInvalidImage       = errors.New("the profile picture is not a valid image")
	ErrAvatarNotFound     = errors.New("avatar not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Region is the state/province part of an address.
type Region struct {
	RegionCode string `json:"region_code" bson:"region_code"`
	Region     string `json:"region" bson:"region"`
}

// Address belongs to exactly one customer.
type Address struct {
	Firstname       string   `json:"firstname" bson:"firstname"`
	Lastname        string   `json:"lastname" bson:"lastname"`
	Street          []string `json:"street" bson:"street"`
	City            string   `json:"city" bson:"city"`
	Region          Region   `json:"region" bson:"region"`
	Postcode        string   `json:"postcode" bson:"postcode"`
	CountryID       string   `json:"country_id" bson:"country_id"`
	Telephone       string   `json:"telephone" bson:"telephone"`
	DefaultBilling  bool     `json:"default_billing" bson:"default_billing"`
	DefaultShipping bool     `json:"default_shipping" bson:"default_shipping"`
}

// CustomAttribute is a code/value pair for attributes without a dedicated field.
type CustomAttribute struct {
	Code  string `json:"code" bson:"code"`
	Value string `json:"value" bson:"value"`
}

// Customer is the aggregate root. ProfilePicture is kept as its own field since
// it is the only custom attribute with behaviour attached.
type Customer struct {
	ID               string            `json:"id"`
	Email            string            `json:"email"`
	Firstname        string            `json:"firstname"`
	Lastname         string            `json:"lastname"`
	Suffix           string            `json:"suffix,omitempty"`
	PasswordHash     string            `json:"-"`
	ProfilePicture   string            `json:"profile_picture,omitempty"`
	CustomAttributes []CustomAttribute `json:"custom_attributes"`
	Addresses        []Address         `json:"addresses"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// AllCustomAttributes returns every custom attribute including profile_picture,
// which comes first when set.
func (c *Customer) AllCustomAttributes() []CustomAttribute {
	out := make([]CustomAttribute, 0, len(c.CustomAttributes)+1)
	if c.ProfilePicture != "" {
		out = append(out, CustomAttribute{Code: AttributeProfilePicture, Value: c.ProfilePicture})
	}
	for _, attr := range c.CustomAttributes {
		if attr.Code == AttributeProfilePicture {
			continue
		}
		out = append(out, attr)
	}
	return out
}

// HasAttribute reports whether the customer carries a value for code.
func (c *Customer) HasAttribute(code string) bool {
	if code == AttributeProfilePicture {
		return c.ProfilePicture != ""
	}
	for _, attr := range c.CustomAttributes {
		if attr.Code == code {
			return true
		}
	}
	return false
}
