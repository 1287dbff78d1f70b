// Package graphql exposes the customer GraphQL endpoint.
package graphql

import (
	"context"
	"errors"

	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"

	"github.com/lof/customer-profile/internal/core/domain"
	"github.com/lof/customer-profile/internal/core/ports"
)

// Messages returned to GraphQL clients.
const (
	msgNotLoggedIn  = "Customer is not logged in."
	msgInvalidImage = "The profile picture is not a valid image."
)

type sessionKey struct{}

// WithSession stores the request session for the resolvers.
func WithSession(ctx context.Context, session domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

func sessionFrom(ctx context.Context) domain.Session {
	session, _ := ctx.Value(sessionKey{}).(domain.Session)
	return session
}

// clientError carries a message meant for the client while keeping the cause
// for errors.Is.
type clientError struct {
	msg string
	err error
}

func (e *clientError) Error() string { return e.msg }
func (e *clientError) Unwrap() error { return e.err }

// resolverError maps the errors clients can act on to their messages. Any
// other error is returned unchanged.
func resolverError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotLoggedIn):
		return &clientError{msg: msgNotLoggedIn, err: err}
	case errors.Is(err, domain.ErrInvalidImage):
		return &clientError{msg: msgInvalidImage, err: err}
	}
	return err
}

type resolver struct {
	customers ports.CustomerService
	avatars   ports.AvatarService
	log       zerolog.Logger
}

// NewSchema builds the customer schema: query customer and mutation
// updateCustomerBypass.
func NewSchema(customers ports.CustomerService, avatars ports.AvatarService, log zerolog.Logger) (graphql.Schema, error) {
	r := &resolver{customers: customers, avatars: avatars, log: log}

	regionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CustomerAddressRegion",
		Fields: graphql.Fields{
			"region_code": &graphql.Field{Type: graphql.String},
			"region":      &graphql.Field{Type: graphql.String},
		},
	})

	addressType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CustomerAddress",
		Fields: graphql.Fields{
			"firstname":    &graphql.Field{Type: graphql.String},
			"lastname":     &graphql.Field{Type: graphql.String},
			"street":       &graphql.Field{Type: graphql.NewList(graphql.String)},
			"city":         &graphql.Field{Type: graphql.String},
			"region":       &graphql.Field{Type: regionType},
			"postcode":     &graphql.Field{Type: graphql.String},
			"country_code": &graphql.Field{Type: graphql.String},
			"telephone":    &graphql.Field{Type: graphql.String},
		},
	})

	attributeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CustomAttribute",
		Fields: graphql.Fields{
			"code":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"value": &graphql.Field{Type: graphql.String},
		},
	})

	customerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Customer",
		Fields: graphql.Fields{
			"firstname":         &graphql.Field{Type: graphql.String},
			"lastname":          &graphql.Field{Type: graphql.String},
			"suffix":            &graphql.Field{Type: graphql.String},
			"email":             &graphql.Field{Type: graphql.String},
			"custom_attributes": &graphql.Field{Type: graphql.NewList(attributeType)},
			"addresses":         &graphql.Field{Type: graphql.NewList(addressType)},
			"avatar_url": &graphql.Field{
				Type:    graphql.String,
				Resolve: r.avatarURL,
			},
		},
	})

	outputType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CustomerOutput",
		Fields: graphql.Fields{
			"customer": &graphql.Field{Type: customerType},
		},
	})

	inputType := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CustomerBypassInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"firstname": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"lastname":  &graphql.InputObjectFieldConfig{Type: graphql.String},
			"email":     &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"customer": &graphql.Field{
				Type:    customerType,
				Resolve: r.customer,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"updateCustomerBypass": &graphql.Field{
				Type: outputType,
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(inputType)},
				},
				Resolve: r.updateCustomerBypass,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}

func (r *resolver) customer(p graphql.ResolveParams) (interface{}, error) {
	view, err := r.customers.Current(p.Context, sessionFrom(p.Context))
	if err != nil {
		return nil, resolverError(err)
	}
	return customerToMap(view), nil
}

func (r *resolver) updateCustomerBypass(p graphql.ResolveParams) (interface{}, error) {
	input, _ := p.Args["input"].(map[string]interface{})

	view, err := r.customers.UpdateCustomer(p.Context, sessionFrom(p.Context), ports.UpdateCustomerInput{
		Firstname: stringArg(input, "firstname"),
		Lastname:  stringArg(input, "lastname"),
		Email:     stringArg(input, "email"),
	})
	if err != nil {
		return nil, resolverError(err)
	}
	return map[string]interface{}{"customer": customerToMap(view)}, nil
}

func (r *resolver) avatarURL(p graphql.ResolveParams) (interface{}, error) {
	source, _ := p.Source.(map[string]interface{})
	file, _ := source[domain.AttributeProfilePicture].(string)
	return r.avatars.AvatarForCurrentCustomer(p.Context, file), nil
}

func stringArg(args map[string]interface{}, name string) string {
	v, _ := args[name].(string)
	return v
}

func customerToMap(v *ports.CustomerView) map[string]interface{} {
	attrs := make([]interface{}, 0, len(v.CustomAttributes))
	for _, a := range v.CustomAttributes {
		attrs = append(attrs, map[string]interface{}{"code": a.Code, "value": a.Value})
	}

	addresses := make([]interface{}, 0, len(v.Addresses))
	for _, a := range v.Addresses {
		addresses = append(addresses, map[string]interface{}{
			"firstname": a.Firstname,
			"lastname":  a.Lastname,
			"street":    a.Street,
			"city":      a.City,
			"region": map[string]interface{}{
				"region_code": a.Region.RegionCode,
				"region":      a.Region.Region,
			},
			"postcode":     a.Postcode,
			"country_code": a.CountryCode,
			"telephone":    a.Telephone,
		})
	}

	return map[string]interface{}{
		"firstname":                    v.Firstname,
		"lastname":                     v.Lastname,
		"suffix":                       v.Suffix,
		"email":                        v.Email,
		"custom_attributes":            attrs,
		"addresses":                    addresses,
		domain.AttributeProfilePicture: v.ProfilePicture,
	}
}
