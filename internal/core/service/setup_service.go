package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lof/customer-profile/internal/core/domain"
	"github.com/lof/customer-profile/internal/core/ports"
)

// SetupService installs and uninstalls the profile_picture attribute.
type SetupService struct {
	setup      ports.SchemaSetup
	attributes ports.AttributeRepository
	log        zerolog.Logger
}

func NewSetupService(setup ports.SchemaSetup, attributes ports.AttributeRepository, log zerolog.Logger) *SetupService {
	return &SetupService{setup: setup, attributes: attributes, log: log}
}

// Install creates the profile_picture attribute of the customer entity type.
func (s *SetupService) Install(ctx context.Context) error {
	return s.inSetup(ctx, "install", func(ctx context.Context) error {
		return s.attributes.Add(ctx, domain.ProfilePictureAttribute())
	})
}

// Uninstall removes the profile_picture attribute and nothing else.
func (s *SetupService) Uninstall(ctx context.Context) error {
	return s.inSetup(ctx, "uninstall", func(ctx context.Context) error {
		return s.attributes.Remove(ctx, domain.EntityTypeCustomer, domain.AttributeProfilePicture)
	})
}

// inSetup runs fn between StartSetup and EndSetup. EndSetup runs even when fn
// fails.
func (s *SetupService) inSetup(ctx context.Context, step string, fn func(context.Context) error) (err error) {
	if err := s.setup.StartSetup(ctx); err != nil {
		return fmt.Errorf("%s: start setup: %w", step, err)
	}
	defer func() {
		if endErr := s.setup.EndSetup(ctx); endErr != nil {
			err = errors.Join(err, fmt.Errorf("%s: end setup: %w", step, endErr))
		}
	}()

	if err := fn(ctx); err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}

	s.log.Info().
		Str("step", step).
		Str("entity_type", domain.EntityTypeCustomer).
		Str("attribute", domain.AttributeProfilePicture).
		Msg("schema setup finished")
	return nil
}
