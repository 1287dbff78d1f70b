package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lof/customer-profile/internal/api/metrics"
	"github.com/lof/customer-profile/internal/core/domain"
	"github.com/lof/customer-profile/internal/core/ports"
)

// avatarTmpField is the upload metadata key handed to the image validator.
// It does not match the key multipart uploads are recorded under
// (domain.UploadTmpName); kept as is, see DESIGN.md.
const avatarTmpField = "tmpp_name"

// AvatarBackend validates the profile picture before a customer is saved.
type AvatarBackend struct {
	validator ports.ImageValidator
	log       zerolog.Logger
}

func NewAvatarBackend(validator ports.ImageValidator, log zerolog.Logger) *AvatarBackend {
	return &AvatarBackend{validator: validator, log: log}
}

func (b *AvatarBackend) Name() string {
	return domain.BackendAvatar
}

// BeforeSave aborts the save with domain.ErrInvalidImage when the posted
// profile picture fails validation.
func (b *AvatarBackend) BeforeSave(_ context.Context, attr domain.AttributeMetadata, customer *domain.Customer, uploads domain.UploadedFiles) error {
	if attr.Code != domain.AttributeProfilePicture {
		return nil
	}
	if !b.validator.IsImageValid(avatarTmpField, attr.Code, uploads) {
		metrics.ImageValidationFailuresTotal.Inc()
		b.log.Info().Str("customer_id", customer.ID).Msg("profile picture rejected")
		return domain.ErrInvalidImage
	}
	return nil
}
