package ports

import (
	"context"

	"github.com/lof/customer-profile/internal/core/domain"
)

// AttributeRepository manages attribute definitions of entity types.
type AttributeRepository interface {
	// List returns the attributes of entityType ordered by sort order.
	List(ctx context.Context, entityType string) ([]domain.AttributeMetadata, error)
	// Add creates or replaces an attribute definition.
	Add(ctx context.Context, attr domain.AttributeMetadata) error
	// Remove deletes one attribute definition together with the values stored
	// for it. Removing an attribute that does not exist is not an error.
	Remove(ctx context.Context, entityType, code string) error
}

// SchemaSetup brackets schema changes made by install and uninstall routines.
type SchemaSetup interface {
	StartSetup(ctx context.Context) error
	EndSetup(ctx context.Context) error
}

// AttributeBackend is a hook invoked around the save of one attribute.
type AttributeBackend interface {
	// Name matches AttributeMetadata.BackendModel.
	Name() string
	BeforeSave(ctx context.Context, attr domain.AttributeMetadata, customer *domain.Customer, uploads domain.UploadedFiles) error
}

// ImageValidator checks an uploaded image.
type ImageValidator interface {
	// IsImageValid inspects the upload posted under fileID, reading the
	// temporary file referenced by the tmpName metadata key.
	IsImageValid(tmpName, fileID string, uploads domain.UploadedFiles) bool
}
