package domain

import "errors"

const (
	EntityTypeCustomer      = "customer"
	AttributeProfilePicture = "profile_picture"

	// BackendAvatar names the attribute backend that validates avatar uploads.
	BackendAvatar = "avatar"
)

var (
	ErrAttributeNotFound = errors.New("attribute not found")
	ErrSetupInProgress   = errors.New("schema setup already in progress")
)

// AttributeMetadata describes one attribute of an entity type.
type AttributeMetadata struct {
	EntityType   string `json:"entity_type" bson:"entity_type"`
	Code         string `json:"attribute_code" bson:"attribute_code"`
	Label        string `json:"label" bson:"label"`
	Input        string `json:"input" bson:"input"`
	BackendModel string `json:"backend_model,omitempty" bson:"backend_model,omitempty"`
	Required     bool   `json:"required" bson:"required"`
	Visible      bool   `json:"visible" bson:"visible"`
	System       bool   `json:"system" bson:"system"`
	SortOrder    int    `json:"sort_order" bson:"sort_order"`
}

// ProfilePictureAttribute is the definition created on install and removed on
// uninstall.
func ProfilePictureAttribute() AttributeMetadata {
	return AttributeMetadata{
		EntityType:   EntityTypeCustomer,
		Code:         AttributeProfilePicture,
		Label:        "Profile Picture",
		Input:        "image",
		BackendModel: BackendAvatar,
		Visible:      true,
		SortOrder:    200,
	}
}
