package ports

import "context"

// AvatarFile is the content served by the avatar view route.
type AvatarFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// AvatarService resolves customer avatars to URLs.
type AvatarService interface {
	// CheckImageFile reports whether the base64 encoded avatar path exists,
	// syncing it from remote storage when missing locally.
	CheckImageFile(ctx context.Context, encoded string) bool
	AvatarForCurrentCustomer(ctx context.Context, file string) string
	AvatarByCustomerID(ctx context.Context, customerID string) string
	Open(ctx context.Context, encoded string) (*AvatarFile, error)
}
