package service

import (
	"context"
	"encoding/base64"
	"errors"
	"net/url"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/lof/customer-profile/internal/api/metrics"
	"github.com/lof/customer-profile/internal/core/domain"
	"github.com/lof/customer-profile/internal/core/ports"
)

const (
	// AvatarViewRoute is the route serving avatar files; it takes the base64
	// encoded path in the image query parameter.
	AvatarViewRoute  = "viewfile/avatar/view/"
	avatarImageParam = "image"
)

// AvatarConfig holds the URLs the avatar service builds from.
type AvatarConfig struct {
	// BaseURL prefixes the view route, e.g. "https://shop.example.com".
	BaseURL string
	// PlaceholderURL is returned whenever no stored avatar can be found.
	PlaceholderURL string
}

type avatarService struct {
	media     ports.MediaDirectory
	storage   ports.MediaStorage
	customers ports.CustomerRepository
	cfg       AvatarConfig
	log       zerolog.Logger
}

// NewAvatarService returns an AvatarService implementation.
func NewAvatarService(
	media ports.MediaDirectory,
	storage ports.MediaStorage,
	customers ports.CustomerRepository,
	cfg AvatarConfig,
	log zerolog.Logger,
) ports.AvatarService {
	return &avatarService{
		media:     media,
		storage:   storage,
		customers: customers,
		cfg:       cfg,
		log:       log,
	}
}

// CheckImageFile decodes the path and looks it up under the customer media
// directory, falling back to remote storage.
func (s *avatarService) CheckImageFile(ctx context.Context, encoded string) bool {
	name, ok := decodeAvatarPath(encoded)
	if !ok {
		return false
	}
	if s.media.IsFile(name) {
		return true
	}

	synced, err := s.storage.ProcessStorageFile(ctx, s.media.AbsolutePath(name))
	switch {
	case err != nil:
		metrics.StorageSyncTotal.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).Str("file", name).Msg("media storage sync failed")
		return false
	case synced:
		metrics.StorageSyncTotal.WithLabelValues("synced").Inc()
		s.log.Debug().Str("file", name).Msg("avatar synced from media storage")
		return true
	default:
		metrics.StorageSyncTotal.WithLabelValues("missing").Inc()
		return false
	}
}

// AvatarForCurrentCustomer resolves a raw avatar path to its view URL, or to
// the placeholder when the path is empty or the file is missing.
func (s *avatarService) AvatarForCurrentCustomer(ctx context.Context, file string) string {
	if strings.TrimLeft(file, "/") == "" {
		return s.placeholder("current_customer")
	}
	return s.resolve(ctx, file, "current_customer")
}

// AvatarByCustomerID loads the customer and resolves its profile picture.
// Unknown customers and customers without a picture get the placeholder.
func (s *avatarService) AvatarByCustomerID(ctx context.Context, customerID string) string {
	if customerID == "" {
		return s.placeholder("customer_id")
	}

	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if !errors.Is(err, domain.ErrCustomerNotFound) {
			s.log.Warn().Err(err).Str("customer_id", customerID).Msg("load customer for avatar failed")
		}
		return s.placeholder("customer_id")
	}
	if customer.ProfilePicture == "" {
		return s.placeholder("customer_id")
	}
	return s.resolve(ctx, customer.ProfilePicture, "customer_id")
}

// Open returns the avatar file behind an encoded path.
func (s *avatarService) Open(ctx context.Context, encoded string) (*ports.AvatarFile, error) {
	if !s.CheckImageFile(ctx, encoded) {
		return nil, domain.ErrAvatarNotFound
	}
	name, _ := decodeAvatarPath(encoded)

	data, err := s.media.ReadFile(name)
	if err != nil {
		return nil, errors.Join(domain.ErrAvatarNotFound, err)
	}
	return &ports.AvatarFile{
		Name:        path.Base(name),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}

func (s *avatarService) resolve(ctx context.Context, file, source string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(file))
	if !s.CheckImageFile(ctx, encoded) {
		return s.placeholder(source)
	}
	metrics.AvatarResolutionsTotal.WithLabelValues(source, "view").Inc()
	return s.viewURL(encoded)
}

func (s *avatarService) placeholder(source string) string {
	metrics.AvatarResolutionsTotal.WithLabelValues(source, "placeholder").Inc()
	return s.cfg.PlaceholderURL
}

func (s *avatarService) viewURL(encoded string) string {
	q := url.Values{}
	q.Set(avatarImageParam, encoded)
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/" + AvatarViewRoute + "?" + q.Encode()
}

// decodeAvatarPath turns an encoded avatar path into a media name under the
// customer directory. Only leading slashes are trimmed.
func decodeAvatarPath(encoded string) (string, bool) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	return customerMediaName(string(raw)), true
}

func customerMediaName(file string) string {
	return domain.EntityTypeCustomer + "/" + strings.TrimLeft(file, "/")
}
