package service

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lof/customer-profile/internal/api/metrics"
	"github.com/lof/customer-profile/internal/core/domain"
	"github.com/lof/customer-profile/internal/core/ports"
)

var allowedAvatarExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".png":  {},
}

type CustomerService struct {
	repo       ports.CustomerRepository
	attributes ports.AttributeRepository
	media      ports.MediaDirectory
	storage    ports.MediaStorage
	backends   map[string]ports.AttributeBackend
	logger     zerolog.Logger
}

func NewCustomerService(
	repo ports.CustomerRepository,
	attributes ports.AttributeRepository,
	media ports.MediaDirectory,
	storage ports.MediaStorage,
	logger zerolog.Logger,
	backends ...ports.AttributeBackend,
) *CustomerService {
	byName := make(map[string]ports.AttributeBackend, len(backends))
	for _, b := range backends {
		byName[b.Name()] = b
	}
	return &CustomerService{
		repo:       repo,
		attributes: attributes,
		media:      media,
		storage:    storage,
		backends:   byName,
		logger:     logger,
	}
}

// Current returns the session customer.
func (s *CustomerService) Current(ctx context.Context, session domain.Session) (*ports.CustomerView, error) {
	if !session.LoggedIn() {
		return nil, domain.ErrNotLoggedIn
	}
	customer, err := s.repo.GetByID(ctx, session.CustomerID)
	if err != nil {
		return nil, err
	}
	return toCustomerView(customer), nil
}

// UpdateCustomer applies the non-empty input fields to the session customer
// and saves it. Repository errors are returned unchanged.
func (s *CustomerService) UpdateCustomer(ctx context.Context, session domain.Session, input ports.UpdateCustomerInput) (*ports.CustomerView, error) {
	if !session.LoggedIn() {
		metrics.CustomerUpdatesTotal.WithLabelValues("not_logged_in").Inc()
		return nil, domain.ErrNotLoggedIn
	}

	customer, err := s.repo.GetByID(ctx, session.CustomerID)
	if err != nil {
		metrics.CustomerUpdatesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if input.Firstname != "" {
		customer.Firstname = input.Firstname
	}
	if input.Lastname != "" {
		customer.Lastname = input.Lastname
	}
	if email := domain.NormalizeEmail(input.Email); email != "" {
		customer.Email = email
	}
	customer.UpdatedAt = time.Now().UTC()

	if err := s.save(ctx, customer, nil); err != nil {
		metrics.CustomerUpdatesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.CustomerUpdatesTotal.WithLabelValues("ok").Inc()
	s.logger.Info().Str("customer_id", customer.ID).Msg("customer updated")
	return toCustomerView(customer), nil
}

// UploadAvatar stores a new profile picture for the session customer. The file
// lands under the customer media directory before the customer is saved and is
// removed again if the save fails.
func (s *CustomerService) UploadAvatar(ctx context.Context, session domain.Session, upload ports.AvatarUpload) (*ports.CustomerView, error) {
	if !session.LoggedIn() {
		return nil, domain.ErrNotLoggedIn
	}

	filename := sanitizeFilename(upload.Filename)
	if _, ok := allowedAvatarExtensions[strings.ToLower(path.Ext(filename))]; !ok || len(upload.Data) == 0 {
		return nil, domain.ErrInvalidImage
	}

	customer, err := s.repo.GetByID(ctx, session.CustomerID)
	if err != nil {
		return nil, err
	}

	tmpName := path.Join("tmp", domain.EntityTypeCustomer, uuid.NewString()+path.Ext(filename))
	if err := s.media.WriteFile(tmpName, upload.Data); err != nil {
		return nil, fmt.Errorf("upload avatar: write tmp file: %w", err)
	}
	defer func() {
		if err := s.media.Remove(tmpName); err != nil {
			s.logger.Warn().Err(err).Str("file", tmpName).Msg("failed to remove tmp upload")
		}
	}()

	avatarPath := s.uniqueAvatarPath(filename)
	finalName := customerMediaName(avatarPath)
	if err := s.media.WriteFile(finalName, upload.Data); err != nil {
		return nil, fmt.Errorf("upload avatar: write file: %w", err)
	}

	uploads := domain.UploadedFiles{
		domain.AttributeProfilePicture: domain.UploadedFile{
			domain.UploadName:    upload.Filename,
			domain.UploadType:    upload.ContentType,
			domain.UploadTmpName: s.media.AbsolutePath(tmpName),
			domain.UploadSize:    strconv.Itoa(len(upload.Data)),
		},
	}

	customer.ProfilePicture = avatarPath
	customer.UpdatedAt = time.Now().UTC()
	if err := s.save(ctx, customer, uploads); err != nil {
		if rmErr := s.media.Remove(finalName); rmErr != nil {
			s.logger.Warn().Err(rmErr).Str("file", finalName).Msg("failed to remove rejected avatar")
		}
		return nil, err
	}

	if err := s.storage.SaveFile(ctx, finalName, upload.Data); err != nil {
		s.logger.Warn().Err(err).Str("file", finalName).Msg("failed to mirror avatar to media storage")
	}

	s.logger.Info().Str("customer_id", customer.ID).Str("profile_picture", avatarPath).Msg("avatar uploaded")
	return toCustomerView(customer), nil
}

// save runs the attribute backends of the customer entity type, then persists.
func (s *CustomerService) save(ctx context.Context, customer *domain.Customer, uploads domain.UploadedFiles) error {
	attrs, err := s.attributes.List(ctx, domain.EntityTypeCustomer)
	if err != nil {
		return fmt.Errorf("save customer: list attributes: %w", err)
	}

	for _, attr := range attrs {
		if attr.BackendModel == "" {
			continue
		}
		backend, ok := s.backends[attr.BackendModel]
		if !ok {
			s.logger.Warn().Str("attribute", attr.Code).Str("backend", attr.BackendModel).Msg("unknown attribute backend")
			continue
		}
		if err := backend.BeforeSave(ctx, attr, customer, uploads); err != nil {
			return err
		}
	}

	return s.repo.Save(ctx, customer)
}

// uniqueAvatarPath returns the dispersion path for filename, suffixing the
// name when a file already exists there.
func (s *CustomerService) uniqueAvatarPath(filename string) string {
	candidate := dispersionPath(filename)
	if !s.media.IsFile(customerMediaName(candidate)) {
		return candidate
	}
	ext := path.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	for i := 1; ; i++ {
		candidate = dispersionPath(fmt.Sprintf("%s_%d%s", stem, i, ext))
		if !s.media.IsFile(customerMediaName(candidate)) {
			return candidate
		}
	}
}

// dispersionPath spreads files over two directory levels named after the
// first two characters of the file name: "avatar.png" -> "/a/v/avatar.png".
func dispersionPath(filename string) string {
	lower := strings.ToLower(filename)
	c1, c2 := "_", "_"
	if len(lower) > 0 && lower[0] != '.' {
		c1 = lower[:1]
	}
	if len(lower) > 1 && lower[1] != '.' {
		c2 = lower[1:2]
	}
	return "/" + c1 + "/" + c2 + "/" + filename
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func toCustomerView(c *domain.Customer) *ports.CustomerView {
	attrs := c.AllCustomAttributes()
	customAttributes := make([]ports.CustomAttributeView, 0, len(attrs))
	for _, attr := range attrs {
		customAttributes = append(customAttributes, ports.CustomAttributeView{Code: attr.Code, Value: attr.Value})
	}

	addresses := make([]ports.AddressView, 0, len(c.Addresses))
	for _, a := range c.Addresses {
		addresses = append(addresses, ports.AddressView{
			Firstname: a.Firstname,
			Lastname:  a.Lastname,
			Street:    append([]string(nil), a.Street...),
			City:      a.City,
			Region: ports.RegionView{
				RegionCode: a.Region.RegionCode,
				Region:     a.Region.Region,
			},
			Postcode:    a.Postcode,
			CountryCode: a.CountryID,
			Telephone:   a.Telephone,
		})
	}

	return &ports.CustomerView{
		ID:               c.ID,
		Firstname:        c.Firstname,
		Lastname:         c.Lastname,
		Suffix:           c.Suffix,
		Email:            c.Email,
		ProfilePicture:   c.ProfilePicture,
		CustomAttributes: customAttributes,
		Addresses:        addresses,
	}
}
