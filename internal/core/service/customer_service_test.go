package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lof/customer-profile/internal/core/domain"
	"github.com/lof/customer-profile/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs shared by the service tests
// ---------------------------------------------------------------------------

type stubCustomerRepo struct {
	byID     map[string]*domain.Customer
	getErr   error
	saveErr  error
	saved    []*domain.Customer
	getCalls int
	nextID   int
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{byID: make(map[string]*domain.Customer)}
}

func cloneCustomer(c *domain.Customer) *domain.Customer {
	if c == nil {
		return nil
	}
	clone := *c
	clone.CustomAttributes = append([]domain.CustomAttribute(nil), c.CustomAttributes...)
	clone.Addresses = append([]domain.Address(nil), c.Addresses...)
	return &clone
}

func (r *stubCustomerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	r.getCalls++
	if r.getErr != nil {
		return nil, r.getErr
	}
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return cloneCustomer(c), nil
}

func (r *stubCustomerRepo) FindByEmail(_ context.Context, email string) (*domain.Customer, error) {
	for _, c := range r.byID {
		if c.Email == email {
			return cloneCustomer(c), nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

func (r *stubCustomerRepo) Create(_ context.Context, c *domain.Customer) (*domain.Customer, error) {
	for _, existing := range r.byID {
		if existing.Email == c.Email {
			return nil, domain.ErrCustomerExists
		}
	}
	r.nextID++
	created := cloneCustomer(c)
	created.ID = fmt.Sprintf("cust_%d", r.nextID)
	r.byID[created.ID] = cloneCustomer(created)
	return created, nil
}

func (r *stubCustomerRepo) Save(_ context.Context, c *domain.Customer) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.byID[c.ID] = cloneCustomer(c)
	r.saved = append(r.saved, cloneCustomer(c))
	return nil
}

type stubAttributeRepo struct {
	attrs     []domain.AttributeMetadata
	listErr   error
	removeErr error
}

func (r *stubAttributeRepo) List(_ context.Context, entityType string) ([]domain.AttributeMetadata, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.AttributeMetadata
	for _, a := range r.attrs {
		if a.EntityType == entityType {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *stubAttributeRepo) Add(_ context.Context, attr domain.AttributeMetadata) error {
	for i, a := range r.attrs {
		if a.EntityType == attr.EntityType && a.Code == attr.Code {
			r.attrs[i] = attr
			return nil
		}
	}
	r.attrs = append(r.attrs, attr)
	return nil
}

func (r *stubAttributeRepo) Remove(_ context.Context, entityType, code string) error {
	if r.removeErr != nil {
		return r.removeErr
	}
	kept := r.attrs[:0]
	for _, a := range r.attrs {
		if a.EntityType == entityType && a.Code == code {
			continue
		}
		kept = append(kept, a)
	}
	r.attrs = kept
	return nil
}

type stubMedia struct {
	root     string
	files    map[string][]byte
	writeErr error
	removed  []string
}

func newStubMedia() *stubMedia {
	return &stubMedia{root: "/media", files: make(map[string][]byte)}
}

func (m *stubMedia) IsFile(name string) bool {
	_, ok := m.files[name]
	return ok
}

func (m *stubMedia) AbsolutePath(name string) string {
	return m.root + "/" + name
}

func (m *stubMedia) RelativePath(abs string) (string, bool) {
	return strings.CutPrefix(abs, m.root+"/")
}

func (m *stubMedia) ReadFile(name string) ([]byte, error) {
	data, ok := m.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (m *stubMedia) WriteFile(name string, data []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.files[name] = append([]byte(nil), data...)
	return nil
}

func (m *stubMedia) Remove(name string) error {
	delete(m.files, name)
	m.removed = append(m.removed, name)
	return nil
}

type stubStorage struct {
	media   *stubMedia
	remote  map[string][]byte
	syncErr error
	calls   []string
	saved   map[string][]byte
}

func newStubStorage(media *stubMedia) *stubStorage {
	return &stubStorage{media: media, remote: make(map[string][]byte), saved: make(map[string][]byte)}
}

func (s *stubStorage) ProcessStorageFile(_ context.Context, absPath string) (bool, error) {
	s.calls = append(s.calls, absPath)
	if s.syncErr != nil {
		return false, s.syncErr
	}
	rel, ok := s.media.RelativePath(absPath)
	if !ok {
		return false, nil
	}
	data, ok := s.remote[rel]
	if !ok {
		return false, nil
	}
	s.media.files[rel] = data
	return true, nil
}

func (s *stubStorage) SaveFile(_ context.Context, name string, data []byte) error {
	s.saved[name] = data
	return nil
}

type stubValidator struct {
	valid bool
	calls [][2]string
}

func (v *stubValidator) IsImageValid(tmpName, fileID string, _ domain.UploadedFiles) bool {
	v.calls = append(v.calls, [2]string{tmpName, fileID})
	return v.valid
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type customerFixture struct {
	repo      *stubCustomerRepo
	attrs     *stubAttributeRepo
	media     *stubMedia
	storage   *stubStorage
	validator *stubValidator
	svc       *CustomerService
}

func newCustomerFixture(imageValid bool) *customerFixture {
	f := &customerFixture{
		repo:      newStubCustomerRepo(),
		attrs:     &stubAttributeRepo{attrs: []domain.AttributeMetadata{{EntityType: domain.EntityTypeCustomer, Code: "firstname"}, domain.ProfilePictureAttribute()}},
		media:     newStubMedia(),
		validator: &stubValidator{valid: imageValid},
	}
	f.storage = newStubStorage(f.media)
	backend := NewAvatarBackend(f.validator, discardLogger)
	f.svc = NewCustomerService(f.repo, f.attrs, f.media, f.storage, discardLogger, backend)
	return f
}

func seedCustomer(repo *stubCustomerRepo) *domain.Customer {
	c := &domain.Customer{
		ID:             "cust_1",
		Email:          "john@example.com",
		Firstname:      "John",
		Lastname:       "Doe",
		Suffix:         "Jr.",
		ProfilePicture: "/j/o/john.png",
		CustomAttributes: []domain.CustomAttribute{
			{Code: "loyalty_tier", Value: "gold"},
		},
		Addresses: []domain.Address{{
			Firstname: "John",
			Lastname:  "Doe",
			Street:    []string{"1 Main St", "Apt 2"},
			City:      "Austin",
			Region:    domain.Region{RegionCode: "TX", Region: "Texas"},
			Postcode:  "73301",
			CountryID: "US",
			Telephone: "555-0100",
		}},
	}
	repo.byID[c.ID] = c
	return c
}

var loggedIn = domain.Session{CustomerID: "cust_1", SessionID: "sess_1"}

// ---------------------------------------------------------------------------
// UpdateCustomer
// ---------------------------------------------------------------------------

func TestCustomerService_Update_NotLoggedIn(t *testing.T) {
	inputs := []ports.UpdateCustomerInput{
		{},
		{Firstname: "Jane"},
		{Firstname: "Jane", Lastname: "Roe", Email: "jane@example.com"},
	}

	for _, in := range inputs {
		f := newCustomerFixture(true)
		seedCustomer(f.repo)

		_, err := f.svc.UpdateCustomer(context.Background(), domain.Session{}, in)
		if !errors.Is(err, domain.ErrNotLoggedIn) {
			t.Errorf("input %+v: expected ErrNotLoggedIn, got %v", in, err)
		}
		if f.repo.getCalls != 0 || len(f.repo.saved) != 0 {
			t.Errorf("input %+v: repository must not be touched without a session", in)
		}
	}
}

func TestCustomerService_Update_OnlyFirstname(t *testing.T) {
	f := newCustomerFixture(true)
	seedCustomer(f.repo)

	view, err := f.svc.UpdateCustomer(context.Background(), loggedIn, ports.UpdateCustomerInput{Firstname: "Jane"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.repo.saved) != 1 {
		t.Fatalf("expected 1 save, got %d", len(f.repo.saved))
	}
	saved := f.repo.saved[0]
	if saved.Firstname != "Jane" {
		t.Errorf("firstname: want Jane, got %q", saved.Firstname)
	}
	if saved.Lastname != "Doe" || saved.Email != "john@example.com" {
		t.Errorf("lastname/email must keep prior values, got %q %q", saved.Lastname, saved.Email)
	}
	if view.Firstname != "Jane" || view.Lastname != "Doe" || view.Email != "john@example.com" {
		t.Errorf("unexpected view: %+v", view)
	}
}

func TestCustomerService_Update_AllFields(t *testing.T) {
	f := newCustomerFixture(true)
	seedCustomer(f.repo)

	view, err := f.svc.UpdateCustomer(context.Background(), loggedIn, ports.UpdateCustomerInput{
		Firstname: "Jane",
		Lastname:  "Roe",
		Email:     "jane@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Firstname != "Jane" || view.Lastname != "Roe" || view.Email != "jane@example.com" {
		t.Errorf("unexpected view: %+v", view)
	}
}

func TestCustomerService_Update_EmailNormalisedForLogin(t *testing.T) {
	f := newCustomerFixture(true)
	auth := NewAuthService(f.repo, newStubSessionStore(), "secret", time.Hour, discardLogger)
	created := register(t, auth, "carol@example.com", "pw")

	session := domain.Session{CustomerID: created.ID, SessionID: "sess_1"}
	view, err := f.svc.UpdateCustomer(context.Background(), session, ports.UpdateCustomerInput{Email: " Jane@Example.COM "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Email != "jane@example.com" {
		t.Errorf("expected normalised email, got %q", view.Email)
	}

	if _, _, err := auth.Login(context.Background(), "Jane@Example.COM", "pw"); err != nil {
		t.Fatalf("login with the updated email failed: %v", err)
	}
}

func TestCustomerService_Update_TouchesUpdatedAt(t *testing.T) {
	f := newCustomerFixture(true)
	c := seedCustomer(f.repo)
	registered := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.CreatedAt, c.UpdatedAt = registered, registered

	if _, err := f.svc.UpdateCustomer(context.Background(), loggedIn, ports.UpdateCustomerInput{Firstname: "Jane"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := f.repo.byID["cust_1"]
	if !stored.UpdatedAt.After(registered) {
		t.Errorf("expected updated_at to move past %v, got %v", registered, stored.UpdatedAt)
	}
	if !stored.CreatedAt.Equal(registered) {
		t.Errorf("created_at must not change, got %v", stored.CreatedAt)
	}
}

func TestCustomerService_Update_CustomerNotFound(t *testing.T) {
	f := newCustomerFixture(true)

	_, err := f.svc.UpdateCustomer(context.Background(), domain.Session{CustomerID: "ghost"}, ports.UpdateCustomerInput{Firstname: "Jane"})
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestCustomerService_Update_SaveErrorPropagatesUnchanged(t *testing.T) {
	f := newCustomerFixture(true)
	seedCustomer(f.repo)
	dbErr := errors.New("db unavailable")
	f.repo.saveErr = dbErr

	_, err := f.svc.UpdateCustomer(context.Background(), loggedIn, ports.UpdateCustomerInput{Lastname: "Roe"})
	if err != dbErr {
		t.Errorf("expected repository error unchanged, got %v", err)
	}
}

func TestCustomerService_Update_InvalidImageAbortsBeforePersistence(t *testing.T) {
	f := newCustomerFixture(false)
	seedCustomer(f.repo)

	_, err := f.svc.UpdateCustomer(context.Background(), loggedIn, ports.UpdateCustomerInput{Firstname: "Jane"})
	if !errors.Is(err, domain.ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
	if len(f.repo.saved) != 0 {
		t.Errorf("customer must not be persisted when the image is invalid")
	}
	if len(f.validator.calls) != 1 || f.validator.calls[0] != [2]string{"tmpp_name", domain.AttributeProfilePicture} {
		t.Errorf("unexpected validator calls: %v", f.validator.calls)
	}
}

func TestCustomerService_Update_SkipsBackendsAfterUninstall(t *testing.T) {
	f := newCustomerFixture(false)
	seedCustomer(f.repo)
	_ = f.attrs.Remove(context.Background(), domain.EntityTypeCustomer, domain.AttributeProfilePicture)

	if _, err := f.svc.UpdateCustomer(context.Background(), loggedIn, ports.UpdateCustomerInput{Firstname: "Jane"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.validator.calls) != 0 {
		t.Errorf("avatar backend must not run once the attribute is removed")
	}
}

func TestCustomerService_Update_UnknownBackendIgnored(t *testing.T) {
	f := newCustomerFixture(true)
	seedCustomer(f.repo)
	f.attrs.attrs = append(f.attrs.attrs, domain.AttributeMetadata{EntityType: domain.EntityTypeCustomer, Code: "nickname", BackendModel: "missing"})

	if _, err := f.svc.UpdateCustomer(context.Background(), loggedIn, ports.UpdateCustomerInput{Firstname: "Jane"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCustomerService_Update_AttributeListError(t *testing.T) {
	f := newCustomerFixture(true)
	seedCustomer(f.repo)
	f.attrs.listErr = errors.New("mongo down")

	if _, err := f.svc.UpdateCustomer(context.Background(), loggedIn, ports.UpdateCustomerInput{Firstname: "Jane"}); err == nil {
		t.Fatal("expected error when attributes cannot be listed")
	}
	if len(f.repo.saved) != 0 {
		t.Error("customer must not be persisted")
	}
}

// ---------------------------------------------------------------------------
// Projection
// ---------------------------------------------------------------------------

func TestCustomerService_Current_MapsProjection(t *testing.T) {
	f := newCustomerFixture(true)
	seedCustomer(f.repo)

	view, err := f.svc.Current(context.Background(), loggedIn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if view.Suffix != "Jr." {
		t.Errorf("suffix: want Jr., got %q", view.Suffix)
	}
	wantAttrs := []ports.CustomAttributeView{
		{Code: domain.AttributeProfilePicture, Value: "/j/o/john.png"},
		{Code: "loyalty_tier", Value: "gold"},
	}
	if len(view.CustomAttributes) != len(wantAttrs) {
		t.Fatalf("custom attributes: want %v, got %v", wantAttrs, view.CustomAttributes)
	}
	for i := range wantAttrs {
		if view.CustomAttributes[i] != wantAttrs[i] {
			t.Errorf("custom attribute %d: want %+v, got %+v", i, wantAttrs[i], view.CustomAttributes[i])
		}
	}

	if len(view.Addresses) != 1 {
		t.Fatalf("expected 1 address, got %d", len(view.Addresses))
	}
	a := view.Addresses[0]
	if a.CountryCode != "US" || a.Region.RegionCode != "TX" || a.Region.Region != "Texas" {
		t.Errorf("unexpected address mapping: %+v", a)
	}
	if len(a.Street) != 2 || a.Street[1] != "Apt 2" {
		t.Errorf("unexpected street: %v", a.Street)
	}
}

func TestCustomerService_Current_NotLoggedIn(t *testing.T) {
	f := newCustomerFixture(true)

	if _, err := f.svc.Current(context.Background(), domain.Session{}); !errors.Is(err, domain.ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// UploadAvatar
// ---------------------------------------------------------------------------

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestCustomerService_UploadAvatar_Success(t *testing.T) {
	f := newCustomerFixture(true)
	seedCustomer(f.repo)

	view, err := f.svc.UploadAvatar(context.Background(), loggedIn, ports.AvatarUpload{
		Filename:    "avatar.png",
		ContentType: "image/png",
		Data:        pngBytes,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if view.ProfilePicture != "/a/v/avatar.png" {
		t.Errorf("profile picture: want /a/v/avatar.png, got %q", view.ProfilePicture)
	}
	if !f.media.IsFile("customer/a/v/avatar.png") {
		t.Error("expected avatar written under the customer media directory")
	}
	if _, ok := f.storage.saved["customer/a/v/avatar.png"]; !ok {
		t.Error("expected avatar mirrored to media storage")
	}
	for name := range f.media.files {
		if strings.HasPrefix(name, "tmp/") {
			t.Errorf("tmp upload %q must be removed", name)
		}
	}
	if f.repo.byID["cust_1"].ProfilePicture != "/a/v/avatar.png" {
		t.Error("expected profile picture persisted")
	}
	if f.repo.byID["cust_1"].UpdatedAt.IsZero() {
		t.Error("expected updated_at set on upload")
	}
}

func TestCustomerService_UploadAvatar_RejectedImageRemovesFile(t *testing.T) {
	f := newCustomerFixture(false)
	seedCustomer(f.repo)

	_, err := f.svc.UploadAvatar(context.Background(), loggedIn, ports.AvatarUpload{Filename: "avatar.png", Data: pngBytes})
	if !errors.Is(err, domain.ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
	if len(f.repo.saved) != 0 {
		t.Error("customer must not be persisted")
	}
	if len(f.media.files) != 0 {
		t.Errorf("expected no files left behind, got %d", len(f.media.files))
	}
	if f.repo.byID["cust_1"].ProfilePicture != "/j/o/john.png" {
		t.Error("stored profile picture must be unchanged")
	}
}

func TestCustomerService_UploadAvatar_BadExtension(t *testing.T) {
	f := newCustomerFixture(true)
	seedCustomer(f.repo)

	_, err := f.svc.UploadAvatar(context.Background(), loggedIn, ports.AvatarUpload{Filename: "shell.php", Data: []byte("<?php")})
	if !errors.Is(err, domain.ErrInvalidImage) {
		t.Errorf("expected ErrInvalidImage, got %v", err)
	}
	if f.repo.getCalls != 0 {
		t.Error("customer must not be loaded for a rejected upload")
	}
}

func TestCustomerService_UploadAvatar_NameCollision(t *testing.T) {
	f := newCustomerFixture(true)
	seedCustomer(f.repo)
	f.media.files["customer/a/v/avatar.png"] = pngBytes

	view, err := f.svc.UploadAvatar(context.Background(), loggedIn, ports.AvatarUpload{Filename: "avatar.png", Data: pngBytes})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.ProfilePicture != "/a/v/avatar_1.png" {
		t.Errorf("expected suffixed name, got %q", view.ProfilePicture)
	}
}

func TestDispersionPath(t *testing.T) {
	cases := map[string]string{
		"avatar.png": "/a/v/avatar.png",
		"Me.jpg":     "/m/e/Me.jpg",
		"a.gif":      "/a/_/a.gif",
		".png":       "/_/p/.png",
	}
	for in, want := range cases {
		if got := dispersionPath(in); got != want {
			t.Errorf("dispersionPath(%q): want %q, got %q", in, want, got)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"avatar.png":          "avatar.png",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\pic.jpg`: "pic.jpg",
		"my photo (1).png":    "my_photo__1_.png",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): want %q, got %q", in, want, got)
		}
	}
}
