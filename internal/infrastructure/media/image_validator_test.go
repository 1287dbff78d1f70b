package media

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/lof/customer-profile/internal/core/domain"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	gifHeader = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00")
	jpgHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01")
)

func newValidator(files map[string][]byte) *ImageValidator {
	fs := afero.NewMemMapFs()
	for name, data := range files {
		_ = afero.WriteFile(fs, name, data, 0o644)
	}
	return NewImageValidator(fs, zerolog.Nop())
}

func upload(key, path string) domain.UploadedFiles {
	return domain.UploadedFiles{
		domain.AttributeProfilePicture: domain.UploadedFile{
			domain.UploadName: "avatar",
			key:               path,
		},
	}
}

func TestImageValidator_AcceptsImages(t *testing.T) {
	v := newValidator(map[string][]byte{
		"/tmp/a.png": pngHeader,
		"/tmp/a.gif": gifHeader,
		"/tmp/a.jpg": jpgHeader,
	})

	for _, path := range []string{"/tmp/a.png", "/tmp/a.gif", "/tmp/a.jpg"} {
		if !v.IsImageValid(domain.UploadTmpName, domain.AttributeProfilePicture, upload(domain.UploadTmpName, path)) {
			t.Errorf("%s: expected valid image", path)
		}
	}
}

func TestImageValidator_RejectsNonImages(t *testing.T) {
	v := newValidator(map[string][]byte{
		"/tmp/a.txt": []byte("just some text"),
		"/tmp/a.pdf": []byte("%PDF-1.4\n"),
	})

	for _, path := range []string{"/tmp/a.txt", "/tmp/a.pdf", "/tmp/missing.png"} {
		if v.IsImageValid(domain.UploadTmpName, domain.AttributeProfilePicture, upload(domain.UploadTmpName, path)) {
			t.Errorf("%s: expected rejection", path)
		}
	}
}

func TestImageValidator_NothingPosted(t *testing.T) {
	v := newValidator(nil)

	if !v.IsImageValid(domain.UploadTmpName, domain.AttributeProfilePicture, nil) {
		t.Error("no upload must be valid")
	}
	if !v.IsImageValid(domain.UploadTmpName, "other_field", upload(domain.UploadTmpName, "/tmp/a.txt")) {
		t.Error("upload under another field must be ignored")
	}
}

func TestImageValidator_KeyMismatch(t *testing.T) {
	v := newValidator(map[string][]byte{"/tmp/a.txt": []byte("not an image")})

	// Uploads recorded under tmp_name are not seen when looking up tmpp_name.
	if !v.IsImageValid("tmpp_name", domain.AttributeProfilePicture, upload(domain.UploadTmpName, "/tmp/a.txt")) {
		t.Error("expected lookup under a missing key to pass")
	}
	if v.IsImageValid("tmpp_name", domain.AttributeProfilePicture, upload("tmpp_name", "/tmp/a.txt")) {
		t.Error("expected lookup under a matching key to reject")
	}
}
