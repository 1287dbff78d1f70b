package media

import (
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/lof/customer-profile/internal/core/domain"
)

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif"}

// ImageValidator sniffs uploaded temporary files.
type ImageValidator struct {
	fs  afero.Fs
	log zerolog.Logger
}

func NewImageValidator(fs afero.Fs, log zerolog.Logger) *ImageValidator {
	return &ImageValidator{fs: fs, log: log}
}

// IsImageValid reports whether the file posted under fileID is a jpeg, png or
// gif. Nothing posted under fileID (or no tmpName key) is valid: there is no
// image to reject.
func (v *ImageValidator) IsImageValid(tmpName, fileID string, uploads domain.UploadedFiles) bool {
	path, ok := uploads.Lookup(fileID, tmpName)
	if !ok || path == "" {
		return true
	}

	f, err := v.fs.Open(path)
	if err != nil {
		v.log.Debug().Err(err).Str("file_id", fileID).Msg("uploaded image unreadable")
		return false
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return false
	}
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		v.log.Debug().Str("file_id", fileID).Str("mime", mtype.String()).Msg("uploaded file is not an image")
		return false
	}
	return true
}
