package domain

// Upload metadata keys, as posted by a multipart form.
const (
	UploadName    = "name"
	UploadType    = "type"
	UploadTmpName = "tmp_name"
	UploadSize    = "size"
)

// UploadedFile holds the metadata of one posted file.
type UploadedFile map[string]string

// UploadedFiles maps a form field (file id) to its upload metadata.
type UploadedFiles map[string]UploadedFile

// Lookup returns the metadata value key of the file posted under fileID.
func (u UploadedFiles) Lookup(fileID, key string) (string, bool) {
	file, ok := u[fileID]
	if !ok {
		return "", false
	}
	v, ok := file[key]
	return v, ok
}
