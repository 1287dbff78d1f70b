package ports

import "context"

// MediaDirectory is read/write access to the media root. Names are relative
// to the root.
type MediaDirectory interface {
	IsFile(name string) bool
	AbsolutePath(name string) string
	// RelativePath maps an absolute path back to a name under the root.
	RelativePath(abs string) (string, bool)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
	Remove(name string) error
}

// MediaStorage is the remote copy of the media directory.
type MediaStorage interface {
	// ProcessStorageFile copies the file at absPath from remote storage into
	// the media directory. It reports false when remote storage has no such file.
	ProcessStorageFile(ctx context.Context, absPath string) (bool, error)
	// SaveFile stores a media file remotely under its relative name.
	SaveFile(ctx context.Context, name string, data []byte) error
}
