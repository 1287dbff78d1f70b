package media

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const dirPerm = 0o755

// Directory is the media root on an afero filesystem. Names are slash
// separated and relative to the root.
type Directory struct {
	fs   afero.Fs
	root string
}

func NewDirectory(fs afero.Fs, root string) *Directory {
	return &Directory{fs: fs, root: filepath.Clean(root)}
}

// Fs exposes the underlying filesystem, shared with the image validator.
func (d *Directory) Fs() afero.Fs {
	return d.fs
}

func (d *Directory) Root() string {
	return d.root
}

func (d *Directory) IsFile(name string) bool {
	info, err := d.fs.Stat(d.AbsolutePath(name))
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

func (d *Directory) AbsolutePath(name string) string {
	return filepath.Join(d.root, filepath.FromSlash(name))
}

// RelativePath returns the slash separated name of abs under the root. It
// reports false for paths outside the root.
func (d *Directory) RelativePath(abs string) (string, bool) {
	rel, err := filepath.Rel(d.root, filepath.Clean(abs))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (d *Directory) ReadFile(name string) ([]byte, error) {
	return afero.ReadFile(d.fs, d.AbsolutePath(name))
}

// WriteFile creates missing parent directories.
func (d *Directory) WriteFile(name string, data []byte) error {
	abs := d.AbsolutePath(name)
	if err := d.fs.MkdirAll(filepath.Dir(abs), dirPerm); err != nil {
		return err
	}
	return afero.WriteFile(d.fs, abs, data, 0o644)
}

// Remove ignores files that are already gone.
func (d *Directory) Remove(name string) error {
	err := d.fs.Remove(d.AbsolutePath(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Writable checks that a file can be created under the root.
func (d *Directory) Writable() error {
	if err := d.fs.MkdirAll(d.root, dirPerm); err != nil {
		return err
	}
	probe, err := afero.TempFile(d.fs, d.root, ".probe-")
	if err != nil {
		return err
	}
	name := probe.Name()
	_ = probe.Close()
	return d.fs.Remove(name)
}
