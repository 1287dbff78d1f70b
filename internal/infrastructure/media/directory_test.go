package media

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func newTestDirectory() *Directory {
	return NewDirectory(afero.NewMemMapFs(), "/var/media")
}

func TestDirectory_WriteReadRemove(t *testing.T) {
	d := newTestDirectory()

	if err := d.WriteFile("customer/a/b/ab.png", []byte("data")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !d.IsFile("customer/a/b/ab.png") {
		t.Fatal("expected file to exist")
	}
	got, err := d.ReadFile("customer/a/b/ab.png")
	if err != nil || string(got) != "data" {
		t.Fatalf("read: %q, %v", got, err)
	}
	if err := d.Remove("customer/a/b/ab.png"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if d.IsFile("customer/a/b/ab.png") {
		t.Error("expected file to be removed")
	}
	if err := d.Remove("customer/a/b/ab.png"); err != nil {
		t.Errorf("removing a missing file must not fail: %v", err)
	}
}

func TestDirectory_IsFile_Directory(t *testing.T) {
	d := newTestDirectory()
	_ = d.WriteFile("customer/a/b/ab.png", []byte("data"))

	if d.IsFile("customer/a") {
		t.Error("directories are not files")
	}
	if d.IsFile("customer/missing.png") {
		t.Error("missing names are not files")
	}
}

func TestDirectory_AbsoluteAndRelativePath(t *testing.T) {
	d := newTestDirectory()

	abs := d.AbsolutePath("customer/a/b/ab.png")
	if abs != filepath.Join("/var/media", "customer", "a", "b", "ab.png") {
		t.Fatalf("unexpected absolute path %q", abs)
	}
	rel, ok := d.RelativePath(abs)
	if !ok || rel != "customer/a/b/ab.png" {
		t.Fatalf("unexpected relative path %q (%v)", rel, ok)
	}

	for _, outside := range []string{"/etc/passwd", "/var/media", "/var/other/x.png"} {
		if _, ok := d.RelativePath(outside); ok {
			t.Errorf("%q must not map into the media root", outside)
		}
	}
}

func TestDirectory_Writable(t *testing.T) {
	d := newTestDirectory()

	if err := d.Writable(); err != nil {
		t.Fatalf("expected writable root: %v", err)
	}

	ro := NewDirectory(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/var/media")
	if err := ro.Writable(); err == nil {
		t.Error("expected read-only filesystem to be reported")
	}
}
