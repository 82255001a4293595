package tempstore

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	base := t.TempDir()
	s, err := New(filepath.Join(base, "uploads"), filepath.Join(base, "downloads"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestValidateUnder_RejectsEscape(t *testing.T) {
	s := newTestStore(t)

	cases := []struct {
		name string
		path string
		want bool
	}{
		{"inside", filepath.Join(s.UploadsRoot(), "a.pdf"), true},
		{"dotdot", filepath.Join(s.UploadsRoot(), "..", "etc", "passwd"), false},
		{"absolute-outside", "/etc/passwd", false},
		{"root-itself", s.UploadsRoot(), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ValidateUnder(s.UploadsRoot(), c.path); got != c.want {
				t.Errorf("ValidateUnder(%q) = %v, want %v", c.path, got, c.want)
			}
		})
	}
}

func TestValidateUnder_RejectsSymlinkEscape(t *testing.T) {
	s := newTestStore(t)
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(secret, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(s.UploadsRoot(), "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	if ValidateUnder(s.UploadsRoot(), filepath.Join(link, "secret.txt")) {
		t.Fatal("expected symlink escape to be rejected")
	}
}

func TestWriteZip_DeflatesEntriesByBasename(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	f1 := filepath.Join(dir, "one.pdf")
	f2 := filepath.Join(dir, "two.pdf")
	if err := os.WriteFile(f1, []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f2, []byte("two"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(s.DownloadsRoot(), "job1.zip")
	if err := s.WriteZip(out, []string{f1, f2}); err != nil {
		t.Fatal(err)
	}

	zr, err := zip.OpenReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
		if f.Method != zip.Deflate {
			t.Errorf("expected deflate, got method %d for %s", f.Method, f.Name)
		}
	}
	if !names["one.pdf"] || !names["two.pdf"] {
		t.Fatalf("expected entries one.pdf and two.pdf, got %v", names)
	}
}

func TestWriteBuffer_RejectsEscapePath(t *testing.T) {
	s := newTestStore(t)
	err := s.WriteBuffer("/etc/should-not-write", []byte("x"))
	if err == nil {
		t.Fatal("expected path-escape error")
	}
}
