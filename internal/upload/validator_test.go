package upload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfpipe/server/internal/apperr"
)

func writeTemp(t *testing.T, dir, name string, content []byte) File {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return File{Path: path, OriginalName: name, Size: int64(len(content))}
}

func TestValidate_AcceptsPDF(t *testing.T) {
	dir := t.TempDir()
	f := writeTemp(t, dir, "a.pdf", append([]byte("%PDF-"), []byte("content")...))

	err := Validate([]File{f}, Limits{MaxFiles: 1, MaxFileSize: 1024, AllowedKind: KindPDF})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if _, statErr := os.Stat(f.Path); statErr != nil {
		t.Fatalf("accepted file should not be removed: %v", statErr)
	}
}

func TestValidate_InvalidMagicUnlinksFile(t *testing.T) {
	dir := t.TempDir()
	f := writeTemp(t, dir, "a.pdf", []byte("NOTAPDF----"))

	err := Validate([]File{f}, Limits{MaxFiles: 1, MaxFileSize: 1024, AllowedKind: KindPDF})
	if err == nil {
		t.Fatal("expected failure")
	}
	if err.Code != apperr.UploadInvalidMagic {
		t.Fatalf("expected UPLOAD_INVALID_MAGIC, got %s", err.Code)
	}
	if _, statErr := os.Stat(f.Path); !os.IsNotExist(statErr) {
		t.Fatalf("rejected file should have been unlinked, stat err=%v", statErr)
	}
}

func TestValidate_TooManyFilesUnlinksAll(t *testing.T) {
	dir := t.TempDir()
	f1 := writeTemp(t, dir, "a.pdf", append([]byte("%PDF-"), []byte("x")...))
	f2 := writeTemp(t, dir, "b.pdf", append([]byte("%PDF-"), []byte("y")...))

	err := Validate([]File{f1, f2}, Limits{MaxFiles: 1, MaxFileSize: 1024, AllowedKind: KindPDF})
	if err == nil || err.Code != apperr.UploadTooManyFiles {
		t.Fatalf("expected UPLOAD_TOO_MANY_FILES, got %v", err)
	}
	for _, f := range []File{f1, f2} {
		if _, statErr := os.Stat(f.Path); !os.IsNotExist(statErr) {
			t.Fatalf("expected %s removed, stat err=%v", f.Path, statErr)
		}
	}
}

func TestValidate_TooLarge(t *testing.T) {
	dir := t.TempDir()
	f := writeTemp(t, dir, "a.pdf", append([]byte("%PDF-"), make([]byte, 100)...))

	err := Validate([]File{f}, Limits{MaxFiles: 1, MaxFileSize: 10, AllowedKind: KindPDF})
	if err == nil || err.Code != apperr.UploadTooLarge {
		t.Fatalf("expected UPLOAD_TOO_LARGE, got %v", err)
	}
}

func TestValidate_BadExtension(t *testing.T) {
	dir := t.TempDir()
	f := writeTemp(t, dir, "a.txt", append([]byte("%PDF-"), []byte("x")...))

	err := Validate([]File{f}, Limits{MaxFiles: 1, MaxFileSize: 1024, AllowedKind: KindPDF})
	if err == nil || err.Code != apperr.UploadBadType {
		t.Fatalf("expected UPLOAD_BAD_TYPE, got %v", err)
	}
}
