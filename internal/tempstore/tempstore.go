// Package tempstore mediates every filesystem touch inside the two
// process-owned roots (uploads, downloads), including path-escape
// validation, artifact writing, and TTL-based reaping support.
package tempstore

import (
	"archive/zip"
	"compress/flate"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfpipe/server/internal/apperr"
)

// Store owns the uploads and downloads roots.
type Store struct {
	uploadsRoot   string
	downloadsRoot string
}

func New(uploadsRoot, downloadsRoot string) (*Store, error) {
	for _, dir := range []string{uploadsRoot, downloadsRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("tempstore: create %s: %w", dir, err)
		}
	}
	uploadsAbs, err := filepath.Abs(uploadsRoot)
	if err != nil {
		return nil, err
	}
	downloadsAbs, err := filepath.Abs(downloadsRoot)
	if err != nil {
		return nil, err
	}
	return &Store{uploadsRoot: uploadsAbs, downloadsRoot: downloadsAbs}, nil
}

func (s *Store) UploadsRoot() string   { return s.uploadsRoot }
func (s *Store) DownloadsRoot() string { return s.downloadsRoot }

// AllocateUploadSlot returns a path inside uploads with an unpredictable,
// non-colliding leaf. It does not create the file.
func (s *Store) AllocateUploadSlot(ext string) (string, error) {
	leaf, err := randomLeaf()
	if err != nil {
		return "", err
	}
	if ext != "" {
		leaf += "." + strings.TrimPrefix(ext, ".")
	}
	return filepath.Join(s.uploadsRoot, leaf), nil
}

// AllocateUploadSubdir returns a fresh, unique subdirectory of uploads for a
// single tool invocation's scratch files (spec.md §4.3: "unique subdirectory
// of uploads"). The caller is responsible for removing it.
func (s *Store) AllocateUploadSubdir() (string, error) {
	leaf, err := randomLeaf()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(s.uploadsRoot, leaf)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// AllocateDownloadPath returns downloads/{jobID}.{ext}. ext must be "pdf" or
// "zip".
func (s *Store) AllocateDownloadPath(jobID, ext string) (string, error) {
	if ext != "pdf" && ext != "zip" {
		return "", fmt.Errorf("tempstore: unsupported artifact extension %q", ext)
	}
	return filepath.Join(s.downloadsRoot, jobID+"."+ext), nil
}

func randomLeaf() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("tempstore: generate random leaf: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// WriteBuffer create-exclusively writes bytes to path, which must validate
// under uploads or downloads.
func (s *Store) WriteBuffer(path string, data []byte) error {
	if err := s.mustValidate(path); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("tempstore: create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("tempstore: write %s: %w", path, err)
	}
	return nil
}

// WriteZip creates a zip at path containing each of files, named by their
// basename, deflated at level 9.
func (s *Store) WriteZip(path string, files []string) error {
	if err := s.mustValidate(path); err != nil {
		return err
	}
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("tempstore: create %s: %w", path, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	// Deflate level 9 for every zip artifact (spec.md §4.1), registered on
	// this writer only since archive/zip already registers Deflate globally.
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})
	for _, src := range files {
		if err := addZipEntry(zw, src); err != nil {
			zw.Close()
			return err
		}
	}
	return zw.Close()
}

func addZipEntry(zw *zip.Writer, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("tempstore: open %s: %w", src, err)
	}
	defer in.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   filepath.Base(src),
		Method: zip.Deflate,
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}

// ReadStream opens path for streaming download. The caller must close it.
func (s *Store) ReadStream(path string) (*os.File, error) {
	if err := s.mustValidate(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tempstore: open %s: %w", path, err)
	}
	return f, nil
}

// ValidateUnder resolves path and checks prefix-containment against root,
// rejecting traversal, symlink-escape, and absolute paths outside root.
func ValidateUnder(root, path string) bool {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	rootAbs, err = filepath.EvalSymlinks(rootAbs)
	if err != nil {
		// Root must already exist; if it doesn't resolve, fail closed.
		return false
	}

	candidate := path
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(rootAbs, candidate)
	}
	candidate = filepath.Clean(candidate)

	resolved := candidate
	if real, err := filepath.EvalSymlinks(candidate); err == nil {
		resolved = real
	} else {
		// Path may not exist yet (pre-create validation); resolve its
		// nearest existing ancestor to catch a symlinked parent directory.
		resolved = resolveNearestAncestor(candidate)
	}

	sep := string(os.PathSeparator)
	return resolved == rootAbs || strings.HasPrefix(resolved, rootAbs+sep)
}

func resolveNearestAncestor(path string) string {
	dir := filepath.Dir(path)
	for {
		real, err := filepath.EvalSymlinks(dir)
		if err == nil {
			return filepath.Join(real, strings.TrimPrefix(path, dir))
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return path
		}
		dir = parent
	}
}

func (s *Store) mustValidate(path string) error {
	if ValidateUnder(s.uploadsRoot, path) || ValidateUnder(s.downloadsRoot, path) {
		return nil
	}
	return apperr.New(apperr.PathEscape, "path escapes its allowed root")
}

// Unlink best-effort deletes path, silent on absent.
func (s *Store) Unlink(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}

// UnlinkDir best-effort removes a directory tree (used for tool-invocation
// scratch subdirectories).
func (s *Store) UnlinkDir(path string) {
	if path == "" {
		return
	}
	_ = os.RemoveAll(path)
}
