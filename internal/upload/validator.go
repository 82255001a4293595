// Package upload implements the post-multipart-parse validation gate:
// file-count, per-file size, magic-byte, and extension checks, with
// unlink-on-failure semantics (spec.md §4.2).
package upload

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfpipe/server/internal/apperr"
)

// Kind names the accepted family of an uploaded file, used to pick the
// magic-byte signature and extension allow-list.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindDocx  Kind = "docx"
	KindXlsx  Kind = "xlsx"
	KindPptx  Kind = "pptx"
	KindDoc   Kind = "doc"
	KindXls   Kind = "xls"
	KindPpt   Kind = "ppt"
)

var extensionAllowList = map[Kind][]string{
	KindPDF:  {".pdf"},
	KindDocx: {".docx"},
	KindXlsx: {".xlsx"},
	KindPptx: {".pptx"},
	KindDoc:  {".doc"},
	KindXls:  {".xls"},
	KindPpt:  {".ppt"},
}

var pdfMagic = []byte("%PDF-")
var zipMagic = []byte{0x50, 0x4b, 0x03, 0x04} // PK\x03\x04; an empty archive (PK\x05\x06) does not match
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

func expectedSignature(k Kind) []byte {
	switch k {
	case KindPDF:
		return pdfMagic
	case KindDocx, KindXlsx, KindPptx:
		return zipMagic
	case KindDoc, KindXls, KindPpt:
		return oleMagic
	default:
		return nil
	}
}

// File is one file pulled from a multipart request, already persisted to a
// temp path by the multipart parser.
type File struct {
	Path         string
	OriginalName string
	DeclaredMime string
	Size         int64
}

// Limits configures the checks; callers build it from config per endpoint.
type Limits struct {
	MaxFiles       int
	MaxFileSize    int64
	AllowedKind    Kind
}

// Validate runs the four checks in order. On any failure it unlinks every
// file in files (not just the offending one) per spec.md §4.2's "on failure
// all already-accepted files in the same request are unlinked".
func Validate(files []File, limits Limits) *apperr.Coded {
	if err := checkAndCleanup(files, limits); err != nil {
		for _, f := range files {
			_ = os.Remove(f.Path)
		}
		return err
	}
	return nil
}

func checkAndCleanup(files []File, limits Limits) *apperr.Coded {
	maxFiles := limits.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 1
	}
	if len(files) > maxFiles {
		return apperr.New(apperr.UploadTooManyFiles, fmt.Sprintf("request carries %d files, limit is %d", len(files), maxFiles))
	}

	for _, f := range files {
		if limits.MaxFileSize > 0 && f.Size > limits.MaxFileSize {
			return apperr.New(apperr.UploadTooLarge, fmt.Sprintf("%s exceeds the %d byte limit", f.OriginalName, limits.MaxFileSize))
		}
	}

	for _, f := range files {
		if err := checkMagic(f, limits.AllowedKind); err != nil {
			return err
		}
	}

	for _, f := range files {
		if err := checkExtension(f.OriginalName, limits.AllowedKind); err != nil {
			return err
		}
	}

	return nil
}

// sniffWindow is large enough to cover every signature this package checks
// plus enough trailing content for mimetype.Detect's own header sniffing.
const sniffWindow = 3072

func checkMagic(f File, kind Kind) *apperr.Coded {
	sig := expectedSignature(kind)
	if sig == nil {
		return nil
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return apperr.Wrap(apperr.UploadInvalidMagic, "could not read uploaded file", err)
	}
	defer file.Close()

	head := make([]byte, sniffWindow)
	n, _ := file.Read(head)
	head = head[:n]

	if len(head) < len(sig) || !bytes.Equal(head[:len(sig)], sig) {
		return apperr.New(apperr.UploadInvalidMagic, fmt.Sprintf("%s does not match the expected signature for %s", f.OriginalName, kind))
	}
	data := head
	// Cross-check with content sniffing for the zip/OLE families, where the
	// raw signature alone can't distinguish a legitimate office document
	// from any other zip/OLE container.
	if kind == KindDocx || kind == KindXlsx || kind == KindPptx || kind == KindDoc || kind == KindXls || kind == KindPpt {
		mt := mimetype.Detect(data)
		if !mimetypeMatchesKind(mt, kind) {
			return apperr.New(apperr.UploadInvalidMagic, fmt.Sprintf("%s does not look like a %s document", f.OriginalName, kind))
		}
	}
	return nil
}

func mimetypeMatchesKind(mt *mimetype.MIME, kind Kind) bool {
	for m := mt; m != nil; m = m.Parent() {
		switch kind {
		case KindDocx:
			if m.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document") || m.Is("application/zip") {
				return true
			}
		case KindXlsx:
			if m.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet") || m.Is("application/zip") {
				return true
			}
		case KindPptx:
			if m.Is("application/vnd.openxmlformats-officedocument.presentationml.presentation") || m.Is("application/zip") {
				return true
			}
		case KindDoc, KindXls, KindPpt:
			if m.Is("application/x-ole-storage") {
				return true
			}
		}
	}
	return false
}

func checkExtension(name string, kind Kind) *apperr.Coded {
	allowed, ok := extensionAllowList[kind]
	if !ok {
		return nil
	}
	lower := strings.ToLower(name)
	for _, ext := range allowed {
		if strings.HasSuffix(lower, ext) {
			return nil
		}
	}
	return apperr.New(apperr.UploadBadType, fmt.Sprintf("%s has an unsupported extension for this endpoint", name))
}

// FromMultipart adapts a parsed *multipart.FileHeader slice plus their
// persisted temp paths into the File slice Validate expects.
func FromMultipart(headers []*multipart.FileHeader, paths []string) ([]File, error) {
	if len(headers) != len(paths) {
		return nil, fmt.Errorf("upload: headers/paths length mismatch")
	}
	files := make([]File, len(headers))
	for i, h := range headers {
		files[i] = File{
			Path:         paths[i],
			OriginalName: h.Filename,
			DeclaredMime: h.Header.Get("Content-Type"),
			Size:         h.Size,
		}
	}
	return files, nil
}
