package httpapi

import (
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pdfpipe/server/internal/apperr"
	"github.com/pdfpipe/server/internal/jobkind"
	"github.com/pdfpipe/server/internal/upload"
)

// opSpec describes one POST /pdf/:op endpoint: which files it accepts and
// how to turn the saved paths plus form fields into a typed Payload.
type opSpec struct {
	kind       jobkind.Kind
	uploadKind upload.Kind
	minFiles   int
	maxFiles   int
	build      func(c *gin.Context, paths []string, clientKey string) (jobkind.Payload, *apperr.Coded)
}

func (s *Server) opSpecs() map[string]opSpec {
	return map[string]opSpec{
		"merge": {
			kind: jobkind.Merge, uploadKind: upload.KindPDF, minFiles: 2, maxFiles: s.cfg.UploadMaxFiles,
			build: func(c *gin.Context, paths []string, key string) (jobkind.Payload, *apperr.Coded) {
				return jobkind.NewMergePayload(key, paths), nil
			},
		},
		"split": {
			kind: jobkind.Split, uploadKind: upload.KindPDF, minFiles: 1, maxFiles: 1,
			build: func(c *gin.Context, paths []string, key string) (jobkind.Payload, *apperr.Coded) {
				mode := jobkind.SplitMode(c.PostForm("mode"))
				everyN, _ := strconv.Atoi(c.PostForm("everyN"))
				return jobkind.NewSplitPayload(key, paths[0], mode, c.PostForm("spec"), everyN), nil
			},
		},
		"compress": {
			kind: jobkind.Compress, uploadKind: upload.KindPDF, minFiles: 1, maxFiles: 1,
			build: func(c *gin.Context, paths []string, key string) (jobkind.Payload, *apperr.Coded) {
				return jobkind.NewCompressPayload(key, paths[0], jobkind.CompressPreset(c.DefaultPostForm("preset", "balanced"))), nil
			},
		},
		"protect": {
			kind: jobkind.Protect, uploadKind: upload.KindPDF, minFiles: 1, maxFiles: 1,
			build: func(c *gin.Context, paths []string, key string) (jobkind.Payload, *apperr.Coded) {
				return jobkind.NewProtectPayload(key, paths[0], c.PostForm("password")), nil
			},
		},
		"unlock": {
			kind: jobkind.Unlock, uploadKind: upload.KindPDF, minFiles: 1, maxFiles: 1,
			build: func(c *gin.Context, paths []string, key string) (jobkind.Payload, *apperr.Coded) {
				return jobkind.NewUnlockPayload(key, paths[0], c.PostForm("password")), nil
			},
		},
		"remove-pages": {
			kind: jobkind.RemovePages, uploadKind: upload.KindPDF, minFiles: 1, maxFiles: 1,
			build: func(c *gin.Context, paths []string, key string) (jobkind.Payload, *apperr.Coded) {
				return jobkind.NewRemovePagesPayload(key, paths[0], c.PostForm("pages")), nil
			},
		},
		"rotate": {
			kind: jobkind.Rotate, uploadKind: upload.KindPDF, minFiles: 1, maxFiles: 1,
			build: func(c *gin.Context, paths []string, key string) (jobkind.Payload, *apperr.Coded) {
				angle, _ := strconv.Atoi(c.PostForm("angle"))
				return jobkind.NewRotatePayload(key, paths[0], angle, c.PostForm("pages")), nil
			},
		},
		"organize": {
			kind: jobkind.Organize, uploadKind: upload.KindPDF, minFiles: 1, maxFiles: 1,
			build: func(c *gin.Context, paths []string, key string) (jobkind.Payload, *apperr.Coded) {
				order, err := parseIntList(c.PostForm("order"))
				if err != nil {
					return nil, apperr.New(apperr.BadPayload, "order must be a comma-separated list of page numbers")
				}
				return jobkind.NewOrganizePayload(key, paths[0], order), nil
			},
		},
		"crop": {
			kind: jobkind.Crop, uploadKind: upload.KindPDF, minFiles: 1, maxFiles: 1,
			build: func(c *gin.Context, paths []string, key string) (jobkind.Payload, *apperr.Coded) {
				unit := jobkind.CropUnit(c.DefaultPostForm("unit", "pt"))
				top, _ := strconv.ParseFloat(c.PostForm("top"), 64)
				bottom, _ := strconv.ParseFloat(c.PostForm("bottom"), 64)
				left, _ := strconv.ParseFloat(c.PostForm("left"), 64)
				right, _ := strconv.ParseFloat(c.PostForm("right"), 64)
				return jobkind.NewCropPayload(key, paths[0], unit, top, bottom, left, right), nil
			},
		},
		"repair": {
			kind: jobkind.Repair, uploadKind: upload.KindPDF, minFiles: 1, maxFiles: 1,
			build: func(c *gin.Context, paths []string, key string) (jobkind.Payload, *apperr.Coded) {
				return jobkind.NewRepairPayload(key, paths[0], jobkind.RepairMethod(c.DefaultPostForm("method", "auto"))), nil
			},
		},
		"watermark": {
			kind: jobkind.Watermark, uploadKind: upload.KindPDF, minFiles: 1, maxFiles: 1,
			build: func(c *gin.Context, paths []string, key string) (jobkind.Payload, *apperr.Coded) {
				opacity, _ := strconv.ParseFloat(c.DefaultPostForm("opacity", "0.3"), 64)
				fontSize, _ := strconv.ParseFloat(c.DefaultPostForm("fontSize", "36"), 64)
				return jobkind.NewWatermarkPayload(key, paths[0], c.PostForm("text"), opacity, fontSize), nil
			},
		},
		"to-word": {
			kind: jobkind.ToWord, uploadKind: upload.KindPDF, minFiles: 1, maxFiles: 1,
			build: func(c *gin.Context, paths []string, key string) (jobkind.Payload, *apperr.Coded) {
				return jobkind.NewOfficeConvertPayload(key, paths[0], jobkind.ToWord), nil
			},
		},
		"to-excel": {
			kind: jobkind.ToExcel, uploadKind: upload.KindPDF, minFiles: 1, maxFiles: 1,
			build: func(c *gin.Context, paths []string, key string) (jobkind.Payload, *apperr.Coded) {
				return jobkind.NewOfficeConvertPayload(key, paths[0], jobkind.ToExcel), nil
			},
		},
		"to-ppt": {
			kind: jobkind.ToPPT, uploadKind: upload.KindPDF, minFiles: 1, maxFiles: 1,
			build: func(c *gin.Context, paths []string, key string) (jobkind.Payload, *apperr.Coded) {
				return jobkind.NewOfficeConvertPayload(key, paths[0], jobkind.ToPPT), nil
			},
		},
		"from-word": {
			kind: jobkind.FromWord, uploadKind: upload.KindDocx, minFiles: 1, maxFiles: 1,
			build: func(c *gin.Context, paths []string, key string) (jobkind.Payload, *apperr.Coded) {
				return jobkind.NewOfficeImportPayload(key, paths[0], jobkind.FromWord), nil
			},
		},
		"from-excel": {
			kind: jobkind.FromExcel, uploadKind: upload.KindXlsx, minFiles: 1, maxFiles: 1,
			build: func(c *gin.Context, paths []string, key string) (jobkind.Payload, *apperr.Coded) {
				return jobkind.NewOfficeImportPayload(key, paths[0], jobkind.FromExcel), nil
			},
		},
		"from-ppt": {
			kind: jobkind.FromPPT, uploadKind: upload.KindPptx, minFiles: 1, maxFiles: 1,
			build: func(c *gin.Context, paths []string, key string) (jobkind.Payload, *apperr.Coded) {
				return jobkind.NewOfficeImportPayload(key, paths[0], jobkind.FromPPT), nil
			},
		},
		"from-html": {
			kind: jobkind.FromHTML, uploadKind: "", minFiles: 0, maxFiles: 0,
			build: func(c *gin.Context, paths []string, key string) (jobkind.Payload, *apperr.Coded) {
				html := c.PostForm("html")
				if html == "" {
					return nil, apperr.New(apperr.BadPayload, "from-html requires an html form field")
				}
				return jobkind.NewFromHTMLPayload(key, html), nil
			},
		},
	}
}

// Enqueue handles POST /pdf/:op: validates op against the JobKind set,
// parses multipart files per the op's spec, runs the upload validator,
// builds the typed payload, and enqueues the job.
func (s *Server) Enqueue(c *gin.Context) {
	op := c.Param("op")
	spec, ok := s.opSpecs()[op]
	if !ok {
		writeErrorDirect(c, http.StatusBadRequest, "unknown operation: "+op)
		return
	}

	key := clientKey(c)
	var paths []string

	if spec.maxFiles > 0 {
		form, err := c.MultipartForm()
		if err != nil {
			writeErrorDirect(c, http.StatusBadRequest, "expected a multipart/form-data request")
			return
		}
		headers := form.File["file"]
		if len(headers) == 0 {
			headers = form.File["files"]
		}
		if len(headers) < spec.minFiles {
			writeError(c, apperr.New(apperr.BadPayload, "this operation requires at least one file"))
			return
		}

		maxFileSize := s.cfg.UploadMaxFileSize
		if isOfficeKind(spec.uploadKind) {
			maxFileSize = s.cfg.UploadMaxFileSizeOffice
		}

		savedPaths, uploadFiles, saveErr := s.persistUploads(headers)
		if saveErr != nil {
			writeError(c, saveErr)
			return
		}

		if err := upload.Validate(uploadFiles, upload.Limits{
			MaxFiles:    spec.maxFiles,
			MaxFileSize: maxFileSize,
			AllowedKind: spec.uploadKind,
		}); err != nil {
			writeError(c, err)
			return
		}
		paths = savedPaths
	}

	payload, buildErr := spec.build(c, paths, key)
	if buildErr != nil {
		for _, p := range paths {
			s.deps.Store.Unlink(p)
		}
		writeError(c, buildErr)
		return
	}

	rec := s.manager.Enqueue(spec.kind, payload)
	c.JSON(http.StatusAccepted, gin.H{"jobId": rec.ID})
}

func (s *Server) persistUploads(headers []*multipart.FileHeader) ([]string, []upload.File, *apperr.Coded) {
	paths := make([]string, 0, len(headers))
	files := make([]upload.File, 0, len(headers))

	for _, h := range headers {
		ext := filepath.Ext(h.Filename)
		path, err := s.deps.Store.AllocateUploadSlot(ext)
		if err != nil {
			return nil, nil, apperr.New(apperr.Internal, "failed to allocate upload path")
		}
		// gin's MultipartForm has already buffered each file's bytes;
		// saveMultipartFile copies them into our uploads root so every
		// later path is already validate_under-eligible.
		if err := saveMultipartFile(h, path); err != nil {
			return nil, nil, apperr.New(apperr.Internal, "failed to persist uploaded file")
		}
		paths = append(paths, path)
		files = append(files, upload.File{
			Path:         path,
			OriginalName: h.Filename,
			DeclaredMime: h.Header.Get("Content-Type"),
			Size:         h.Size,
		})
	}
	return paths, files, nil
}

func isOfficeKind(k upload.Kind) bool {
	switch k {
	case upload.KindDocx, upload.KindXlsx, upload.KindPptx, upload.KindDoc, upload.KindXls, upload.KindPpt:
		return true
	default:
		return false
	}
}

func parseIntList(s string) ([]int, error) {
	var out []int
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
