package httpapi

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/pdfpipe/server/internal/jobkind"
	"github.com/pdfpipe/server/internal/tempstore"
)

// Download handles GET /jobs/download/:id: streams the job's artifact and
// deletes it once the client has received it (spec.md §6 "downloaded once").
func (s *Server) Download(c *gin.Context) {
	id := c.Param("id")
	rec, ok := s.manager.Get(id)
	if !ok {
		writeErrorDirect(c, http.StatusNotFound, "no job with that id")
		return
	}
	if rec.Status != jobkind.StatusSucceeded {
		writeErrorDirect(c, http.StatusBadRequest, "job has not succeeded")
		return
	}
	s.streamArtifact(c, rec.OutputPath, rec.IsMultiple)
}

// LegacyDownload handles GET /download/:id, the pre-queue direct-path
// variant that probes both artifact extensions under the downloads root.
func (s *Server) LegacyDownload(c *gin.Context) {
	id := c.Param("id")
	for _, ext := range []string{"pdf", "zip"} {
		path := filepath.Join(s.deps.Store.DownloadsRoot(), id+"."+ext)
		if !tempstore.ValidateUnder(s.deps.Store.DownloadsRoot(), path) {
			continue
		}
		if f, err := s.deps.Store.ReadStream(path); err == nil {
			f.Close()
			s.streamArtifact(c, path, ext == "zip")
			return
		}
	}
	writeErrorDirect(c, http.StatusNotFound, "no artifact with that id")
}

func (s *Server) streamArtifact(c *gin.Context, path string, isMultiple bool) {
	if !tempstore.ValidateUnder(s.deps.Store.DownloadsRoot(), path) {
		writeErrorDirect(c, http.StatusForbidden, "path escapes the downloads root")
		return
	}

	f, err := s.deps.Store.ReadStream(path)
	if err != nil {
		writeErrorDirect(c, http.StatusNotFound, "artifact not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeErrorDirect(c, http.StatusInternalServerError, "could not stat artifact")
		return
	}

	contentType := "application/pdf"
	filename := filepath.Base(path)
	if isMultiple {
		contentType = "application/zip"
	}

	c.Header("Cache-Control", "no-store")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, f, nil)

	s.deps.Store.Unlink(path)
}
