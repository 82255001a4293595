package httpapi

import (
	"mime/multipart"
	"os"
	"io"

	"github.com/pdfpipe/server/internal/config"
	"github.com/pdfpipe/server/internal/handlers"
	"github.com/pdfpipe/server/internal/queue"
)

// Server bundles everything a route handler needs: the queue manager, the
// shared tool/temp-store dependencies, and configuration for limits.
type Server struct {
	manager  *queue.Manager
	deps     *handlers.Deps
	registry handlers.Registry
	cfg      *config.Config
}

func NewServer(manager *queue.Manager, deps *handlers.Deps, registry handlers.Registry, cfg *config.Config) *Server {
	return &Server{manager: manager, deps: deps, registry: registry, cfg: cfg}
}

// saveMultipartFile copies an uploaded file's content into dst, the same
// relationship gin.Context.SaveUploadedFile has with a *multipart.FileHeader,
// kept local so enqueue.go never needs a *gin.Context to persist a file.
func saveMultipartFile(h *multipart.FileHeader, dst string) error {
	src, err := h.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
