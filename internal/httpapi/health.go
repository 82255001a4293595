package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health handles GET /health.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"provider": s.cfg.PDFProvider,
	})
}
