package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pdfpipe/server/internal/jobkind"
)

// Status handles GET /jobs/:id, returning the record's current lifecycle
// state and a download URL once it has succeeded (spec.md §6).
func (s *Server) Status(c *gin.Context) {
	id := c.Param("id")
	rec, ok := s.manager.Get(id)
	if !ok {
		writeErrorDirect(c, http.StatusNotFound, "no job with that id")
		return
	}

	body := gin.H{
		"id":        rec.ID,
		"kind":      rec.Kind,
		"status":    rec.Status,
		"progress":  rec.Progress,
		"createdAt": rec.CreatedAt,
	}
	if rec.StartedAt != nil {
		body["startedAt"] = rec.StartedAt
	}
	if rec.FinishedAt != nil {
		body["finishedAt"] = rec.FinishedAt
	}
	if rec.Error != "" {
		body["error"] = rec.Error
		body["errorCode"] = rec.ErrorCode
	}
	if rec.Status == jobkind.StatusSucceeded {
		body["downloadUrl"] = "/jobs/download/" + rec.ID
	}

	c.JSON(http.StatusOK, body)
}
