package httpapi

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pdfpipe/server/internal/jobkind"
)

// cvSyncDeadline bounds how long CVGenerate tries to render inline before
// falling back to the queue (spec.md §6: synchronous unless it would exceed
// this window).
const cvSyncDeadline = 5 * time.Second

// CVGenerate handles POST /cv/generate. It attempts a synchronous render
// under a tight deadline and streams the PDF directly; if that deadline is
// exceeded it enqueues the same payload and returns 202 like every other
// operation instead.
func (s *Server) CVGenerate(c *gin.Context) {
	var body struct {
		FullName   string            `json:"fullName"`
		Email      string            `json:"email"`
		Phone      string            `json:"phone"`
		Location   string            `json:"location"`
		Summary    string            `json:"summary"`
		Experience []jobkind.CVEntry `json:"experience"`
		Education  []jobkind.CVEntry `json:"education"`
		Skills     []string          `json:"skills"`
		Language   string            `json:"language"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeErrorDirect(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	key := clientKey(c)
	payload := jobkind.NewCVGeneratePayload(key, jobkind.CVGeneratePayload{
		FullName:   body.FullName,
		Email:      body.Email,
		Phone:      body.Phone,
		Location:   body.Location,
		Summary:    body.Summary,
		Experience: body.Experience,
		Education:  body.Education,
		Skills:     body.Skills,
		Language:   body.Language,
	})

	handler, ok := s.registry[jobkind.CVGenerate]
	if !ok {
		writeErrorDirect(c, http.StatusInternalServerError, "cv-generate is not wired")
		return
	}

	jobID := uuid.NewString()
	ctx, cancel := context.WithTimeout(c.Request.Context(), cvSyncDeadline)
	defer cancel()

	result, coded := handler(ctx, s.deps, jobID, payload)
	if coded == nil {
		defer s.deps.Store.Unlink(result.OutputPath)
		c.Header("Cache-Control", "no-store")
		c.Header("Content-Disposition", "attachment; filename=\"cv.pdf\"")
		c.File(result.OutputPath)
		return
	}
	if ctx.Err() == context.DeadlineExceeded {
		if result.OutputPath != "" {
			_ = os.Remove(result.OutputPath)
		}
		rec := s.manager.Enqueue(jobkind.CVGenerate, payload)
		c.JSON(http.StatusAccepted, gin.H{"jobId": rec.ID})
		return
	}
	writeError(c, coded)
}
