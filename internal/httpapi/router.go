package httpapi

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/pdfpipe/server/internal/ratelimit"
)

// NewRouter wires every route behind the teacher's gin.New()+Recovery()+
// custom logger+cors stack, adding the client-key and rate-limit middleware
// ahead of every mutating endpoint (spec.md §4.7: rate limiting runs before
// upload validation).
func NewRouter(s *Server, limiter *ratelimit.Limiter, corsOrigins []string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithFormatter(logFormatter))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "x-api-key"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.Health)
	r.GET("/download/:id", s.LegacyDownload)

	jobs := r.Group("/jobs")
	{
		jobs.GET("/:id", s.Status)
		jobs.GET("/download/:id", s.Download)
	}

	pdf := r.Group("/pdf")
	pdf.Use(ClientKeyMiddleware(), RateLimitMiddleware(limiter))
	{
		pdf.POST("/:op", s.Enqueue)
	}

	cv := r.Group("/cv")
	cv.Use(ClientKeyMiddleware(), RateLimitMiddleware(limiter))
	{
		cv.POST("/generate", s.CVGenerate)
	}

	return r
}

func logFormatter(param gin.LogFormatterParams) string {
	return fmt.Sprintf("[%s] %s %s %d %s\n",
		param.TimeStamp.Format("15:04:05"),
		param.Method,
		param.Path,
		param.StatusCode,
		param.Latency,
	)
}
