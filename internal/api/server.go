// Package api exposes batch submission, status and downloads over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"versereel/internal/queue"
)

// Jobs is the queue surface the API needs.
type Jobs interface {
	Enqueue(ctx context.Context, p queue.Payload) (string, error)
	Status(id string) (queue.Status, error)
}

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	CustomerName   string `json:"customer_name" binding:"required"`
	NumberOfVideos *int   `json:"number_of_videos"`
}

// GenerateResponse is returned once a batch is queued.
type GenerateResponse struct {
	JobID  string      `json:"job_id"`
	Status queue.State `json:"status"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Server holds the handlers' dependencies.
type Server struct {
	jobs       Jobs
	outputRoot string
	logger     *zap.Logger
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(jobs Jobs, outputRoot string, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{jobs: jobs, outputRoot: outputRoot, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/generate", s.generate)
	r.GET("/status/:id", s.status)
	r.GET("/download/*path", s.download)
	RegisterHealthRoutes(r)
	return r
}

// RegisterHealthRoutes adds GET /api/health.
func RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (s *Server) generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
		return
	}
	p := queue.Payload{CustomerName: req.CustomerName, NumberOfVideos: 1}
	if req.NumberOfVideos != nil {
		p.NumberOfVideos = *req.NumberOfVideos
	}
	if err := p.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
		return
	}
	id, err := s.jobs.Enqueue(c.Request.Context(), p)
	if err != nil {
		s.logger.Error("enqueue failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, errorResponse{Detail: "could not queue job"})
		return
	}
	s.logger.Info("job queued", zap.String("job_id", id), zap.String("customer", p.CustomerName), zap.Int("count", p.NumberOfVideos))
	c.JSON(http.StatusOK, GenerateResponse{JobID: id, Status: queue.StateQueued})
}

func (s *Server) status(c *gin.Context) {
	st, err := s.jobs.Status(c.Param("id"))
	switch {
	case errors.Is(err, queue.ErrJobNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Detail: "job not found"})
	case err != nil:
		s.logger.Error("status lookup failed", zap.String("job_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Detail: err.Error()})
	default:
		c.JSON(http.StatusOK, st)
	}
}

func (s *Server) download(c *gin.Context) {
	fp, ok := resolveUnder(s.outputRoot, c.Param("path"))
	if !ok {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid path"})
		return
	}
	fi, err := os.Stat(fp)
	if err != nil || fi.IsDir() {
		c.JSON(http.StatusNotFound, errorResponse{Detail: "file not found"})
		return
	}
	c.FileAttachment(fp, filepath.Base(fp))
}

// resolveUnder joins rel onto root and reports false when the result escapes root.
func resolveUnder(root, rel string) (string, bool) {
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return "", false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == ".." {
			return "", false
		}
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	fp := filepath.Join(absRoot, filepath.FromSlash(rel))
	if fp != absRoot && !strings.HasPrefix(fp, absRoot+string(filepath.Separator)) {
		return "", false
	}
	return fp, true
}
