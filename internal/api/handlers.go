package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soap-note-server/internal/domain"
	"github.com/soap-note-server/internal/middleware"
)

// handleHealth handles health check requests.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "soap-note-server",
		"timestamp": time.Now().UTC(),
	})
}

// handleGenerateSoapNote handles one note generation call. The request
// context carries the caller identity (or none), the body carries the
// intake fields; everything else is the pipeline's job, including the
// precedence of rejections.
func (s *Server) handleGenerateSoapNote(c *gin.Context) {
	callerUID := c.GetString(middleware.ContextKeyCallerUID)

	// A malformed body binds to a zero request, which the pipeline
	// rejects in the correct order: identity first, then patientInfo.
	var req domain.NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.WithError(err).Debug("Failed to bind request body")
	}

	result, err := s.notes.Generate(c.Request.Context(), callerUID, req)
	if err != nil {
		svcErr := domain.AsServiceError(err)
		c.JSON(svcErr.HTTPStatus(), gin.H{
			"kind":           svcErr.Kind,
			"message":        svcErr.Message,
			"correlation_id": c.GetString("correlation_id"),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
