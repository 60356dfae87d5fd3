package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/huzarta/piano-transcription-service/internal/core/domain"
)

func mapDomainError(c *gin.Context, err error) {
	switch {
	// Not found errors
	case errors.Is(err, domain.ErrAudioNotFound),
		errors.Is(err, domain.ErrTranscriptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	// Validation errors
	case errors.Is(err, domain.ErrInvalidFileID),
		errors.Is(err, domain.ErrMissingStorageTarget):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	// Readiness
	case errors.Is(err, domain.ErrModelNotReady):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

	// Client gave up while queued or mid-pipeline
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusRequestTimeout, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
