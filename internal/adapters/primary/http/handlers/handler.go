package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/huzarta/piano-transcription-service/internal/core/services"
)

const serviceVersion = "1.0.0"

type Handler struct {
	transcriptionSvc *services.TranscriptionService
	artifactSvc      *services.ArtifactService
}

func New(transcriptionSvc *services.TranscriptionService, artifactSvc *services.ArtifactService) *Handler {
	return &Handler{
		transcriptionSvc: transcriptionSvc,
		artifactSvc:      artifactSvc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.POST("/transcribe", h.Transcribe)

	api := r.Group("/api/v1")
	api.GET("/transcriptions", h.ListTranscriptions)
	api.GET("/transcriptions/:id", h.GetTranscription)
}
