package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/huzarta/piano-transcription-service/internal/adapters/primary/http/dto"
	"github.com/huzarta/piano-transcription-service/internal/core/domain"
	"github.com/huzarta/piano-transcription-service/internal/core/ports/output"
	"github.com/huzarta/piano-transcription-service/internal/core/services"
)

func (h *Handler) Transcribe(c *gin.Context) {
	var req dto.TranscribeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.AudioFileID == "" && strings.Contains(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	log.WithField("input_file", req.AudioFileID).Info("transcription requested")

	result, err := h.transcriptionSvc.Transcribe(c.Request.Context(), services.TranscribeRequest{
		FileID: req.AudioFileID,
		Target: domain.StorageTarget{
			BaseURL: req.SupabaseURL,
			APIKey:  req.SupabaseKey,
		},
	})
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTranscribeResponse(result))
}

func (h *Handler) GetTranscription(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transcription id"})
		return
	}

	t, err := h.transcriptionSvc.Get(c.Request.Context(), id)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTranscriptionResponse(t))
}

func (h *Handler) ListTranscriptions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, total, err := h.transcriptionSvc.List(c.Request.Context(), ports.TranscriptionListFilter{
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTranscriptionListResponse(items, total))
}
