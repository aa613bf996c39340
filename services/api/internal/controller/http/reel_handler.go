package http

import (
	"net/http"

	"quddle-backend/pkg/logger"
	"quddle-backend/pkg/response"
	"quddle-backend/pkg/validation"
	"quddle-backend/services/api/internal/usecase"

	"github.com/gin-gonic/gin"
)

type ReelHandler struct {
	reelUseCase usecase.ReelUseCase
	logger      *logger.Logger
}

func NewReelHandler(reelUseCase usecase.ReelUseCase, logger *logger.Logger) *ReelHandler {
	return &ReelHandler{
		reelUseCase: reelUseCase,
		logger:      logger,
	}
}

type PresignRequest struct {
	ContentType string `json:"contentType"`
	SizeBytes   *int64 `json:"sizeBytes" binding:"omitempty,gte=0"`
}

type FinalizeRequest struct {
	ReelID      string   `json:"reelId"`
	Key         string   `json:"key"`
	S3URL       string   `json:"s3Url" binding:"omitempty,httpurl"`
	SizeBytes   *int64   `json:"sizeBytes" binding:"omitempty,gte=0"`
	DurationSec *float64 `json:"durationSec" binding:"omitempty,gte=0"`
}

type TranscodeUpdateRequest struct {
	S3Key        string `json:"s3_key"`
	NewS3URL     string `json:"newS3Url" binding:"omitempty,httpurl"`
	ThumbnailURL string `json:"thumbnailUrl" binding:"omitempty,httpurl"`
}

// Presign godoc
// @Summary      Presign reel upload
// @Description  Get a presigned PUT URL for a new reel video
// @Tags         reels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body PresignRequest true "Upload details"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /reels/presign [post]
func (h *ReelHandler) Presign(c *gin.Context) {
	userID := c.GetString("user_id")

	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid or missing contentType")
		return
	}

	result, err := h.reelUseCase.Presign(c.Request.Context(), userID, req.ContentType, req.SizeBytes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{
		"uploadUrl": result.UploadURL,
		"bucket":    result.Bucket,
		"key":       result.Key,
		"reelId":    result.ReelID,
	})
}

// Finalize godoc
// @Summary      Finalize reel upload
// @Description  Record an uploaded reel and queue it for transcoding
// @Tags         reels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body FinalizeRequest true "Uploaded object"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Router       /reels/finalize [post]
func (h *ReelHandler) Finalize(c *gin.Context) {
	userID := c.GetString("user_id")

	var req FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, validation.Message(err))
		return
	}

	reel, err := h.reelUseCase.Finalize(c.Request.Context(), userID, usecase.FinalizeInput{
		ReelID:      req.ReelID,
		Key:         req.Key,
		S3URL:       req.S3URL,
		SizeBytes:   req.SizeBytes,
		DurationSec: req.DurationSec,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{"reel": reel})
}

// ListMyReels godoc
// @Summary      List my reels
// @Tags         reels
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /reels [get]
func (h *ReelHandler) ListMyReels(c *gin.Context) {
	userID := c.GetString("user_id")

	reels, err := h.reelUseCase.ListMine(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"reels": reels})
}

// ListAllReels godoc
// @Summary      List all reels
// @Description  Every ready reel in random order, with the caller's like flag
// @Tags         reels
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /reels/all [get]
func (h *ReelHandler) ListAllReels(c *gin.Context) {
	userID := c.GetString("user_id")

	reels, err := h.reelUseCase.ListAll(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"reels": reels})
}

// PlaybackURL godoc
// @Summary      Get playback URL
// @Tags         reels
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Reel ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /reels/{id}/playback-url [get]
func (h *ReelHandler) PlaybackURL(c *gin.Context) {
	url, ttl, err := h.reelUseCase.PlaybackURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{
		"playbackUrl": url,
		"expiresIn":   int64(ttl.Seconds()),
	})
}

// DeleteReel godoc
// @Summary      Delete reel
// @Tags         reels
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Reel ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Router       /reels/{id} [delete]
func (h *ReelHandler) DeleteReel(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := h.reelUseCase.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"message": "Reel deleted"})
}

// ToggleLike godoc
// @Summary      Like or unlike a reel
// @Tags         reels
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Reel ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /reels/{id}/like [post]
func (h *ReelHandler) ToggleLike(c *gin.Context) {
	userID := c.GetString("user_id")

	reel, liked, err := h.reelUseCase.ToggleLike(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Reel unliked successfully"
	if liked {
		message = "Reel liked successfully"
	}
	response.OK(c, http.StatusOK, gin.H{
		"reel":    reel,
		"isLiked": liked,
		"message": message,
	})
}

// TranscodeUpdate godoc
// @Summary      Transcode callback
// @Description  Called by the transcoding pipeline once a reel has been processed
// @Tags         reels
// @Accept       json
// @Produce      json
// @Param        x-aws-secret header string true "Shared secret"
// @Param        request body TranscodeUpdateRequest true "Processed output"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Router       /reels/aws-update [post]
func (h *ReelHandler) TranscodeUpdate(c *gin.Context) {
	var req TranscodeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, validation.Message(err))
		return
	}

	reel, err := h.reelUseCase.UpdateFromTranscode(c.Request.Context(), c.GetHeader("x-aws-secret"), usecase.TranscodeCallback{
		S3Key:        req.S3Key,
		NewS3URL:     req.NewS3URL,
		ThumbnailURL: req.ThumbnailURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{"reel": reel})
}
