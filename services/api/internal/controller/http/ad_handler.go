package http

import (
	"errors"
	"io"
	"net/http"

	"quddle-backend/pkg/logger"
	"quddle-backend/pkg/response"
	"quddle-backend/pkg/validation"
	"quddle-backend/services/api/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AdHandler struct {
	adUseCase usecase.AdUseCase
	logger    *logger.Logger
}

func NewAdHandler(adUseCase usecase.AdUseCase, logger *logger.Logger) *AdHandler {
	return &AdHandler{
		adUseCase: adUseCase,
		logger:    logger,
	}
}

type CreateAdRequest struct {
	Title             string          `json:"title"`
	LinkURL           string          `json:"link_url"`
	PaymentAmount     decimal.Decimal `json:"payment_amount"`
	TargetImpressions int64           `json:"target_impressions"`
	ContentType       string          `json:"contentType"`
	SizeBytes         *int64          `json:"sizeBytes" binding:"omitempty,gte=0"`
}

type UpdateAdRequest struct {
	Title     *string `json:"title"`
	LinkURL   *string `json:"link_url"`
	Status    *string `json:"status"`
	ExpiresAt *string `json:"expires_at"`
}

type ImpressionRequest struct {
	UserID string `json:"user_id"`
	ReelID string `json:"reel_id"`
}

type ClickRequest struct {
	UserID *string `json:"user_id"`
	ReelID *string `json:"reel_id"`
}

// CreateAd godoc
// @Summary      Create ad
// @Description  Create a pending ad and get a presigned upload URL for its image
// @Tags         ads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateAdRequest true "Ad data"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /ads [post]
func (h *AdHandler) CreateAd(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreateAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, validation.Message(err))
		return
	}

	result, err := h.adUseCase.Create(c.Request.Context(), userID, usecase.CreateAdInput{
		Title:             req.Title,
		LinkURL:           req.LinkURL,
		PaymentAmount:     req.PaymentAmount,
		TargetImpressions: req.TargetImpressions,
		ContentType:       req.ContentType,
		SizeBytes:         req.SizeBytes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, gin.H{
		"ad":        result.Ad,
		"uploadUrl": result.UploadURL,
		"imageKey":  result.ImageKey,
		"message":   "Ad created. Upload image using the presigned URL, then proceed with payment.",
	})
}

// ListActiveAds godoc
// @Summary      List active ads
// @Tags         ads
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /ads [get]
func (h *AdHandler) ListActiveAds(c *gin.Context) {
	ads, err := h.adUseCase.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"ads": ads, "count": len(ads)})
}

// ListMyAds godoc
// @Summary      List my ads
// @Tags         ads
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /ads/my [get]
func (h *AdHandler) ListMyAds(c *gin.Context) {
	userID := c.GetString("user_id")

	ads, err := h.adUseCase.ListMine(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"ads": ads, "count": len(ads)})
}

// GetAd godoc
// @Summary      Get ad
// @Tags         ads
// @Produce      json
// @Param        id path string true "Ad ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /ads/{id} [get]
func (h *AdHandler) GetAd(c *gin.Context) {
	ad, err := h.adUseCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"ad": ad})
}

// RecordImpression godoc
// @Summary      Record impression
// @Description  Count a view of an active ad; the ad expires when it reaches its target
// @Tags         ads
// @Accept       json
// @Produce      json
// @Param        id path string true "Ad ID"
// @Param        request body ImpressionRequest true "Viewer and reel"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      429  {object}  map[string]interface{}
// @Router       /ads/{id}/impression [post]
func (h *AdHandler) RecordImpression(c *gin.Context) {
	var req ImpressionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Missing required fields: user_id, reel_id")
		return
	}

	impression, err := h.adUseCase.RecordImpression(c.Request.Context(), c.Param("id"), req.UserID, req.ReelID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, gin.H{
		"impression": impression,
		"message":    "Impression recorded successfully",
	})
}

// RecordClick godoc
// @Summary      Record click
// @Tags         ads
// @Accept       json
// @Produce      json
// @Param        id path string true "Ad ID"
// @Param        request body ClickRequest false "Viewer and reel"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /ads/{id}/click [post]
func (h *AdHandler) RecordClick(c *gin.Context) {
	// The body is optional; an anonymous click carries no viewer.
	var req ClickRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Fail(c, http.StatusBadRequest, validation.Message(err))
			return
		}
	}

	click, err := h.adUseCase.RecordClick(c.Request.Context(), c.Param("id"), req.UserID, req.ReelID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, gin.H{
		"click":   click,
		"message": "Click recorded successfully",
	})
}

// UpdateAd godoc
// @Summary      Update ad
// @Tags         ads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Ad ID"
// @Param        request body UpdateAdRequest true "Fields to change"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Router       /ads/{id} [put]
func (h *AdHandler) UpdateAd(c *gin.Context) {
	userID := c.GetString("user_id")

	var req UpdateAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, validation.Message(err))
		return
	}

	ad, err := h.adUseCase.Update(c.Request.Context(), userID, c.Param("id"), usecase.UpdateAdInput{
		Title:     req.Title,
		LinkURL:   req.LinkURL,
		Status:    req.Status,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{"ad": ad, "message": "Ad updated successfully"})
}

// DeleteAd godoc
// @Summary      Delete ad
// @Tags         ads
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Ad ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Router       /ads/{id} [delete]
func (h *AdHandler) DeleteAd(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := h.adUseCase.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"message": "Ad deleted successfully"})
}

// InitiatePayment godoc
// @Summary      Start ad payment
// @Description  Create a payment intent for a pending ad
// @Tags         ads
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Ad ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /ads/{id}/payment [post]
func (h *AdHandler) InitiatePayment(c *gin.Context) {
	userID := c.GetString("user_id")

	result, err := h.adUseCase.InitiatePayment(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{
		"paymentIntent": gin.H{
			"id":           result.Intent.ID,
			"clientSecret": result.Intent.ClientSecret,
			"amount":       result.Ad.PaymentAmount,
			"currency":     result.Intent.Currency,
			"status":       result.Intent.Status,
		},
		"ad": gin.H{
			"id":                 result.Ad.ID,
			"title":              result.Ad.Title,
			"payment_amount":     result.Ad.PaymentAmount,
			"target_impressions": result.Ad.TargetImpressions,
		},
		"message": "Payment intent created. Use clientSecret to complete payment on frontend.",
	})
}

// PaymentWebhook godoc
// @Summary      Payment webhook
// @Description  Receives payment provider events; a succeeded payment activates its ad
// @Tags         ads
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature header string true "Webhook signature"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /ads/webhook/stripe [post]
func (h *AdHandler) PaymentWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "Unable to read request body")
		return
	}

	if err := h.adUseCase.HandlePaymentWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"received": true})
}
