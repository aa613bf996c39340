package http

import (
	"net/http"

	"quddle-backend/pkg/logger"
	"quddle-backend/pkg/response"
	"quddle-backend/pkg/validation"
	"quddle-backend/services/api/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ClassifiedHandler struct {
	classifiedUseCase usecase.ClassifiedUseCase
	logger            *logger.Logger
}

func NewClassifiedHandler(classifiedUseCase usecase.ClassifiedUseCase, logger *logger.Logger) *ClassifiedHandler {
	return &ClassifiedHandler{
		classifiedUseCase: classifiedUseCase,
		logger:            logger,
	}
}

type PostClassifiedRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"omitempty,gte=0"`
	Category    *string          `json:"category"`
	Location    *string          `json:"location"`
	ImageCount  int              `json:"imageCount" binding:"gte=0"`
}

type UpdateImagesRequest struct {
	ImageKeys []string `json:"imageKeys" binding:"max=5,dive,required"`
}

// PostClassified godoc
// @Summary      Post classified
// @Description  Charge the posting fee and create a classified listing
// @Tags         classifieds
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body PostClassifiedRequest true "Listing"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /classifieds [post]
func (h *ClassifiedHandler) PostClassified(c *gin.Context) {
	userID := c.GetString("user_id")

	var req PostClassifiedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, validation.Message(err))
		return
	}

	result, err := h.classifiedUseCase.Post(c.Request.Context(), userID, usecase.PostClassifiedInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Location:    req.Location,
		ImageCount:  req.ImageCount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, gin.H{
		"classified": result.Classified,
		"uploadUrls": result.UploadURLs,
		"newBalance": result.NewBalance,
		"message":    result.Message,
	})
}

// ListClassifieds godoc
// @Summary      List classifieds
// @Tags         classifieds
// @Produce      json
// @Param        category query string false "Category"
// @Param        status   query string false "Status (default active)"
// @Success      200  {object}  map[string]interface{}
// @Router       /classifieds [get]
func (h *ClassifiedHandler) ListClassifieds(c *gin.Context) {
	classifieds, err := h.classifiedUseCase.List(c.Request.Context(), c.Query("category"), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"classifieds": classifieds})
}

// ListMyClassifieds godoc
// @Summary      List my classifieds
// @Tags         classifieds
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /classifieds/my [get]
func (h *ClassifiedHandler) ListMyClassifieds(c *gin.Context) {
	userID := c.GetString("user_id")

	classifieds, err := h.classifiedUseCase.ListMine(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"classifieds": classifieds})
}

// UpdateImages godoc
// @Summary      Attach classified images
// @Description  Store the public URLs of uploaded image keys on the listing
// @Tags         classifieds
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Classified ID"
// @Param        request body UpdateImagesRequest true "Uploaded keys"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /classifieds/{id}/images [put]
func (h *ClassifiedHandler) UpdateImages(c *gin.Context) {
	userID := c.GetString("user_id")

	var req UpdateImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, validation.Message(err))
		return
	}

	classified, err := h.classifiedUseCase.UpdateImages(c.Request.Context(), userID, c.Param("id"), req.ImageKeys)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{
		"classified": classified,
		"message":    "Images updated",
	})
}
