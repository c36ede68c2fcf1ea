package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/featureboard/feature-voting/backend/internal/models"
	"github.com/featureboard/feature-voting/backend/internal/service"
)

type FeatureHandler struct {
	features *service.FeatureService
}

func NewFeatureHandler(db *gorm.DB) *FeatureHandler {
	return &FeatureHandler{features: service.NewFeatureService(db)}
}

// GetFeatures returns all features ranked by vote count descending
func (h *FeatureHandler) GetFeatures(c *gin.Context) {
	features, err := h.features.GetAllFeatures(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Empty array, not null
	if features == nil {
		features = []models.Feature{}
	}

	respondSuccess(c, http.StatusOK, features)
}

// GetFeature returns a single feature by ID
func (h *FeatureHandler) GetFeature(c *gin.Context) {
	feature, err := h.features.GetFeatureByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, feature)
}

// CreateFeature creates a new feature request
func (h *FeatureHandler) CreateFeature(c *gin.Context) {
	var input models.CreateFeatureRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	feature, err := h.features.CreateFeature(c.Request.Context(), service.CreateFeatureData{
		Title:          input.Title,
		Description:    input.Description,
		CreatedByEmail: input.CreatedByEmail,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, feature)
}

// VoteFeature casts or moves the caller's single vote onto this feature.
// Voting again for the same feature succeeds without changing anything.
func (h *FeatureHandler) VoteFeature(c *gin.Context) {
	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	result, err := h.features.VoteOnFeature(c.Request.Context(), c.Param("id"), input.UserEmail)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, result)
}

// UnvoteFeature removes the caller's vote from this feature
func (h *FeatureHandler) UnvoteFeature(c *gin.Context) {
	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	result, err := h.features.RemoveVote(c.Request.Context(), c.Param("id"), input.UserEmail)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, result)
}
