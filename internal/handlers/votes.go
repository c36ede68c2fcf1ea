package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/featureboard/feature-voting/backend/internal/service"
)

type VoteHandler struct {
	votes *service.VoteService
}

func NewVoteHandler(db *gorm.DB) *VoteHandler {
	return &VoteHandler{votes: service.NewVoteService(db)}
}

// GetVotes lists votes, optionally filtered by ?featureId= and ?userEmail=
func (h *VoteHandler) GetVotes(c *gin.Context) {
	filter := service.VoteFilter{
		FeatureID: c.Query("featureId"),
		UserEmail: c.Query("userEmail"),
	}

	votes, err := h.votes.GetAllVotes(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, votes)
}
