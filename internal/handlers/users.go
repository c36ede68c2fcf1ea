package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/featureboard/feature-voting/backend/internal/service"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{users: service.NewUserService(db)}
}

// GetUserByEmail resolves a user by email with their features and vote
func (h *UserHandler) GetUserByEmail(c *gin.Context) {
	user, err := h.users.GetUserByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, user)
}
