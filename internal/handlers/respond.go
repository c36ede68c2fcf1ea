package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/featureboard/feature-voting/backend/internal/apperrors"
)

// Every response is wrapped as {success, data} or {success, error}.

func respondSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// respondServiceError maps service-layer errors onto HTTP statuses:
// not-found → 404, conflict → 409, anything else → 500.
func respondServiceError(c *gin.Context, err error) {
	var notFound *apperrors.NotFoundError
	if errors.As(err, &notFound) {
		respondError(c, http.StatusNotFound, notFound.Error())
		return
	}

	var conflict *apperrors.ConflictError
	if errors.As(err, &conflict) {
		respondError(c, http.StatusConflict, conflict.Error())
		return
	}

	log.Printf("Unexpected error: %v", err)
	respondError(c, http.StatusInternalServerError, "Internal server error")
}

// respondBindingError turns gin binding failures into a 400 payload:
// {success: false, error: "Validation failed", details: [...]}.
func respondBindingError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]gin.H, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, gin.H{
				"field":   fe.Field(),
				"message": validationMessage(fe),
			})
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Validation failed",
			"details": details,
		})
		return
	}

	respondError(c, http.StatusBadRequest, "Invalid request body")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "is too short (minimum " + fe.Param() + " characters)"
	case "max":
		return "is too long (maximum " + fe.Param() + " characters)"
	default:
		return "is invalid"
	}
}
