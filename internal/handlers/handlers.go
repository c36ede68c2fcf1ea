package handlers

import (
	"gorm.io/gorm"
)

// Handler combines all handler types
type Handler struct {
	Feature *FeatureHandler
	Vote    *VoteHandler
	User    *UserHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{
		Feature: NewFeatureHandler(db),
		Vote:    NewVoteHandler(db),
		User:    NewUserHandler(db),
	}
}
