package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vote is one row in the vote ledger. The unique index on UserID is the
// structural guarantee that a user holds at most one active vote.
type Vote struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	UserID    string `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	FeatureID string `gorm:"size:36;index;not null" json:"featureId"`

	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Feature *Feature `gorm:"foreignKey:FeatureID" json:"feature,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// VoteRequest is the body of POST/DELETE /features/:id/vote.
type VoteRequest struct {
	UserEmail string `json:"userEmail" binding:"required,email"`
}

// VoteDetail is the vote listing shape: the ledger row plus trimmed
// user and feature references.
type VoteDetail struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	FeatureID string            `json:"featureId"`
	CreatedAt time.Time         `json:"createdAt"`
	User      UserSummary       `json:"user"`
	Feature   FeatureProjection `json:"feature"`
}

// VoteResult is what castOrMoveVote returns: the (new or existing) vote
// and the projection of the feature it now points at.
type VoteResult struct {
	Vote    Vote              `json:"vote"`
	Feature FeatureProjection `json:"feature"`
}

// RemoveVoteResult is the remove-vote response payload.
type RemoveVoteResult struct {
	Message string            `json:"message"`
	Feature FeatureProjection `json:"feature"`
}
