package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Feature is a feature request users can vote on. VoteCount is a cached
// aggregate over the votes table and must only change inside the same
// transaction as the vote row it reflects.
type Feature struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	VoteCount   int    `gorm:"not null;default:0" json:"voteCount"`
	CreatedByID string `gorm:"size:36;index;not null" json:"createdById"`

	CreatedBy *User  `gorm:"foreignKey:CreatedByID" json:"createdBy,omitempty"`
	Votes     []Vote `gorm:"foreignKey:FeatureID" json:"votes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (f *Feature) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// FeatureProjection is the {id, title, voteCount} shape returned by vote
// operations and embedded in vote listings.
type FeatureProjection struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	VoteCount int    `json:"voteCount"`
}

type CreateFeatureRequest struct {
	Title          string `json:"title" binding:"required,min=3,max=100"`
	Description    string `json:"description" binding:"required,min=10,max=500"`
	CreatedByEmail string `json:"createdByEmail" binding:"required,email"`
}
