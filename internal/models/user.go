package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID    string `gorm:"primaryKey;size:36" json:"id"`
	Email string `gorm:"unique;not null" json:"email"`
	Name  string `gorm:"not null" json:"name"`

	// Back-references, populated only when explicitly preloaded
	Features []Feature `gorm:"foreignKey:CreatedByID" json:"features,omitempty"`
	Votes    []Vote    `gorm:"foreignKey:UserID" json:"votes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// UserSummary is the trimmed user shape embedded in vote listings.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
