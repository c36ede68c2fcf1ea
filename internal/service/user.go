package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/featureboard/feature-voting/backend/internal/apperrors"
	"github.com/featureboard/feature-voting/backend/internal/models"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetUserByEmail returns the user with their created features and their
// active vote (if any), the vote carrying its feature.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Features").
		Preload("Votes.Feature").
		Where("email = ?", email).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
