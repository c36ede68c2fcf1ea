package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/featureboard/feature-voting/backend/internal/models"
)

type VoteService struct {
	db *gorm.DB
}

func NewVoteService(db *gorm.DB) *VoteService {
	return &VoteService{db: db}
}

// VoteFilter narrows GetAllVotes; zero values mean "no filter".
type VoteFilter struct {
	FeatureID string
	UserEmail string
}

// GetAllVotes lists ledger rows matching the filter, each with trimmed
// user and feature references.
func (s *VoteService) GetAllVotes(ctx context.Context, filter VoteFilter) ([]models.VoteDetail, error) {
	q := s.db.WithContext(ctx).
		Preload("User").
		Preload("Feature")

	if filter.FeatureID != "" {
		q = q.Where("feature_id = ?", filter.FeatureID)
	}
	if filter.UserEmail != "" {
		q = q.Where("user_id IN (?)",
			s.db.Model(&models.User{}).Select("id").Where("email = ?", filter.UserEmail))
	}

	var votes []models.Vote
	if err := q.Order("created_at ASC").Find(&votes).Error; err != nil {
		return nil, err
	}

	details := make([]models.VoteDetail, 0, len(votes))
	for _, v := range votes {
		detail := models.VoteDetail{
			ID:        v.ID,
			UserID:    v.UserID,
			FeatureID: v.FeatureID,
			CreatedAt: v.CreatedAt,
		}
		if v.User != nil {
			detail.User = models.UserSummary{ID: v.User.ID, Name: v.User.Name, Email: v.User.Email}
		}
		if v.Feature != nil {
			detail.Feature = models.FeatureProjection{
				ID:        v.Feature.ID,
				Title:     v.Feature.Title,
				VoteCount: v.Feature.VoteCount,
			}
		}
		details = append(details, detail)
	}
	return details, nil
}
