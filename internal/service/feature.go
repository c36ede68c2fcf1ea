// Package service implements the operations behind the HTTP layer: the
// vote coordinator, the ranked feature view, and the plain lookups. All
// invariant-preserving vote logic delegates to the store package.
package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/featureboard/feature-voting/backend/internal/apperrors"
	"github.com/featureboard/feature-voting/backend/internal/models"
	"github.com/featureboard/feature-voting/backend/internal/store"
)

type FeatureService struct {
	db     *gorm.DB
	ledger *store.Ledger
}

func NewFeatureService(db *gorm.DB) *FeatureService {
	return &FeatureService{db: db, ledger: store.NewLedger(db)}
}

// GetAllFeatures returns every feature ranked by vote count descending.
func (s *FeatureService) GetAllFeatures(ctx context.Context) ([]models.Feature, error) {
	return s.ledger.ListFeaturesRanked(ctx)
}

// GetFeatureByID returns one feature with its creator and votes.
func (s *FeatureService) GetFeatureByID(ctx context.Context, id string) (*models.Feature, error) {
	var feature models.Feature
	err := s.db.WithContext(ctx).
		Preload("CreatedBy").
		Preload("Votes").
		Where("id = ?", id).
		First(&feature).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("feature")
	}
	if err != nil {
		return nil, err
	}
	return &feature, nil
}

type CreateFeatureData struct {
	Title          string
	Description    string
	CreatedByEmail string
}

// CreateFeature creates a feature request on behalf of the user resolved
// from CreatedByEmail.
func (s *FeatureService) CreateFeature(ctx context.Context, data CreateFeatureData) (*models.Feature, error) {
	user, err := s.resolveUser(ctx, data.CreatedByEmail)
	if err != nil {
		return nil, err
	}

	feature := models.Feature{
		Title:       data.Title,
		Description: data.Description,
		CreatedByID: user.ID,
	}
	if err := s.db.WithContext(ctx).Create(&feature).Error; err != nil {
		return nil, err
	}

	feature.CreatedBy = user
	return &feature, nil
}

// VoteOnFeature casts or moves the user's single vote. Revoting for the
// feature the user already voted for succeeds without mutating anything.
// A transaction aborted by a serialization conflict is retried once; the
// paired ledger+counter mutation is all-or-nothing, so the retry starts
// from clean state.
func (s *FeatureService) VoteOnFeature(ctx context.Context, featureID, userEmail string) (*models.VoteResult, error) {
	var feature models.Feature
	err := s.db.WithContext(ctx).Where("id = ?", featureID).First(&feature).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("feature")
	}
	if err != nil {
		return nil, err
	}

	user, err := s.resolveUser(ctx, userEmail)
	if err != nil {
		return nil, err
	}

	result, err := s.ledger.CastOrMove(ctx, user.ID, featureID)
	if apperrors.IsTransactionAborted(err) {
		result, err = s.ledger.CastOrMove(ctx, user.ID, featureID)
	}
	if apperrors.IsUniqueViolation(err) {
		return nil, &apperrors.ConflictError{Message: "vote already exists for this user"}
	}
	return result, err
}

// RemoveVote deletes the user's vote for the given feature and decrements
// its counter. Targeting a vote that does not exist is an error, unlike
// the idempotent revote path.
func (s *FeatureService) RemoveVote(ctx context.Context, featureID, userEmail string) (*models.RemoveVoteResult, error) {
	user, err := s.resolveUser(ctx, userEmail)
	if err != nil {
		return nil, err
	}

	projection, err := s.ledger.DeleteVoteAndDecrement(ctx, user.ID, featureID)
	if apperrors.IsTransactionAborted(err) {
		projection, err = s.ledger.DeleteVoteAndDecrement(ctx, user.ID, featureID)
	}
	if err != nil {
		return nil, err
	}

	return &models.RemoveVoteResult{
		Message: "Vote removed successfully",
		Feature: *projection,
	}, nil
}

func (s *FeatureService) resolveUser(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundf("user", "User not found with email: %s", email)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
