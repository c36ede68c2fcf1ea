// Package store holds the vote ledger: the authoritative (user, feature)
// vote rows plus the denormalized per-feature counters. Every mutation
// pairs a ledger write with its counter update inside one transaction;
// callers never touch vote_count directly.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/featureboard/feature-voting/backend/internal/apperrors"
	"github.com/featureboard/feature-voting/backend/internal/models"
)

type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// FindVoteByUser returns the user's active vote, or nil when the user has
// not voted.
func (l *Ledger) FindVoteByUser(ctx context.Context, userID string) (*models.Vote, error) {
	var vote models.Vote
	err := l.db.WithContext(ctx).Where("user_id = ?", userID).First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// FindVoteByUserAndFeature returns the vote row for (userID, featureID),
// or nil when no such row exists.
func (l *Ledger) FindVoteByUserAndFeature(ctx context.Context, userID, featureID string) (*models.Vote, error) {
	var vote models.Vote
	err := l.db.WithContext(ctx).
		Where("user_id = ? AND feature_id = ?", userID, featureID).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// CastOrMove applies the vote-transfer state machine for one user in a
// single transaction:
//
//   - no existing vote       → create row, increment feature counter
//   - same feature already   → no mutation, return the existing row
//   - vote on other feature  → delete old row, decrement old counter,
//     create new row, increment new counter (all-or-nothing)
//
// The existing vote row is read FOR UPDATE so concurrent revotes by the
// same user serialize instead of both applying. The unique index on
// votes.user_id backs this up when two first-time votes race; that
// surfaces as a unique violation, which the service layer maps to a
// conflict.
func (l *Ledger) CastOrMove(ctx context.Context, userID, featureID string) (*models.VoteResult, error) {
	var result models.VoteResult

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Vote
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// First vote for this user
			return createAndIncrement(tx, userID, featureID, &result)

		case err != nil:
			return err

		case existing.FeatureID == featureID:
			// Revote for the same feature: deliberate idempotent no-op
			result.Vote = existing
			return projectFeature(tx, featureID, &result.Feature)

		default:
			return moveVote(tx, &existing, featureID, &result)
		}
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateVoteAndIncrement is the paired primitive for a first-time vote:
// one new ledger row plus one counter bump, in one transaction.
func (l *Ledger) CreateVoteAndIncrement(ctx context.Context, userID, featureID string) (*models.VoteResult, error) {
	var result models.VoteResult
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createAndIncrement(tx, userID, featureID, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// MoveVote transfers an existing vote to newFeatureID: delete old row +
// decrement old counter + create new row + increment new counter, all in
// one transaction. Prefer CastOrMove, which also serializes the read of
// the existing vote.
func (l *Ledger) MoveVote(ctx context.Context, vote *models.Vote, newFeatureID string) (*models.VoteResult, error) {
	var result models.VoteResult
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return moveVote(tx, vote, newFeatureID, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteVoteAndDecrement deletes the vote row keyed by (userID, featureID)
// and decrements that feature's counter in the same transaction. A delete
// that affects zero rows means the targeted vote does not exist.
func (l *Ledger) DeleteVoteAndDecrement(ctx context.Context, userID, featureID string) (*models.FeatureProjection, error) {
	var projection models.FeatureProjection

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND feature_id = ?", userID, featureID).
			Delete(&models.Vote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NewNotFound("vote")
		}
		if err := decrementCount(tx, featureID); err != nil {
			return err
		}
		return projectFeature(tx, featureID, &projection)
	})
	if err != nil {
		return nil, err
	}
	return &projection, nil
}

func createAndIncrement(tx *gorm.DB, userID, featureID string, result *models.VoteResult) error {
	vote := models.Vote{UserID: userID, FeatureID: featureID}
	if err := tx.Create(&vote).Error; err != nil {
		return err
	}
	result.Vote = vote
	return incrementAndProject(tx, featureID, &result.Feature)
}

func moveVote(tx *gorm.DB, existing *models.Vote, newFeatureID string, result *models.VoteResult) error {
	if err := tx.Where("id = ?", existing.ID).Delete(&models.Vote{}).Error; err != nil {
		return err
	}
	if err := decrementCount(tx, existing.FeatureID); err != nil {
		return err
	}
	return createAndIncrement(tx, existing.UserID, newFeatureID, result)
}

// ListFeaturesRanked returns a snapshot of all features ordered by vote
// count descending. Ties break by creation time then id, so repeated
// calls with unchanged counters return the same order.
func (l *Ledger) ListFeaturesRanked(ctx context.Context) ([]models.Feature, error) {
	var features []models.Feature
	err := l.db.WithContext(ctx).
		Preload("CreatedBy").
		Order("vote_count DESC, created_at ASC, id ASC").
		Find(&features).Error
	if err != nil {
		return nil, err
	}
	return features, nil
}

// incrementAndProject bumps the counter and reads back the updated
// {id, title, voteCount} projection.
func incrementAndProject(tx *gorm.DB, featureID string, projection *models.FeatureProjection) error {
	res := tx.Model(&models.Feature{}).
		Where("id = ?", featureID).
		Update("vote_count", gorm.Expr("vote_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Feature deleted between the coordinator's existence check and
		// this transaction; the FK on votes.feature_id would also reject it.
		return apperrors.NewNotFound("feature")
	}
	return projectFeature(tx, featureID, projection)
}

func decrementCount(tx *gorm.DB, featureID string) error {
	res := tx.Model(&models.Feature{}).
		Where("id = ?", featureID).
		Update("vote_count", gorm.Expr("vote_count - ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("feature")
	}
	return nil
}

func projectFeature(tx *gorm.DB, featureID string, projection *models.FeatureProjection) error {
	return tx.Model(&models.Feature{}).
		Select("id", "title", "vote_count").
		Where("id = ?", featureID).
		Take(projection).Error
}
