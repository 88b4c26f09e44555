package repository

import (
	"context"
	"errors"

	"gamification-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrVersionConflict is returned when a compare-and-swap write loses the
// race against a concurrent update. Callers re-read and retry.
var ErrVersionConflict = errors.New("stats version conflict")

type GamificationRepository struct {
	Col *mongo.Collection
}

func NewGamificationRepository(db *mongo.Database) *GamificationRepository {
	return &GamificationRepository{Col: db.Collection("gamification")}
}

// FindByUser returns the learner's stats snapshot, or a zero-valued one if
// the learner has no document yet.
func (r *GamificationRepository) FindByUser(ctx context.Context, userID string) (*models.LearnerStats, error) {
	var stats models.LearnerStats
	err := r.Col.FindOne(ctx, bson.M{"_id": userID}).Decode(&stats)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewLearnerStats(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// ReplaceWithVersion writes a full snapshot conditioned on the version the
// caller read. The stat delta and any badge awards land in one document
// replace, so both apply or neither does.
func (r *GamificationRepository) ReplaceWithVersion(ctx context.Context, stats *models.LearnerStats, expectedVersion int64) error {
	next := *stats
	next.Version = expectedVersion + 1

	if expectedVersion == 0 {
		// First write for this learner; insert unless someone beat us to it.
		_, err := r.Col.InsertOne(ctx, &next)
		if mongo.IsDuplicateKeyError(err) {
			return ErrVersionConflict
		}
		if err != nil {
			return err
		}
		stats.Version = next.Version
		return nil
	}

	res, err := r.Col.ReplaceOne(ctx, bson.M{"_id": stats.UserID, "version": expectedVersion}, &next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	stats.Version = next.Version
	return nil
}
