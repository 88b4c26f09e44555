package repository

import (
	"context"
	"errors"

	"gamification-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateAttempt is returned when a learner already completed the
// quiz; quizzes are one-shot per learner.
var ErrDuplicateAttempt = errors.New("attempt already recorded for this quiz")

type AttemptRepository struct {
	Col *mongo.Collection
}

func NewAttemptRepository(db *mongo.Database) *AttemptRepository {
	return &AttemptRepository{Col: db.Collection("attempts")}
}

// EnsureIndexes creates the unique (user_id, quiz_id) index that backs the
// one-shot guarantee. First writer wins under concurrent submits.
func (r *AttemptRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "quiz_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// FindByUserAndQuiz returns the completed attempt for the pair, or nil when
// none exists.
func (r *AttemptRepository) FindByUserAndQuiz(ctx context.Context, userID, quizID string) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	err := r.Col.FindOne(ctx, bson.M{"user_id": userID, "quiz_id": quizID}).Decode(&attempt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptRepository) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	_, err := r.Col.InsertOne(ctx, attempt)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateAttempt
	}
	return err
}

// PercentagesByUser returns the percentage of every completed attempt for a
// learner, used to recompute the average score in full.
func (r *AttemptRepository) PercentagesByUser(ctx context.Context, userID string) ([]float64, error) {
	cur, err := r.Col.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var percentages []float64
	for cur.Next(ctx) {
		var attempt models.QuizAttempt
		if err := cur.Decode(&attempt); err != nil {
			return nil, err
		}
		percentages = append(percentages, attempt.Percentage)
	}
	return percentages, cur.Err()
}

func (r *AttemptRepository) FindByUser(ctx context.Context, userID string) ([]models.QuizAttempt, error) {
	cur, err := r.Col.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var attempts []models.QuizAttempt
	for cur.Next(ctx) {
		var attempt models.QuizAttempt
		if err := cur.Decode(&attempt); err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	return attempts, cur.Err()
}
