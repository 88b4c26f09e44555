package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gamification-service/internal/badges"
	"gamification-service/internal/gamify"
	"gamification-service/internal/models"
	"gamification-service/internal/repository"

	"github.com/google/uuid"
)

// maxWriteRetries bounds the compare-and-swap loop when concurrent badge or
// social events race on the same learner document.
const maxWriteRetries = 3

// ErrConcurrentUpdate is returned when the stats write keeps losing the
// version race; the client can simply resubmit.
var ErrConcurrentUpdate = errors.New("stats update conflicted, retry")

type statsStore interface {
	FindByUser(ctx context.Context, userID string) (*models.LearnerStats, error)
	ReplaceWithVersion(ctx context.Context, stats *models.LearnerStats, expectedVersion int64) error
}

type attemptStore interface {
	FindByUserAndQuiz(ctx context.Context, userID, quizID string) (*models.QuizAttempt, error)
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	PercentagesByUser(ctx context.Context, userID string) ([]float64, error)
	FindByUser(ctx context.Context, userID string) ([]models.QuizAttempt, error)
}

type catalogStore interface {
	FindAll(ctx context.Context) ([]models.BadgeDefinition, error)
}

type certificateStore interface {
	Create(ctx context.Context, cert *models.Certificate) error
	FindByUser(ctx context.Context, userID string) ([]models.Certificate, error)
}

// EventSink is the slice of the AMQP publisher the service needs.
type EventSink interface {
	Publish(eventType string, payload interface{}) error
}

// GamificationService is the only mutator of learner stats. Every write is
// a read-snapshot, compute-snapshot, single CAS replace.
type GamificationService struct {
	Stats        statsStore
	Attempts     attemptStore
	Catalog      catalogStore
	Certificates certificateStore
	Leaderboard  *LeaderboardService
	Events       EventSink

	now func() time.Time
}

func NewGamificationService(
	stats *repository.GamificationRepository,
	attempts *repository.AttemptRepository,
	catalog *repository.BadgeRepository,
	certificates *repository.CertificateRepository,
	leaderboard *LeaderboardService,
	events EventSink,
) *GamificationService {
	return &GamificationService{
		Stats:        stats,
		Attempts:     attempts,
		Catalog:      catalog,
		Certificates: certificates,
		Leaderboard:  leaderboard,
		Events:       events,
		now:          time.Now,
	}
}

// AttemptOutcome is what a quiz-attempt submission produced.
type AttemptOutcome struct {
	AlreadyCompleted  bool                 `json:"already_completed"`
	Attempt           *models.QuizAttempt  `json:"attempt"`
	Stats             *models.LearnerStats `json:"stats,omitempty"`
	NewBadges         []models.EarnedBadge `json:"new_badges"`
	XPAwarded         int                  `json:"xp_awarded"`
	CertificateIssued bool                 `json:"certificate_issued"`
	LeveledUp         bool                 `json:"leveled_up"`
}

// SubmitAttempt records a completed quiz attempt and folds it into the
// learner's stats. A duplicate submission returns the prior attempt and
// performs no mutation.
func (s *GamificationService) SubmitAttempt(ctx context.Context, userID, quizID string, percentage float64, correctCount, totalQuestions int) (*AttemptOutcome, error) {
	if existing, err := s.Attempts.FindByUserAndQuiz(ctx, userID, quizID); err != nil {
		return nil, fmt.Errorf("attempt lookup failed: %w", err)
	} else if existing != nil {
		return &AttemptOutcome{AlreadyCompleted: true, Attempt: existing, NewBadges: []models.EarnedBadge{}}, nil
	}

	now := s.now().UTC()
	attempt := &models.QuizAttempt{
		ID:             uuid.NewString(),
		UserID:         userID,
		QuizID:         quizID,
		Percentage:     percentage,
		CorrectCount:   correctCount,
		TotalQuestions: totalQuestions,
		CompletedAt:    now,
	}
	if err := s.Attempts.Create(ctx, attempt); err != nil {
		if errors.Is(err, repository.ErrDuplicateAttempt) {
			// Lost the race to a concurrent submit; first writer wins.
			prior, ferr := s.Attempts.FindByUserAndQuiz(ctx, userID, quizID)
			if ferr != nil {
				return nil, ferr
			}
			return &AttemptOutcome{AlreadyCompleted: true, Attempt: prior, NewBadges: []models.EarnedBadge{}}, nil
		}
		return nil, fmt.Errorf("attempt insert failed: %w", err)
	}

	outcome := &AttemptOutcome{Attempt: attempt, NewBadges: []models.EarnedBadge{}}

	for retry := 0; retry < maxWriteRetries; retry++ {
		current, err := s.Stats.FindByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("stats read failed: %w", err)
		}
		percentages, err := s.Attempts.PercentagesByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("attempt history read failed: %w", err)
		}

		next := gamify.ApplyAttempt(*current, percentage, percentages, now)

		// Badges are a derived bonus: evaluation failure must never block
		// recording the attempt itself.
		evaluation := s.evaluateBadges(ctx, &next, now)
		next, leveledUp := gamify.ApplyBadges(next, evaluation.NewlyEarned, evaluation.XPDelta, now)

		if err := s.Stats.ReplaceWithVersion(ctx, &next, current.Version); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				continue
			}
			return nil, fmt.Errorf("stats write failed: %w", err)
		}

		outcome.Stats = &next
		outcome.NewBadges = evaluation.NewlyEarned
		outcome.XPAwarded = evaluation.XPDelta
		outcome.LeveledUp = leveledUp

		s.afterStatsWrite(ctx, &next, evaluation, leveledUp)

		if percentage >= gamify.CertificateThreshold {
			outcome.CertificateIssued = s.issueCertificate(ctx, attempt, now)
		}
		s.publish("gamify.attempt.completed", map[string]interface{}{
			"user_id":    userID,
			"quiz_id":    quizID,
			"percentage": percentage,
		})
		return outcome, nil
	}

	return nil, ErrConcurrentUpdate
}

// CheckBadges re-evaluates the catalog against current stats, awarding
// anything the learner has since become eligible for.
func (s *GamificationService) CheckBadges(ctx context.Context, userID string) (*AttemptOutcome, error) {
	now := s.now().UTC()
	for retry := 0; retry < maxWriteRetries; retry++ {
		current, err := s.Stats.FindByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("stats read failed: %w", err)
		}

		catalog, err := s.Catalog.FindAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("badge catalog read failed: %w", err)
		}
		evaluation := badges.Evaluate(current, current.EarnedBadgeIDs(), catalog, now)
		if len(evaluation.NewlyEarned) == 0 {
			return &AttemptOutcome{Stats: current, NewBadges: []models.EarnedBadge{}}, nil
		}

		next, leveledUp := gamify.ApplyBadges(*current, evaluation.NewlyEarned, evaluation.XPDelta, now)
		if err := s.Stats.ReplaceWithVersion(ctx, &next, current.Version); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				continue
			}
			return nil, fmt.Errorf("stats write failed: %w", err)
		}

		s.afterStatsWrite(ctx, &next, evaluation, leveledUp)
		return &AttemptOutcome{
			Stats:     &next,
			NewBadges: evaluation.NewlyEarned,
			XPAwarded: evaluation.XPDelta,
			LeveledUp: leveledUp,
		}, nil
	}
	return nil, ErrConcurrentUpdate
}

// HandleUserRegistered seeds a zero-valued stats document so account_created
// badges can be evaluated right away.
func (s *GamificationService) HandleUserRegistered(ctx context.Context, userID string) error {
	current, err := s.Stats.FindByUser(ctx, userID)
	if err != nil {
		return err
	}
	if current.Version != 0 {
		return nil // already seeded
	}
	now := s.now().UTC()
	evaluation := s.evaluateBadges(ctx, current, now)
	next, _ := gamify.ApplyBadges(*current, evaluation.NewlyEarned, evaluation.XPDelta, now)
	err = s.Stats.ReplaceWithVersion(ctx, &next, current.Version)
	if errors.Is(err, repository.ErrVersionConflict) {
		return nil
	}
	return err
}

// HandleSocialEvent bumps a social counter and re-runs badge evaluation so
// friend/group/course badges unlock as the platform reports activity.
func (s *GamificationService) HandleSocialEvent(ctx context.Context, userID string, kind models.CriteriaType) error {
	now := s.now().UTC()
	for retry := 0; retry < maxWriteRetries; retry++ {
		current, err := s.Stats.FindByUser(ctx, userID)
		if err != nil {
			return err
		}
		next := gamify.ApplySocial(*current, kind, now)
		evaluation := s.evaluateBadges(ctx, &next, now)
		next, leveledUp := gamify.ApplyBadges(next, evaluation.NewlyEarned, evaluation.XPDelta, now)

		if err := s.Stats.ReplaceWithVersion(ctx, &next, current.Version); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				continue
			}
			return err
		}
		s.afterStatsWrite(ctx, &next, evaluation, leveledUp)
		return nil
	}
	return ErrConcurrentUpdate
}

func (s *GamificationService) GetStats(ctx context.Context, userID string) (*models.LearnerStats, error) {
	return s.Stats.FindByUser(ctx, userID)
}

func (s *GamificationService) GetEarnedBadges(ctx context.Context, userID string) ([]models.EarnedBadge, error) {
	stats, err := s.Stats.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return stats.EarnedBadges, nil
}

func (s *GamificationService) GetCatalog(ctx context.Context) ([]models.BadgeDefinition, error) {
	return s.Catalog.FindAll(ctx)
}

func (s *GamificationService) GetCertificates(ctx context.Context, userID string) ([]models.Certificate, error) {
	return s.Certificates.FindByUser(ctx, userID)
}

func (s *GamificationService) GetAttempts(ctx context.Context, userID string) ([]models.QuizAttempt, error) {
	return s.Attempts.FindByUser(ctx, userID)
}

// evaluateBadges runs the evaluator, degrading to "no badges" when the
// catalog cannot be read.
func (s *GamificationService) evaluateBadges(ctx context.Context, stats *models.LearnerStats, now time.Time) *badges.Evaluation {
	catalog, err := s.Catalog.FindAll(ctx)
	if err != nil {
		log.Printf("badge catalog read failed, awarding no badges: %v", err)
		return &badges.Evaluation{NewlyEarned: []models.EarnedBadge{}}
	}
	return badges.Evaluate(stats, stats.EarnedBadgeIDs(), catalog, now)
}

func (s *GamificationService) issueCertificate(ctx context.Context, attempt *models.QuizAttempt, now time.Time) bool {
	cert := &models.Certificate{
		ID:         uuid.NewString(),
		UserID:     attempt.UserID,
		QuizID:     attempt.QuizID,
		Percentage: attempt.Percentage,
		IssuedAt:   now,
	}
	if err := s.Certificates.Create(ctx, cert); err != nil {
		log.Printf("certificate insert failed for user %s quiz %s: %v", attempt.UserID, attempt.QuizID, err)
		return false
	}
	s.publish("certificate.issued", map[string]interface{}{
		"user_id":    attempt.UserID,
		"quiz_id":    attempt.QuizID,
		"percentage": attempt.Percentage,
	})
	return true
}

// afterStatsWrite handles the non-critical followers of a successful stats
// write: leaderboard refresh and event fan-out. Failures here are logged,
// never surfaced.
func (s *GamificationService) afterStatsWrite(ctx context.Context, stats *models.LearnerStats, evaluation *badges.Evaluation, leveledUp bool) {
	if s.Leaderboard != nil {
		if err := s.Leaderboard.RecordScore(ctx, stats.UserID, stats.TotalXP); err != nil {
			log.Printf("leaderboard update failed for user %s: %v", stats.UserID, err)
		}
	}
	for _, badge := range evaluation.NewlyEarned {
		s.publish("gamify.badge.earned", map[string]interface{}{
			"user_id":  stats.UserID,
			"badge_id": badge.BadgeID,
			"tier":     badge.Tier,
		})
	}
	if leveledUp {
		s.publish("gamify.level.up", map[string]interface{}{
			"user_id": stats.UserID,
			"level":   stats.CurrentLevel,
		})
	}
}

func (s *GamificationService) publish(eventType string, payload interface{}) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(eventType, payload); err != nil {
		log.Printf("event publish failed for %s: %v", eventType, err)
	}
}
