package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gamification-service/internal/models"
	"gamification-service/internal/repository"
)

var testNow = time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)

type fakeStatsStore struct {
	docs      map[string]models.LearnerStats
	conflicts int // number of writes to reject before accepting
	writes    int
}

func newFakeStatsStore() *fakeStatsStore {
	return &fakeStatsStore{docs: map[string]models.LearnerStats{}}
}

func (f *fakeStatsStore) FindByUser(ctx context.Context, userID string) (*models.LearnerStats, error) {
	if doc, ok := f.docs[userID]; ok {
		copied := doc
		return &copied, nil
	}
	return models.NewLearnerStats(userID), nil
}

func (f *fakeStatsStore) ReplaceWithVersion(ctx context.Context, stats *models.LearnerStats, expectedVersion int64) error {
	if f.conflicts > 0 {
		f.conflicts--
		return repository.ErrVersionConflict
	}
	current, exists := f.docs[stats.UserID]
	if exists && current.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	if !exists && expectedVersion != 0 {
		return repository.ErrVersionConflict
	}
	stats.Version = expectedVersion + 1
	f.docs[stats.UserID] = *stats
	f.writes++
	return nil
}

type fakeAttemptStore struct {
	byKey map[string]models.QuizAttempt
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{byKey: map[string]models.QuizAttempt{}}
}

func attemptKey(userID, quizID string) string { return userID + "/" + quizID }

func (f *fakeAttemptStore) FindByUserAndQuiz(ctx context.Context, userID, quizID string) (*models.QuizAttempt, error) {
	if attempt, ok := f.byKey[attemptKey(userID, quizID)]; ok {
		copied := attempt
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeAttemptStore) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	key := attemptKey(attempt.UserID, attempt.QuizID)
	if _, ok := f.byKey[key]; ok {
		return repository.ErrDuplicateAttempt
	}
	f.byKey[key] = *attempt
	return nil
}

func (f *fakeAttemptStore) PercentagesByUser(ctx context.Context, userID string) ([]float64, error) {
	var percentages []float64
	for _, attempt := range f.byKey {
		if attempt.UserID == userID {
			percentages = append(percentages, attempt.Percentage)
		}
	}
	return percentages, nil
}

func (f *fakeAttemptStore) FindByUser(ctx context.Context, userID string) ([]models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	for _, attempt := range f.byKey {
		if attempt.UserID == userID {
			attempts = append(attempts, attempt)
		}
	}
	return attempts, nil
}

type fakeCatalogStore struct {
	defs []models.BadgeDefinition
	err  error
}

func (f *fakeCatalogStore) FindAll(ctx context.Context) ([]models.BadgeDefinition, error) {
	return f.defs, f.err
}

type fakeCertStore struct {
	created []models.Certificate
}

func (f *fakeCertStore) Create(ctx context.Context, cert *models.Certificate) error {
	f.created = append(f.created, *cert)
	return nil
}

func (f *fakeCertStore) FindByUser(ctx context.Context, userID string) ([]models.Certificate, error) {
	return f.created, nil
}

func newTestService(catalog *fakeCatalogStore) (*GamificationService, *fakeStatsStore, *fakeAttemptStore, *fakeCertStore) {
	stats := newFakeStatsStore()
	attempts := newFakeAttemptStore()
	certs := &fakeCertStore{}
	svc := &GamificationService{
		Stats:        stats,
		Attempts:     attempts,
		Catalog:      catalog,
		Certificates: certs,
		now:          func() time.Time { return testNow },
	}
	return svc, stats, attempts, certs
}

func TestSubmitAttemptRecordsAndAwards(t *testing.T) {
	catalog := &fakeCatalogStore{defs: []models.BadgeDefinition{
		{
			ID:       "first-quiz",
			Tier:     models.TierBronze,
			Criteria: &models.UnlockCriteria{Type: models.CriteriaQuizzesCompleted, Threshold: 1},
			XPReward: 50,
		},
	}}
	svc, stats, _, certs := newTestService(catalog)

	outcome, err := svc.SubmitAttempt(context.Background(), "u1", "quiz-1", 85, 17, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.AlreadyCompleted {
		t.Fatal("fresh attempt flagged as duplicate")
	}
	if len(outcome.NewBadges) != 1 || outcome.NewBadges[0].BadgeID != "first-quiz" {
		t.Errorf("expected first-quiz badge, got %+v", outcome.NewBadges)
	}
	if outcome.XPAwarded != 50 {
		t.Errorf("expected 50 XP, got %d", outcome.XPAwarded)
	}
	if !outcome.CertificateIssued || len(certs.created) != 1 {
		t.Error("85% should have issued a certificate")
	}

	persisted := stats.docs["u1"]
	if persisted.CompletedQuizzes != 1 || persisted.TotalPoints != 9 || persisted.TotalXP != 50 {
		t.Errorf("persisted stats wrong: %+v", persisted)
	}
	if len(persisted.EarnedBadges) != 1 {
		t.Errorf("badge not persisted with stats")
	}
}

func TestSubmitAttemptDuplicateReturnsPrior(t *testing.T) {
	svc, stats, _, _ := newTestService(&fakeCatalogStore{})

	first, err := svc.SubmitAttempt(context.Background(), "u1", "quiz-1", 60, 6, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	writesAfterFirst := stats.writes

	second, err := svc.SubmitAttempt(context.Background(), "u1", "quiz-1", 95, 19, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.AlreadyCompleted {
		t.Fatal("duplicate submission not flagged")
	}
	if second.Attempt.ID != first.Attempt.ID {
		t.Error("duplicate outcome does not carry the prior attempt")
	}
	if second.Attempt.Percentage != 60 {
		t.Errorf("prior attempt percentage mutated: %.0f", second.Attempt.Percentage)
	}
	if stats.writes != writesAfterFirst {
		t.Error("duplicate submission mutated stats")
	}
}

func TestSubmitAttemptCatalogFailureStillRecords(t *testing.T) {
	svc, stats, attempts, _ := newTestService(&fakeCatalogStore{err: errors.New("catalog down")})

	outcome, err := svc.SubmitAttempt(context.Background(), "u1", "quiz-1", 50, 5, 10)
	if err != nil {
		t.Fatalf("badge failure must not fail the attempt: %v", err)
	}
	if len(outcome.NewBadges) != 0 {
		t.Errorf("expected zero badges, got %+v", outcome.NewBadges)
	}
	if attempt, _ := attempts.FindByUserAndQuiz(context.Background(), "u1", "quiz-1"); attempt == nil {
		t.Error("attempt not recorded")
	}
	if stats.docs["u1"].CompletedQuizzes != 1 {
		t.Error("stats not updated despite catalog failure")
	}
}

func TestSubmitAttemptRetriesOnVersionConflict(t *testing.T) {
	svc, stats, _, _ := newTestService(&fakeCatalogStore{})
	stats.conflicts = 2 // two losing rounds before the CAS succeeds

	outcome, err := svc.SubmitAttempt(context.Background(), "u1", "quiz-1", 40, 4, 10)
	if err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if outcome.Stats == nil || outcome.Stats.CompletedQuizzes != 1 {
		t.Errorf("stats not applied after retries: %+v", outcome.Stats)
	}
}

func TestSubmitAttemptCertificateThreshold(t *testing.T) {
	svc, _, _, certs := newTestService(&fakeCatalogStore{})

	below, err := svc.SubmitAttempt(context.Background(), "u1", "quiz-low", 69, 69, 100)
	if err != nil {
		t.Fatal(err)
	}
	if below.CertificateIssued || len(certs.created) != 0 {
		t.Error("69% must not earn a certificate")
	}

	at, err := svc.SubmitAttempt(context.Background(), "u1", "quiz-high", 70, 70, 100)
	if err != nil {
		t.Fatal(err)
	}
	if !at.CertificateIssued || len(certs.created) != 1 {
		t.Error("70% should earn a certificate")
	}
}

func TestCheckBadgesIdempotent(t *testing.T) {
	catalog := &fakeCatalogStore{defs: []models.BadgeDefinition{
		{
			ID:       "welcome",
			Tier:     models.TierBronze,
			Criteria: &models.UnlockCriteria{Type: models.CriteriaAccountCreated},
			XPReward: 10,
		},
	}}
	svc, stats, _, _ := newTestService(catalog)

	first, err := svc.CheckBadges(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(first.NewBadges) != 1 {
		t.Fatalf("expected welcome badge, got %+v", first.NewBadges)
	}
	writesAfterFirst := stats.writes

	second, err := svc.CheckBadges(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(second.NewBadges) != 0 {
		t.Errorf("badge awarded twice: %+v", second.NewBadges)
	}
	if stats.writes != writesAfterFirst {
		t.Error("no-op badge check wrote stats")
	}
}

func TestHandleSocialEventUnlocksBadge(t *testing.T) {
	catalog := &fakeCatalogStore{defs: []models.BadgeDefinition{
		{
			ID:       "social-butterfly",
			Tier:     models.TierSilver,
			Criteria: &models.UnlockCriteria{Type: models.CriteriaFriendsAdded, Threshold: 2},
			XPReward: 20,
		},
	}}
	svc, stats, _, _ := newTestService(catalog)

	for i := 0; i < 2; i++ {
		if err := svc.HandleSocialEvent(context.Background(), "u1", models.CriteriaFriendsAdded); err != nil {
			t.Fatal(err)
		}
	}

	persisted := stats.docs["u1"]
	if persisted.Social.Friends != 2 {
		t.Errorf("friend counter: got %d, want 2", persisted.Social.Friends)
	}
	if len(persisted.EarnedBadges) != 1 || persisted.EarnedBadges[0].BadgeID != "social-butterfly" {
		t.Errorf("social badge not unlocked: %+v", persisted.EarnedBadges)
	}
	if persisted.TotalXP != 20 {
		t.Errorf("badge xp not applied: %d", persisted.TotalXP)
	}
}

func TestAverageRecomputedOverAllAttempts(t *testing.T) {
	svc, stats, _, _ := newTestService(&fakeCatalogStore{})

	percentages := []float64{100, 50, 75}
	for i, p := range percentages {
		if _, err := svc.SubmitAttempt(context.Background(), "u1", fmt.Sprintf("quiz-%d", i), p, 1, 1); err != nil {
			t.Fatal(err)
		}
	}

	persisted := stats.docs["u1"]
	if persisted.AverageScorePercent != 75 {
		t.Errorf("average: got %.1f, want 75", persisted.AverageScorePercent)
	}
	if persisted.PerfectScoreCount != 1 {
		t.Errorf("perfect count: got %d, want 1", persisted.PerfectScoreCount)
	}
}
