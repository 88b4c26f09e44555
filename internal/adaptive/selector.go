package adaptive

import (
	"math/rand"
	"sync"
	"time"

	"gamification-service/internal/models"
)

// Selector picks the next question for an adaptive quiz round. It holds no
// session state: the caller resubmits the full answered history each round
// and carries the returned difficulty forward, so every call is replayable.
// Safe for concurrent use; the random source is guarded internally.
type Selector struct {
	config *Config

	mu  sync.Mutex // guards rng, which is not goroutine-safe
	rng *rand.Rand
}

// NewSelector creates a selector seeded from the clock.
func NewSelector(config *Config) *Selector {
	return NewSeededSelector(config, time.Now().UnixNano())
}

// NewSeededSelector creates a selector with a fixed seed so tests can
// assert exact selections.
func NewSeededSelector(config *Config, seed int64) *Selector {
	if config == nil {
		config = DefaultConfig()
	}
	return &Selector{
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// SelectNext returns the next question to present, the difficulty actually
// served, and progress metrics. currentDifficulty of 0 means "first call";
// startDifficulty is used instead.
func (s *Selector) SelectNext(bank []models.QuizQuestion, answered []models.AnsweredQuestion, currentDifficulty, startDifficulty int) *Result {
	accuracy := rollingAccuracy(answered)

	next := currentDifficulty
	if next == 0 {
		next = startDifficulty
	}
	next = models.ClampDifficulty(next)

	// Adjusting on fewer answers than the sample floor over-reacts to noise.
	if len(answered) >= s.config.MinSampleSize {
		if accuracy >= s.config.RaiseThreshold {
			next = models.ClampDifficulty(next + 1)
		} else if accuracy < s.config.LowerThreshold {
			next = models.ClampDifficulty(next - 1)
		}
	}

	progress := Progress{
		Answered: len(answered),
		Total:    len(bank),
		Accuracy: accuracy * 100,
	}

	unanswered := filterUnanswered(bank, answered)
	if len(unanswered) == 0 {
		return &Result{
			Completed:         true,
			FinalScore:        accuracy * 100,
			CurrentDifficulty: next,
			Progress:          progress,
		}
	}

	pool := filterByWindow(unanswered, next, s.config.Window)
	fellBack := false
	if len(pool) == 0 {
		// Nothing near the target level; serve anything unanswered rather
		// than stalling the quiz.
		pool = unanswered
		fellBack = true
	}

	s.mu.Lock()
	question := pool[s.rng.Intn(len(pool))]
	s.mu.Unlock()
	served := next
	if fellBack {
		// Report the difficulty actually served, not the one we wanted.
		served = models.ClampDifficulty(question.DifficultyLevel)
	}

	result := &Result{
		Question:          &question,
		CurrentDifficulty: served,
		Progress:          progress,
	}
	if accuracy < s.config.LowerThreshold && len(question.Hints) > 0 {
		result.Hint = question.Hints[0]
	}
	return result
}

// rollingAccuracy is the correct fraction of the history, or 0.5 when there
// is no evidence yet. Entries are counted incorrect unless marked correct.
func rollingAccuracy(answered []models.AnsweredQuestion) float64 {
	if len(answered) == 0 {
		return 0.5
	}
	correct := 0
	for _, a := range answered {
		if a.IsCorrect {
			correct++
		}
	}
	return float64(correct) / float64(len(answered))
}

func filterUnanswered(bank []models.QuizQuestion, answered []models.AnsweredQuestion) []models.QuizQuestion {
	seen := make(map[string]bool, len(answered))
	for _, a := range answered {
		seen[a.QuestionID] = true
	}
	remaining := make([]models.QuizQuestion, 0, len(bank))
	for _, q := range bank {
		if !seen[q.ID] {
			remaining = append(remaining, q)
		}
	}
	return remaining
}

func filterByWindow(questions []models.QuizQuestion, target, window int) []models.QuizQuestion {
	pool := make([]models.QuizQuestion, 0, len(questions))
	for _, q := range questions {
		delta := q.DifficultyLevel - target
		if delta < 0 {
			delta = -delta
		}
		if delta <= window {
			pool = append(pool, q)
		}
	}
	return pool
}
