package adaptive

import "gamification-service/internal/models"

// Config holds the tuning knobs for difficulty ramping.
type Config struct {
	RaiseThreshold float64 `json:"raise_threshold"`
	LowerThreshold float64 `json:"lower_threshold"`
	MinSampleSize  int     `json:"min_sample_size"`
	Window         int     `json:"window"`
}

// DefaultConfig returns the production tuning: ramp up at 80% rolling
// accuracy, ramp down under 50%, never react to fewer than 3 answers,
// and serve questions within one level of the target.
func DefaultConfig() *Config {
	return &Config{
		RaiseThreshold: 0.8,
		LowerThreshold: 0.5,
		MinSampleSize:  3,
		Window:         1,
	}
}

// Progress reports how far through the bank the learner is.
type Progress struct {
	Answered int     `json:"answered"`
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"` // percent, 0-100
}

// Result is one round of the selector. Either Question is set, or
// Completed is true and FinalScore carries the closing accuracy.
type Result struct {
	Question          *models.QuizQuestion `json:"question,omitempty"`
	Completed         bool                 `json:"completed"`
	FinalScore        float64              `json:"final_score,omitempty"`
	CurrentDifficulty int                  `json:"current_difficulty"`
	Progress          Progress             `json:"progress"`
	Hint              string               `json:"hint,omitempty"`
}
