package models

const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

type Option struct {
	ID   string `bson:"id" json:"id"`
	Text string `bson:"text" json:"text"`
}

type QuizQuestion struct {
	ID              string   `bson:"_id,omitempty" json:"id"`
	QuizID          string   `bson:"quiz_id" json:"quiz_id"`
	Content         string   `bson:"content" json:"content"`
	Type            string   `bson:"type" json:"type"`
	Options         []Option `bson:"options" json:"options"`
	CorrectAnswer   string   `bson:"correct_answer" json:"correct_answer,omitempty"`
	Explanation     string   `bson:"explanation" json:"explanation,omitempty"`
	DifficultyLevel int      `bson:"difficulty_level" json:"difficulty_level"`
	Hints           []string `bson:"hints" json:"hints,omitempty"`
}

// ClampDifficulty forces a difficulty into the valid 1..5 range.
func ClampDifficulty(d int) int {
	if d < MinDifficulty {
		return MinDifficulty
	}
	if d > MaxDifficulty {
		return MaxDifficulty
	}
	return d
}

// AnsweredQuestion is a single round of caller-held quiz history. The full
// history is resubmitted each round; nothing is kept server-side.
type AnsweredQuestion struct {
	QuestionID string `json:"question_id"`
	IsCorrect  bool   `json:"is_correct"`
}
