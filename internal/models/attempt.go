package models

import "time"

// QuizAttempt records a completed quiz. Quizzes are one-shot per learner:
// a unique (user_id, quiz_id) index backs the existence check.
type QuizAttempt struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	UserID         string    `bson:"user_id" json:"user_id"`
	QuizID         string    `bson:"quiz_id" json:"quiz_id"`
	Percentage     float64   `bson:"percentage" json:"percentage"`
	CorrectCount   int       `bson:"correct_count" json:"correct_count"`
	TotalQuestions int       `bson:"total_questions" json:"total_questions"`
	CompletedAt    time.Time `bson:"completed_at" json:"completed_at"`
}

type Certificate struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	UserID     string    `bson:"user_id" json:"user_id"`
	QuizID     string    `bson:"quiz_id" json:"quiz_id"`
	Percentage float64   `bson:"percentage" json:"percentage"`
	IssuedAt   time.Time `bson:"issued_at" json:"issued_at"`
}
