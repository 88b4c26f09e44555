package service

import (
	"context"
	"fmt"

	"gamification-service/internal/adaptive"
	"gamification-service/internal/models"
	"gamification-service/internal/repository"
)

// AdaptiveQuizService runs one stateless selector round per request: the
// client resubmits its full answered history and carries the returned
// difficulty forward, so concurrent tabs and replays are safe.
type AdaptiveQuizService struct {
	Questions *repository.QuestionRepository
	selector  *adaptive.Selector
}

func NewAdaptiveQuizService(questions *repository.QuestionRepository) *AdaptiveQuizService {
	return &AdaptiveQuizService{
		Questions: questions,
		selector:  adaptive.NewSelector(nil),
	}
}

// NextQuestion loads the quiz's bank and asks the selector for the next
// round. Answer keys are stripped from the served question.
func (s *AdaptiveQuizService) NextQuestion(ctx context.Context, quizID string, answered []models.AnsweredQuestion, currentDifficulty, startDifficulty int) (*adaptive.Result, error) {
	bank, err := s.Questions.FindByQuizID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("question bank read failed: %w", err)
	}

	result := s.selector.SelectNext(bank, answered, currentDifficulty, startDifficulty)
	if result.Question != nil {
		sanitized := *result.Question
		sanitized.CorrectAnswer = ""
		sanitized.Explanation = ""
		result.Question = &sanitized
	}
	return result, nil
}
