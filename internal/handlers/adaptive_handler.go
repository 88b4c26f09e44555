package handlers

import (
	"context"
	"net/http"

	"gamification-service/internal/models"
	"gamification-service/internal/service"

	"github.com/gin-gonic/gin"
)

type AdaptiveHandler struct {
	Service *service.AdaptiveQuizService
}

func NewAdaptiveHandler(s *service.AdaptiveQuizService) *AdaptiveHandler {
	return &AdaptiveHandler{Service: s}
}

// NextQuestion runs one selector round. The client owns the quiz state: it
// sends its full answered history plus the difficulty it was last given.
func (h *AdaptiveHandler) NextQuestion(c *gin.Context) {
	var req struct {
		QuizID            string                    `json:"quiz_id" binding:"required"`
		Answered          []models.AnsweredQuestion `json:"answered"`
		CurrentDifficulty int                       `json:"current_difficulty"`
		StartDifficulty   int                       `json:"start_difficulty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}
	if req.StartDifficulty == 0 {
		req.StartDifficulty = 3
	}

	result, err := h.Service.NextQuestion(context.Background(), req.QuizID, req.Answered, req.CurrentDifficulty, req.StartDifficulty)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
