package handlers

import (
	"context"
	"errors"
	"net/http"

	"gamification-service/internal/models"
	"gamification-service/internal/service"

	"github.com/gin-gonic/gin"
)

type GamificationHandler struct {
	Service *service.GamificationService
}

func NewGamificationHandler(s *service.GamificationService) *GamificationHandler {
	return &GamificationHandler{Service: s}
}

// SubmitAttempt records a completed quiz attempt for the calling learner.
func (h *GamificationHandler) SubmitAttempt(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")

	var req struct {
		QuizID         string  `json:"quiz_id" binding:"required"`
		Percentage     float64 `json:"percentage" binding:"min=0,max=100"`
		CorrectCount   int     `json:"correct_count"`
		TotalQuestions int     `json:"total_questions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid attempt format",
			"details": err.Error(),
		})
		return
	}

	outcome, err := h.Service.SubmitAttempt(context.Background(), userID, req.QuizID, req.Percentage, req.CorrectCount, req.TotalQuestions)
	if err != nil {
		if errors.Is(err, service.ErrConcurrentUpdate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Stats update conflicted, please retry"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if outcome.AlreadyCompleted {
		// Expected on double-submits; the prior attempt is the answer.
		c.JSON(http.StatusOK, gin.H{
			"already_completed": true,
			"attempt":           outcome.Attempt,
		})
		return
	}
	c.JSON(http.StatusCreated, outcome)
}

// CheckBadges re-evaluates badge eligibility for the calling learner.
func (h *GamificationHandler) CheckBadges(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")

	outcome, err := h.Service.CheckBadges(context.Background(), userID)
	if err != nil {
		if errors.Is(err, service.ErrConcurrentUpdate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Stats update conflicted, please retry"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *GamificationHandler) GetStats(c *gin.Context) {
	userID := c.Param("userId")
	stats, err := h.Service.GetStats(context.Background(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *GamificationHandler) GetBadges(c *gin.Context) {
	userID := c.Param("userId")
	earned, err := h.Service.GetEarnedBadges(context.Background(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if earned == nil {
		earned = []models.EarnedBadge{}
	}
	c.JSON(http.StatusOK, gin.H{"badges": earned})
}

func (h *GamificationHandler) GetCatalog(c *gin.Context) {
	catalog, err := h.Service.GetCatalog(context.Background())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if catalog == nil {
		catalog = []models.BadgeDefinition{}
	}
	c.JSON(http.StatusOK, gin.H{"catalog": catalog})
}

func (h *GamificationHandler) GetCertificates(c *gin.Context) {
	userID := c.Param("userId")
	certs, err := h.Service.GetCertificates(context.Background(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if certs == nil {
		certs = []models.Certificate{}
	}
	c.JSON(http.StatusOK, gin.H{"certificates": certs})
}

func (h *GamificationHandler) GetAttempts(c *gin.Context) {
	userID := c.Param("userId")
	attempts, err := h.Service.GetAttempts(context.Background(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if attempts == nil {
		attempts = []models.QuizAttempt{}
	}
	c.JSON(http.StatusOK, gin.H{"attempts": attempts})
}
