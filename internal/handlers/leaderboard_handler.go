package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"gamification-service/internal/service"

	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	Service *service.LeaderboardService
}

func NewLeaderboardHandler(s *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{Service: s}
}

// GetLeaderboard returns the top learners by XP for a period (all-time by
// default), plus the caller's own rank when an X-User-ID header is present.
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	period := c.DefaultQuery("period", service.PeriodAllTime)

	entries, err := h.Service.Top(context.Background(), period, limit)
	if err != nil {
		if errors.Is(err, service.ErrUnknownPeriod) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown leaderboard period"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := gin.H{"period": period, "entries": entries}
	if userID := c.GetHeader("X-User-ID"); userID != "" {
		rank, err := h.Service.RankOf(context.Background(), period, userID)
		if err == nil && rank != nil {
			response["current_user"] = rank
		}
	}
	c.JSON(http.StatusOK, response)
}
