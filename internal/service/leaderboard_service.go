package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const leaderboardKeyPrefix = "gamify:leaderboard:xp"

// Leaderboard periods. All-time is one sorted set; monthly boards get a
// calendar-month suffix so each month starts fresh.
const (
	PeriodAllTime = "alltime"
	PeriodMonthly = "monthly"
)

// ErrUnknownPeriod is returned for period values the leaderboard does not
// keep a board for.
var ErrUnknownPeriod = errors.New("unknown leaderboard period")

type LeaderboardEntry struct {
	Rank    int    `json:"rank"`
	UserID  string `json:"user_id"`
	TotalXP int    `json:"total_xp"`
}

type UserRank struct {
	UserID     string `json:"user_id"`
	Rank       int    `json:"rank"`
	TotalXP    int    `json:"total_xp"`
	TotalUsers int64  `json:"total_users"`
}

// LeaderboardService keeps XP-ordered rankings in Redis sorted sets, one
// all-time board plus one per calendar month, refreshed after every stats
// write.
type LeaderboardService struct {
	rdb *redis.Client
	now func() time.Time
}

func NewLeaderboardService(rdb *redis.Client) *LeaderboardService {
	return &LeaderboardService{rdb: rdb, now: time.Now}
}

// periodKey resolves a period name to its sorted-set key. Monthly boards
// are keyed by the UTC calendar month of the given time.
func periodKey(period string, now time.Time) (string, error) {
	switch period {
	case "", PeriodAllTime:
		return leaderboardKeyPrefix, nil
	case PeriodMonthly:
		return fmt.Sprintf("%s:%s", leaderboardKeyPrefix, now.UTC().Format("2006-01")), nil
	default:
		return "", ErrUnknownPeriod
	}
}

// RecordScore writes the learner's XP onto the all-time board and the
// current month's board.
func (s *LeaderboardService) RecordScore(ctx context.Context, userID string, totalXP int) error {
	member := redis.Z{
		Score:  float64(totalXP),
		Member: userID,
	}
	if err := s.rdb.ZAdd(ctx, leaderboardKeyPrefix, member).Err(); err != nil {
		return err
	}
	monthly, _ := periodKey(PeriodMonthly, s.now())
	return s.rdb.ZAdd(ctx, monthly, member).Err()
}

// Top returns the highest-XP learners for the period, best first.
func (s *LeaderboardService) Top(ctx context.Context, period string, limit int) ([]LeaderboardEntry, error) {
	key, err := periodKey(period, s.now())
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	members, err := s.rdb.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(members))
	for i, member := range members {
		userID, _ := member.Member.(string)
		entries = append(entries, LeaderboardEntry{
			Rank:    i + 1,
			UserID:  userID,
			TotalXP: int(member.Score),
		})
	}
	return entries, nil
}

// RankOf reports a learner's position for the period, or nil when they are
// unranked.
func (s *LeaderboardService) RankOf(ctx context.Context, period, userID string) (*UserRank, error) {
	key, err := periodKey(period, s.now())
	if err != nil {
		return nil, err
	}
	rank, err := s.rdb.ZRevRank(ctx, key, userID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	score, err := s.rdb.ZScore(ctx, key, userID).Result()
	if err != nil {
		return nil, err
	}
	total, err := s.rdb.ZCard(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	return &UserRank{
		UserID:     userID,
		Rank:       int(rank) + 1,
		TotalXP:    int(score),
		TotalUsers: total,
	}, nil
}
