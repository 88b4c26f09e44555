package models

import "time"

// XPPerLevel is how much XP a learner needs to advance one level.
const XPPerLevel = 1000

type SocialCounts struct {
	Friends          int `bson:"friends" json:"friends"`
	Groups           int `bson:"groups" json:"groups"`
	CompletedCourses int `bson:"completed_courses" json:"completed_courses"`
}

// LearnerStats is the per-learner gamification document. Earned badges are
// embedded so the stat delta and the badge push land in one document write.
type LearnerStats struct {
	UserID              string        `bson:"_id" json:"user_id"`
	TotalXP             int           `bson:"total_xp" json:"total_xp"`
	CurrentLevel        int           `bson:"current_level" json:"current_level"`
	StreakDays          int           `bson:"streak_days" json:"streak_days"`
	LongestStreak       int           `bson:"longest_streak" json:"longest_streak"`
	LastActivityDate    time.Time     `bson:"last_activity_date" json:"last_activity_date"`
	CompletedQuizzes    int           `bson:"completed_quizzes" json:"completed_quizzes"`
	PerfectScoreCount   int           `bson:"perfect_score_count" json:"perfect_score_count"`
	TotalPoints         int           `bson:"total_points" json:"total_points"`
	AverageScorePercent float64       `bson:"average_score_percent" json:"average_score_percent"`
	Social              SocialCounts  `bson:"social" json:"social"`
	EarnedBadges        []EarnedBadge `bson:"earned_badges" json:"earned_badges"`
	Version             int64         `bson:"version" json:"-"`
	CreatedAt           time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `bson:"updated_at" json:"updated_at"`
}

// NewLearnerStats returns the zero-valued snapshot used for learners that
// have no gamification document yet.
func NewLearnerStats(userID string) *LearnerStats {
	now := time.Now().UTC()
	return &LearnerStats{
		UserID:       userID,
		CurrentLevel: 1,
		EarnedBadges: []EarnedBadge{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// LevelForXP derives the level from total XP, floored at 1.
func LevelForXP(xp int) int {
	level := xp / XPPerLevel
	if level < 1 {
		return 1
	}
	return level
}

// EarnedBadgeIDs returns the set of badge ids the learner already holds.
func (s *LearnerStats) EarnedBadgeIDs() map[string]bool {
	ids := make(map[string]bool, len(s.EarnedBadges))
	for _, b := range s.EarnedBadges {
		ids[b.BadgeID] = true
	}
	return ids
}
