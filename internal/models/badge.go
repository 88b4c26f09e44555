package models

import "time"

type BadgeTier string

const (
	TierBronze   BadgeTier = "bronze"
	TierSilver   BadgeTier = "silver"
	TierGold     BadgeTier = "gold"
	TierPlatinum BadgeTier = "platinum"
)

// CriteriaType enumerates the stat a badge unlocks against. Definitions
// carrying any other value are never eligible.
type CriteriaType string

const (
	CriteriaXP               CriteriaType = "xp"
	CriteriaQuizzesCompleted CriteriaType = "quizzes_completed"
	CriteriaPerfectScores    CriteriaType = "perfect_scores"
	CriteriaStreak           CriteriaType = "streak"
	CriteriaAccountCreated   CriteriaType = "account_created"
	CriteriaFriendsAdded     CriteriaType = "friends_added"
	CriteriaGroupsJoined     CriteriaType = "groups_joined"
	CriteriaCoursesCompleted CriteriaType = "courses_completed"
)

type UnlockCriteria struct {
	Type      CriteriaType `bson:"type" json:"type"`
	Threshold int          `bson:"threshold" json:"threshold"`
}

// BadgeDefinition is a catalog entry, read-only at evaluation time.
type BadgeDefinition struct {
	ID          string          `bson:"_id" json:"badge_id"`
	Name        string          `bson:"name" json:"name"`
	Description string          `bson:"description" json:"description"`
	Icon        string          `bson:"icon" json:"icon"`
	Tier        BadgeTier       `bson:"tier" json:"tier"`
	Criteria    *UnlockCriteria `bson:"unlock_criteria" json:"unlock_criteria"`
	XPReward    int             `bson:"xp_reward" json:"xp_reward"`
}

// EarnedBadge is the append-only award record. Tier is copied from the
// definition at award time and never updated afterwards.
type EarnedBadge struct {
	BadgeID  string    `bson:"badge_id" json:"badge_id"`
	Tier     BadgeTier `bson:"tier" json:"tier"`
	EarnedAt time.Time `bson:"earned_at" json:"earned_at"`
}
