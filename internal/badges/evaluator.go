package badges

import (
	"time"

	"gamification-service/internal/models"
)

// Evaluation carries the outcome of one evaluator pass.
type Evaluation struct {
	NewlyEarned []models.EarnedBadge `json:"newly_earned"`
	XPDelta     int                  `json:"xp_delta"`
}

// Evaluate walks the catalog in input order and returns the badges the
// learner just became eligible for, plus the XP they award in total.
// It never mutates its inputs; persistence happens in the caller.
func Evaluate(stats *models.LearnerStats, earnedIDs map[string]bool, catalog []models.BadgeDefinition, now time.Time) *Evaluation {
	result := &Evaluation{NewlyEarned: []models.EarnedBadge{}}

	for _, def := range catalog {
		if earnedIDs[def.ID] {
			continue
		}
		if !eligible(def, stats) {
			continue
		}
		result.NewlyEarned = append(result.NewlyEarned, models.EarnedBadge{
			BadgeID:  def.ID,
			Tier:     def.Tier,
			EarnedAt: now,
		})
		result.XPDelta += def.XPReward
	}

	return result
}

func eligible(def models.BadgeDefinition, stats *models.LearnerStats) bool {
	if def.Criteria == nil {
		return false
	}
	if def.Criteria.Type == models.CriteriaAccountCreated {
		return true
	}
	value, known := statValue(def.Criteria.Type, stats)
	if !known {
		// Unknown criteria kinds are a catalog configuration problem;
		// skipping them keeps the rest of the catalog awardable.
		return false
	}
	return value >= def.Criteria.Threshold
}

// statValue maps a criteria kind onto the stat it is compared against.
// The boolean reports whether the kind is one we recognize at all.
func statValue(kind models.CriteriaType, stats *models.LearnerStats) (int, bool) {
	switch kind {
	case models.CriteriaXP:
		// Historical behavior: "xp" badges unlock on the legacy points
		// counter, not on TotalXP. Changing this would change which
		// badges existing learners receive.
		return stats.TotalPoints, true
	case models.CriteriaQuizzesCompleted:
		return stats.CompletedQuizzes, true
	case models.CriteriaPerfectScores:
		return stats.PerfectScoreCount, true
	case models.CriteriaStreak:
		return stats.StreakDays, true
	case models.CriteriaAccountCreated:
		return 0, true
	case models.CriteriaFriendsAdded:
		return stats.Social.Friends, true
	case models.CriteriaGroupsJoined:
		return stats.Social.Groups, true
	case models.CriteriaCoursesCompleted:
		return stats.Social.CompletedCourses, true
	default:
		return 0, false
	}
}
