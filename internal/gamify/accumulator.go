package gamify

import (
	"math"
	"time"

	"gamification-service/internal/models"
)

// CertificateThreshold is the minimum attempt percentage that earns a
// certificate.
const CertificateThreshold = 70.0

// ApplyAttempt folds a completed quiz attempt into a stats snapshot and
// returns the new snapshot. The input is not mutated; the caller is
// responsible for writing the result back atomically.
//
// allPercentages must contain the percentage of every completed attempt for
// the learner including this one; the average is recomputed in full rather
// than incrementally since attempt counts are small.
func ApplyAttempt(in models.LearnerStats, percentage float64, allPercentages []float64, now time.Time) models.LearnerStats {
	out := in
	out.CompletedQuizzes++
	out.TotalPoints += int(math.Round(percentage / 10))
	if percentage >= 100 {
		out.PerfectScoreCount++
	}
	out.AverageScorePercent = mean(allPercentages)
	advanceStreak(&out, now)
	out.CurrentLevel = models.LevelForXP(out.TotalXP)
	out.UpdatedAt = now
	return out
}

// ApplyBadges appends newly earned badges and their XP to a snapshot and
// returns it along with whether the learner leveled up.
func ApplyBadges(in models.LearnerStats, evaluation []models.EarnedBadge, xpDelta int, now time.Time) (models.LearnerStats, bool) {
	out := in
	if len(evaluation) > 0 {
		merged := make([]models.EarnedBadge, 0, len(in.EarnedBadges)+len(evaluation))
		merged = append(merged, in.EarnedBadges...)
		merged = append(merged, evaluation...)
		out.EarnedBadges = merged
	}
	before := out.CurrentLevel
	out.TotalXP += xpDelta
	out.CurrentLevel = models.LevelForXP(out.TotalXP)
	out.UpdatedAt = now
	return out, out.CurrentLevel > before
}

// ApplySocial bumps one social counter on a snapshot. Unknown kinds leave
// the snapshot untouched.
func ApplySocial(in models.LearnerStats, kind models.CriteriaType, now time.Time) models.LearnerStats {
	out := in
	switch kind {
	case models.CriteriaFriendsAdded:
		out.Social.Friends++
	case models.CriteriaGroupsJoined:
		out.Social.Groups++
	case models.CriteriaCoursesCompleted:
		out.Social.CompletedCourses++
	default:
		return in
	}
	out.UpdatedAt = now
	return out
}

// advanceStreak updates the consecutive-day counter: same calendar day is a
// no-op, the next day extends, anything else resets to 1.
func advanceStreak(s *models.LearnerStats, now time.Time) {
	switch {
	case s.LastActivityDate.IsZero():
		s.StreakDays = 1
	case sameDay(s.LastActivityDate, now):
		// already counted today
	case sameDay(s.LastActivityDate.AddDate(0, 0, 1), now):
		s.StreakDays++
	default:
		s.StreakDays = 1
	}
	if s.StreakDays > s.LongestStreak {
		s.LongestStreak = s.StreakDays
	}
	s.LastActivityDate = now
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
