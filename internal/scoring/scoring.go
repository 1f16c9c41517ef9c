// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scoring computes the engagement, code-quality and intrinsic
// ranking scores of a candidate. Every function is pure: results depend only
// on the arguments, including the explicit reference time where recency
// matters.
package scoring

import (
	"math"
	"time"

	"github.com/pdiddy/paper-digest/pkg/types"
)

const (
	maxEngagement  = 100.0
	maxCodeQuality = 10.0
)

// Intrinsic weights of the default candidate score. The orchestrator ranks
// with its own configurable blend; these are what providers assign.
const (
	intrinsicEngagementWeight = 0.7
	intrinsicInterestWeight   = 0.2
	intrinsicQualityWeight    = 0.1
)

// Engagement returns the engagement score of m in [0,100]. Stars, citations
// and mentions contribute logarithmically so that mega-repositories cannot
// dominate; each contribution is capped independently.
func Engagement(m types.EngagementMetrics) float64 {
	stars := nonNegative(m.Stars)
	forks := nonNegative(m.Forks)
	citations := nonNegative(m.Citations)
	mentions := nonNegative(m.SocialMentions)

	score := 0.0
	if stars > 0 {
		score += math.Min(25, math.Log10(float64(stars)+1)*5)
	}
	if stars > 0 && forks > 0 {
		ratio := float64(forks) / float64(stars)
		if ratio >= 0.1 && ratio <= 0.3 {
			score += 5
		}
	}
	if citations > 0 {
		score += math.Min(20, math.Log10(float64(citations)+1)*4)
	}
	if m.CitationVelocity > 0 {
		score += math.Min(10, m.CitationVelocity*2)
	}
	if mentions > 0 {
		score += math.Min(15, math.Log10(float64(mentions)+1)*3)
	}
	score += recencyBonus(m.DaysSincePublication)

	return math.Min(maxEngagement, score)
}

// recencyBonus rewards publications within fixed breakpoints.
func recencyBonus(days int) float64 {
	switch {
	case days <= 7:
		return 10
	case days <= 30:
		return 5
	case days <= 90:
		return 2
	default:
		return 0
	}
}

// CodeQuality returns the quality score of r in [0,10] as of now. A nil
// repository scores zero.
func CodeQuality(r *types.Repository, now time.Time) float64 {
	if r == nil {
		return 0
	}

	score := 0.0
	if r.HasDocumentation {
		score += 2
	}
	if r.HasTests {
		score += 2
	}
	if r.HasExamples {
		score += 1
	}
	if r.License != "" {
		score += 1
	}
	if stars := nonNegative(r.Stars); stars > 0 {
		score += math.Min(3, math.Log10(float64(stars)+1))
	}
	if r.LastCommit != nil {
		switch days := daysBetween(*r.LastCommit, now); {
		case days <= 30:
			score += 1
		case days <= 90:
			score += 0.5
		}
	}

	return math.Min(maxCodeQuality, score)
}

// Activity returns a coarse activity level of r as of now, from 10 for a
// commit within the week down to 1 for anything older than a year.
func Activity(r *types.Repository, now time.Time) float64 {
	if r == nil || r.LastCommit == nil {
		return 0
	}
	switch days := daysBetween(*r.LastCommit, now); {
	case days <= 7:
		return 10
	case days <= 30:
		return 7
	case days <= 90:
		return 4
	case days <= 365:
		return 2
	default:
		return 1
	}
}

// Velocity returns daily stars plus mentions since publication, doubled
// when the last activity happened within 24 hours of now.
func Velocity(m types.EngagementMetrics, now time.Time) float64 {
	if m.DaysSincePublication <= 0 {
		return 0
	}
	daily := float64(nonNegative(m.Stars)+nonNegative(m.SocialMentions)) / float64(m.DaysSincePublication)
	if m.LastActivity != nil && now.Sub(*m.LastActivity) <= 24*time.Hour {
		daily *= 2
	}
	return daily
}

// Overall returns the intrinsic ranking score of c: 70% engagement, 20%
// interest match and 10% code quality of the primary repository, each on a
// 0-100 scale.
func Overall(c types.Candidate, now time.Time) float64 {
	return intrinsicEngagementWeight*Engagement(c.Engagement) +
		intrinsicInterestWeight*(c.InterestScore*100) +
		intrinsicQualityWeight*(CodeQuality(c.PrimaryRepo, now)*10)
}

// Blend returns the final ranking score of c under w, with interest and
// code quality scaled to 0-100 like engagement.
func Blend(c types.Candidate, w types.Weights, now time.Time) float64 {
	return w.Engagement*Engagement(c.Engagement) +
		w.Interest*(c.InterestScore*100) +
		w.CodeQuality*(CodeQuality(c.PrimaryRepo, now)*10)
}

// HasQualityCode reports whether any repository of c scores at least 7.
func HasQualityCode(c types.Candidate, now time.Time) bool {
	for _, r := range c.Repositories() {
		if CodeQuality(&r, now) >= 7 {
			return true
		}
	}
	return false
}

// DaysSince returns whole days from t to now, never negative.
func DaysSince(t, now time.Time) int {
	return daysBetween(t, now)
}

func daysBetween(from, to time.Time) int {
	d := int(to.Sub(from).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
