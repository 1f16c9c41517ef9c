package scoring

import (
	"strings"

	"github.com/pdiddy/paper-digest/pkg/types"
)

var reasonText = map[types.TrendingReason]string{
	types.ReasonGitHubActivity:    "High GitHub activity",
	types.ReasonCitationVelocity:  "Rapidly gaining citations",
	types.ReasonSocialBuzz:        "Social media buzz",
	types.ReasonCodeQuality:       "High-quality implementation",
	types.ReasonRecentPublication: "Recently published",
	types.ReasonCommunityInterest: "Strong community interest",
}

// AddReason returns reasons with r appended unless already present.
func AddReason(reasons []types.TrendingReason, r types.TrendingReason) []types.TrendingReason {
	for _, have := range reasons {
		if have == r {
			return reasons
		}
	}
	return append(reasons, r)
}

// DescribeReasons renders reasons as an English list ("A", "A and B",
// "A, B, and C"). No reasons reads as "General interest".
func DescribeReasons(reasons []types.TrendingReason) string {
	if len(reasons) == 0 {
		return "General interest"
	}
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		if text, ok := reasonText[r]; ok {
			parts[i] = text
		} else {
			parts[i] = string(r)
		}
	}
	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
	}
}
