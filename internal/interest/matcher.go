// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package interest scores how well a candidate matches a user's declared
// research areas, categories and keywords.
package interest

import (
	"strings"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// neutral is the sub-score of a criterion the user left empty, so that the
// absence of a preference does not penalize candidates.
const neutral = 0.5

const (
	areaWeight     = 0.4
	categoryWeight = 0.4
	keywordWeight  = 0.2
)

// Matcher scores candidates against one set of interests.
type Matcher struct {
	interests types.Interests
}

// NewMatcher returns a Matcher for interests.
func NewMatcher(interests types.Interests) *Matcher {
	return &Matcher{interests: interests}
}

// Score returns the interest match of c in [0,1] and records the score and
// the matched terms on c.
func (m *Matcher) Score(c *types.Candidate) float64 {
	match := m.match(*c)
	c.InterestScore = match.score
	c.MatchedInterests = match.terms
	return match.score
}

// Apply returns a copy of c carrying its interest score and matched terms.
// c itself is left unchanged.
func (m *Matcher) Apply(c types.Candidate) types.Candidate {
	out := c.Clone()
	m.Score(&out)
	return out
}

type result struct {
	score float64
	terms []string
}

func (m *Matcher) match(c types.Candidate) result {
	if m.interests.IsEmpty() {
		return result{score: neutral}
	}
	text := strings.ToLower(c.Title + " " + c.Abstract)

	areas := containedTerms(m.interests.ResearchAreas, text)
	cats := sharedCategories(m.interests.Categories, c.Categories)
	keywords := containedTerms(m.interests.Keywords, text)

	score := areaWeight*fraction(len(areas), len(m.interests.ResearchAreas)) +
		categoryWeight*fraction(len(cats), len(m.interests.Categories)) +
		keywordWeight*fraction(len(keywords), len(m.interests.Keywords))

	return result{score: score, terms: union(areas, cats, keywords)}
}

// fraction returns matched/declared capped at 1, or the neutral score when
// nothing is declared.
func fraction(matched, declared int) float64 {
	if declared == 0 {
		return neutral
	}
	f := float64(matched) / float64(declared)
	if f > 1 {
		return 1
	}
	return f
}

// containedTerms returns the declared terms found case-insensitively in
// text. Blank terms never match.
func containedTerms(terms []string, text string) []string {
	var out []string
	for _, term := range terms {
		key := strings.ToLower(strings.TrimSpace(term))
		if key != "" && strings.Contains(text, key) {
			out = append(out, term)
		}
	}
	return out
}

// sharedCategories returns the declared categories present in have. The
// comparison is exact.
func sharedCategories(declared, have []string) []string {
	set := make(map[string]bool, len(have))
	for _, c := range have {
		set[c] = true
	}
	var out []string
	for _, c := range declared {
		if set[c] {
			out = append(out, c)
		}
	}
	return out
}

func union(lists ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, s := range list {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}
