// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources implements the discovery providers: arXiv, Semantic
// Scholar, OpenAlex, GitHub repository search and Papers with Code. Each provider
// satisfies discovery.Fetcher, builds a small set of queries from the
// user's interests, and normalizes what it finds into types.Candidate with
// the provider's trending reasons and intrinsic score already set.
//
// A provider that runs several queries keeps whatever the successful ones
// return. It reports an error only when every query failed.
package sources

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-digest/internal/scoring"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// maxQueries bounds the number of API queries one fetch issues.
const maxQueries = 5

// keywordGroupSize is how many keywords are OR-ed into one query.
const keywordGroupSize = 3

// base holds the settings shared by every provider.
type base struct {
	// Logger receives per-query failures. The zero value discards them.
	Logger zerolog.Logger

	// Now returns the reference time for windows and recency. Nil means
	// time.Now.
	Now func() time.Time
}

func (b base) now() time.Time {
	if b.Now == nil {
		return time.Now().UTC()
	}
	return b.Now()
}

// keywordGroups splits keywords into consecutive groups of size n.
func keywordGroups(keywords []string, n int) [][]string {
	var groups [][]string
	for i := 0; i < len(keywords); i += n {
		end := min(i+n, len(keywords))
		groups = append(groups, keywords[i:end])
	}
	return groups
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// queryErrors collects failures of individual queries.
type queryErrors struct {
	errs []error
}

func (q *queryErrors) add(err error) {
	q.errs = append(q.errs, err)
}

// result returns the joined errors when all of total queries failed.
func (q *queryErrors) result(total int) error {
	if total > 0 && len(q.errs) == total {
		return errors.Join(q.errs...)
	}
	return nil
}

// finalize sets the days since publication and the intrinsic score.
func finalize(c *types.Candidate, now time.Time) {
	if c.Published != nil {
		c.Engagement.DaysSincePublication = scoring.DaysSince(*c.Published, now)
	}
	c.Score = scoring.Overall(*c, now)
}

var spaceRun = regexp.MustCompile(`\s+`)

// collapseSpace trims s and replaces every whitespace run with one space.
func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// stripVersion removes a trailing arXiv version suffix such as "v2".
func stripVersion(id string) string {
	idx := strings.LastIndex(id, "v")
	if idx <= 0 || idx == len(id)-1 {
		return id
	}
	for _, r := range id[idx+1:] {
		if r < '0' || r > '9' {
			return id
		}
	}
	return id[:idx]
}
