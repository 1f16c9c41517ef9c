// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup collapses candidate records that describe the same paper,
// keeping the highest-scoring variant. Records are matched first by arXiv
// identifier and otherwise by word overlap of their normalized titles.
package dedup

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// DefaultThreshold is the title similarity at or above which two records
// are duplicates.
const DefaultThreshold = 0.8

// stopWords are ignored when comparing titles. The set is kept to articles:
// prepositions carry meaning in titles ("for" vs "with").
var stopWords = map[string]bool{
	"a":   true,
	"an":  true,
	"the": true,
}

var lookupStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true,
}

// Deduplicator removes duplicate candidates.
type Deduplicator struct {
	// Threshold is the title similarity in (0,1] that marks a duplicate.
	Threshold float64

	// CheckArxivIDs enables identifier matching.
	CheckArxivIDs bool
}

// New returns a Deduplicator with the given threshold and identifier mode.
func New(threshold float64, checkArxivIDs bool) (*Deduplicator, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("title similarity threshold %v outside (0,1]", threshold)
	}
	return &Deduplicator{Threshold: threshold, CheckArxivIDs: checkArxivIDs}, nil
}

// Deduplicate returns the surviving records ordered by descending score.
// Among records with equal scores the input order decides which survives.
// The input slice is not modified.
func (d *Deduplicator) Deduplicate(records []types.Candidate) []types.Candidate {
	if len(records) == 0 {
		return nil
	}

	sorted := make([]types.Candidate, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	var kept []types.Candidate
	var keptTitles []titleKey
	seenIDs := make(map[string]bool)

	for _, r := range sorted {
		key := newTitleKey(r.Title)

		if d.CheckArxivIDs && r.ArxivID != "" {
			if seenIDs[r.ArxivID] {
				continue
			}
			seenIDs[r.ArxivID] = true
		}
		if d.matchesAny(key, keptTitles) {
			continue
		}

		kept = append(kept, r)
		keptTitles = append(keptTitles, key)
	}
	return kept
}

func (d *Deduplicator) matchesAny(key titleKey, kept []titleKey) bool {
	for _, k := range kept {
		if key.similarTo(k, d.Threshold) {
			return true
		}
	}
	return false
}

// titleKey caches the normalized form and word set of a title.
type titleKey struct {
	normalized string
	words      map[string]bool
}

func newTitleKey(title string) titleKey {
	norm := NormalizeTitle(title)
	return titleKey{normalized: norm, words: contentWords(norm)}
}

func (k titleKey) similarTo(other titleKey, threshold float64) bool {
	if k.normalized != "" && k.normalized == other.normalized {
		return true
	}
	return overlap(k.words, other.words) >= threshold
}

// NormalizeTitle returns a lowercased title with every rune that is not a
// letter, digit or whitespace removed and whitespace collapsed.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity returns the word overlap of two titles: shared words divided by
// the word count of the longer title, after normalization and stop-word
// removal. Titles that normalize identically have similarity 1.
func Similarity(a, b string) float64 {
	ka, kb := newTitleKey(a), newTitleKey(b)
	if ka.normalized != "" && ka.normalized == kb.normalized {
		return 1
	}
	return overlap(ka.words, kb.words)
}

// Jaccard returns |a ∩ b| / |a ∪ b| over the words of two titles, ignoring
// common function words. Enrichment lookups use it to confirm a title
// search hit, where a looser comparison than Similarity is wanted.
func Jaccard(a, b string) float64 {
	wa := wordsExcept(NormalizeTitle(a), lookupStopWords)
	wb := wordsExcept(NormalizeTitle(b), lookupStopWords)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	shared := intersection(wa, wb)
	return float64(shared) / float64(len(wa)+len(wb)-shared)
}

func overlap(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	return float64(intersection(a, b)) / float64(longest)
}

func intersection(a, b map[string]bool) int {
	n := 0
	for w := range a {
		if b[w] {
			n++
		}
	}
	return n
}

func contentWords(normalized string) map[string]bool {
	return wordsExcept(normalized, stopWords)
}

func wordsExcept(normalized string, skip map[string]bool) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(normalized) {
		if !skip[w] {
			words[w] = true
		}
	}
	return words
}
