// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/paper-digest/pkg/types"
)

const summaryTopPapers = 5

// Summary renders a human-readable report of a discovery result: stage
// totals, per-source counts, errors and the top papers.
func Summary(r types.DiscoveryResult) string {
	var b strings.Builder
	b.WriteString("Paper Discovery Summary\n")
	b.WriteString("=======================\n")
	fmt.Fprintf(&b, "Total papers found: %d\n", r.TotalDiscovered)
	fmt.Fprintf(&b, "After deduplication: %d\n", r.TotalAfterDedup)
	fmt.Fprintf(&b, "After filtering: %d\n", r.TotalAfterFilter)
	fmt.Fprintf(&b, "Final selection: %d\n", len(r.Papers))
	fmt.Fprintf(&b, "Discovery time: %.2fs\n", r.Elapsed.Seconds())

	b.WriteString("\nSource breakdown:\n")
	names := make([]string, 0, len(r.SourceStats))
	for name := range r.SourceStats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "  %s: %d papers\n", name, r.SourceStats[name])
	}

	if len(r.Errors) > 0 {
		b.WriteString("\nErrors encountered:\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
	}

	if len(r.Papers) > 0 {
		b.WriteString("\nTop trending papers:\n")
		for i, p := range r.Papers {
			if i == summaryTopPapers {
				break
			}
			fmt.Fprintf(&b, "  %d. %s (score: %.1f)\n", i+1, p.Title, p.Score)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
