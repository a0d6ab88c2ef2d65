package report

import (
	"sort"

	"github.com/onboardbase/securelog/internal/types"
)

// Finding is a scan result tagged with the document it came from.
type Finding struct {
	Source string `json:"source"`
	types.Result
}

// Tag wraps results from one source.
func Tag(source string, results []types.Result) []Finding {
	out := make([]Finding, len(results))
	for i, r := range results {
		out[i] = Finding{Source: source, Result: r}
	}
	return out
}

// Sort orders findings by source and keeps discovery order within a source.
func Sort(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Source < findings[j].Source
	})
}

// ShouldFail reports whether findings should fail a CI run.
func ShouldFail(findings []Finding) bool {
	return len(findings) > 0
}
