package detectors

import (
	"fmt"
	"regexp"

	"github.com/onboardbase/securelog/internal/types"
)

// Problem is a catalog defect reported by Lint.
type Problem struct {
	Index   int
	Pattern string
	Message string
}

func (p Problem) String() string {
	name := p.Pattern
	if name == "" {
		name = fmt.Sprintf("#%d", p.Index)
	}
	return name + ": " + p.Message
}

// Lint checks patterns the way the matcher will use them. Scans never call
// it; a broken pattern is skipped at match time instead.
func Lint(patterns []types.SecretPattern) []Problem {
	var out []Problem
	add := func(i int, p types.SecretPattern, format string, args ...any) {
		out = append(out, Problem{Index: i, Pattern: p.Name, Message: fmt.Sprintf(format, args...)})
	}
	seen := map[string]int{}
	for i, p := range patterns {
		if p.Name == "" {
			add(i, p, "missing name")
		} else if j, ok := seen[p.Name]; ok {
			add(i, p, "duplicate name (first defined at #%d)", j)
		} else {
			seen[p.Name] = i
		}
		if p.SecretPosition < 0 {
			add(i, p, "secret_position must be >= 0, got %d", p.SecretPosition)
		}
		re, err := regexp.Compile("(?i)" + p.Regex)
		if err != nil {
			add(i, p, "regex does not compile: %v", err)
		} else if p.SecretPosition > re.NumSubexp() {
			add(i, p, "secret_position %d exceeds %d capture groups", p.SecretPosition, re.NumSubexp())
		}
		if p.FalsePositive != "" {
			if _, err := regexp.Compile("(?i)" + p.FalsePositive); err != nil {
				add(i, p, "false_positive does not compile: %v", err)
			}
		}
	}
	return out
}
