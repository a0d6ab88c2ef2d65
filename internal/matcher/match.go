package matcher

import (
	"regexp"
	"strings"

	"github.com/onboardbase/securelog/internal/metrics"
	"github.com/onboardbase/securelog/internal/types"
	"github.com/rs/zerolog/log"
)

type compileFunc func(rule string) (*regexp.Regexp, error)

// compileRule compiles a rule as a case-insensitive search.
func compileRule(rule string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + rule)
}

// Match runs every pattern over text and returns the findings in pattern order,
// each pattern's findings in text order. A pattern whose rule does not compile is
// skipped; the others still run.
func Match(text string, patterns []types.SecretPattern, origin string) []types.Result {
	return match(text, patterns, origin, compileRule)
}

func match(text string, patterns []types.SecretPattern, origin string, compile compileFunc) []types.Result {
	var out []types.Result
	for _, p := range patterns {
		re, err := compile(p.Regex)
		if err != nil {
			skipPattern(p, "regex", err)
			continue
		}
		var fp *regexp.Regexp
		if p.FalsePositive != "" {
			if fp, err = compile(p.FalsePositive); err != nil {
				skipPattern(p, "false_positive", err)
				continue
			}
		}
		out = appendMatches(out, text, p, re, fp, origin)
	}
	return out
}

func appendMatches(out []types.Result, text string, p types.SecretPattern, re, fp *regexp.Regexp, origin string) []types.Result {
	g := p.SecretPosition
	if g < 0 {
		return out
	}
	// matches arrive left to right, so line counting resumes from the previous start
	line, counted := 1, 0
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		if 2*g+1 >= len(loc) || loc[2*g] < 0 {
			continue
		}
		candidate := strings.TrimSpace(text[loc[2*g]:loc[2*g+1]])
		if candidate == "" {
			continue
		}
		if fp != nil && fp.MatchString(candidate) {
			continue
		}
		line += strings.Count(text[counted:loc[0]], "\n")
		counted = loc[0]
		out = append(out, types.Result{
			RawValue: candidate,
			Line:     line,
			Detector: p.Name,
			Origin:   origin,
		})
	}
	return out
}

func skipPattern(p types.SecretPattern, field string, err error) {
	metrics.PatternErrorsTotal.WithLabelValues(p.Name).Inc()
	log.Trace().Str("pattern", p.Name).Str("field", field).Err(err).Msg("skipping pattern that does not compile")
}
