package blacklist

import (
	"regexp"
	"strings"

	"github.com/gatehouse-dev/gatehouse/internal/domain"
)

// Compile turns an author-supplied wildcard pattern into an anchored
// matcher. The pattern is literal except `*`, which matches any run of
// characters that does not include the address separator `@`. Keeping
// the wildcard inside one side of the address lets authors reason about
// local-part rules and domain rules independently.
//
// Compilation cannot fail: QuoteMeta escapes every regexp metacharacter
// first, so any input string is a valid literal pattern. An empty
// pattern matches only the empty string. Patterns are matched exactly
// as authored: no trimming, no case folding, no normalization.
func Compile(pattern string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(pattern)
	expr := strings.ReplaceAll(quoted, `\*`, `[^@]*`)
	return regexp.MustCompile(`\A` + expr + `\z`)
}

// CompiledRule pairs a rule with its derived matcher. The matcher is
// regenerated whenever the rule is loaded; it never round-trips through
// storage.
type CompiledRule struct {
	domain.BlacklistRule
	matcher *regexp.Regexp
}

func NewCompiledRule(rule domain.BlacklistRule) CompiledRule {
	return CompiledRule{BlacklistRule: rule, matcher: Compile(rule.Pattern)}
}

// Matches reports whether the full candidate string satisfies the rule.
func (r CompiledRule) Matches(candidate string) bool {
	return r.matcher.MatchString(candidate)
}

// Classify runs the candidate against the rules in the order given and
// returns the classification of the first rule that matches, or
// ClassificationNone when nothing does. First-match-wins lets authors
// order a narrow exception ahead of a broad block rule. Pure function;
// safe for any number of concurrent callers.
func Classify(candidate string, rules []CompiledRule) domain.Classification {
	for _, rule := range rules {
		if rule.Matches(candidate) {
			return rule.Classification
		}
	}
	return domain.ClassificationNone
}
