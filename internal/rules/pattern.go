package rules

import (
	"fmt"
	"regexp"

	"github.com/SethMMorton/tidymoney/internal/domain"
)

// Pattern pairs a compiled regular expression with its source text.
// Compiled regexps cannot be compared, so rule identity (needed to detect
// duplicate rule definitions) is defined on the source text: two patterns
// are the same iff they were written the same.
type Pattern struct {
	re     *regexp.Regexp
	source string
}

// NewPattern compiles expr into a Pattern.
func NewPattern(expr string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("%w: cannot read %q as a regular expression: %v",
			domain.ErrConfig, expr, err)
	}
	return Pattern{re: re, source: expr}, nil
}

// MatchString reports whether the pattern matches anywhere in s. This is a
// search, not a full match: rules are written as fragments of payee text.
func (p Pattern) MatchString(s string) bool {
	return p.re != nil && p.re.MatchString(s)
}

// String returns the source text the pattern was compiled from.
func (p Pattern) String() string {
	return p.source
}

// IsZero reports whether the pattern was never set.
func (p Pattern) IsZero() bool {
	return p.re == nil
}
