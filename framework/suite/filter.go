package suite

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter is a function that can determine whether to run a specific test or not.
type Filter func(name string) bool

// RegexFilters selects test cases by name. A case runs if it matches any MustMatch pattern (or there
// are none), and does not match any MustNotMatch pattern.
type RegexFilters struct {
	MustMatch    PatternList
	MustNotMatch PatternList
}

func (r RegexFilters) Match(name string) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatch(name)) &&
		!r.MustNotMatch.AnyMatch(name)
}

func (r RegexFilters) IsDefined() bool {
	return r.MustMatch.IsDefined() || r.MustNotMatch.IsDefined()
}

func (r RegexFilters) String() string {
	var parts []string
	if r.MustMatch.IsDefined() {
		parts = append(parts, "run "+r.MustMatch.String())
	}
	if r.MustNotMatch.IsDefined() {
		parts = append(parts, "skip "+r.MustNotMatch.String())
	}
	return strings.Join(parts, ", ")
}

// PatternList is a list of regular expressions that can be built up from repeated command-line flags.
type PatternList []*regexp.Regexp

func (l PatternList) String() string {
	ss := make([]string, 0, len(l))
	for _, p := range l {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (l *PatternList) Set(value string) error {
	rx, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	*l = append(*l, rx)
	return nil
}

func (l PatternList) IsDefined() bool {
	return len(l) != 0
}

func (l PatternList) AnyMatch(name string) bool {
	for _, p := range l {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}
