// internal/sidebar/expected.go
package sidebar

import (
	"fmt"
	"regexp"
)

type expectedKind uint8

const (
	kindNone expectedKind = iota
	kindLiteral
	kindPattern
)

// Expected is the identifier a navigation entry stands for. It is either a
// literal string or a regular expression. The zero value matches nothing.
type Expected struct {
	kind    expectedKind
	literal string
	pattern *regexp.Regexp
}

// Literal returns an Expected that matches an identifier equal to s.
func Literal(s string) Expected {
	return Expected{kind: kindLiteral, literal: s}
}

// Pattern returns an Expected that matches any identifier re finds a match in.
// A nil re matches nothing.
func Pattern(re *regexp.Regexp) Expected {
	if re == nil {
		return Expected{}
	}
	return Expected{kind: kindPattern, pattern: re}
}

// Compile parses expr as a regular expression and wraps it as a Pattern.
func Compile(expr string) (Expected, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Expected{}, fmt.Errorf("invalid sidebar pattern %q: %w", expr, err)
	}
	return Pattern(re), nil
}

// ExpectedOf converts a template argument into an Expected. Values of any
// type other than string, Expected or *regexp.Regexp never match.
func ExpectedOf(v any) Expected {
	switch e := v.(type) {
	case string:
		return Literal(e)
	case Expected:
		return e
	case *regexp.Regexp:
		return Pattern(e)
	default:
		return Expected{}
	}
}

// Matches reports whether candidate is the identifier e stands for.
func (e Expected) Matches(candidate string) bool {
	switch e.kind {
	case kindLiteral:
		return candidate == e.literal
	case kindPattern:
		return e.pattern.MatchString(candidate)
	default:
		return false
	}
}

// IsPattern reports whether e was built from a regular expression.
func (e Expected) IsPattern() bool {
	return e.kind == kindPattern
}

func (e Expected) String() string {
	switch e.kind {
	case kindLiteral:
		return e.literal
	case kindPattern:
		return "/" + e.pattern.String() + "/"
	default:
		return ""
	}
}
