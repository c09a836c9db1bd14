// internal/sidebar/sidebar.go

// Package sidebar decides whether a sidebar navigation entry is rendered as
// active for the page being built. Templates call it as
//
//	<li{{ sidebar_current "docs-home" }}>
//	<li{{ sidebar_current (sidebar_pattern "^docs-guide-") }}>
package sidebar

import (
	"fmt"
	"html/template"
)

// Mode selects which of the page's identifiers are compared.
type Mode int

const (
	// MatchFirst compares only the first identifier. Later entries are
	// ignored even when they would match.
	MatchFirst Mode = iota
	// MatchAny marks the entry active when any identifier matches.
	MatchAny
)

// ParseMode maps the site.yaml value onto a Mode. The empty string is MatchFirst.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "first":
		return MatchFirst, nil
	case "any":
		return MatchAny, nil
	default:
		return MatchFirst, fmt.Errorf("unknown sidebar match mode %q (want \"first\" or \"any\")", s)
	}
}

func (m Mode) String() string {
	if m == MatchAny {
		return "any"
	}
	return "first"
}

// Result is the outcome of comparing a page against an Expected.
type Result int

const (
	// Unset means the page declares no identifiers, so nothing was compared.
	Unset Result = iota
	Inactive
	Active
)

func (r Result) String() string {
	switch r {
	case Active:
		return "active"
	case Inactive:
		return "inactive"
	default:
		return "unset"
	}
}

// Evaluate compares the page's identifiers against expected.
func Evaluate(current Current, expected Expected, mode Mode) Result {
	if len(current) == 0 {
		return Unset
	}

	if mode == MatchAny {
		for _, active := range current {
			if expected.Matches(active) {
				return Active
			}
		}
		return Inactive
	}

	if expected.Matches(current[0]) {
		return Active
	}
	return Inactive
}

// DefaultClass is the CSS class emitted for active entries.
const DefaultClass = "active"

// Helper renders Evaluate results as an HTML attribute fragment.
type Helper struct {
	Mode  Mode
	Class string
}

// Attr returns ` class="active"` when expected matches the page, and an
// empty fragment otherwise, including when the page declares nothing.
func (h Helper) Attr(current Current, expected any) template.HTMLAttr {
	if Evaluate(current, ExpectedOf(expected), h.Mode) != Active {
		return ""
	}

	class := h.Class
	if class == "" {
		class = DefaultClass
	}
	return template.HTMLAttr(` class="` + template.HTMLEscapeString(class) + `"`)
}

// Funcs returns the template functions bound to one page.
func Funcs(h Helper, current Current) template.FuncMap {
	return template.FuncMap{
		"sidebar_current": func(expected any) template.HTMLAttr {
			return h.Attr(current, expected)
		},
		"sidebar_pattern": Compile,
	}
}

// Placeholders returns unbound versions of the functions in Funcs so that
// templates referring to them can be parsed before any page is known.
func Placeholders() template.FuncMap {
	return Funcs(Helper{}, nil)
}
