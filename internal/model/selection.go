package model

import (
	"fmt"
	"regexp"
	"strings"
)

// Selection describes which windows a command operates on.
type Selection struct {
	Classes []string `yaml:"classes,omitempty" json:"classes,omitempty"`
	Titles  []string `yaml:"titles,omitempty"  json:"titles,omitempty"`
	Regexp  bool     `yaml:"regexp,omitempty"  json:"regexp,omitempty"`
	Bracket bool     `yaml:"bracket,omitempty" json:"bracket,omitempty"`
}

// PatternError reports a class or title pattern that cannot be compiled.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("error in pattern <%s>: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Matcher is a compiled Selection.
type Matcher struct {
	classes []*regexp.Regexp
	titles  []*regexp.Regexp
	bracket bool
}

// Compile validates all patterns of the selection and returns a Matcher.
// Wildcard patterns are anchored at both ends; regular expressions are
// anchored at the start only.
func (s Selection) Compile() (*Matcher, error) {
	m := &Matcher{bracket: s.Bracket}
	var err error
	if m.classes, err = compilePatterns(s.Classes, s.Regexp); err != nil {
		return nil, err
	}
	if m.titles, err = compilePatterns(s.Titles, s.Regexp); err != nil {
		return nil, err
	}
	return m, nil
}

func compilePatterns(patterns []string, isRegexp bool) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		expr := globToRegexp(p)
		if isRegexp {
			expr = "^(?:" + p + ")"
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, &PatternError{Pattern: p, Err: err}
		}
		res = append(res, re)
	}
	return res, nil
}

// Match reports whether w is selected and returns its match key: the full
// title, or in bracket mode the text inside the first [...] of the title.
func (m *Matcher) Match(w Window) (string, bool) {
	key := w.Title
	if m.bracket {
		var ok bool
		if key, ok = ExtractBracket(w.Title); !ok {
			return "", false
		}
	}
	if !matchAny(m.classes, w.Class) || !matchAny(m.titles, key) {
		return "", false
	}
	return key, true
}

// Filter returns the selected windows in enumeration order with MatchKey
// populated.
func (m *Matcher) Filter(windows []Window) []Window {
	var res []Window
	for _, w := range windows {
		key, ok := m.Match(w)
		if !ok {
			continue
		}
		w.MatchKey = key
		res = append(res, w)
	}
	return res
}

// matchAny is true for an empty pattern list.
func matchAny(patterns []*regexp.Regexp, s string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// ExtractBracket returns the text strictly between the first '[' in title
// and the next ']'. ok is false when title has no such pair.
func ExtractBracket(title string) (key string, ok bool) {
	start := strings.IndexByte(title, '[')
	if start < 0 {
		return "", false
	}
	rest := title[start+1:]
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// globToRegexp translates a shell wildcard into an anchored regular
// expression. '*' and '?' also match '/', since titles are not paths.
func globToRegexp(pattern string) string {
	var b strings.Builder
	b.WriteString(`(?s)^`)
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			j := i + 1
			if j < len(pattern) && pattern[j] == '!' {
				j++
			}
			if j < len(pattern) && pattern[j] == ']' {
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j >= len(pattern) {
				// unterminated class is a literal '['
				b.WriteString(`\[`)
				continue
			}
			body := pattern[i+1 : j]
			b.WriteByte('[')
			// only '!' negates, a leading '^' is a literal caret
			if body[0] == '!' {
				b.WriteByte('^')
				body = body[1:]
			}
			b.WriteString(regexp.QuoteMeta(body))
			b.WriteByte(']')
			i = j
		default:
			b.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
		}
	}
	b.WriteString(`$`)
	return b.String()
}
