// Package pattern provides the concrete implementation behind
// value.CompiledPattern. The pattern-matching compiler itself (the
// thing that turns WFL pattern syntax into a compiled matcher) is
// explicitly out of scope (spec §1) -- this package only supplies a
// regexp-backed matcher satisfying the consumed matches/find/find_all/
// split surface (spec §2), so the evaluator has something concrete to
// exercise in tests. A production build would swap this for the real
// pattern compiler without the evaluator noticing, since it only ever
// programs against value.CompiledPattern.
package pattern

import (
	"regexp"

	"github.com/wfl-lang/wflcore/core/value"
)

// regexPattern adapts a compiled regexp to value.CompiledPattern.
type regexPattern struct {
	source string
	re     *regexp.Regexp
}

// Compile compiles source as a regular expression. literal, when true,
// escapes source first so it behaves as a literal-text pattern (spec
// §4.3: "Text overloads accept a Text pattern and behave as literal").
func Compile(source string, literal bool) (value.CompiledPattern, error) {
	expr := source
	if literal {
		expr = regexp.QuoteMeta(source)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &regexPattern{source: source, re: re}, nil
}

func (p *regexPattern) Source() string { return p.source }

func (p *regexPattern) Matches(s string) bool {
	return p.re.MatchString(s)
}

func (p *regexPattern) Find(s string) (value.PatternMatch, bool) {
	loc := p.re.FindStringSubmatchIndex(s)
	if loc == nil {
		return value.PatternMatch{}, false
	}
	return p.matchAt(s, loc), true
}

func (p *regexPattern) FindAll(s string) []value.PatternMatch {
	locs := p.re.FindAllStringSubmatchIndex(s, -1)
	out := make([]value.PatternMatch, 0, len(locs))
	for _, loc := range locs {
		out = append(out, p.matchAt(s, loc))
	}
	return out
}

func (p *regexPattern) Split(s string) []string {
	return p.re.Split(s, -1)
}

func (p *regexPattern) matchAt(s string, loc []int) value.PatternMatch {
	captures := make(map[string]string)
	names := p.re.SubexpNames()
	for i := 1; i*2 < len(loc); i++ {
		start, end := loc[i*2], loc[i*2+1]
		text := ""
		if start >= 0 && end >= 0 {
			text = s[start:end]
		}
		captures[indexKey(i)] = text
		if i < len(names) && names[i] != "" {
			captures[names[i]] = text
		}
	}
	return value.PatternMatch{
		Match:    s[loc[0]:loc[1]],
		Index:    loc[0],
		Length:   loc[1] - loc[0],
		Captures: captures,
	}
}

func indexKey(i int) string {
	// stringified numeric capture index, per SPEC_FULL §4.3 expansion.
	digits := [10]byte{}
	n := len(digits)
	if i == 0 {
		return "0"
	}
	for i > 0 {
		n--
		digits[n] = byte('0' + i%10)
		i /= 10
	}
	return string(digits[n:])
}
