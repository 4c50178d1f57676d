// Package filter decides whether a post title or an attachment name is wanted.
//
// Each decision is made against a pair of regular expression sets: a whitelist
// and a blacklist. Both sets use "matches all" semantics, so a text is
// whitelisted only when it matches every whitelist pattern and blacklisted only
// when it matches every blacklist pattern.
package filter

import (
	"fmt"
	"regexp"
)

// PatternSet is an ordered, immutable collection of compiled regular expressions.
type PatternSet []*regexp.Regexp

// Compile compiles every pattern, failing on the first invalid one.
func Compile(patterns ...string) (PatternSet, error) {
	ps := make(PatternSet, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid pattern (pattern=%s)", err, p)
		}
		ps = append(ps, re)
	}
	return ps, nil
}

// MustCompile is like Compile, but panics on invalid patterns.
func MustCompile(patterns ...string) PatternSet {
	ps, err := Compile(patterns...)
	if err != nil {
		panic(err)
	}
	return ps
}

// Empty reports whether the set has no patterns.
func (ps PatternSet) Empty() bool {
	return len(ps) == 0
}

// MatchesAll reports whether text matches every pattern in the set.
// An empty set matches everything.
func (ps PatternSet) MatchesAll(text string) bool {
	for _, re := range ps {
		if !re.MatchString(text) {
			return false
		}
	}
	return true
}

// Strings returns the source patterns.
func (ps PatternSet) Strings() []string {
	out := make([]string, 0, len(ps))
	for _, re := range ps {
		out = append(out, re.String())
	}
	return out
}

// Passes returns whether text should be kept.
//
// The cases are checked in order:
//   - both sets empty: pass;
//   - only a whitelist: pass iff every whitelist pattern matches;
//   - only a blacklist: pass unless every blacklist pattern matches;
//   - both: pass iff the whitelist matches and the blacklist does not.
func Passes(whitelist, blacklist PatternSet, text string) bool {
	switch {
	case whitelist.Empty() && blacklist.Empty():
		return true
	case blacklist.Empty():
		return whitelist.MatchesAll(text)
	case whitelist.Empty():
		return !blacklist.MatchesAll(text)
	default:
		return whitelist.MatchesAll(text) && !blacklist.MatchesAll(text)
	}
}

// Pair is a whitelist/blacklist pair applied to one kind of text.
type Pair struct {
	Whitelist PatternSet
	Blacklist PatternSet
}

// NewPair compiles a whitelist and a blacklist.
func NewPair(whitelist, blacklist []string) (Pair, error) {
	white, err := Compile(whitelist...)
	if err != nil {
		return Pair{}, fmt.Errorf("%w: couldn't compile whitelist", err)
	}
	black, err := Compile(blacklist...)
	if err != nil {
		return Pair{}, fmt.Errorf("%w: couldn't compile blacklist", err)
	}
	return Pair{Whitelist: white, Blacklist: black}, nil
}

// Passes applies the pair to text.
func (p Pair) Passes(text string) bool {
	return Passes(p.Whitelist, p.Blacklist, text)
}

// Filters holds the two independently configured pairs used per post.
type Filters struct {
	Title Pair
	File  Pair
}
