// Package matchkey implements the reverse-match-key canonicalization
// resolved in SPEC_FULL.md §13: a relationship's match key, its
// token-sorted canonical form, and the reverse of that form, all derived
// from its `+`-delimited tokens.
package matchkey

import (
	"sort"
	"strings"
)

// Canonicalize returns the token-sorted form of key: key's tokens split on
// "+", sorted alphabetically, and rejoined with "+". "ADDRESS+PHONE" and
// "PHONE+ADDRESS" both canonicalize to "ADDRESS+PHONE".
func Canonicalize(key string) string {
	if key == "" {
		return ""
	}
	tokens := strings.Split(key, "+")
	sort.Strings(tokens)
	return strings.Join(tokens, "+")
}

// Reverse returns key with its "+"-delimited tokens in reverse order,
// whatever order they were in, so Reverse(Reverse(k)) == k. A relationship
// row stores Reverse(Canonicalize(matchKey)) as its reverse match key.
func Reverse(key string) string {
	if key == "" {
		return ""
	}
	tokens := strings.Split(key, "+")
	reversed := make([]string, len(tokens))
	for i, t := range tokens {
		reversed[len(tokens)-1-i] = t
	}
	return strings.Join(reversed, "+")
}

// Matches reports whether candidate (as supplied by a caller, in arbitrary
// token order) refers to the same match key as stored; both sides are
// canonicalized before comparing, so neither needs to be in sorted order.
func Matches(stored, candidate string) bool {
	return Canonicalize(stored) == Canonicalize(candidate)
}
