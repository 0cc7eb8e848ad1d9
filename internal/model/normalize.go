package model

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormText applies NFKC composition, trims surrounding space and case-folds.
// Empty input stays empty.
func NormText(s string) string {
	if s == "" {
		return ""
	}
	return fold(strings.TrimSpace(norm.NFKC.String(s)))
}

// CleanText normalises application names and window titles: non-breaking
// spaces become plain spaces, then trim and case-fold.
func CleanText(s string) string {
	s = strings.NewReplacer("\u00a0", " ", "\u202f", " ").Replace(s)
	return fold(strings.TrimSpace(s))
}

// IsTrivialLabel reports labels that carry no identity: empty or "0.0".
func IsTrivialLabel(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "0.0")
}

// SignificantWords returns the set of normalised words longer than two runes.
func SignificantWords(s string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(NormText(s)) {
		if len([]rune(w)) > 2 {
			words[w] = true
		}
	}
	return words
}

// SharesSignificantWord reports whether a and b have a significant word in common.
func SharesSignificantWord(a, b string) bool {
	wa := SignificantWords(a)
	for w := range SignificantWords(b) {
		if wa[w] {
			return true
		}
	}
	return false
}

// WordOverlap is the fraction of a's lowercase whitespace tokens that also
// appear in b. It is 0 when either side is empty.
func WordOverlap(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for w := range ta {
		if tb[w] {
			shared++
		}
	}
	return float64(shared) / float64(len(ta))
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}

// fold case-folds s. A Caser keeps state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

var spaceRun = regexp.MustCompile(`\s+`)

// NormMenuTitle normalises a menu title: the ellipsis character becomes
// three dots, whitespace runs collapse and the result is case-folded.
func NormMenuTitle(s string) string {
	s = strings.ReplaceAll(s, "…", "...")
	s = spaceRun.ReplaceAllString(s, " ")
	return fold(strings.TrimSpace(s))
}
