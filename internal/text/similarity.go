package text

import (
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Ratio returns a Levenshtein similarity score between 0 and 100.
func Ratio(a, b string) int {
	if a == "" && b == "" {
		return 100
	}
	r := levenshtein.RatioForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
	return int(r*100 + 0.5)
}

// PartialRatio slides the shorter string across the longer one and returns
// the best window score. A short keyword embedded in a long label scores
// close to 100.
func PartialRatio(a, b string) int {
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return 0
	}
	if len(shorter) == len(longer) {
		return Ratio(string(shorter), string(longer))
	}
	best := 0
	for i := 0; i+len(shorter) <= len(longer); i++ {
		window := string(longer[i : i+len(shorter)])
		if score := Ratio(string(shorter), window); score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// TokenSetRatio compares the two strings as sets of words, ignoring
// duplicates and word order. Shared words dominate the score, which makes
// it robust against labels that append varying reference fragments.
func TokenSetRatio(a, b string) int {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 100
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var inter, diffA, diffB []string
	for w := range setA {
		if _, ok := setB[w]; ok {
			inter = append(inter, w)
		} else {
			diffA = append(diffA, w)
		}
	}
	for w := range setB {
		if _, ok := setA[w]; !ok {
			diffB = append(diffB, w)
		}
	}
	sort.Strings(inter)
	sort.Strings(diffA)
	sort.Strings(diffB)

	base := strings.Join(inter, " ")
	combinedA := strings.TrimSpace(base + " " + strings.Join(diffA, " "))
	combinedB := strings.TrimSpace(base + " " + strings.Join(diffB, " "))

	best := Ratio(base, combinedA)
	if s := Ratio(base, combinedB); s > best {
		best = s
	}
	if s := Ratio(combinedA, combinedB); s > best {
		best = s
	}
	return best
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}
