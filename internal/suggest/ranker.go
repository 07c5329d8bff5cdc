package suggest

import "sort"

// rankAndSelect orders surviving candidates by coverage descending, then
// keyword count (two keywords beat one, as a specificity proxy), then
// combined keyword length, with lexicographic tie-breaks so repeated calls
// over identical input rank identically. The first limit candidates are
// returned; empty input yields empty output.
func rankAndSelect(candidates []candidate, limit int) []candidate {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.covered != b.covered {
			return a.covered > b.covered
		}
		ak, bk := keywordCountOf(a), keywordCountOf(b)
		if ak != bk {
			return ak > bk
		}
		al := len(a.keyword1) + len(a.keyword2)
		bl := len(b.keyword1) + len(b.keyword2)
		if al != bl {
			return al > bl
		}
		if a.keyword1 != b.keyword1 {
			return a.keyword1 < b.keyword1
		}
		return a.keyword2 < b.keyword2
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

func keywordCountOf(c candidate) int {
	if c.keyword2 != "" {
		return 2
	}
	return 1
}
