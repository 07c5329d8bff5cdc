package match

import (
	"strings"

	"github.com/fecmatch/fecmatch/internal/model"
	"github.com/fecmatch/fecmatch/internal/text"
)

// Index is an inverted token index over a closed transaction snapshot.
// Normalized labels are cached once and keyword lookups intersect posting
// lists instead of re-scanning the full list per candidate, which keeps
// collision scans tractable at tens of thousands of transactions.
type Index struct {
	postings map[string][]int
	txns     []model.Transaction
	labels   []string
}

// NewIndex builds the index for one immutable transaction snapshot.
func NewIndex(txns []model.Transaction) *Index {
	ix := &Index{
		txns:     txns,
		labels:   make([]string, len(txns)),
		postings: make(map[string][]int),
	}
	for i, txn := range txns {
		ix.labels[i] = text.Normalize(txn.Label)
		seen := make(map[string]struct{})
		for _, token := range text.Tokens(txn.Label) {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			ix.postings[token] = append(ix.postings[token], i)
		}
	}
	return ix
}

// Len returns the snapshot size.
func (ix *Index) Len() int {
	return len(ix.txns)
}

// Transaction returns the transaction at position i.
func (ix *Index) Transaction(i int) model.Transaction {
	return ix.txns[i]
}

// Label returns the cached normalized label at position i.
func (ix *Index) Label(i int) string {
	return ix.labels[i]
}

// Match returns the positions of all transactions satisfying the rule,
// in ascending order.
func (ix *Index) Match(rule model.Rule) []int {
	if text.Normalize(rule.Keyword1) == "" {
		return nil
	}
	candidates, narrowed := ix.candidates(rule.Keyword1)
	if narrowed && rule.Keyword2 != "" {
		if second, ok := ix.candidates(rule.Keyword2); ok {
			candidates = intersect(candidates, second)
		}
	}
	if !narrowed {
		candidates = make([]int, len(ix.txns))
		for i := range ix.txns {
			candidates[i] = i
		}
	}

	var matched []int
	for _, i := range candidates {
		if matchesLabel(rule, ix.labels[i], ix.txns[i]) {
			matched = append(matched, i)
		}
	}
	return matched
}

// CountMatching returns how many indexed transactions contain the keyword
// in their normalized label.
func (ix *Index) CountMatching(keyword string) int {
	return len(ix.MatchingKeyword(keyword))
}

// MatchingKeyword returns the positions of transactions whose normalized
// label contains the keyword as a substring.
func (ix *Index) MatchingKeyword(keyword string) []int {
	normalized := text.Normalize(keyword)
	if normalized == "" {
		return nil
	}
	candidates, narrowed := ix.candidates(normalized)
	if !narrowed {
		candidates = make([]int, len(ix.txns))
		for i := range ix.txns {
			candidates[i] = i
		}
	}
	var matched []int
	for _, i := range candidates {
		if strings.Contains(ix.labels[i], normalized) {
			matched = append(matched, i)
		}
	}
	return matched
}

// candidates prefilters by intersecting, per keyword token, the posting
// lists of every indexed token containing it. Any label that contains the
// keyword as a substring necessarily contains each keyword token inside
// one of its own tokens, so the prefilter is a strict superset of the true
// match set; the caller still verifies substring containment. It reports
// false only when the keyword yields no tokens at all.
func (ix *Index) candidates(keyword string) ([]int, bool) {
	tokens := text.Tokens(keyword)
	if len(tokens) == 0 {
		return nil, false
	}
	var result []int
	for i, token := range tokens {
		posting := ix.containing(token)
		if i == 0 {
			result = posting
		} else {
			result = intersect(result, posting)
		}
		if len(result) == 0 {
			return nil, true
		}
	}
	return result, true
}

// containing merges the posting lists of all indexed tokens that contain
// the given token as a substring. The vocabulary is far smaller than the
// transaction list, so the scan stays cheap.
func (ix *Index) containing(token string) []int {
	if posting, ok := ix.postings[token]; ok {
		// Fast path covers most lookups; embedded occurrences of the
		// token inside longer vocabulary entries are merged below.
		merged := append([]int(nil), posting...)
		for vocab, ids := range ix.postings {
			if vocab != token && strings.Contains(vocab, token) {
				merged = union(merged, ids)
			}
		}
		return merged
	}
	var merged []int
	for vocab, ids := range ix.postings {
		if strings.Contains(vocab, token) {
			merged = union(merged, ids)
		}
	}
	return merged
}

func union(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		default:
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// intersect merges two ascending posting lists.
func intersect(a, b []int) []int {
	var out []int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
