package suggest

import (
	"sort"
	"strconv"

	"github.com/fecmatch/fecmatch/internal/text"
)

// genericCandidates is the fallback n-gram frequency analysis for account
// classes with no dedicated heuristic. Every n-gram of every label is
// counted by document frequency; frequent ones are deduplicated by the
// exact transaction set they cover (keeping the longest phrasing) and the
// top three survive.
func (s *Suggester) genericCandidates(target *snapshot) []candidate {
	if len(target.txns) < s.cfg.MinOccurrences {
		return nil
	}

	counts := make(map[string]int)
	coverage := make(map[string][]int)
	for i, label := range target.labels {
		for _, gram := range text.NGrams(label, s.cfg.MaxNGramWords) {
			counts[gram]++
			coverage[gram] = append(coverage[gram], i)
		}
	}

	frequent := make([]keywordCount, 0, len(counts))
	for gram, count := range counts {
		if count >= s.cfg.MinOccurrences {
			frequent = append(frequent, keywordCount{keyword: gram, count: count})
		}
	}
	sort.Slice(frequent, func(i, j int) bool {
		if frequent[i].count != frequent[j].count {
			return frequent[i].count > frequent[j].count
		}
		if len(frequent[i].keyword) != len(frequent[j].keyword) {
			return len(frequent[i].keyword) > len(frequent[j].keyword)
		}
		return frequent[i].keyword < frequent[j].keyword
	})
	if len(frequent) > 10 {
		frequent = frequent[:10]
	}

	// Deduplicate patterns covering the identical transaction set,
	// preferring the longer and therefore more specific phrasing.
	var selected []keywordCount
	for _, kc := range frequent {
		key := coverageKey(coverage[kc.keyword])
		replaced := false
		duplicate := false
		for si, sel := range selected {
			if coverageKey(coverage[sel.keyword]) != key {
				continue
			}
			duplicate = true
			if len(kc.keyword) > len(sel.keyword) {
				selected[si] = kc
				replaced = true
			}
			break
		}
		if !duplicate && !replaced {
			selected = append(selected, kc)
		}
	}
	if len(selected) > 3 {
		selected = selected[:3]
	}

	out := make([]candidate, 0, len(selected))
	for _, kc := range selected {
		out = append(out, candidate{keyword1: kc.keyword, covered: kc.count})
	}
	return out
}

// coverageKey folds a sorted position list into a comparable string.
func coverageKey(positions []int) string {
	key := make([]byte, 0, len(positions)*4)
	for _, p := range positions {
		key = strconv.AppendInt(key, int64(p), 10)
		key = append(key, ',')
	}
	return string(key)
}
