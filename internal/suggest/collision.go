package suggest

import (
	"sort"
	"strings"

	"github.com/fecmatch/fecmatch/internal/common"
	"github.com/fecmatch/fecmatch/internal/match"
	"github.com/fecmatch/fecmatch/internal/text"
)

// checkCollisions scans, for each candidate, every transaction belonging
// to a different counterpart account; any that satisfies all the
// candidate's criteria flags the candidate as colliding.
func (s *Suggester) checkCollisions(candidates []candidate, account string, ix *match.Index) []candidate {
	for ci := range candidates {
		candidates[ci].collisionCount = s.countCrossMatches(&candidates[ci], account, ix)
		candidates[ci].collides = candidates[ci].collisionCount > 0
		if candidates[ci].collides {
			common.LogDebug("candidate collides", common.Fields{
				"keyword":    candidates[ci].keyword1,
				"collisions": candidates[ci].collisionCount,
			})
		}
	}
	return candidates
}

// countCrossMatches counts matches outside the target account.
func (s *Suggester) countCrossMatches(c *candidate, account string, ix *match.Index) int {
	count := 0
	for _, i := range ix.Match(c.rule(account)) {
		if ix.Transaction(i).CounterpartAccount != account {
			count++
		}
	}
	return count
}

// refine attempts to rescue each colliding candidate by adding a second
// keyword drawn from the words common to every target transaction the
// candidate already matches. Words are tried longest first (greedy,
// first success wins); the second keyword is common to all matched labels
// so target coverage is preserved by construction. Candidates that cannot
// be disambiguated stay flagged and are discarded by the caller.
func (s *Suggester) refine(candidates []candidate, account string, target *snapshot, ix *match.Index) []candidate {
	out := candidates[:0]
	for _, c := range candidates {
		if !c.collides {
			out = append(out, c)
			continue
		}

		matched := target.matching(c.keyword1)
		if len(matched) == 0 {
			continue
		}

		refined := false
		for _, word := range secondKeywordCandidates(c.keyword1, target, matched) {
			trial := c
			trial.keyword2 = word
			if s.countCrossMatches(&trial, account, ix) > 0 {
				continue
			}
			trial.collides = false
			rescued := s.inferCriteria([]candidate{trial}, target)
			if len(rescued) == 1 {
				common.LogDebug("collision resolved with second keyword", common.Fields{
					"keyword1": c.keyword1, "keyword2": word,
				})
				rescued[0].collisionCount = c.collisionCount
				out = append(out, rescued[0])
				refined = true
			}
			break
		}
		if !refined {
			common.LogDebug("candidate discarded, collision not resolvable", common.Fields{
				"keyword": c.keyword1,
			})
		}
	}
	return out
}

// secondKeywordCandidates returns the words present in every matched
// label, excluding the words of the first keyword, ordered longest first
// with lexicographic tie-breaks for determinism.
func secondKeywordCandidates(keyword1 string, target *snapshot, matched []int) []string {
	common := make(map[string]struct{})
	for idx, i := range matched {
		words := make(map[string]struct{})
		for _, w := range strings.Fields(target.labels[i]) {
			words[w] = struct{}{}
		}
		if idx == 0 {
			common = words
			continue
		}
		for w := range common {
			if _, ok := words[w]; !ok {
				delete(common, w)
			}
		}
	}

	exclude := make(map[string]struct{})
	for _, w := range strings.Fields(keyword1) {
		exclude[w] = struct{}{}
	}

	var out []string
	for w := range common {
		if _, ok := exclude[w]; ok {
			continue
		}
		if len([]rune(w)) < 3 || text.IsDigits(w) {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}
