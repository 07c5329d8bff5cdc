package suggest

import (
	"strings"

	"github.com/fecmatch/fecmatch/internal/text"
)

// payrollCandidates handles personnel accounts. An individual account is
// identified by a phrase common to every label, preferably a two-word
// alphabetic sequence (first and last name). Collective accounts fall back
// to frequency counting of recurring names across labels.
func (s *Suggester) payrollCandidates(target *snapshot) []candidate {
	shared := commonNGrams(target, 3)

	// Name heuristic: exactly two purely alphabetic words.
	bestName := ""
	for _, gram := range shared {
		words := strings.Fields(gram)
		if len(words) != 2 {
			continue
		}
		if !text.IsAlpha(words[0]) || !text.IsAlpha(words[1]) {
			continue
		}
		if len(gram) > len(bestName) {
			bestName = gram
		}
	}

	switch {
	case bestName != "":
		return []candidate{{keyword1: bestName, covered: len(target.txns)}}
	case len(shared) > 0:
		return []candidate{{keyword1: shared[0], covered: len(target.txns)}}
	}
	return s.collectivePayrollCandidates(target)
}

// collectivePayrollCandidates counts recurring single words and
// consecutive word pairs across all labels of a collective personnel
// account (several employees paid from one account).
func (s *Suggester) collectivePayrollCandidates(target *snapshot) []candidate {
	counts := make(map[string]int)
	for _, label := range target.labels {
		words := strings.Fields(label)
		seen := make(map[string]struct{})
		for i := 0; i < len(words)-1; i++ {
			if text.IsSignificant(words[i]) && text.IsSignificant(words[i+1]) {
				pair := words[i] + " " + words[i+1]
				if _, ok := seen[pair]; !ok {
					seen[pair] = struct{}{}
					counts[pair]++
				}
			}
		}
		for _, w := range words {
			if text.IsSignificant(w) {
				if _, ok := seen[w]; !ok {
					seen[w] = struct{}{}
					counts[w]++
				}
			}
		}
	}

	var out []candidate
	for _, kc := range topCounted(counts, 3) {
		if kc.count < s.cfg.MinOccurrences {
			continue
		}
		out = append(out, candidate{keyword1: kc.keyword, covered: kc.count})
	}
	return out
}
