package suggest

import (
	"sort"
	"strings"

	"github.com/fecmatch/fecmatch/internal/common"
	"github.com/fecmatch/fecmatch/internal/text"
)

// commonNGrams returns the n-grams (up to maxWords words) of the first
// label that appear as substrings of every label in the snapshot, keeping
// only phrases whose words are all significant. Results are sorted for
// determinism: more words first, then longer, then lexicographic.
func commonNGrams(target *snapshot, maxWords int) []string {
	if len(target.labels) == 0 {
		return nil
	}
	var out []string
	for _, gram := range text.NGrams(target.labels[0], maxWords) {
		shared := true
		for _, label := range target.labels[1:] {
			if !strings.Contains(label, gram) {
				shared = false
				break
			}
		}
		if !shared {
			continue
		}
		significant := true
		for _, w := range strings.Fields(gram) {
			if !text.IsSignificant(w) {
				significant = false
				break
			}
		}
		if significant {
			out = append(out, gram)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		wi, wj := strings.Count(out[i], " "), strings.Count(out[j], " ")
		if wi != wj {
			return wi > wj
		}
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// thirdPartyCandidates handles vendor and customer accounts. The account
// label is a strong prior: phrases common to every transaction are scored
// against it with fuzzy similarity, and label words themselves are probed
// directly (including hyphenated-compound and domain-name forms observed
// in the labels) with a relaxed occurrence minimum.
func (s *Suggester) thirdPartyCandidates(account, accountLabel string, target *snapshot) []candidate {
	shared := commonNGrams(target, s.cfg.MaxNGramWords)

	if best := s.bestLabelMatch(accountLabel, shared); best != "" {
		return []candidate{{keyword1: best, covered: len(target.txns)}}
	}
	if len(shared) > 0 && len(target.txns) >= s.cfg.MinOccurrences {
		// No fuzzy agreement with the label; the most specific shared
		// phrase still identifies the counterparty. Unlike the
		// label-derived paths it carries no prior, so the usual
		// occurrence minimum applies.
		return []candidate{{keyword1: shared[0], covered: len(target.txns)}}
	}

	if cands := s.labelWordCandidates(accountLabel, target); len(cands) > 0 {
		return cands
	}
	if len(target.txns) < s.cfg.MinOccurrences {
		return nil
	}
	common.LogDebug("no third-party pattern, falling back to generic analysis", common.Fields{
		"account": account,
	})
	return s.genericCandidates(target)
}

// bestLabelMatch fuzzy-scores each shared phrase against the account
// label and returns the best one at or above the threshold. Scores use the
// larger of partial and token-set ratios, ties broken toward more words
// then longer phrases.
func (s *Suggester) bestLabelMatch(accountLabel string, shared []string) string {
	cleaned := fuzzyClean(accountLabel)
	if len([]rune(cleaned)) < 3 {
		return ""
	}
	best := ""
	bestScore := 0
	bestWords := 0
	for _, gram := range shared {
		gramClean := fuzzyClean(gram)
		score := text.PartialRatio(cleaned, gramClean)
		if ts := text.TokenSetRatio(cleaned, gramClean); ts > score {
			score = ts
		}
		if score < s.cfg.FuzzyThreshold {
			continue
		}
		words := strings.Count(gram, " ") + 1
		if score > bestScore ||
			(score == bestScore && words > bestWords) ||
			(score == bestScore && words == bestWords && len(gram) > len(best)) {
			best = gram
			bestScore = score
			bestWords = words
		}
	}
	return best
}

// fuzzyClean prepares a string for similarity comparison: normalized with
// hyphens and underscores opened into word boundaries.
func fuzzyClean(v string) string {
	n := text.Normalize(v)
	n = strings.ReplaceAll(n, "-", " ")
	n = strings.ReplaceAll(n, "_", " ")
	return strings.Join(strings.Fields(n), " ")
}

// labelWordCandidates derives candidates from the account label's own
// significant words. The label is a strong prior, so a single occurrence
// is enough to propose a keyword. Compound tokens in the transaction
// labels that embed the word (ACME-SARL, WWW.ACME.FR) are preferred over
// the bare word when they cover the same transactions.
func (s *Suggester) labelWordCandidates(accountLabel string, target *snapshot) []candidate {
	var out []candidate
	seen := make(map[string]struct{})
	for _, word := range text.Tokens(accountLabel) {
		if !text.IsSignificant(word) {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}

		matched := target.matching(word)
		if len(matched) == 0 {
			continue
		}
		keyword := word
		if compound := compoundForm(word, target, matched); compound != "" {
			keyword = compound
		}
		out = append(out, candidate{keyword1: keyword, covered: len(matched)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].covered != out[j].covered {
			return out[i].covered > out[j].covered
		}
		return out[i].keyword1 < out[j].keyword1
	})
	if len(out) > s.cfg.Limit {
		out = out[:s.cfg.Limit]
	}
	return out
}

// compoundForm looks for a single hyphenated or dotted token embedding the
// word that appears in every matched label, e.g. a domain name. The
// compound is more specific than the bare word without losing coverage.
func compoundForm(word string, target *snapshot, matched []int) string {
	var compound string
	for _, i := range matched {
		found := ""
		for _, tok := range strings.Fields(target.labels[i]) {
			if tok != word && strings.Contains(tok, word) &&
				(strings.Contains(tok, "-") || strings.Contains(tok, ".")) {
				found = tok
				break
			}
		}
		if found == "" {
			return ""
		}
		if compound == "" {
			compound = found
		} else if compound != found {
			return ""
		}
	}
	return compound
}
