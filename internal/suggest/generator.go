package suggest

import (
	"regexp"
	"sort"
	"strings"

	"github.com/fecmatch/fecmatch/internal/common"
)

// Account-class prefixes of the French chart of accounts. Dispatch order
// matters: the more specific prefixes must be probed before their parents
// (431 before 43, 44551 before 4455).
func isThirdPartyAccount(account string) bool {
	return strings.HasPrefix(account, "401") || strings.HasPrefix(account, "411")
}

// generate produces keyword candidates for the account using the
// heuristic suited to its account class.
func (s *Suggester) generate(account, accountLabel string, target *snapshot) []candidate {
	common.LogDebug("generating candidates", common.Fields{
		"account": account, "transactions": len(target.txns),
	})

	switch {
	case strings.HasPrefix(account, "164"):
		return s.loanCandidates(target)
	case isThirdPartyAccount(account):
		return s.thirdPartyCandidates(account, accountLabel, target)
	case strings.HasPrefix(account, "421"), strings.HasPrefix(account, "42"):
		return s.payrollCandidates(target)
	case strings.HasPrefix(account, "431"):
		return s.urssafCandidates(target)
	case strings.HasPrefix(account, "43"):
		return s.vocabularyCandidates(target, socialVocabulary, 3)
	case strings.HasPrefix(account, "4421"):
		return s.vocabularyCandidates(target, withholdingVocabulary, 3)
	case strings.HasPrefix(account, "44551"), strings.HasPrefix(account, "4455"):
		return s.vocabularyCandidates(target, vatVocabulary, 3)
	case strings.HasPrefix(account, "63511"):
		return s.vocabularyCandidates(target, localTaxVocabulary, 0)
	default:
		return s.genericCandidates(target)
	}
}

// Fixed vocabularies for the administrative account classes. Each entry is
// a known abbreviation or declaration code observed on bank statements.
var (
	socialVocabulary      = []string{"URSSAF", "MALAKOFF", "KLESIA", "AGIRC", "ARRCO", "POLE EMPLOI", "CPAM"}
	withholdingVocabulary = []string{"PASDSN"}
	vatVocabulary         = []string{"3517SCA12", "3310CA3", "TVA"}
	localTaxVocabulary    = []string{"CFE", "CVAE"}
)

var digitSequence = regexp.MustCompile(`[0-9]{6,}`)

// loanCandidates extracts recurring long digit sequences (loan contract
// references) from the labels. Each sequence counts once per label.
func (s *Suggester) loanCandidates(target *snapshot) []candidate {
	counts := make(map[string]int)
	for _, label := range target.labels {
		seen := make(map[string]struct{})
		for _, seq := range digitSequence.FindAllString(label, -1) {
			if _, ok := seen[seq]; ok {
				continue
			}
			seen[seq] = struct{}{}
			counts[seq]++
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

var urssafCode = regexp.MustCompile(`UR[0-9]+`)

// urssafCandidates looks for recurring URSSAF payer codes ("UR" followed
// by digits); if none recurs often enough, it falls back to the plain
// organization name.
func (s *Suggester) urssafCandidates(target *snapshot) []candidate {
	counts := make(map[string]int)
	for _, label := range target.labels {
		seen := make(map[string]struct{})
		for _, code := range urssafCode.FindAllString(label, -1) {
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			counts[code]++
		}
	}

	var out []candidate
	for _, kc := range topCounted(counts, 3) {
		if kc.count < s.cfg.MinOccurrences {
			continue
		}
		out = append(out, candidate{keyword1: kc.keyword, covered: kc.count})
	}
	if len(out) == 0 {
		if n := len(target.matching("URSSAF")); n >= s.cfg.MinOccurrences {
			out = append(out, candidate{keyword1: "URSSAF", covered: n})
		}
	}
	return out
}

// vocabularyCandidates matches the labels against a fixed domain
// vocabulary. limit of 0 keeps every qualifying entry.
func (s *Suggester) vocabularyCandidates(target *snapshot, vocabulary []string, limit int) []candidate {
	var out []candidate
	for _, word := range vocabulary {
		n := len(target.matching(word))
		if n < s.cfg.MinOccurrences {
			continue
		}
		out = append(out, candidate{keyword1: word, covered: n})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

type keywordCount struct {
	keyword string
	count   int
}

// topCounted orders a count map by frequency descending, longer then
// lexicographically smaller keywords first on ties, and returns up to n
// entries. Map iteration order never leaks into results.
func topCounted(counts map[string]int, n int) []keywordCount {
	out := make([]keywordCount, 0, len(counts))
	for k, c := range counts {
		out = append(out, keywordCount{keyword: k, count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		if len(out[i].keyword) != len(out[j].keyword) {
			return len(out[i].keyword) > len(out[j].keyword)
		}
		return out[i].keyword < out[j].keyword
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
