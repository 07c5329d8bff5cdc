// Package stats computes coverage, automation and collision figures for a
// rule set over a transaction snapshot.
package stats

import (
	"math"
	"sort"

	"github.com/fecmatch/fecmatch/internal/match"
	"github.com/fecmatch/fecmatch/internal/model"
)

// RoundPercent applies the adaptive rounding used for all reported
// percentages: one decimal place, two below 0.1 so near-zero coverage is
// not reported as zero.
func RoundPercent(v float64) float64 {
	if v == 0 {
		return 0
	}
	if v < 0.1 {
		return math.Round(v*100) / 100
	}
	return math.Round(v*10) / 10
}

// coveredIDs unions the transaction positions matched by every active rule.
// A transaction matched by several rules counts once.
func coveredIDs(ix *match.Index, rules []model.Rule) map[int]struct{} {
	covered := make(map[int]struct{})
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		for _, i := range ix.Match(rule) {
			covered[i] = struct{}{}
		}
	}
	return covered
}

// ComputeAutomation returns the percentage of transactions matched by at
// least one active rule. An empty snapshot yields 0.
func ComputeAutomation(txns []model.Transaction, rules []model.Rule) float64 {
	if len(txns) == 0 {
		return 0
	}
	ix := match.NewIndex(txns)
	covered := coveredIDs(ix, rules)
	return RoundPercent(float64(len(covered)) / float64(len(txns)) * 100)
}

// ComputeAccountStats groups the snapshot by counterpart account and
// reports, per account, its share of all transactions and how much of it
// the active rules already cover. Results are sorted by group size
// descending, ties broken by account code.
func ComputeAccountStats(txns []model.Transaction, rules []model.Rule) []model.AccountStat {
	if len(txns) == 0 {
		return []model.AccountStat{}
	}
	ix := match.NewIndex(txns)
	covered := coveredIDs(ix, rules)

	type group struct {
		label   string
		members []int
	}
	groups := make(map[string]*group)
	for i, txn := range txns {
		account := txn.CounterpartAccount
		if account == "" {
			account = model.UnknownAccount
		}
		g, ok := groups[account]
		if !ok {
			g = &group{label: txn.AccountLabel}
			groups[account] = g
		}
		if g.label == "" {
			g.label = txn.AccountLabel
		}
		g.members = append(g.members, i)
	}

	total := float64(len(txns))
	result := make([]model.AccountStat, 0, len(groups))
	for account, g := range groups {
		size := float64(len(g.members))
		coveredCount := 0
		for _, i := range g.members {
			if _, ok := covered[i]; ok {
				coveredCount++
			}
		}
		coveredPct := float64(coveredCount) / size * 100
		remaining := 100 - coveredPct
		if remaining < 0 {
			remaining = 0
		}
		result = append(result, model.AccountStat{
			Account:      account,
			Label:        g.label,
			Count:        len(g.members),
			TotalPct:     RoundPercent(size / total * 100),
			CoveredPct:   RoundPercent(coveredPct),
			RemainingPct: RoundPercent(remaining),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Account < result[j].Account
	})
	return result
}

// ComputeCollisions counts the accounts claimed by more than one active
// rule. An account is one collision unit no matter how many rules overlap
// on it or how many transactions are involved.
func ComputeCollisions(txns []model.Transaction, rules []model.Rule) int {
	if len(txns) == 0 {
		return 0
	}
	ix := match.NewIndex(txns)

	rulesPerAccount := make(map[string]map[int]struct{})
	for ruleIdx, rule := range rules {
		if !rule.IsActive {
			continue
		}
		for _, i := range ix.Match(rule) {
			account := ix.Transaction(i).CounterpartAccount
			if account == "" {
				account = model.UnknownAccount
			}
			set, ok := rulesPerAccount[account]
			if !ok {
				set = make(map[int]struct{})
				rulesPerAccount[account] = set
			}
			set[ruleIdx] = struct{}{}
		}
	}

	collisions := 0
	for _, set := range rulesPerAccount {
		if len(set) > 1 {
			collisions++
		}
	}
	return collisions
}
