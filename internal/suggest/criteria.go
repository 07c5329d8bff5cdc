package suggest

import (
	"github.com/shopspring/decimal"

	"github.com/fecmatch/fecmatch/internal/model"
)

// inferCriteria recomputes, for every candidate, the transactions of the
// target account it actually matches and derives the optional journal and
// amount criteria from them. Candidates matching nothing are dropped.
func (s *Suggester) inferCriteria(candidates []candidate, target *snapshot) []candidate {
	out := candidates[:0]
	for _, c := range candidates {
		matched := target.matching(c.keyword1, c.keyword2)
		if len(matched) == 0 {
			continue
		}
		c.covered = len(matched)
		c.journal = sharedJournal(target, matched)
		c.amount = amountPattern(amountsOf(target, matched))
		out = append(out, c)
	}
	return out
}

// sharedJournal returns the journal code when every matched transaction
// carries the same one, otherwise "".
func sharedJournal(target *snapshot, matched []int) string {
	journal := ""
	for idx, i := range matched {
		code := target.txns[i].JournalCode
		if idx == 0 {
			journal = code
			continue
		}
		if journal != code {
			return ""
		}
	}
	return journal
}

func amountsOf(target *snapshot, matched []int) []decimal.Decimal {
	amounts := make([]decimal.Decimal, len(matched))
	for idx, i := range matched {
		amounts[idx] = target.txns[i].Amount
	}
	return amounts
}

// dominantShare is the fraction of matched amounts a single exact value
// must reach before it becomes an equality criterion.
const dominantShare = 0.95

// amountPattern derives an amount criterion from the matched amounts. A
// single exact value covering the dominant share wins (the strictest
// possible predicate); otherwise uniform sign yields a sign criterion.
// Anything else yields no criterion.
func amountPattern(amounts []decimal.Decimal) *model.AmountCriterion {
	if len(amounts) == 0 {
		return nil
	}

	// Distinct-value grouping by exact decimal equality.
	type valueCount struct {
		value decimal.Decimal
		count int
	}
	var groups []valueCount
	for _, a := range amounts {
		found := false
		for gi := range groups {
			if groups[gi].value.Equal(a) {
				groups[gi].count++
				found = true
				break
			}
		}
		if !found {
			groups = append(groups, valueCount{value: a, count: 1})
		}
	}
	best := groups[0]
	for _, g := range groups[1:] {
		if g.count > best.count {
			best = g
		}
	}
	if float64(best.count)/float64(len(amounts)) >= dominantShare {
		return &model.AmountCriterion{Operator: model.OpEqual, Value: best.value}
	}

	allPositive, allNegative := true, true
	for _, a := range amounts {
		if !a.IsPositive() {
			allPositive = false
		}
		if !a.IsNegative() {
			allNegative = false
		}
	}
	if allPositive {
		return &model.AmountCriterion{Operator: model.OpGreaterThan, Value: decimal.Zero}
	}
	if allNegative {
		return &model.AmountCriterion{Operator: model.OpLessThan, Value: decimal.Zero}
	}
	return nil
}
