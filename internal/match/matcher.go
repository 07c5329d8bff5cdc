// Package match evaluates affectation rules against bank transactions.
//
// Matching is pure and deterministic: a rule matches a transaction when its
// first keyword (and the second one, if set) appears in the normalized
// label, the optional journal filter agrees and the optional amount
// criterion holds. A rule whose first keyword is empty after
// normalization never matches.
package match

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fecmatch/fecmatch/internal/model"
	"github.com/fecmatch/fecmatch/internal/text"
)

// Matches evaluates one rule against one transaction.
func Matches(rule model.Rule, txn model.Transaction) bool {
	return matchesLabel(rule, text.Normalize(txn.Label), txn)
}

// matchesLabel is the single-transaction check against an already
// normalized label. Criteria short-circuit in order: keywords, journal,
// amount.
func matchesLabel(rule model.Rule, label string, txn model.Transaction) bool {
	keyword1 := text.Normalize(rule.Keyword1)
	if keyword1 == "" {
		// Covers whitespace-only keywords too: normalization collapses
		// them to "", which Contains would match everywhere.
		return false // fails closed, never open
	}
	if !strings.Contains(label, keyword1) {
		return false
	}
	if rule.Keyword2 != "" && !strings.Contains(label, text.Normalize(rule.Keyword2)) {
		return false
	}
	if rule.JournalCode != "" && rule.JournalCode != txn.JournalCode {
		return false
	}
	if rule.Amount != nil && !matchesAmount(rule.Amount, txn.Amount) {
		return false
	}
	return true
}

// matchesAmount evaluates the amount criterion. An operator that escaped
// construction-time validation fails closed rather than matching
// everything.
func matchesAmount(c *model.AmountCriterion, amount decimal.Decimal) bool {
	switch c.Operator {
	case model.OpEqual:
		return amount.Equal(c.Value)
	case model.OpNotEqual:
		return !amount.Equal(c.Value)
	case model.OpLessThan:
		return amount.LessThan(c.Value)
	case model.OpGreaterThan:
		return amount.GreaterThan(c.Value)
	case model.OpLessEqual:
		return amount.LessThanOrEqual(c.Value)
	case model.OpGreaterEqual:
		return amount.GreaterThanOrEqual(c.Value)
	case model.OpBetween:
		return amount.GreaterThanOrEqual(c.Low) && amount.LessThanOrEqual(c.High)
	}
	return false
}

// TestRuleSet applies the rule to every transaction and returns the
// matches. The full input is always processed.
func TestRuleSet(rule model.Rule, txns []model.Transaction) []model.Transaction {
	matched := make([]model.Transaction, 0)
	for _, txn := range txns {
		if Matches(rule, txn) {
			matched = append(matched, txn)
		}
	}
	return matched
}
