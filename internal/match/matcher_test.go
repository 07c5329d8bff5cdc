package match

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/fecmatch/fecmatch/internal/model"
)

func amountCriterion(op model.AmountOperator, value string) *model.AmountCriterion {
	return &model.AmountCriterion{Operator: op, Value: decimal.RequireFromString(value)}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name string
		rule model.Rule
		txn  model.Transaction
		want bool
	}{
		{
			name: "case insensitive substring",
			rule: model.Rule{Keyword1: "FACTURE"},
			txn:  model.Transaction{Label: "Paiement facture 123", JournalCode: "AC"},
			want: true,
		},
		{
			name: "journal mismatch",
			rule: model.Rule{Keyword1: "FACTURE", JournalCode: "BQ"},
			txn:  model.Transaction{Label: "Paiement facture 123", JournalCode: "AC"},
			want: false,
		},
		{
			name: "journal unset means no filter",
			rule: model.Rule{Keyword1: "LOYER"},
			txn:  model.Transaction{Label: "VIREMENT LOYER JANVIER", JournalCode: "BQ"},
			want: true,
		},
		{
			name: "empty keyword never matches",
			rule: model.Rule{Keyword1: "", JournalCode: "BQ"},
			txn:  model.Transaction{Label: "VIREMENT LOYER", JournalCode: "BQ"},
			want: false,
		},
		{
			name: "whitespace keyword never matches",
			rule: model.Rule{Keyword1: "   "},
			txn:  model.Transaction{Label: "VIR EDF", JournalCode: "BQ"},
			want: false,
		},
		{
			name: "second keyword is ANDed",
			rule: model.Rule{Keyword1: "LOYER", Keyword2: "JANVIER"},
			txn:  model.Transaction{Label: "VIREMENT LOYER FEVRIER"},
			want: false,
		},
		{
			name: "both keywords present",
			rule: model.Rule{Keyword1: "LOYER", Keyword2: "JANVIER"},
			txn:  model.Transaction{Label: "VIREMENT LOYER JANVIER"},
			want: true,
		},
		{
			name: "accent folded label",
			rule: model.Rule{Keyword1: "ECHEANCE PRET"},
			txn:  model.Transaction{Label: "Échéance prêt n°404049"},
			want: true,
		},
		{
			name: "amount greater equal boundary",
			rule: model.Rule{Keyword1: "X", Amount: amountCriterion(model.OpGreaterEqual, "100.0")},
			txn:  model.Transaction{Label: "X", Amount: decimal.RequireFromString("100.0")},
			want: true,
		},
		{
			name: "amount greater equal below boundary",
			rule: model.Rule{Keyword1: "X", Amount: amountCriterion(model.OpGreaterEqual, "100.0")},
			txn:  model.Transaction{Label: "X", Amount: decimal.RequireFromString("99.99")},
			want: false,
		},
		{
			name: "amount equality on negative value",
			rule: model.Rule{Keyword1: "LOYER", Amount: amountCriterion(model.OpEqual, "-500")},
			txn:  model.Transaction{Label: "VIREMENT LOYER", Amount: decimal.RequireFromString("-500.00")},
			want: true,
		},
		{
			name: "between is inclusive",
			rule: model.Rule{Keyword1: "X", Amount: &model.AmountCriterion{
				Operator: model.OpBetween,
				Low:      decimal.RequireFromString("10"),
				High:     decimal.RequireFromString("50"),
			}},
			txn:  model.Transaction{Label: "X", Amount: decimal.RequireFromString("50")},
			want: true,
		},
		{
			name: "between above high bound",
			rule: model.Rule{Keyword1: "X", Amount: &model.AmountCriterion{
				Operator: model.OpBetween,
				Low:      decimal.RequireFromString("10"),
				High:     decimal.RequireFromString("50"),
			}},
			txn:  model.Transaction{Label: "X", Amount: decimal.RequireFromString("50.01")},
			want: false,
		},
		{
			name: "unknown operator fails closed",
			rule: model.Rule{Keyword1: "X", Amount: &model.AmountCriterion{Operator: "~="}},
			txn:  model.Transaction{Label: "X"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.rule, tt.txn))
		})
	}
}

func TestTestRuleSet(t *testing.T) {
	txns := []model.Transaction{
		{ID: "1", Label: "VIR LOYER JANVIER"},
		{ID: "2", Label: "VIR EDF"},
		{ID: "3", Label: "VIR LOYER FEVRIER"},
	}

	matched := TestRuleSet(model.Rule{Keyword1: "LOYER"}, txns)
	ids := make([]string, len(matched))
	for i, m := range matched {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"1", "3"}, ids)

	// Empty keyword yields an empty, non-nil set.
	assert.Empty(t, TestRuleSet(model.Rule{}, txns))

	// So does a keyword that normalizes to nothing.
	assert.Empty(t, TestRuleSet(model.Rule{Keyword1: " "}, txns))
}

func TestIndexMatchAgreesWithMatcher(t *testing.T) {
	txns := []model.Transaction{
		{ID: "1", Label: "ECHEANCE PRET 404049", JournalCode: "BQ", Amount: decimal.RequireFromString("-1200")},
		{ID: "2", Label: "REF404049X REMBOURSEMENT", JournalCode: "BQ", Amount: decimal.RequireFromString("-1200")},
		{ID: "3", Label: "VIR SEPA EDF", JournalCode: "BQ", Amount: decimal.RequireFromString("-80")},
		{ID: "4", Label: "Écheance prêt 404049 bis", JournalCode: "AC", Amount: decimal.RequireFromString("300")},
	}
	ix := NewIndex(txns)

	rules := []model.Rule{
		{Keyword1: "404049"},
		{Keyword1: "404049", JournalCode: "BQ"},
		{Keyword1: "ECHEANCE PRET", Keyword2: "404049"},
		{Keyword1: "EDF", Amount: amountCriterion(model.OpLessThan, "0")},
		{Keyword1: "ABSENT"},
		{Keyword1: "  "},
	}

	for _, rule := range rules {
		var want []int
		for i, txn := range txns {
			if Matches(rule, txn) {
				want = append(want, i)
			}
		}
		assert.Equal(t, want, ix.Match(rule), "rule %+v", rule)
	}

	// Keyword embedded inside a longer token is still found.
	assert.Equal(t, []int{0, 1, 3}, ix.MatchingKeyword("404049"))
	assert.Equal(t, 3, ix.CountMatching("404049"))
}
