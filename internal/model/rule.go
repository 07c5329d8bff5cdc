package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AmountOperator identifies the comparison applied by an amount criterion.
type AmountOperator string

// Amount operator constants.
const (
	OpEqual        AmountOperator = "="
	OpNotEqual     AmountOperator = "!="
	OpLessThan     AmountOperator = "<"
	OpGreaterThan  AmountOperator = ">"
	OpLessEqual    AmountOperator = "<="
	OpGreaterEqual AmountOperator = ">="
	OpBetween      AmountOperator = "between"
)

// ParseAmountOperator validates an operator string.
func ParseAmountOperator(s string) (AmountOperator, error) {
	op := AmountOperator(strings.TrimSpace(s))
	switch op {
	case OpEqual, OpNotEqual, OpLessThan, OpGreaterThan, OpLessEqual, OpGreaterEqual, OpBetween:
		return op, nil
	}
	return "", fmt.Errorf("unknown amount operator %q", s)
}

// AmountCriterion is an optional numeric predicate on a rule. For "between",
// Low and High are the inclusive bounds and Value is unused; every other
// operator compares against Value.
type AmountCriterion struct {
	Operator AmountOperator
	Value    decimal.Decimal
	Low      decimal.Decimal
	High     decimal.Decimal
}

// Validate rejects malformed criteria at construction time. Unknown
// operators never reach the matcher through this path.
func (c *AmountCriterion) Validate() error {
	if _, err := ParseAmountOperator(string(c.Operator)); err != nil {
		return err
	}
	if c.Operator == OpBetween && c.Low.GreaterThan(c.High) {
		return fmt.Errorf("between bounds inverted: %s > %s", c.Low, c.High)
	}
	return nil
}

// String renders the criterion in the form stored and displayed, e.g.
// "> 0" or "= -500".
func (c *AmountCriterion) String() string {
	if c == nil {
		return ""
	}
	if c.Operator == OpBetween {
		return fmt.Sprintf("between %s %s", c.Low, c.High)
	}
	return fmt.Sprintf("%s %s", c.Operator, c.Value)
}

// Rule is a user-authored or suggested predicate mapping matching
// transactions to a destination ledger account. A rule with an empty
// Keyword1 never matches anything.
type Rule struct {
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Amount             *AmountCriterion
	Name               string
	Keyword1           string
	Keyword2           string // optional; ANDed with Keyword1 when set
	JournalCode        string // optional equality filter; empty means no filter
	DestinationAccount string
	ID                 int
	IsActive           bool
}

// KeywordCount returns the number of keywords the rule uses (1 or 2).
func (r *Rule) KeywordCount() int {
	if r.Keyword2 != "" {
		return 2
	}
	return 1
}

// KeywordLength returns the combined character length of the keywords,
// used as a specificity proxy when ranking.
func (r *Rule) KeywordLength() int {
	return len(r.Keyword1) + len(r.Keyword2)
}

// Validate checks that a rule is well-formed enough to persist. An empty
// Keyword1 is not an error (the matcher fails closed on it) but a
// malformed amount criterion is.
func (r *Rule) Validate() error {
	if r.DestinationAccount == "" {
		return fmt.Errorf("rule %q has no destination account", r.Name)
	}
	if r.Amount != nil {
		if err := r.Amount.Validate(); err != nil {
			return fmt.Errorf("rule %q: %w", r.Name, err)
		}
	}
	return nil
}
