// Package suggest discovers candidate affectation rules for a destination
// account from its historical bank transactions.
//
// The pipeline is: account-type specific candidate generation, journal and
// amount criterion inference, cross-account collision detection, greedy
// second-keyword refinement of colliding candidates, then ranking. A
// candidate that still collides after refinement is discarded: a rule that
// fires on transactions destined for other accounts would silently
// misclassify them.
package suggest

import (
	"strings"

	"github.com/fecmatch/fecmatch/internal/common"
	"github.com/fecmatch/fecmatch/internal/match"
	"github.com/fecmatch/fecmatch/internal/model"
	"github.com/fecmatch/fecmatch/internal/text"
)

// Config carries the empirically tuned thresholds of the discovery
// pipeline. They are configuration, not invariants.
type Config struct {
	MinOccurrences int // minimum transactions for a pattern to be significant
	FuzzyThreshold int // 0-100 similarity floor for label matching
	Limit          int // suggestions returned per account
	MaxNGramWords  int // longest candidate phrase, in words
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		MinOccurrences: 3,
		FuzzyThreshold: 80,
		Limit:          3,
		MaxNGramWords:  5,
	}
}

// Suggester runs the rule discovery pipeline. It holds no mutable state;
// each call operates on its own transaction snapshot.
type Suggester struct {
	cfg Config
}

// NewSuggester creates a suggester with the given thresholds.
func NewSuggester(cfg Config) *Suggester {
	if cfg.MinOccurrences <= 0 {
		cfg.MinOccurrences = DefaultConfig().MinOccurrences
	}
	if cfg.FuzzyThreshold <= 0 {
		cfg.FuzzyThreshold = DefaultConfig().FuzzyThreshold
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultConfig().Limit
	}
	if cfg.MaxNGramWords <= 0 {
		cfg.MaxNGramWords = DefaultConfig().MaxNGramWords
	}
	return &Suggester{cfg: cfg}
}

// candidate is a rule hypothesis under evaluation.
type candidate struct {
	amount         *model.AmountCriterion
	keyword1       string
	keyword2       string
	journal        string
	covered        int // target-account transactions matched
	collisionCount int // cross-account matches observed before refinement
	collides       bool
}

// rule materializes the candidate as a matchable rule.
func (c *candidate) rule(account string) model.Rule {
	return model.Rule{
		Keyword1:           c.keyword1,
		Keyword2:           c.keyword2,
		JournalCode:        c.journal,
		Amount:             c.amount,
		DestinationAccount: account,
	}
}

// snapshot caches normalized labels for one transaction list.
type snapshot struct {
	txns   []model.Transaction
	labels []string
}

func newSnapshot(txns []model.Transaction) *snapshot {
	s := &snapshot{txns: txns, labels: make([]string, len(txns))}
	for i, txn := range txns {
		s.labels[i] = text.Normalize(txn.Label)
	}
	return s
}

// matching returns the positions whose label contains every keyword.
func (s *snapshot) matching(keywords ...string) []int {
	var out []int
outer:
	for i, label := range s.labels {
		for _, kw := range keywords {
			if kw != "" && !strings.Contains(label, kw) {
				continue outer
			}
		}
		out = append(out, i)
	}
	return out
}

// SuggestForAccount analyzes one destination account and proposes up to
// cfg.Limit collision-free rules. accountTxns is the account's own history
// and allTxns the full snapshot used for collision scanning. Accounts with
// fewer than MinOccurrences transactions yield no suggestions, except
// vendor/customer accounts whose label provides a strong enough prior to
// attempt a relaxed match.
func (s *Suggester) SuggestForAccount(account, accountLabel string, accountTxns, allTxns []model.Transaction) []model.SuggestedRule {
	target := newSnapshot(accountTxns)

	if len(accountTxns) < s.cfg.MinOccurrences && !isThirdPartyAccount(account) {
		common.LogDebug("account below occurrence threshold", common.Fields{
			"account": account, "transactions": len(accountTxns),
		})
		return nil
	}

	candidates := s.generate(account, accountLabel, target)
	candidates = s.inferCriteria(candidates, target)

	ix := match.NewIndex(allTxns)
	candidates = s.checkCollisions(candidates, account, ix)
	candidates = s.refine(candidates, account, target, ix)

	kept := candidates[:0]
	for _, c := range candidates {
		if !c.collides {
			kept = append(kept, c)
		}
	}

	ranked := rankAndSelect(kept, s.cfg.Limit)

	suggestions := make([]model.SuggestedRule, 0, len(ranked))
	for _, c := range ranked {
		sr := model.SuggestedRule{
			Rule:           c.rule(account),
			CoverageCount:  c.covered,
			CollisionCount: c.collisionCount,
		}
		sr.Name = account + " - " + c.keyword1
		if len(accountTxns) > 0 {
			sr.CoverageRatio = float64(c.covered) / float64(len(accountTxns))
		}
		if c.covered > 0 {
			sr.CollisionRatio = float64(c.collisionCount) / float64(c.covered)
		}
		sr.CompositeScore = sr.Score()
		suggestions = append(suggestions, sr)
	}
	return suggestions
}
