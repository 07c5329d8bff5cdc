// Package group clusters the transactions of a counterpart account by
// label similarity so recurring patterns surface before any rule exists
// for them. Grouping is presentational; it feeds the accountant's review,
// not the matcher.
package group

import (
	"sort"
	"strings"

	"github.com/fecmatch/fecmatch/internal/model"
	"github.com/fecmatch/fecmatch/internal/text"
)

// Config tunes the clustering.
type Config struct {
	SimilarityThreshold float64 // 0-1 token-set similarity floor
	MinGroupSize        int     // smaller clusters are reported as singles
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.70,
		MinGroupSize:        3,
	}
}

// Group is one cluster of similar transactions within an account.
type Group struct {
	Pattern           string // display title derived from the common words
	SuggestedKeywords []string
	Transactions      []model.Transaction
}

// AccountGroups is the grouping result for one counterpart account.
type AccountGroups struct {
	Account string
	Groups  []Group
	Singles []model.Transaction
}

// Grouper clusters transactions. It holds no mutable state.
type Grouper struct {
	cfg Config
}

// NewGrouper creates a grouper with the given thresholds.
func NewGrouper(cfg Config) *Grouper {
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultConfig().SimilarityThreshold
	}
	if cfg.MinGroupSize <= 0 {
		cfg.MinGroupSize = DefaultConfig().MinGroupSize
	}
	return &Grouper{cfg: cfg}
}

// GroupByAccount segments the transactions by counterpart account and
// clusters each segment, returning accounts in ascending code order.
func (g *Grouper) GroupByAccount(txns []model.Transaction) []AccountGroups {
	byAccount := make(map[string][]model.Transaction)
	for _, t := range txns {
		account := t.CounterpartAccount
		if account == "" {
			account = model.UnknownAccount
		}
		byAccount[account] = append(byAccount[account], t)
	}

	accounts := make([]string, 0, len(byAccount))
	for account := range byAccount {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)

	out := make([]AccountGroups, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, g.groupAccount(account, byAccount[account]))
	}
	return out
}

// groupAccount clusters one account's transactions. Clusters reaching
// MinGroupSize become named groups with suggested keywords; the rest are
// reported individually.
func (g *Grouper) groupAccount(account string, txns []model.Transaction) AccountGroups {
	result := AccountGroups{Account: account}

	for _, cluster := range g.cluster(txns) {
		if len(cluster) < g.cfg.MinGroupSize {
			result.Singles = append(result.Singles, cluster...)
			continue
		}

		patterns := commonPatterns(labelsOf(cluster))
		pattern := "GROUPE"
		if len(patterns) == 1 {
			pattern = patterns[0]
		} else if len(patterns) >= 2 {
			pattern = patterns[0] + " & " + patterns[1]
		}
		keywords := patterns
		if len(keywords) > 3 {
			keywords = keywords[:3]
		}

		sort.SliceStable(cluster, func(i, j int) bool {
			return cluster[i].Amount.GreaterThan(cluster[j].Amount)
		})
		result.Groups = append(result.Groups, Group{
			Pattern:           pattern,
			SuggestedKeywords: keywords,
			Transactions:      cluster,
		})
	}
	return result
}

// cluster runs transitive breadth-first clustering: a transaction joins a
// cluster when its shape-normalized label is similar enough to any member
// already in it. Clusters come back largest first; formation order breaks
// size ties so results are stable across runs.
func (g *Grouper) cluster(txns []model.Transaction) [][]model.Transaction {
	shapes := make([]string, len(txns))
	for i, t := range txns {
		shapes[i] = text.Shape(t.Label)
	}

	visited := make([]bool, len(txns))
	var clusters [][]model.Transaction
	for i := range txns {
		if visited[i] {
			continue
		}
		visited[i] = true
		cluster := []model.Transaction{txns[i]}
		queue := []int{i}

		for len(queue) > 0 {
			ref := queue[0]
			queue = queue[1:]
			for j := range txns {
				if visited[j] {
					continue
				}
				if g.similar(shapes[ref], shapes[j]) {
					visited[j] = true
					cluster = append(cluster, txns[j])
					queue = append(queue, j)
				}
			}
		}
		clusters = append(clusters, cluster)
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return len(clusters[i]) > len(clusters[j])
	})
	return clusters
}

func (g *Grouper) similar(a, b string) bool {
	return float64(text.TokenSetRatio(a, b))/100.0 >= g.cfg.SimilarityThreshold
}

func labelsOf(txns []model.Transaction) []string {
	labels := make([]string, len(txns))
	for i, t := range txns {
		labels[i] = t.Label
	}
	return labels
}

// commonPatterns extracts the words shared by every label of a cluster.
// When no word spans the whole cluster it falls back to words present in
// at least half the labels, most frequent first, capped at three.
func commonPatterns(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}

	sets := make([]map[string]struct{}, len(labels))
	for i, label := range labels {
		sets[i] = keywordSet(label)
	}

	shared := make(map[string]struct{}, len(sets[0]))
	for w := range sets[0] {
		shared[w] = struct{}{}
	}
	for _, set := range sets[1:] {
		for w := range shared {
			if _, ok := set[w]; !ok {
				delete(shared, w)
			}
		}
	}
	if len(shared) > 0 {
		out := make([]string, 0, len(shared))
		for w := range shared {
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

	freq := make(map[string]int)
	for _, set := range sets {
		for w := range set {
			freq[w]++
		}
	}
	type wordCount struct {
		word  string
		count int
	}
	counted := make([]wordCount, 0, len(freq))
	for w, c := range freq {
		counted = append(counted, wordCount{word: w, count: c})
	}
	sort.Slice(counted, func(i, j int) bool {
		if counted[i].count != counted[j].count {
			return counted[i].count > counted[j].count
		}
		if len(counted[i].word) != len(counted[j].word) {
			return len(counted[i].word) > len(counted[j].word)
		}
		return counted[i].word < counted[j].word
	})

	var out []string
	for _, wc := range counted {
		if float64(wc.count) >= float64(len(labels))/2.0 {
			out = append(out, wc.word)
			if len(out) == 3 {
				break
			}
		}
	}
	return out
}

// keywordSet extracts the significant words of a shape-normalized label.
func keywordSet(label string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(text.Shape(label)) {
		if text.IsSignificant(w) {
			set[w] = struct{}{}
		}
	}
	return set
}
