package model

// SuggestedRule is a transient rule candidate produced by the suggestion
// engine, carrying provenance metadata. It is either promoted to a
// persisted Rule by the caller or discarded.
type SuggestedRule struct {
	Rule
	CoverageCount  int     // transactions covered within the target account
	CollisionCount int     // cross-account matches observed before refinement
	CoverageRatio  float64 // CoverageCount / target account size
	CollisionRatio float64 // CollisionCount / CoverageCount
	CompositeScore float64 // max(0, CoverageRatio - CollisionRatio)
}

// Score recomputes the composite score from the two provenance ratios.
func (s *SuggestedRule) Score() float64 {
	score := s.CoverageRatio - s.CollisionRatio
	if score < 0 {
		return 0
	}
	return score
}

// AccountStat summarizes rule coverage for one counterpart account.
// Percentages use adaptive rounding: one decimal, two below 0.1.
type AccountStat struct {
	Account      string
	Label        string
	Count        int
	TotalPct     float64 // share of this account in all transactions
	CoveredPct   float64 // share of this account matched by active rules
	RemainingPct float64 // 100 - CoveredPct, clamped at 0
}
