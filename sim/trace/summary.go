package trace

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// StrategySummary aggregates one strategy's matches.
type StrategySummary struct {
	Matches          int
	Disqualified     int
	Wins             int // rounds won across all matches
	MeanFinalScore   float64
	StdDevFinalScore float64 // sample standard deviation; 0 with fewer than two matches
}

// TraceSummary aggregates statistics from a TournamentTrace.
type TraceSummary struct {
	TotalMatches       int
	TotalRounds        int
	DisqualifiedCount  int // player-matches zeroed by the ROI rule
	StrategyBreakdown  map[string]*StrategySummary
	AuctionMatchCounts map[string]int
}

// Summarize computes aggregate statistics from a TournamentTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(tt *TournamentTrace) *TraceSummary {
	summary := &TraceSummary{
		StrategyBreakdown:  make(map[string]*StrategySummary),
		AuctionMatchCounts: make(map[string]int),
	}
	if tt == nil {
		return summary
	}

	finals := make(map[string][]float64)
	summary.TotalMatches = len(tt.Matches)
	for _, m := range tt.Matches {
		summary.TotalRounds += m.Rounds
		summary.AuctionMatchCounts[m.Auction]++
		for _, p := range m.Players {
			s, ok := summary.StrategyBreakdown[p.Strategy]
			if !ok {
				s = &StrategySummary{}
				summary.StrategyBreakdown[p.Strategy] = s
			}
			s.Matches++
			s.Wins += p.Wins
			if p.Disqualified {
				s.Disqualified++
				summary.DisqualifiedCount++
			}
			finals[p.Strategy] = append(finals[p.Strategy], p.FinalScore)
		}
	}

	for name, scores := range finals {
		s := summary.StrategyBreakdown[name]
		if len(scores) > 1 {
			s.MeanFinalScore, s.StdDevFinalScore = stat.MeanStdDev(scores, nil)
		} else {
			s.MeanFinalScore = scores[0]
		}
	}

	return summary
}

// SortedStrategies returns the strategy names in the breakdown, sorted.
func (s *TraceSummary) SortedStrategies() []string {
	names := make([]string, 0, len(s.StrategyBreakdown))
	for name := range s.StrategyBreakdown {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
