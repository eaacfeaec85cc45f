// Package trace provides per-match recording for tournament analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// PlayerRecord captures one side of a finished match.
type PlayerRecord struct {
	Strategy     string
	RawScore     float64
	Payment      float64
	ROITarget    float64
	Wins         int
	FinalScore   float64
	Disqualified bool
}

// MatchRecord captures a single finished match.
type MatchRecord struct {
	Index   int
	Auction string
	Rounds  int
	Players [2]PlayerRecord
}
