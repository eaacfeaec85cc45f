package sim

import (
	"iter"
	"math/rand"
)

// BidRecord is one player's outcome for one round.
type BidRecord struct {
	Valuation float64
	Bid       float64 // effective bid, after clamping to >= 0
	Won       bool
	Payment   float64
}

// History is a read-only view of a player's past rounds, oldest first.
// The view never contains the round being bid on and is never mutated:
// rounds appended after the view was taken are not visible through it.
type History struct {
	records []BidRecord
}

// NewHistory wraps records in a History view. The caller must not mutate
// records afterwards.
func NewHistory(records []BidRecord) History {
	return History{records: records[:len(records):len(records)]}
}

// Len returns the number of recorded rounds.
func (h History) Len() int { return len(h.records) }

// At returns the i-th round (0 = oldest). Panics if i is out of range.
func (h History) At(i int) BidRecord { return h.records[i] }

// All iterates over the rounds oldest first. The sequence is restartable.
func (h History) All() iter.Seq2[int, BidRecord] {
	return func(yield func(int, BidRecord) bool) {
		for i, r := range h.records {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Last returns the most recent round, if any.
func (h History) Last() (BidRecord, bool) {
	if len(h.records) == 0 {
		return BidRecord{}, false
	}
	return h.records[len(h.records)-1], true
}

// RoundState is everything a strategy sees when bidding in one round.
// Totals are this player's running totals before the current round.
type RoundState struct {
	Valuation         float64
	CumulativeScore   float64
	CumulativePayment float64
	ROITarget         float64
	History           History
}

// Strategy decides a bid for one round.
// Any real number may be returned; negative bids are floored to zero by the
// caller. A non-nil error, NaN or Inf is fatal for the tournament.
type Strategy interface {
	Bid(state RoundState) (float64, error)
}

// StrategyFunc adapts a plain function to the Strategy interface.
type StrategyFunc func(state RoundState) (float64, error)

// Bid calls f(state).
func (f StrategyFunc) Bid(state RoundState) (float64, error) { return f(state) }

// StrategyFactory builds a fresh Strategy for one match. rng is the
// strategy's private stream for that match; implementations that need
// randomness must draw from it to stay reproducible.
type StrategyFactory func(rng *rand.Rand) (Strategy, error)

// StaticStrategy returns a factory that hands out the same stateless strategy
// to every match.
func StaticStrategy(s Strategy) StrategyFactory {
	return func(_ *rand.Rand) (Strategy, error) { return s, nil }
}
