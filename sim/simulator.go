// sim/simulator.go
package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Matchup identifies one match of a tournament: one unordered strategy pair
// under one auction rule. Player1 is always the strategy discovered first.
type Matchup struct {
	Index   int
	Auction string
	Player1 string
	Player2 string
}

// Player returns the strategy identifier sitting in seat 1 or 2.
func (m Matchup) Player(seat int) string {
	if seat == 2 {
		return m.Player2
	}
	return m.Player1
}

// PlayerState is one player's running totals for the match in progress.
// Owned exclusively by the MatchSimulator; discarded after the match.
type PlayerState struct {
	Strategy          string
	CumulativeScore   float64
	CumulativePayment float64
	ROITarget         float64 // drawn once per match from [1,2)
	Wins              int
	history           []BidRecord
}

// History returns a read-only view of the rounds played so far.
func (p *PlayerState) History() History { return NewHistory(p.history) }

// PlayerResult is one player's end-of-match summary.
type PlayerResult struct {
	Strategy     string
	RawScore     float64
	Payment      float64
	ROITarget    float64
	Wins         int
	FinalScore   float64
	Disqualified bool
}

// MatchResult is the outcome of one full match.
type MatchResult struct {
	Matchup Matchup
	Rounds  int
	Players [2]PlayerResult
	// DoubleAllocations counts rounds in which the auction rule awarded the
	// allocation to both bidders. Legal, but usually a plugin bug.
	DoubleAllocations int
}

// MatchSimulator runs R rounds between two strategies under one auction rule.
// Rounds are strictly sequential: each bid depends on the previous rounds'
// totals and history.
type MatchSimulator struct {
	Matchup Matchup
	Rounds  int
	Players [2]*PlayerState
	// Round is the index of the round being played, -1 before the first.
	Round int

	strategies [2]Strategy
	rule       AuctionRule
	valuations ValuationSource
	role       string
	seat       int
	doubles    int
}

// NewMatchSimulator prepares a match. ROI targets are drawn here, player 1
// first, from roiRNG.
func NewMatchSimulator(m Matchup, rounds int, s1, s2 Strategy, rule AuctionRule, valuations ValuationSource, roiRNG *rand.Rand) *MatchSimulator {
	return &MatchSimulator{
		Matchup: m,
		Rounds:  rounds,
		Players: [2]*PlayerState{
			{Strategy: m.Player1, ROITarget: drawROITarget(roiRNG), history: make([]BidRecord, 0, max(rounds, 0))},
			{Strategy: m.Player2, ROITarget: drawROITarget(roiRNG), history: make([]BidRecord, 0, max(rounds, 0))},
		},
		Round:      -1,
		strategies: [2]Strategy{s1, s2},
		rule:       rule,
		valuations: valuations,
	}
}

func drawROITarget(rng *rand.Rand) float64 {
	return 1 + rng.Float64()
}

// Run plays every round and applies the ROI rule. Any strategy, auction or
// valuation failure aborts the match with a *MatchError; panics raised by
// plugins are converted the same way.
func (sim *MatchSimulator) Run() (result *MatchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = sim.fail(fmt.Errorf("%w: %v", ErrPluginPanic, r))
		}
	}()

	for round := 0; round < sim.Rounds; round++ {
		sim.Round = round
		if err := sim.Step(); err != nil {
			return nil, err
		}
	}
	if sim.doubles > 0 {
		logrus.Warnf("match %d (%s): auction %q allocated to both bidders in %d rounds",
			sim.Matchup.Index, sim.Matchup.Player1+" vs "+sim.Matchup.Player2, sim.Matchup.Auction, sim.doubles)
	}
	return sim.result(), nil
}

// Step plays round sim.Round.
func (sim *MatchSimulator) Step() error {
	sim.role, sim.seat = RoleValuations, 0
	v, err := sim.valuations.Valuation(sim.Round)
	if err != nil {
		return sim.fail(err)
	}
	values := [2]float64{v.V1, v.V2}

	var bids [2]float64
	for i, p := range sim.Players {
		sim.role, sim.seat = RoleStrategy, i+1
		bid, err := sim.strategies[i].Bid(RoundState{
			Valuation:         values[i],
			CumulativeScore:   p.CumulativeScore,
			CumulativePayment: p.CumulativePayment,
			ROITarget:         p.ROITarget,
			History:           p.History(),
		})
		if err != nil {
			return sim.fail(err)
		}
		if math.IsNaN(bid) || math.IsInf(bid, 0) {
			return sim.fail(fmt.Errorf("%w: %v", ErrMalformedBid, bid))
		}
		bids[i] = max(bid, 0)
	}

	sim.role, sim.seat = RoleAuction, 0
	o1, o2, err := sim.rule.Clear(bids[0], bids[1])
	if err != nil {
		return sim.fail(err)
	}
	outcomes := [2]Outcome{o1, o2}
	for i, o := range outcomes {
		if math.IsNaN(o.Payment) || math.IsInf(o.Payment, 0) || o.Payment < 0 {
			return sim.fail(fmt.Errorf("%w: payment %v for bidder %d", ErrMalformedOutcome, o.Payment, i+1))
		}
	}
	if o1.Won && o2.Won {
		sim.doubles++
	}

	for i, p := range sim.Players {
		o := outcomes[i]
		p.CumulativeScore += roundScore(values[i], o.Won)
		p.CumulativePayment += o.Payment
		if o.Won {
			p.Wins++
		}
		p.history = append(p.history, BidRecord{
			Valuation: values[i],
			Bid:       bids[i],
			Won:       o.Won,
			Payment:   o.Payment,
		})
	}
	return nil
}

func (sim *MatchSimulator) fail(err error) *MatchError {
	return &MatchError{
		Matchup: sim.Matchup,
		Round:   sim.Round,
		Role:    sim.role,
		Seat:    sim.seat,
		Err:     err,
	}
}

func (sim *MatchSimulator) result() *MatchResult {
	res := &MatchResult{
		Matchup:           sim.Matchup,
		Rounds:            sim.Rounds,
		DoubleAllocations: sim.doubles,
	}
	for i, p := range sim.Players {
		final, disqualified := ApplyROIRule(p.CumulativeScore, p.CumulativePayment, p.ROITarget)
		res.Players[i] = PlayerResult{
			Strategy:     p.Strategy,
			RawScore:     p.CumulativeScore,
			Payment:      p.CumulativePayment,
			ROITarget:    p.ROITarget,
			Wins:         p.Wins,
			FinalScore:   final,
			Disqualified: disqualified,
		}
	}
	return res
}

// roundScore is the value captured in one round: the valuation when the
// allocation is won, zero otherwise.
func roundScore(valuation float64, won bool) float64 {
	if won {
		return valuation
	}
	return 0
}

// ApplyROIRule zeroes score when the player spent something and the
// score-to-payment ratio fell short of roiTarget. With no payment the score
// is returned unchanged.
func ApplyROIRule(score, payment, roiTarget float64) (final float64, disqualified bool) {
	if payment > 0 && score/payment < roiTarget {
		return 0, true
	}
	return score, false
}
