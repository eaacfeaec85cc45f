// Package strategy provides the built-in bidding strategies.
// All of them are registered into sim.BuiltinStrategies by register.go.
package strategy

import (
	"math/rand"

	"github.com/inference-sim/auction-sim/sim"
)

// Truthful bids its full valuation.
func Truthful(state sim.RoundState) (float64, error) {
	return state.Valuation, nil
}

// Zero never bids.
func Zero(_ sim.RoundState) (float64, error) {
	return 0, nil
}

// HalfShade bids half its valuation, the symmetric equilibrium of a
// two-bidder first-price auction with uniform values.
func HalfShade(state sim.RoundState) (float64, error) {
	return state.Valuation / 2, nil
}

// ROIGuard bids valuation / roiTarget. Under a pay-your-bid rule every win
// then returns at least the target ratio.
func ROIGuard(state sim.RoundState) (float64, error) {
	if state.ROITarget <= 0 {
		return state.Valuation, nil
	}
	return state.Valuation / state.ROITarget, nil
}

// RandomShade bids a uniformly random fraction in [0.5, 1) of its valuation.
type RandomShade struct {
	rng *rand.Rand
}

// NewRandomShade creates a RandomShade drawing from rng.
func NewRandomShade(rng *rand.Rand) *RandomShade {
	return &RandomShade{rng: rng}
}

// Bid implements sim.Strategy.
func (r *RandomShade) Bid(state sim.RoundState) (float64, error) {
	return state.Valuation * (0.5 + 0.5*r.rng.Float64()), nil
}

// Pacing parameters for AdaptivePacing.
const (
	pacingSafety = 1.02 // aim slightly above the ROI target
	pacingWindow = 25   // rounds of history used for the recent win rate
)

// AdaptivePacing bids valuation / (target * safety) and spends part of the
// ROI slack it has banked so far. Slack is the payment it could still make
// while keeping score/payment above the target. The share of slack spent
// grows when it has been losing recently.
func AdaptivePacing(state sim.RoundState) (float64, error) {
	margin := max(state.ROITarget, 1) * pacingSafety
	base := state.Valuation / margin

	slack := state.CumulativeScore/margin - state.CumulativePayment
	if slack <= 0 {
		return base, nil
	}
	share := 1 - recentWinRate(state.History, pacingWindow)
	return min(state.Valuation, base+slack*share*0.5), nil
}

// recentWinRate is the fraction of the last window rounds that were won.
// Returns 0 for an empty history.
func recentWinRate(h sim.History, window int) float64 {
	n := h.Len()
	if n == 0 {
		return 0
	}
	start := max(n-window, 0)
	wins := 0
	for i := start; i < n; i++ {
		if h.At(i).Won {
			wins++
		}
	}
	return float64(wins) / float64(n-start)
}
