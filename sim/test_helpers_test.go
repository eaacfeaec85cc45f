package sim

import (
	"math/rand"
)

// testFirstPrice is a deterministic first-price rule: the higher bid wins and
// pays itself; ties and all-zero rounds allocate nothing.
var testFirstPrice = AuctionRuleFunc(func(bid1, bid2 float64) (Outcome, Outcome, error) {
	switch {
	case bid1 > bid2:
		return Outcome{Won: true, Payment: bid1}, Outcome{}, nil
	case bid2 > bid1:
		return Outcome{}, Outcome{Won: true, Payment: bid2}, nil
	default:
		return Outcome{}, Outcome{}, nil
	}
})

// testSecondPrice is testFirstPrice with the winner paying the losing bid.
var testSecondPrice = AuctionRuleFunc(func(bid1, bid2 float64) (Outcome, Outcome, error) {
	switch {
	case bid1 > bid2:
		return Outcome{Won: true, Payment: bid2}, Outcome{}, nil
	case bid2 > bid1:
		return Outcome{}, Outcome{Won: true, Payment: bid1}, nil
	default:
		return Outcome{}, Outcome{}, nil
	}
})

func testTruthful(s RoundState) (float64, error) { return s.Valuation, nil }

func testConstant(bid float64) Strategy {
	return StrategyFunc(func(RoundState) (float64, error) { return bid, nil })
}

// testValuations returns rounds copies of v.
func testValuations(rounds int, v Valuation) []Valuation {
	out := make([]Valuation, rounds)
	for i := range out {
		out[i] = v
	}
	return out
}

// testStrategyRegistry registers strategies in the given order.
func testStrategyRegistry(names []string, strategies ...Strategy) *StrategyRegistry {
	reg := NewRegistry[StrategyFactory]("strategy")
	for i, name := range names {
		reg.MustRegister(name, StaticStrategy(strategies[i]))
	}
	return reg
}

// testAuctionRegistry registers the given rules in order.
func testAuctionRegistry(names []string, rules ...AuctionRule) *AuctionRegistry {
	reg := NewRegistry[AuctionFactory]("auction")
	for i, name := range names {
		reg.MustRegister(name, StaticAuction(rules[i]))
	}
	return reg
}

// testMatch builds a simulator over a fixed dataset with the given ROI seed.
func testMatch(rounds int, s1, s2 Strategy, rule AuctionRule, values []Valuation) *MatchSimulator {
	m := Matchup{Index: 0, Auction: "test-auction", Player1: "p1", Player2: "p2"}
	return NewMatchSimulator(m, rounds, s1, s2, rule, NewDatasetValuations(values), rand.New(rand.NewSource(1)))
}
