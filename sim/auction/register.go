// register.go wires the built-in auction rules into sim.BuiltinAuctions.
// Every rule breaks ties with the match's auction RNG stream.
package auction

import (
	"math/rand"

	"github.com/inference-sim/auction-sim/sim"
)

func init() {
	sim.BuiltinAuctions.MustRegister("first-price", func(rng *rand.Rand) (sim.AuctionRule, error) {
		return NewFirstPrice(rng), nil
	})
	sim.BuiltinAuctions.MustRegister("second-price", func(rng *rand.Rand) (sim.AuctionRule, error) {
		return NewSecondPrice(rng), nil
	})
	sim.BuiltinAuctions.MustRegister("all-pay", func(rng *rand.Rand) (sim.AuctionRule, error) {
		return NewAllPay(rng), nil
	})
	sim.BuiltinAuctions.MustRegister("reserve-first-price", func(rng *rand.Rand) (sim.AuctionRule, error) {
		return NewReserveFirstPrice(DefaultReserve, rng), nil
	})
}
