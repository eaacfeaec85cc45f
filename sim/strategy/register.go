// register.go wires the built-in strategies into sim.BuiltinStrategies.
// This init() runs when any package imports sim/strategy; the CLI imports it
// directly so the built-ins are always discoverable.
package strategy

import (
	"math/rand"

	"github.com/inference-sim/auction-sim/sim"
)

func init() {
	sim.BuiltinStrategies.MustRegister("truthful", sim.StaticStrategy(sim.StrategyFunc(Truthful)))
	sim.BuiltinStrategies.MustRegister("zero", sim.StaticStrategy(sim.StrategyFunc(Zero)))
	sim.BuiltinStrategies.MustRegister("half-shade", sim.StaticStrategy(sim.StrategyFunc(HalfShade)))
	sim.BuiltinStrategies.MustRegister("random-shade", func(rng *rand.Rand) (sim.Strategy, error) {
		return NewRandomShade(rng), nil
	})
	sim.BuiltinStrategies.MustRegister("roi-guard", sim.StaticStrategy(sim.StrategyFunc(ROIGuard)))
	sim.BuiltinStrategies.MustRegister("adaptive-pacing", sim.StaticStrategy(sim.StrategyFunc(AdaptivePacing)))
}
