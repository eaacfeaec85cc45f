package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible tournament run.
// Two tournaments with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical standings.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemValuations is the RNG subsystem for fresh per-round valuations
	// and for dataset generation. Uses the key directly.
	SubsystemValuations = "valuations"

	// SubsystemROI is the RNG subsystem for per-match ROI targets.
	SubsystemROI = "roi"

	// SubsystemAuction is the RNG subsystem handed to the auction rule
	// (tie-breaking, randomized clearing).
	SubsystemAuction = "auction"
)

// SubsystemPlayer returns the subsystem name for the strategy in seat N (1 or 2).
func SubsystemPlayer(seat int) string {
	return fmt.Sprintf("player_%d", seat)
}

// MatchName returns the stable name of a match used for key derivation.
// It depends only on the participants, never on execution order.
func MatchName(auction, player1, player2 string) string {
	return "match/" + auction + "/" + player1 + "/" + player2
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemValuations: uses the key directly
//   - For all other subsystems: key XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Each match owns its own PartitionedRNG.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemValuations {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Derive returns the child key for a named scope (e.g. one match).
// Pure function of the key and the name: safe to call from any goroutine.
func (p *PartitionedRNG) Derive(name string) SimulationKey {
	return SimulationKey(int64(p.key) ^ fnv1a64(name))
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
