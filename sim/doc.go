// Package sim provides the round simulator and tournament engine for
// auction-sim.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - strategy.go, auction.go: the two plugin contracts (Strategy, AuctionRule)
//   - simulator.go: one match of R sequential rounds and the ROI rule
//   - tournament.go: pair enumeration, parallel execution, aggregation
//   - standings.go: ranking and the console leaderboard
//
// # Architecture
//
// The sim package defines interfaces and registries; implementations live in
// sub-packages:
//   - sim/strategy/: built-in bidding strategies
//   - sim/auction/: built-in auction rules
//   - sim/luaplugin/: strategies and auction rules loaded from Lua scripts
//   - sim/trace/: per-match records and summary statistics
//   - sim/store/: SQLite persistence of finished runs
//
// Built-in sub-packages register their implementations via init() functions
// into BuiltinStrategies and BuiltinAuctions. Plugins are instantiated once
// per match through factories so that every match owns its state and its
// random streams.
//
// # Randomness
//
// All randomness flows from one SimulationKey. Each match derives its own
// PartitionedRNG from the key and the match's participants, then splits it
// into valuation, ROI, auction and per-player streams.
package sim
