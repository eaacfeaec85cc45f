package cmd

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOverrides are the AUCTION_SIM_* environment variables. Pointer fields
// stay nil when the variable is unset, so only set variables override.
type envOverrides struct {
	Seed           *int64   `env:"AUCTION_SIM_SEED"`
	Rounds         *int     `env:"AUCTION_SIM_ROUNDS"`
	Workers        *int     `env:"AUCTION_SIM_WORKERS"`
	ValuationMode  *string  `env:"AUCTION_SIM_VALUATION_MODE"`
	ValuationsFile *string  `env:"AUCTION_SIM_VALUATIONS"`
	Strategies     []string `env:"AUCTION_SIM_STRATEGIES" envSeparator:","`
	Auctions       []string `env:"AUCTION_SIM_AUCTIONS"   envSeparator:","`
	StrategiesDir  *string  `env:"AUCTION_SIM_STRATEGIES_DIR"`
	AuctionsDir    *string  `env:"AUCTION_SIM_AUCTIONS_DIR"`
	ResultsDB      *string  `env:"AUCTION_SIM_RESULTS_DB"`
	Trace          *string  `env:"AUCTION_SIM_TRACE"`
}

// applyEnv overlays the environment onto cfg.
func applyEnv(cfg *TournamentFile) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if o.Seed != nil {
		cfg.Seed = *o.Seed
	}
	if o.Rounds != nil {
		rounds := *o.Rounds
		cfg.Rounds = &rounds
	}
	if o.Workers != nil {
		cfg.Workers = *o.Workers
	}
	if o.ValuationMode != nil {
		cfg.Valuations.Mode = *o.ValuationMode
	}
	if o.ValuationsFile != nil {
		cfg.Valuations.File = *o.ValuationsFile
	}
	if len(o.Strategies) > 0 {
		cfg.Strategies = o.Strategies
	}
	if len(o.Auctions) > 0 {
		cfg.Auctions = o.Auctions
	}
	if o.StrategiesDir != nil {
		cfg.Plugins.StrategiesDir = *o.StrategiesDir
	}
	if o.AuctionsDir != nil {
		cfg.Plugins.AuctionsDir = *o.AuctionsDir
	}
	if o.ResultsDB != nil {
		cfg.ResultsDB = *o.ResultsDB
	}
	if o.Trace != nil {
		cfg.Trace = *o.Trace
	}
	return nil
}
