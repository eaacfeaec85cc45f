package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnv_UnsetVariablesKeepValues(t *testing.T) {
	// GIVEN a config loaded from a file and no AUCTION_SIM_* variables
	cfg := DefaultTournamentFile()
	cfg.Seed = 9
	cfg.Rounds = intPtr(77)
	cfg.Strategies = []string{"truthful"}

	// WHEN the environment is applied
	require.NoError(t, applyEnv(&cfg))

	// THEN nothing changes
	assert.Equal(t, int64(9), cfg.Seed)
	assert.Equal(t, intPtr(77), cfg.Rounds)
	assert.Equal(t, []string{"truthful"}, cfg.Strategies)
}

func TestApplyEnv_SetVariablesOverride(t *testing.T) {
	t.Setenv("AUCTION_SIM_SEED", "123")
	t.Setenv("AUCTION_SIM_ROUNDS", "0")
	t.Setenv("AUCTION_SIM_WORKERS", "8")
	t.Setenv("AUCTION_SIM_VALUATION_MODE", "dataset")
	t.Setenv("AUCTION_SIM_VALUATIONS", "ctx.json")
	t.Setenv("AUCTION_SIM_STRATEGIES", "zero,half-shade")
	t.Setenv("AUCTION_SIM_AUCTIONS", "all-pay")
	t.Setenv("AUCTION_SIM_STRATEGIES_DIR", "/plugins/s")
	t.Setenv("AUCTION_SIM_AUCTIONS_DIR", "/plugins/a")
	t.Setenv("AUCTION_SIM_RESULTS_DB", "runs.db")
	t.Setenv("AUCTION_SIM_TRACE", "matches")

	cfg := DefaultTournamentFile()
	require.NoError(t, applyEnv(&cfg))

	assert.Equal(t, int64(123), cfg.Seed)
	assert.Equal(t, intPtr(0), cfg.Rounds, "explicit zero rounds must override")
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, ValuationsConfig{Mode: "dataset", File: "ctx.json"}, cfg.Valuations)
	assert.Equal(t, []string{"zero", "half-shade"}, cfg.Strategies)
	assert.Equal(t, []string{"all-pay"}, cfg.Auctions)
	assert.Equal(t, PluginsConfig{StrategiesDir: "/plugins/s", AuctionsDir: "/plugins/a"}, cfg.Plugins)
	assert.Equal(t, "runs.db", cfg.ResultsDB)
	assert.Equal(t, "matches", cfg.Trace)
}

func TestApplyEnv_Malformed(t *testing.T) {
	t.Setenv("AUCTION_SIM_SEED", "not-a-number")
	cfg := DefaultTournamentFile()
	err := applyEnv(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}
