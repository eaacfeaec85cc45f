package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/auction-sim/sim"
	"github.com/inference-sim/auction-sim/sim/store"
)

// newTestRunCmd returns a command with the run flags bound to the
// package-level variables, reset to their defaults.
func newTestRunCmd(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "run"}
	registerRunFlags(cmd)
	return cmd
}

func TestResolveTournamentFile_Precedence(t *testing.T) {
	// GIVEN a config file, an environment override and an explicit flag
	path := writeFile(t, "tournament.yaml", "seed: 1\nrounds: 100\nworkers: 2\ntrace: matches\n")
	t.Setenv("AUCTION_SIM_ROUNDS", "200")
	t.Setenv("AUCTION_SIM_WORKERS", "3")

	cmd := newTestRunCmd(t)
	require.NoError(t, cmd.Flags().Set("config", path))
	require.NoError(t, cmd.Flags().Set("workers", "4"))

	// WHEN resolved
	cfg, err := resolveTournamentFile(cmd)
	require.NoError(t, err)

	// THEN flag > env > file > default, and unset flags never clobber
	assert.Equal(t, int64(1), cfg.Seed, "file value kept: --seed not set")
	assert.Equal(t, intPtr(200), cfg.Rounds, "env beats file")
	assert.Equal(t, 4, cfg.Workers, "flag beats env")
	assert.Equal(t, "matches", cfg.Trace, "file beats default")
}

func TestResolveTournamentFile_DefaultsWithoutConfig(t *testing.T) {
	cmd := newTestRunCmd(t)
	cfg, err := resolveTournamentFile(cmd)
	require.NoError(t, err)
	assert.Equal(t, DefaultTournamentFile(), cfg)
}

func TestResolveTournamentFile_InvalidFlag(t *testing.T) {
	cmd := newTestRunCmd(t)
	require.NoError(t, cmd.Flags().Set("valuation-mode", "csv"))
	_, err := resolveTournamentFile(cmd)
	require.Error(t, err)
}

func TestResolveTournamentFile_SummarizeTraceEnablesMatchTrace(t *testing.T) {
	tests := []struct {
		name      string
		flags     map[string]string
		wantTrace string
		wantErr   bool
	}{
		{"summary alone turns tracing on", map[string]string{"summarize-trace": "true"}, "matches", false},
		{"summary overrides explicit none", map[string]string{"summarize-trace": "true", "trace": "none"}, "matches", false},
		{"no summary keeps default", map[string]string{}, "none", false},
		{"invalid level still rejected", map[string]string{"summarize-trace": "true", "trace": "rounds"}, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd := newTestRunCmd(t)
			for name, value := range tc.flags {
				require.NoError(t, cmd.Flags().Set(name, value))
			}

			cfg, err := resolveTournamentFile(cmd)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantTrace, cfg.Trace)
		})
	}
}

func TestBuildRegistries_BuiltinsInRegistrationOrder(t *testing.T) {
	strategies, auctions, err := buildRegistries(DefaultTournamentFile())
	require.NoError(t, err)
	assert.Equal(t, []string{"truthful", "zero", "half-shade", "random-shade", "roi-guard", "adaptive-pacing"}, strategies.Names())
	assert.Equal(t, []string{"first-price", "second-price", "all-pay", "reserve-first-price"}, auctions.Names())
}

func TestBuildRegistries_SelectionAndPlugins(t *testing.T) {
	// GIVEN a Lua strategy directory and a selection including it
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "overbid.lua"),
		[]byte("function strategy(value) return value * 1.5 end\n"), 0o644))
	cfg := DefaultTournamentFile()
	cfg.Plugins.StrategiesDir = dir
	cfg.Strategies = []string{"overbid", "truthful"}
	cfg.Auctions = []string{"second-price"}

	// WHEN registries are built
	strategies, auctions, err := buildRegistries(cfg)

	// THEN only the selection remains, in selection order
	require.NoError(t, err)
	assert.Equal(t, []string{"overbid", "truthful"}, strategies.Names())
	assert.Equal(t, []string{"second-price"}, auctions.Names())
}

func TestBuildRegistries_PluginNameClashesWithBuiltin(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "truthful.lua"),
		[]byte("function strategy(value) return value end\n"), 0o644))
	cfg := DefaultTournamentFile()
	cfg.Plugins.StrategiesDir = dir

	_, _, err := buildRegistries(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestBuildRegistries_UnknownSelection(t *testing.T) {
	cfg := DefaultTournamentFile()
	cfg.Auctions = []string{"dutch"}
	_, _, err := buildRegistries(cfg)
	require.Error(t, err)
}

func TestRunPipeline_SavesLoadableRun(t *testing.T) {
	// GIVEN a small tournament over three built-ins
	cfg := DefaultTournamentFile()
	cfg.Rounds = intPtr(100)
	cfg.Strategies = []string{"truthful", "zero", "roi-guard"}
	cfg.Auctions = []string{"first-price", "second-price"}
	simCfg, err := cfg.TournamentConfig()
	require.NoError(t, err)
	strategies, auctions, err := buildRegistries(cfg)
	require.NoError(t, err)
	tour, err := sim.NewTournament(simCfg, strategies, auctions)
	require.NoError(t, err)
	res, err := tour.Run(context.Background())
	require.NoError(t, err)

	// WHEN saved
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	require.NoError(t, saveRun(context.Background(), dbPath, res))

	// THEN the run is listed and its leaderboard reloads
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].RunID)
	assert.Equal(t, 6, runs[0].Matches)

	standings, err := s.LoadStandings(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Len(t, standings, 3)
}
