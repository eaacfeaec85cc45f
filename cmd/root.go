package cmd

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/auction-sim/sim"
	_ "github.com/inference-sim/auction-sim/sim/auction"
	"github.com/inference-sim/auction-sim/sim/luaplugin"
	"github.com/inference-sim/auction-sim/sim/store"
	_ "github.com/inference-sim/auction-sim/sim/strategy"
	"github.com/inference-sim/auction-sim/sim/trace"
)

var (
	// CLI flags for the tournament
	seed           int64    // Master seed for valuations, ROI targets and plugin randomness
	rounds         int      // Rounds per match
	workers        int      // Matches run concurrently
	logLevel       string   // Log verbosity level
	configPath     string   // YAML tournament config
	valuationMode  string   // fresh or dataset
	valuationsFile string   // Dataset replayed in dataset mode
	strategyNames  []string // Subset of strategies to enter
	auctionNames   []string // Subset of auction rules to play
	strategiesDir  string   // Directory of Lua strategy scripts
	auctionsDir    string   // Directory of Lua auction scripts
	resultsDB      string   // SQLite file to persist the run into
	traceLevel     string   // Trace verbosity level
	summarizeTrace bool     // Print trace summary after the leaderboard
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "auction-sim",
	Short: "Pairwise auction strategy tournament simulator",
}

// runCmd plays every strategy pair under every auction rule and prints the leaderboard
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a tournament",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		cfg, err := resolveTournamentFile(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		simCfg, err := cfg.TournamentConfig()
		if err != nil {
			logrus.Fatalf("Invalid tournament config: %v", err)
		}

		strategies, auctions, err := buildRegistries(cfg)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		tour, err := sim.NewTournament(simCfg, strategies, auctions)
		if err != nil {
			logrus.Fatalf("Invalid tournament config: %v", err)
		}
		res, err := tour.Run(cmd.Context())
		if err != nil {
			logrus.Fatalf("Tournament failed: %v", err)
		}

		res.Standings.Print(os.Stdout)
		if summarizeTrace && res.Trace != nil {
			printTraceSummary(trace.Summarize(res.Trace))
		}

		if cfg.ResultsDB != "" {
			if err := saveRun(cmd.Context(), cfg.ResultsDB, res); err != nil {
				logrus.Fatalf("Saving results: %v", err)
			}
			logrus.Infof("Saved run %s to %s", res.RunID, cfg.ResultsDB)
		}
		logrus.Info("Tournament complete.")
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// resolveTournamentFile layers defaults, the YAML file, the environment and
// explicitly set flags, in that order.
func resolveTournamentFile(cmd *cobra.Command) (TournamentFile, error) {
	cfg := DefaultTournamentFile()
	if configPath != "" {
		loaded, err := LoadTournamentFile(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	applyFlags(cmd, &cfg)
	return cfg, cfg.Validate()
}

// applyFlags overrides cfg with flags the user actually set, so flag
// defaults never clobber file or environment values.
func applyFlags(cmd *cobra.Command, cfg *TournamentFile) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("rounds") {
		r := rounds
		cfg.Rounds = &r
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("valuation-mode") {
		cfg.Valuations.Mode = valuationMode
	}
	if flags.Changed("valuations") {
		cfg.Valuations.File = valuationsFile
	}
	if flags.Changed("strategies") {
		cfg.Strategies = strategyNames
	}
	if flags.Changed("auctions") {
		cfg.Auctions = auctionNames
	}
	if flags.Changed("strategies-dir") {
		cfg.Plugins.StrategiesDir = strategiesDir
	}
	if flags.Changed("auctions-dir") {
		cfg.Plugins.AuctionsDir = auctionsDir
	}
	if flags.Changed("results-db") {
		cfg.ResultsDB = resultsDB
	}
	if flags.Changed("trace") {
		cfg.Trace = traceLevel
	}
	// A summary is built from match records, so asking for one turns them on.
	if summarizeTrace && (cfg.Trace == "" || cfg.Trace == string(trace.TraceLevelNone)) {
		logrus.Infof("--summarize-trace sets trace level to %q", trace.TraceLevelMatches)
		cfg.Trace = string(trace.TraceLevelMatches)
	}
}

// buildRegistries merges the built-ins with Lua plugins found in the
// configured directories and applies the selection lists.
func buildRegistries(cfg TournamentFile) (*sim.StrategyRegistry, *sim.AuctionRegistry, error) {
	strategies, err := sim.BuiltinStrategies.Select(nil)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Plugins.StrategiesDir != "" {
		found, err := luaplugin.DiscoverStrategies(cfg.Plugins.StrategiesDir)
		if err != nil {
			return nil, nil, err
		}
		if err := strategies.Merge(found); err != nil {
			return nil, nil, err
		}
	}
	if strategies, err = strategies.Select(cfg.Strategies); err != nil {
		return nil, nil, err
	}

	auctions, err := sim.BuiltinAuctions.Select(nil)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Plugins.AuctionsDir != "" {
		found, err := luaplugin.DiscoverAuctions(cfg.Plugins.AuctionsDir)
		if err != nil {
			return nil, nil, err
		}
		if err := auctions.Merge(found); err != nil {
			return nil, nil, err
		}
	}
	if auctions, err = auctions.Select(cfg.Auctions); err != nil {
		return nil, nil, err
	}
	return strategies, auctions, nil
}

func saveRun(ctx context.Context, path string, res *sim.TournamentResult) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.SaveRun(ctx, res)
}

func printTraceSummary(summary *trace.TraceSummary) {
	p := newPrinter()
	p.Printf("=== Trace Summary ===\n")
	p.Printf("Matches: %d, rounds: %d, disqualifications: %d\n",
		summary.TotalMatches, summary.TotalRounds, summary.DisqualifiedCount)
	for _, name := range summary.SortedStrategies() {
		s := summary.StrategyBreakdown[name]
		p.Printf("  %-16s matches=%d dq=%d wins=%d mean=%.3f sd=%.3f\n",
			name+":", s.Matches, s.Disqualified, s.Wins, s.MeanFinalScore, s.StdDevFinalScore)
	}
}

// registerRunFlags binds the tournament flags of cmd to the package-level
// flag variables.
func registerRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configPath, "config", "", "YAML tournament config; flags override its values")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Master seed for valuations, ROI targets and plugin randomness")
	cmd.Flags().IntVar(&rounds, "rounds", defaultRounds, "Rounds per match (dataset mode: defaults to the dataset length)")
	cmd.Flags().IntVar(&workers, "workers", 1, "Matches run concurrently")
	cmd.Flags().StringVar(&valuationMode, "valuation-mode", string(sim.ValuationsFresh), "Valuation source: fresh or dataset")
	cmd.Flags().StringVar(&valuationsFile, "valuations", "", "Valuation dataset replayed in dataset mode")
	cmd.Flags().StringSliceVar(&strategyNames, "strategies", nil, "Comma-separated strategies to enter (default: all)")
	cmd.Flags().StringSliceVar(&auctionNames, "auctions", nil, "Comma-separated auction rules to play (default: all)")
	cmd.Flags().StringVar(&strategiesDir, "strategies-dir", "", "Directory of Lua strategy scripts")
	cmd.Flags().StringVar(&auctionsDir, "auctions-dir", "", "Directory of Lua auction scripts")
	cmd.Flags().StringVar(&resultsDB, "results-db", "", "SQLite file the run is saved into")
	cmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Trace level: none or matches")
	cmd.Flags().BoolVar(&summarizeTrace, "summarize-trace", false, "Print a per-strategy summary after the leaderboard (turns on --trace matches)")
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	registerRunFlags(runCmd)

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
