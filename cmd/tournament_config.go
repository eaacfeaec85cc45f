package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/auction-sim/sim"
	"github.com/inference-sim/auction-sim/sim/trace"
)

// defaultRounds is the number of rounds per match when neither the config
// file, the environment nor a flag sets one and no dataset is replayed.
const defaultRounds = 10000

// TournamentFile is the YAML tournament configuration (--config).
// All sections must be listed to satisfy KnownFields(true) strict parsing.
type TournamentFile struct {
	Seed       int64            `yaml:"seed"`
	Rounds     *int             `yaml:"rounds"` // nil: dataset length in dataset mode, defaultRounds otherwise
	Workers    int              `yaml:"workers"`
	Valuations ValuationsConfig `yaml:"valuations"`
	Strategies []string         `yaml:"strategies"` // empty: all discovered
	Auctions   []string         `yaml:"auctions"`   // empty: all discovered
	Plugins    PluginsConfig    `yaml:"plugins"`
	ResultsDB  string           `yaml:"results_db"` // empty: results are not persisted
	Trace      string           `yaml:"trace"`
}

// ValuationsConfig selects the valuation source.
type ValuationsConfig struct {
	Mode string `yaml:"mode"`
	File string `yaml:"file"`
}

// PluginsConfig names directories scanned for Lua plugins.
type PluginsConfig struct {
	StrategiesDir string `yaml:"strategies_dir"`
	AuctionsDir   string `yaml:"auctions_dir"`
}

// DefaultTournamentFile returns the built-in defaults.
func DefaultTournamentFile() TournamentFile {
	return TournamentFile{
		Seed:       42,
		Workers:    1,
		Valuations: ValuationsConfig{Mode: string(sim.ValuationsFresh)},
		Trace:      string(trace.TraceLevelNone),
	}
}

// LoadTournamentFile reads path over the built-in defaults.
// Unknown keys are rejected.
func LoadTournamentFile(path string) (TournamentFile, error) {
	cfg := DefaultTournamentFile()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading tournament config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing tournament config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for contradictions that can be detected
// before any file is read.
func (c *TournamentFile) Validate() error {
	if c.Rounds != nil && *c.Rounds < 0 {
		return fmt.Errorf("rounds must be non-negative, got %d", *c.Rounds)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if !sim.IsValidValuationMode(c.Valuations.Mode) {
		return fmt.Errorf("unknown valuation mode %q (want %q or %q)", c.Valuations.Mode, sim.ValuationsFresh, sim.ValuationsDataset)
	}
	if sim.ValuationMode(c.Valuations.Mode) == sim.ValuationsDataset && c.Valuations.File == "" {
		return fmt.Errorf("valuation mode %q requires a valuations file", sim.ValuationsDataset)
	}
	if !trace.IsValidTraceLevel(c.Trace) {
		return fmt.Errorf("unknown trace level %q (want %q or %q)", c.Trace, trace.TraceLevelNone, trace.TraceLevelMatches)
	}
	return nil
}

// TournamentConfig resolves c into an engine configuration, loading the
// valuation dataset when one is replayed.
func (c *TournamentFile) TournamentConfig() (sim.TournamentConfig, error) {
	if err := c.Validate(); err != nil {
		return sim.TournamentConfig{}, err
	}
	cfg := sim.TournamentConfig{
		Seed:          c.Seed,
		Workers:       c.Workers,
		ValuationMode: sim.ValuationMode(c.Valuations.Mode),
		Trace:         trace.TraceConfig{Level: trace.TraceLevel(c.Trace)},
	}
	if cfg.ValuationMode == "" {
		cfg.ValuationMode = sim.ValuationsFresh
	}

	rounds := defaultRounds
	if cfg.ValuationMode == sim.ValuationsDataset {
		dataset, err := sim.LoadValuations(c.Valuations.File)
		if err != nil {
			return sim.TournamentConfig{}, err
		}
		cfg.Dataset = dataset
		rounds = len(dataset)
	}
	if c.Rounds != nil {
		rounds = *c.Rounds
	}
	cfg.Rounds = rounds
	return cfg, cfg.Validate()
}
