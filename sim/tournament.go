package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/auction-sim/sim/trace"
)

// TournamentConfig holds the parameters of one tournament run.
type TournamentConfig struct {
	Seed    int64
	Rounds  int // rounds per match (R)
	Workers int // matches run concurrently; <= 1 runs them sequentially

	ValuationMode ValuationMode
	Dataset       []Valuation // required when ValuationMode is ValuationsDataset

	Trace trace.TraceConfig
}

// Validate checks the configuration for contradictions.
func (c *TournamentConfig) Validate() error {
	if c.Rounds < 0 {
		return fmt.Errorf("rounds must be non-negative, got %d", c.Rounds)
	}
	if !IsValidValuationMode(string(c.ValuationMode)) {
		return fmt.Errorf("unknown valuation mode %q", c.ValuationMode)
	}
	if c.ValuationMode == ValuationsDataset && len(c.Dataset) == 0 {
		return fmt.Errorf("valuation mode %q requires a non-empty dataset", ValuationsDataset)
	}
	if c.ValuationMode == ValuationsDataset && c.Rounds > len(c.Dataset) {
		return fmt.Errorf("rounds (%d) exceed valuation dataset length (%d)", c.Rounds, len(c.Dataset))
	}
	if !trace.IsValidTraceLevel(string(c.Trace.Level)) {
		return fmt.Errorf("unknown trace level %q", c.Trace.Level)
	}
	return nil
}

// TournamentResult bundles all outputs of a tournament run.
type TournamentResult struct {
	RunID     string
	Config    TournamentConfig
	Matches   []*MatchResult // in enumeration order
	Standings Standings
	Trace     *trace.TournamentTrace // nil if trace level is "none"

	StartedAt time.Time
	WallTime  time.Duration
}

// Tournament runs every unordered strategy pair under every auction rule.
type Tournament struct {
	Config     TournamentConfig
	Strategies *StrategyRegistry
	Auctions   *AuctionRegistry

	rng     *PartitionedRNG
	dataset *DatasetValuations
}

// NewTournament validates cfg and prepares a tournament over the given
// registries. Registration order of strategies is the discovery order.
func NewTournament(cfg TournamentConfig, strategies *StrategyRegistry, auctions *AuctionRegistry) (*Tournament, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ValuationMode == "" {
		cfg.ValuationMode = ValuationsFresh
	}
	t := &Tournament{
		Config:     cfg,
		Strategies: strategies,
		Auctions:   auctions,
		rng:        NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
	}
	if cfg.ValuationMode == ValuationsDataset {
		t.dataset = NewDatasetValuations(cfg.Dataset)
	}
	return t, nil
}

// Matchups enumerates matches: for each auction rule, every combination of
// two distinct strategies in discovery order. Each pair appears exactly once
// per auction rule.
func (t *Tournament) Matchups() []Matchup {
	names := t.Strategies.Names()
	var out []Matchup
	for _, auction := range t.Auctions.Names() {
		for i := 0; i < len(names); i++ {
			for j := i + 1; j < len(names); j++ {
				out = append(out, Matchup{
					Index:   len(out),
					Auction: auction,
					Player1: names[i],
					Player2: names[j],
				})
			}
		}
	}
	return out
}

// RunMatch instantiates the two strategies and the auction rule for m and
// plays the match. Randomness is derived from the tournament seed and the
// match's participants only, so results do not depend on execution order.
func (t *Tournament) RunMatch(m Matchup) (*MatchResult, error) {
	setupErr := func(err error) error {
		return &MatchError{Matchup: m, Round: -1, Role: RoleSetup, Err: err}
	}
	rng := NewPartitionedRNG(t.rng.Derive(MatchName(m.Auction, m.Player1, m.Player2)))

	var players [2]Strategy
	for i, name := range []string{m.Player1, m.Player2} {
		factory, ok := t.Strategies.Lookup(name)
		if !ok {
			return nil, setupErr(fmt.Errorf("unknown strategy %q", name))
		}
		s, err := factory(rng.ForSubsystem(SubsystemPlayer(i + 1)))
		if err != nil {
			return nil, setupErr(fmt.Errorf("building strategy %q: %w", name, err))
		}
		players[i] = s
	}

	auctionFactory, ok := t.Auctions.Lookup(m.Auction)
	if !ok {
		return nil, setupErr(fmt.Errorf("unknown auction %q", m.Auction))
	}
	rule, err := auctionFactory(rng.ForSubsystem(SubsystemAuction))
	if err != nil {
		return nil, setupErr(fmt.Errorf("building auction %q: %w", m.Auction, err))
	}

	var valuations ValuationSource
	if t.dataset != nil {
		valuations = t.dataset
	} else {
		valuations = NewFreshValuations(rng.ForSubsystem(SubsystemValuations))
	}

	logrus.Debugf("match %d: %s vs %s under %s", m.Index, m.Player1, m.Player2, m.Auction)
	sim := NewMatchSimulator(m, t.Config.Rounds, players[0], players[1], rule, valuations, rng.ForSubsystem(SubsystemROI))
	res, err := sim.Run()
	if err != nil {
		return nil, err
	}
	logrus.Debugf("match %d done: %s=%.4f (raw %.4f, paid %.4f), %s=%.4f (raw %.4f, paid %.4f)", m.Index,
		res.Players[0].Strategy, res.Players[0].FinalScore, res.Players[0].RawScore, res.Players[0].Payment,
		res.Players[1].Strategy, res.Players[1].FinalScore, res.Players[1].RawScore, res.Players[1].Payment)
	return res, nil
}

// Run plays every match and ranks the strategies. The first failing match
// aborts the whole run; there is no partial result.
func (t *Tournament) Run(ctx context.Context) (*TournamentResult, error) {
	started := time.Now()
	matchups := t.Matchups()
	logrus.Infof("Starting tournament: %d strategies, %d auction rules, %d matches, %d rounds/match, seed=%d, valuations=%s",
		t.Strategies.Len(), t.Auctions.Len(), len(matchups), t.Config.Rounds, t.Config.Seed, t.Config.ValuationMode)

	results, err := t.runMatches(ctx, matchups)
	if err != nil {
		return nil, err
	}

	keeper := NewScoreKeeper(t.Strategies.Names())
	var tr *trace.TournamentTrace
	if t.Config.Trace.Enabled() {
		tr = trace.NewTournamentTrace(t.Config.Trace)
	}
	for _, res := range results {
		keeper.AddMatch(res)
		if tr != nil {
			tr.RecordMatch(toTraceRecord(res))
		}
	}

	result := &TournamentResult{
		RunID:     uuid.NewString(),
		Config:    t.Config,
		Matches:   results,
		Standings: keeper.Standings(),
		Trace:     tr,
		StartedAt: started,
		WallTime:  time.Since(started),
	}
	logrus.Infof("Tournament %s complete in %v", result.RunID, result.WallTime)
	return result, nil
}

// runMatches plays matchups and returns results indexed like matchups.
// With more than one worker, matches run on an errgroup; results are still
// returned in enumeration order so folding them is order-independent.
func (t *Tournament) runMatches(ctx context.Context, matchups []Matchup) ([]*MatchResult, error) {
	results := make([]*MatchResult, len(matchups))

	if t.Config.Workers <= 1 {
		for i, m := range matchups {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res, err := t.RunMatch(m)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.Config.Workers)
	for i, m := range matchups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := t.RunMatch(m)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func toTraceRecord(res *MatchResult) trace.MatchRecord {
	rec := trace.MatchRecord{
		Index:   res.Matchup.Index,
		Auction: res.Matchup.Auction,
		Rounds:  res.Rounds,
	}
	for i, p := range res.Players {
		rec.Players[i] = trace.PlayerRecord{
			Strategy:     p.Strategy,
			RawScore:     p.RawScore,
			Payment:      p.Payment,
			ROITarget:    p.ROITarget,
			Wins:         p.Wins,
			FinalScore:   p.FinalScore,
			Disqualified: p.Disqualified,
		}
	}
	return rec
}
