package sim

// ScoreKeeper accumulates each strategy's total score across a tournament.
// Every strategy starts at zero. Not safe for concurrent writers: the
// tournament folds match results into it from a single goroutine.
type ScoreKeeper struct {
	names  []string
	totals map[string]float64
}

// NewScoreKeeper creates a keeper for names, in discovery order.
func NewScoreKeeper(names []string) *ScoreKeeper {
	k := &ScoreKeeper{
		names:  make([]string, len(names)),
		totals: make(map[string]float64, len(names)),
	}
	copy(k.names, names)
	for _, name := range names {
		k.totals[name] = 0
	}
	return k
}

// Add adds score to name's total. Unknown names are appended at the end of
// the discovery order.
func (k *ScoreKeeper) Add(name string, score float64) {
	if _, ok := k.totals[name]; !ok {
		k.names = append(k.names, name)
	}
	k.totals[name] += score
}

// AddMatch credits both players of a finished match with their final scores.
func (k *ScoreKeeper) AddMatch(res *MatchResult) {
	for _, p := range res.Players {
		k.Add(p.Strategy, p.FinalScore)
	}
}

// Total returns name's accumulated score.
func (k *ScoreKeeper) Total(name string) float64 {
	return k.totals[name]
}

// Names returns the strategies in discovery order.
func (k *ScoreKeeper) Names() []string {
	out := make([]string, len(k.names))
	copy(out, k.names)
	return out
}

// Standings ranks the strategies. See RankStandings.
func (k *ScoreKeeper) Standings() Standings {
	totals := make([]float64, len(k.names))
	for i, name := range k.names {
		totals[i] = k.totals[name]
	}
	return RankStandings(k.names, totals)
}
