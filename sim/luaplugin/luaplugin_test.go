package luaplugin

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/auction-sim/sim"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

const truthfulScript = `
function strategy(value, score, payment, roi, history)
  return value
end
`

const historyCountScript = `
function strategy(value, score, payment, roi, history)
  local wins = 0
  for i = 1, #history do
    if history[i].won then wins = wins + 1 end
  end
  return #history + wins / 100
end
`

const firstPriceScript = `
function auction(bid1, bid2)
  if bid1 > bid2 then return {1, bid1}, {0, 0} end
  if bid2 > bid1 then return {0, 0}, {true, bid2} end
  return {false, 0}, {false, 0}
end
`

func TestDiscoverStrategies_RegistersByFileNameInSortedOrder(t *testing.T) {
	// GIVEN a directory with two scripts, a non-script file and a subdirectory
	dir := t.TempDir()
	writeScript(t, dir, "zeta.lua", truthfulScript)
	writeScript(t, dir, "alpha.lua", truthfulScript)
	writeScript(t, dir, "notes.txt", "not a plugin")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.lua"), 0o755))

	// WHEN discovered
	reg, err := DiscoverStrategies(dir)

	// THEN only the scripts are registered, named without extension
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, reg.Names())
}

func TestDiscoverStrategies_MissingFunction_Fails(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "broken.lua", "x = 1\n")

	_, err := DiscoverStrategies(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"strategy"`)
}

func TestDiscoverStrategies_SyntaxError_Fails(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "broken.lua", "function strategy(\n")

	_, err := DiscoverStrategies(dir)
	require.Error(t, err)
}

func TestDiscoverStrategies_MissingDir_Fails(t *testing.T) {
	_, err := DiscoverStrategies(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}

func TestScriptStrategy_ReceivesValuation(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "truthful.lua", truthfulScript)
	reg, err := DiscoverStrategies(dir)
	require.NoError(t, err)

	factory, ok := reg.Lookup("truthful")
	require.True(t, ok)
	s, err := factory(rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	bid, err := s.Bid(sim.RoundState{Valuation: 0.42, ROITarget: 1.5})
	require.NoError(t, err)
	assert.Equal(t, 0.42, bid)
}

func TestScriptStrategy_SeesGrowingHistory(t *testing.T) {
	// GIVEN a script that reports the history length and win count
	dir := t.TempDir()
	writeScript(t, dir, "counter.lua", historyCountScript)
	reg, err := DiscoverStrategies(dir)
	require.NoError(t, err)
	factory, _ := reg.Lookup("counter")
	s, err := factory(rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	records := []sim.BidRecord{
		{Valuation: 0.5, Bid: 0.5, Won: true, Payment: 0.5},
		{Valuation: 0.2, Bid: 0.2, Won: false},
		{Valuation: 0.9, Bid: 0.9, Won: true, Payment: 0.9},
	}

	// WHEN called with histories of length 0, 2 and 3
	b0, err := s.Bid(sim.RoundState{History: sim.NewHistory(records[:0])})
	require.NoError(t, err)
	b2, err := s.Bid(sim.RoundState{History: sim.NewHistory(records[:2])})
	require.NoError(t, err)
	b3, err := s.Bid(sim.RoundState{History: sim.NewHistory(records)})
	require.NoError(t, err)

	// THEN each call sees exactly the rounds so far
	assert.InDelta(t, 0, b0, 1e-12)
	assert.InDelta(t, 2.01, b2, 1e-12)
	assert.InDelta(t, 3.02, b3, 1e-12)
}

func TestScriptStrategy_NonNumberResult_IsError(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "bad.lua", `function strategy() return "high" end`)
	reg, err := DiscoverStrategies(dir)
	require.NoError(t, err)
	factory, _ := reg.Lookup("bad")
	s, err := factory(rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	_, err = s.Bid(sim.RoundState{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want number")
}

func TestScriptStrategy_RuntimeError_IsError(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "boom.lua", `function strategy() error("boom") end`)
	reg, err := DiscoverStrategies(dir)
	require.NoError(t, err)
	factory, _ := reg.Lookup("boom")
	s, err := factory(rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	_, err = s.Bid(sim.RoundState{})
	require.Error(t, err)
}

func TestScriptStrategy_RandomIsReproducible(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "noisy.lua", `function strategy(value) return value * random() end`)
	reg, err := DiscoverStrategies(dir)
	require.NoError(t, err)
	factory, _ := reg.Lookup("noisy")

	a, err := factory(rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	b, err := factory(rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		ba, err := a.Bid(sim.RoundState{Valuation: 1})
		require.NoError(t, err)
		bb, err := b.Bid(sim.RoundState{Valuation: 1})
		require.NoError(t, err)
		assert.Equal(t, ba, bb)
		assert.GreaterOrEqual(t, ba, 0.0)
		assert.Less(t, ba, 1.0)
	}
}

func TestScriptStrategy_HistoryEditsDoNotCarryOver(t *testing.T) {
	// GIVEN a script that empties its history and edits a row before reporting
	dir := t.TempDir()
	writeScript(t, dir, "eraser.lua", `
function strategy(value, score, payment, roi, h)
  local n = #h
  local wins = 0
  for _, r in ipairs(h) do
    if r.won then wins = wins + 1 end
  end
  if n > 0 then h[1].won = not h[1].won end
  for i = 1, n do rawset(h, i, false) end
  return n + wins / 100
end
`)
	reg, err := DiscoverStrategies(dir)
	require.NoError(t, err)
	factory, _ := reg.Lookup("eraser")
	s, err := factory(rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	records := []sim.BidRecord{
		{Valuation: 0.5, Bid: 0.5, Won: true, Payment: 0.5},
		{Valuation: 0.2, Bid: 0.2, Won: false},
		{Valuation: 0.9, Bid: 0.9, Won: true, Payment: 0.9},
	}

	// WHEN called on a growing history after each tampering call
	var got []float64
	for n := 0; n <= len(records); n++ {
		bid, err := s.Bid(sim.RoundState{History: sim.NewHistory(records[:n])})
		require.NoError(t, err)
		got = append(got, bid)
	}

	// THEN every call sees exactly the rounds played so far
	want := []float64{0, 1.01, 2.01, 3.02}
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12, "call %d", i)
	}
}

func TestScriptStrategy_HistoryAssignment_IsError(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"overwrite row", `function strategy(v, s, p, r, h) h[1] = {won = true} return 0 end`},
		{"append row", `function strategy(v, s, p, r, h) h[#h + 1] = {} return 0 end`},
		{"replace metatable", `function strategy(v, s, p, r, h) setmetatable(h, nil) return 0 end`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeScript(t, dir, "writer.lua", tc.script)
			reg, err := DiscoverStrategies(dir)
			require.NoError(t, err)
			factory, _ := reg.Lookup("writer")
			s, err := factory(rand.New(rand.NewSource(1)))
			require.NoError(t, err)

			history := sim.NewHistory([]sim.BidRecord{{Valuation: 0.5, Bid: 0.5}})
			_, err = s.Bid(sim.RoundState{History: history})
			require.Error(t, err)
		})
	}
}

func TestScriptStrategy_MathRandomIsReproducible(t *testing.T) {
	// GIVEN a script drawing from the math library, which also reseeds it
	dir := t.TempDir()
	writeScript(t, dir, "dice.lua", `
function strategy(value, score, payment, roi, h)
  if #h == 3 then math.randomseed(7) end
  return math.random() + math.random(6) + math.random(10, 20)
end
`)
	reg, err := DiscoverStrategies(dir)
	require.NoError(t, err)
	factory, _ := reg.Lookup("dice")

	// WHEN two instances are built from streams with the same seed
	a, err := factory(rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	b, err := factory(rand.New(rand.NewSource(11)))
	require.NoError(t, err)

	// THEN they draw identical values, within the documented ranges
	records := make([]sim.BidRecord, 6)
	for n := 0; n < len(records); n++ {
		rs := sim.RoundState{History: sim.NewHistory(records[:n])}
		ba, err := a.Bid(rs)
		require.NoError(t, err)
		bb, err := b.Bid(rs)
		require.NoError(t, err)
		assert.Equal(t, ba, bb, "round %d", n)
		assert.GreaterOrEqual(t, ba, 11.0)
		assert.Less(t, ba, 27.0)
	}
}

func TestScriptAuction_Clear_ParsesOutcomes(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "fp.lua", firstPriceScript)
	reg, err := DiscoverAuctions(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"fp"}, reg.Names())

	factory, _ := reg.Lookup("fp")
	rule, err := factory(rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	o1, o2, err := rule.Clear(0.7, 0.3)
	require.NoError(t, err)
	assert.Equal(t, sim.Outcome{Won: true, Payment: 0.7}, o1)
	assert.Equal(t, sim.Outcome{}, o2)

	o1, o2, err = rule.Clear(0.1, 0.6)
	require.NoError(t, err)
	assert.Equal(t, sim.Outcome{}, o1)
	assert.Equal(t, sim.Outcome{Won: true, Payment: 0.6}, o2)
}

func TestScriptAuction_MalformedOutcome_IsError(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"not a table", `function auction(a, b) return 1, 2 end`},
		{"missing second outcome", `function auction(a, b) return {true, a} end`},
		{"string payment", `function auction(a, b) return {true, "a"}, {false, 0} end`},
		{"string allocation", `function auction(a, b) return {"yes", a}, {false, 0} end`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeScript(t, dir, "bad.lua", tc.script)
			reg, err := DiscoverAuctions(dir)
			require.NoError(t, err)
			factory, _ := reg.Lookup("bad")
			rule, err := factory(rand.New(rand.NewSource(1)))
			require.NoError(t, err)

			_, _, err = rule.Clear(0.5, 0.2)
			require.Error(t, err)
		})
	}
}

func TestScriptPlugins_RunInTournament(t *testing.T) {
	// GIVEN script strategies and a script auction
	stratDir := t.TempDir()
	writeScript(t, stratDir, "truthful.lua", truthfulScript)
	writeScript(t, stratDir, "shade.lua", `function strategy(value, score, payment, roi) return value / roi end`)
	auctionDir := t.TempDir()
	writeScript(t, auctionDir, "fp.lua", firstPriceScript)

	strategies, err := DiscoverStrategies(stratDir)
	require.NoError(t, err)
	auctions, err := DiscoverAuctions(auctionDir)
	require.NoError(t, err)

	// WHEN a small tournament runs
	tour, err := sim.NewTournament(sim.TournamentConfig{Seed: 3, Rounds: 50}, strategies, auctions)
	require.NoError(t, err)
	res, err := tour.RunMatch(tour.Matchups()[0])

	// THEN the match completes with both players having played every round
	require.NoError(t, err)
	assert.Equal(t, 50, res.Rounds)
	assert.Equal(t, "shade", res.Players[0].Strategy)
	assert.Equal(t, "truthful", res.Players[1].Strategy)
	assert.Equal(t, 50, res.Players[0].Wins+res.Players[1].Wins)
}
