// Package luaplugin discovers strategies and auction rules written as Lua
// scripts. Every *.lua file in a directory becomes one plugin whose
// identifier is the file name without the extension.
//
// A strategy script defines a global function
//
//	function strategy(value, score, payment, roi, history) return bid end
//
// where history is an array (oldest first) of tables with the fields value,
// bid, won and payment.
//
// An auction script defines a global function
//
//	function auction(bid1, bid2) return {won1, payment1}, {won2, payment2} end
//
// where won is a boolean or 1/0.
//
// Scripts get a global random() returning a float in [0,1) from the match's
// own stream. math.random and math.randomseed are rebound to the same stream,
// so runs with the same seed are reproducible whichever one a script uses.
// The history argument is read-only.
package luaplugin

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Shopify/go-lua"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/auction-sim/sim"
)

const (
	scriptExt        = ".lua"
	strategyFunction = "strategy"
	auctionFunction  = "auction"
	randomFunction   = "random"
	historyMetaTable = "auction_sim.history"
)

// DiscoverStrategies registers every strategy script in dir.
// Scripts are loaded once up front so a broken file fails discovery.
func DiscoverStrategies(dir string) (*sim.StrategyRegistry, error) {
	files, err := scriptFiles(dir)
	if err != nil {
		return nil, err
	}
	reg := sim.NewRegistry[sim.StrategyFactory]("strategy")
	for _, path := range files {
		if _, err := newScriptState(path, strategyFunction, rand.New(rand.NewSource(0))); err != nil {
			return nil, err
		}
		if err := reg.Register(scriptName(path), strategyFactory(path)); err != nil {
			return nil, err
		}
	}
	logrus.Infof("Discovered %d strategy scripts in %s", reg.Len(), dir)
	return reg, nil
}

// DiscoverAuctions registers every auction script in dir.
func DiscoverAuctions(dir string) (*sim.AuctionRegistry, error) {
	files, err := scriptFiles(dir)
	if err != nil {
		return nil, err
	}
	reg := sim.NewRegistry[sim.AuctionFactory]("auction")
	for _, path := range files {
		if _, err := newScriptState(path, auctionFunction, rand.New(rand.NewSource(0))); err != nil {
			return nil, err
		}
		if err := reg.Register(scriptName(path), auctionFactory(path)); err != nil {
			return nil, err
		}
	}
	logrus.Infof("Discovered %d auction scripts in %s", reg.Len(), dir)
	return reg, nil
}

// scriptFiles lists *.lua files in dir, sorted by name.
func scriptFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading plugin dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), scriptExt) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func scriptName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// newScriptState loads path into a fresh Lua state and checks that it
// defines the global function entry.
func newScriptState(path, entry string, rng *rand.Rand) (*lua.State, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)
	bindRandom(state, rng)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua %s: %w", path, err)
	}
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return nil, fmt.Errorf("run lua %s: %w", path, err)
	}

	state.Global(entry)
	isFunction := state.IsFunction(-1)
	state.Pop(1)
	if !isFunction {
		return nil, fmt.Errorf("lua %s must define global function %q", path, entry)
	}
	return state, nil
}

// bindRandom replaces the global random() and the math library's generator
// with rng. go-lua's own math.random reads a process-wide source.
func bindRandom(state *lua.State, rng *rand.Rand) {
	state.Register(randomFunction, func(l *lua.State) int {
		l.PushNumber(rng.Float64())
		return 1
	})

	state.Global("math")
	lua.SetFunctions(state, []lua.RegistryFunction{
		{Name: "random", Function: func(l *lua.State) int {
			r := rng.Float64()
			switch l.Top() {
			case 0:
				l.PushNumber(r)
			case 1:
				u := lua.CheckNumber(l, 1)
				lua.ArgumentCheck(l, 1 <= u, 1, "interval is empty")
				l.PushNumber(math.Floor(r*u) + 1) // [1, u]
			case 2:
				lo, u := lua.CheckNumber(l, 1), lua.CheckNumber(l, 2)
				lua.ArgumentCheck(l, lo <= u, 2, "interval is empty")
				l.PushNumber(math.Floor(r*(u-lo+1)) + lo) // [lo, u]
			default:
				lua.Errorf(l, "wrong number of arguments")
			}
			return 1
		}},
		{Name: "randomseed", Function: func(l *lua.State) int {
			rng.Seed(int64(lua.CheckUnsigned(l, 1)))
			return 0
		}},
	}, 0)
	state.Pop(1)
}

func strategyFactory(path string) sim.StrategyFactory {
	return func(rng *rand.Rand) (sim.Strategy, error) {
		state, err := newScriptState(path, strategyFunction, rng)
		if err != nil {
			return nil, err
		}
		s := &scriptStrategy{name: scriptName(path), state: state}
		s.registerHistoryMetaTable()
		return s, nil
	}
}

func auctionFactory(path string) sim.AuctionFactory {
	return func(rng *rand.Rand) (sim.AuctionRule, error) {
		state, err := newScriptState(path, auctionFunction, rng)
		if err != nil {
			return nil, err
		}
		return &scriptAuction{name: scriptName(path), state: state}, nil
	}
}

// luaTypeName returns the Lua type name of the value at index.
func luaTypeName(state *lua.State, index int) string {
	switch state.TypeOf(index) {
	case lua.TypeNil:
		return "nil"
	case lua.TypeBoolean:
		return "boolean"
	case lua.TypeNumber:
		return "number"
	case lua.TypeString:
		return "string"
	case lua.TypeTable:
		return "table"
	case lua.TypeFunction:
		return "function"
	default:
		return "userdata"
	}
}
