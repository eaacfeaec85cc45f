package luaplugin

import (
	"fmt"

	"github.com/Shopify/go-lua"

	"github.com/inference-sim/auction-sim/sim"
)

// scriptStrategy calls a script's strategy function once per round.
// One instance per match: a Lua state must not be shared between goroutines.
type scriptStrategy struct {
	name    string
	state   *lua.State
	history sim.History // view served to the script during the current call
}

// Bid implements sim.Strategy.
func (s *scriptStrategy) Bid(rs sim.RoundState) (float64, error) {
	s.history = rs.History
	s.state.Global(strategyFunction)
	s.state.PushNumber(rs.Valuation)
	s.state.PushNumber(rs.CumulativeScore)
	s.state.PushNumber(rs.CumulativePayment)
	s.state.PushNumber(rs.ROITarget)
	s.state.NewTable()
	lua.SetMetaTableNamed(s.state, historyMetaTable)

	if err := s.state.ProtectedCall(5, 1, 0); err != nil {
		return 0, fmt.Errorf("lua strategy %s: %w", s.name, err)
	}
	defer s.state.Pop(1)

	if s.state.TypeOf(-1) != lua.TypeNumber {
		return 0, fmt.Errorf("lua strategy %s returned %s, want number", s.name, luaTypeName(s.state, -1))
	}
	bid, _ := s.state.ToNumber(-1)
	return bid, nil
}

// registerHistoryMetaTable installs the metatable of the history argument.
// The argument is an empty proxy: reads go through __index to the current
// History, each row is built on access, and writes raise an error. A new
// proxy is passed on every call, so even rawset cannot leak into later rounds.
func (s *scriptStrategy) registerHistoryMetaTable() {
	lua.NewMetaTable(s.state, historyMetaTable)
	lua.SetFunctions(s.state, []lua.RegistryFunction{
		{Name: "__index", Function: func(l *lua.State) int {
			if i, ok := historyIndex(l, 2, s.history.Len()); ok {
				pushBidRecord(l, s.history.At(i-1))
			} else {
				l.PushNil()
			}
			return 1
		}},
		{Name: "__newindex", Function: func(l *lua.State) int {
			lua.Errorf(l, "history is read-only")
			return 0
		}},
		{Name: "__len", Function: func(l *lua.State) int {
			l.PushInteger(s.history.Len())
			return 1
		}},
		{Name: "__ipairs", Function: s.historyPairs},
		{Name: "__pairs", Function: s.historyPairs},
	}, 0)
	s.state.PushBoolean(false)
	s.state.SetField(-2, "__metatable")
	s.state.Pop(1)
}

// historyPairs returns an iterator over the rounds, oldest first.
func (s *scriptStrategy) historyPairs(l *lua.State) int {
	l.PushGoFunction(func(l *lua.State) int {
		i := lua.CheckInteger(l, 2) + 1
		if i > s.history.Len() {
			l.PushNil()
			return 1
		}
		l.PushInteger(i)
		pushBidRecord(l, s.history.At(i-1))
		return 2
	})
	l.PushValue(1)
	l.PushInteger(0)
	return 3
}

// historyIndex reads the key at index as a 1-based round number.
func historyIndex(l *lua.State, index, length int) (int, bool) {
	if l.TypeOf(index) != lua.TypeNumber {
		return 0, false
	}
	n, _ := l.ToNumber(index)
	i := int(n)
	if float64(i) != n || i < 1 || i > length {
		return 0, false
	}
	return i, true
}

func pushBidRecord(l *lua.State, r sim.BidRecord) {
	l.CreateTable(0, 4)
	l.PushNumber(r.Valuation)
	l.SetField(-2, "value")
	l.PushNumber(r.Bid)
	l.SetField(-2, "bid")
	l.PushBoolean(r.Won)
	l.SetField(-2, "won")
	l.PushNumber(r.Payment)
	l.SetField(-2, "payment")
}

// scriptAuction calls a script's auction function once per round.
type scriptAuction struct {
	name  string
	state *lua.State
}

// Clear implements sim.AuctionRule.
func (a *scriptAuction) Clear(bid1, bid2 float64) (sim.Outcome, sim.Outcome, error) {
	a.state.Global(auctionFunction)
	a.state.PushNumber(bid1)
	a.state.PushNumber(bid2)

	if err := a.state.ProtectedCall(2, 2, 0); err != nil {
		return sim.Outcome{}, sim.Outcome{}, fmt.Errorf("lua auction %s: %w", a.name, err)
	}
	defer a.state.Pop(2)

	o1, err := outcomeAt(a.state, -2)
	if err != nil {
		return sim.Outcome{}, sim.Outcome{}, fmt.Errorf("lua auction %s, outcome 1: %w", a.name, err)
	}
	o2, err := outcomeAt(a.state, -1)
	if err != nil {
		return sim.Outcome{}, sim.Outcome{}, fmt.Errorf("lua auction %s, outcome 2: %w", a.name, err)
	}
	return o1, o2, nil
}

// outcomeAt reads a {won, payment} table at index.
func outcomeAt(state *lua.State, index int) (sim.Outcome, error) {
	if state.TypeOf(index) != lua.TypeTable {
		return sim.Outcome{}, fmt.Errorf("got %s, want table {won, payment}", luaTypeName(state, index))
	}
	index = state.AbsIndex(index)

	state.RawGetInt(index, 1)
	won, err := allocationFlag(state, -1)
	state.Pop(1)
	if err != nil {
		return sim.Outcome{}, err
	}

	state.RawGetInt(index, 2)
	defer state.Pop(1)
	if state.TypeOf(-1) != lua.TypeNumber {
		return sim.Outcome{}, fmt.Errorf("payment is %s, want number", luaTypeName(state, -1))
	}
	payment, _ := state.ToNumber(-1)
	return sim.Outcome{Won: won, Payment: payment}, nil
}

// allocationFlag accepts a boolean or a number (non-zero = won).
func allocationFlag(state *lua.State, index int) (bool, error) {
	switch state.TypeOf(index) {
	case lua.TypeBoolean:
		return state.ToBoolean(index), nil
	case lua.TypeNumber:
		n, _ := state.ToNumber(index)
		return n != 0, nil
	default:
		return false, fmt.Errorf("allocation is %s, want boolean or number", luaTypeName(state, index))
	}
}
