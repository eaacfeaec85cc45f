package trace

// TraceLevel controls the verbosity of tournament tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelMatches captures one record per match.
	TraceLevelMatches TraceLevel = "matches"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:    true,
	TraceLevelMatches: true,
	"":                true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// Enabled reports whether match records should be collected.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelMatches
}

// TournamentTrace collects match records during a tournament.
type TournamentTrace struct {
	Config  TraceConfig
	Matches []MatchRecord
}

// NewTournamentTrace creates a TournamentTrace ready for recording.
func NewTournamentTrace(config TraceConfig) *TournamentTrace {
	return &TournamentTrace{
		Config:  config,
		Matches: make([]MatchRecord, 0),
	}
}

// RecordMatch appends a match record.
func (tt *TournamentTrace) RecordMatch(record MatchRecord) {
	tt.Matches = append(tt.Matches, record)
}
