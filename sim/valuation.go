package sim

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
)

// Valuation is the pair of private values drawn for one round.
type Valuation struct {
	V1 float64 `json:"v1"`
	V2 float64 `json:"v2"`
}

// ValuationMode selects where a match gets its per-round valuations.
type ValuationMode string

const (
	// ValuationsFresh draws new independent uniform values every round from
	// the match's own RNG stream. A loaded dataset is ignored in this mode.
	ValuationsFresh ValuationMode = "fresh"
	// ValuationsDataset replays a loaded dataset: round i uses entry i.
	ValuationsDataset ValuationMode = "dataset"
)

var validValuationModes = map[ValuationMode]bool{
	ValuationsFresh:   true,
	ValuationsDataset: true,
	"":                true, // empty defaults to fresh
}

// IsValidValuationMode returns true if mode is a recognized valuation mode.
func IsValidValuationMode(mode string) bool {
	return validValuationModes[ValuationMode(mode)]
}

// ValuationSource supplies the valuation pair for a round index.
type ValuationSource interface {
	Valuation(round int) (Valuation, error)
}

// FreshValuations draws v1 then v2 uniformly from [0,1) on every call.
type FreshValuations struct {
	rng *rand.Rand
}

// NewFreshValuations creates a source drawing from rng.
func NewFreshValuations(rng *rand.Rand) *FreshValuations {
	return &FreshValuations{rng: rng}
}

// Valuation ignores round and draws a new pair.
func (f *FreshValuations) Valuation(_ int) (Valuation, error) {
	v1 := f.rng.Float64()
	v2 := f.rng.Float64()
	return Valuation{V1: v1, V2: v2}, nil
}

// DatasetValuations replays a fixed dataset. Safe for concurrent readers.
type DatasetValuations struct {
	values []Valuation
}

// NewDatasetValuations wraps values. The slice must not be mutated afterwards.
func NewDatasetValuations(values []Valuation) *DatasetValuations {
	return &DatasetValuations{values: values}
}

// Valuation returns entry round of the dataset.
func (d *DatasetValuations) Valuation(round int) (Valuation, error) {
	if round < 0 || round >= len(d.values) {
		return Valuation{}, fmt.Errorf("round %d outside valuation dataset of %d rounds", round, len(d.values))
	}
	return d.values[round], nil
}

// Len returns the number of rounds in the dataset.
func (d *DatasetValuations) Len() int { return len(d.values) }

// GenerateValuations draws n valuation pairs uniformly from [0,1).
// Deterministic given rng state.
func GenerateValuations(rng *rand.Rand, n int) []Valuation {
	if n <= 0 {
		return []Valuation{}
	}
	v1s := make([]float64, n)
	v2s := make([]float64, n)
	for i := 0; i < n; i++ {
		v1s[i] = rng.Float64()
		v2s[i] = rng.Float64()
	}
	out := make([]Valuation, n)
	for i := range out {
		out[i] = Valuation{V1: v1s[i], V2: v2s[i]}
	}
	return out
}

// SaveValuations writes values as an indented JSON array of {"v1","v2"} objects.
func SaveValuations(path string, values []Valuation) error {
	if values == nil {
		values = []Valuation{}
	}
	data, err := json.MarshalIndent(values, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding valuations: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing valuations: %w", err)
	}
	return nil
}

// valuationEntry is one decoded dataset entry; nil marks a missing key.
type valuationEntry struct {
	V1 *float64 `json:"v1"`
	V2 *float64 `json:"v2"`
}

// LoadValuations reads a dataset written by SaveValuations.
// The file must hold a JSON array whose entries all carry both v1 and v2,
// finite and within [0,1].
func LoadValuations(path string) ([]Valuation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading valuations: %w", err)
	}
	var entries []*valuationEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing valuations: %w", err)
	}
	if entries == nil {
		return nil, fmt.Errorf("parsing valuations %s: want a JSON array, got null", path)
	}
	values := make([]Valuation, len(entries))
	for i, e := range entries {
		if e == nil || e.V1 == nil || e.V2 == nil {
			return nil, fmt.Errorf("valuation %d: both v1 and v2 are required", i)
		}
		v := Valuation{V1: *e.V1, V2: *e.V2}
		if !validValue(v.V1) || !validValue(v.V2) {
			return nil, fmt.Errorf("valuation %d out of range [0,1]: v1=%v v2=%v", i, v.V1, v.V2)
		}
		values[i] = v
	}
	return values, nil
}

func validValue(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
