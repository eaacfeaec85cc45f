// Ranks strategies by tournament total and renders the final leaderboard.

package sim

import (
	"io"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Standing is one leaderboard row.
type Standing struct {
	Rank         int     // 1 = highest total
	Strategy     string  // strategy identifier
	TotalScore   float64 // sum of final match scores over all pairs and auction rules
	AverageScore float64 // TotalScore / Opponents; 0 when there are no opponents
	Opponents    int     // distinct opponents (n-1), independent of the number of auction rules
}

// HasAverage reports whether AverageScore is defined (at least one opponent).
func (s Standing) HasAverage() bool { return s.Opponents > 0 }

// Standings is the ranked leaderboard, rank 1 first.
type Standings []Standing

// RankStandings sorts strategies by descending total. Equal totals keep the
// order of names (discovery order).
//
// The average divides by the number of distinct opponents (n-1) even when
// several auction rules were played, so with U rules it is U times the
// per-match average.
func RankStandings(names []string, totals []float64) Standings {
	opponents := max(len(names)-1, 0)
	rows := make(Standings, len(names))
	for i, name := range names {
		rows[i] = Standing{
			Strategy:   name,
			TotalScore: totals[i],
			Opponents:  opponents,
		}
		if opponents > 0 {
			rows[i].AverageScore = totals[i] / float64(opponents)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalScore > rows[j].TotalScore
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

// Lookup returns the row for strategy.
func (s Standings) Lookup(strategy string) (Standing, bool) {
	for _, row := range s {
		if row.Strategy == strategy {
			return row, true
		}
	}
	return Standing{}, false
}

// Print writes the leaderboard to w.
func (s Standings) Print(w io.Writer) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "=== Total Scores ===\n")
	for _, row := range s {
		avg := "n/a"
		if row.HasAverage() {
			avg = p.Sprintf("%.3f", row.AverageScore)
		}
		p.Fprintf(w, "#%d: %-16s %.3f  (%s average)\n", row.Rank, row.Strategy+":", row.TotalScore, avg)
	}
}
