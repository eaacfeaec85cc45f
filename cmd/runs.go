package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/inference-sim/auction-sim/sim/store"
)

var runsDB string

// runsCmd groups commands over persisted runs
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect tournament runs saved with --results-db",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved runs, most recent first",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		s := openRunsStore()
		defer s.Close()

		runs, err := s.ListRuns(cmd.Context())
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		printRuns(os.Stdout, runs)
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Print the leaderboard of a saved run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		s := openRunsStore()
		defer s.Close()

		standings, err := s.LoadStandings(cmd.Context(), args[0])
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		standings.Print(os.Stdout)
	},
}

func openRunsStore() *store.Store {
	if runsDB == "" {
		logrus.Fatalf("--results-db is required")
	}
	if _, err := os.Stat(runsDB); err != nil {
		logrus.Fatalf("Results database %s: %v", runsDB, err)
	}
	s, err := store.Open(runsDB)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	return s
}

func newPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}

func printRuns(w io.Writer, runs []store.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs saved.")
		return
	}
	p := newPrinter()
	for _, r := range runs {
		p.Fprintf(w, "%s  %s  seed=%d rounds=%d valuations=%s strategies=%d matches=%d wall=%v\n",
			r.RunID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Seed, r.Rounds,
			r.ValuationMode, r.Strategies, r.Matches, r.WallTime)
	}
}

func init() {
	runsCmd.PersistentFlags().StringVar(&runsDB, "results-db", "", "SQLite results database")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)

	rootCmd.AddCommand(runsCmd)
}
