package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ikiru/npvsim/sim"
	"github.com/ikiru/npvsim/sim/store"
)

var (
	historyLimit    int
	showPercentiles []float64
)

// --- npvsim history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List simulation runs saved in the run store",
	Run: func(cmd *cobra.Command, args []string) {
		st := openStoreOrDie()
		defer st.Close()

		runs, err := st.ListRuns(context.Background(), historyLimit)
		if err != nil {
			logrus.Fatalf("Failed to list runs: %v", err)
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tTRIALS\tSEED\tMEAN NPV\tP(LOSS)")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%.2f%%\n",
				r.ID, humanize.Time(r.CreatedAt), humanize.Comma(int64(r.Trials)), r.Seed,
				formatMoney(currency, r.Mean), r.ProbLoss*100)
		}
		if err := tw.Flush(); err != nil {
			logrus.Fatalf("Failed to write history: %v", err)
		}
	},
}

// --- npvsim show <run-id> ---

var showCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a stored run, optionally with additional percentiles",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openStoreOrDie()
		defer st.Close()

		ctx := context.Background()
		rec, err := st.GetRun(ctx, args[0])
		if err != nil {
			logrus.Fatalf("Failed to load run: %v", err)
		}
		if len(showPercentiles) > 0 {
			outcomes, err := st.Outcomes(ctx, rec.ID)
			if err != nil {
				logrus.Fatalf("Failed to load outcomes: %v", err)
			}
			extra, err := sim.Percentiles(outcomes, showPercentiles)
			if err != nil {
				logrus.Fatalf("Failed to compute percentiles: %v", err)
			}
			for label, v := range extra {
				rec.Percentiles[label] = v
			}
		}
		printRecord(os.Stdout, rec, currency)
	},
}

func openStoreOrDie() *store.Store {
	if dbPath == "" {
		logrus.Fatalf("--db is required")
	}
	st, err := store.Open(dbPath)
	if err != nil {
		logrus.Fatalf("Failed to open run store: %v", err)
	}
	return st
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list")

	showCmd.Flags().Float64SliceVar(&showPercentiles, "percentiles", nil, "Additional percentiles computed from the stored outcomes")
}
