package cmd

import (
	"fmt"
	"io"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/ikiru/npvsim/sim"
	"github.com/ikiru/npvsim/sim/store"
)

// formatMoney renders v rounded to whole units with thousands separators,
// sign before the currency symbol.
func formatMoney(symbol string, v float64) string {
	rounded := math.Round(v)
	if rounded < 0 {
		return "-" + symbol + humanize.Commaf(-rounded)
	}
	return symbol + humanize.Commaf(math.Abs(rounded))
}

func executionMode(workers int, perTrial bool) string {
	switch {
	case workers > 1:
		return fmt.Sprintf("parallel, %d workers", workers)
	case perTrial:
		return "sequential, per-trial streams"
	default:
		return "sequential"
	}
}

// printResult writes the report for a freshly completed run.
func printResult(w io.Writer, r *sim.Result, symbol string) {
	fmt.Fprintln(w, "\n--- Financial Simulation Results ---")
	fmt.Fprintf(w, "Run ID:          %s\n", r.RunID)
	fmt.Fprintf(w, "Trials:          %s (seed %d, %s)\n", humanize.Comma(int64(r.Trials)), r.Seed, executionMode(r.Workers, r.PerTrialStreams))
	fmt.Fprintf(w, "Elapsed:         %s\n", r.Elapsed)
	printSummary(w, r.HorizonPeriods, r.Summary, symbol)

	if len(r.MeanRevenue) > 0 {
		fmt.Fprintln(w, "\nExpected Total Revenue:")
		for i, v := range r.MeanRevenue {
			fmt.Fprintf(w, "  Year %d: %s\n", i, formatMoney(symbol, v))
		}
	}
	fmt.Fprintln(w, "---------------------------------")
}

// printRecord writes the report for a stored run.
func printRecord(w io.Writer, rec store.RunRecord, symbol string) {
	fmt.Fprintln(w, "\n--- Stored Simulation Run ---")
	fmt.Fprintf(w, "Run ID:          %s\n", rec.ID)
	fmt.Fprintf(w, "Created:         %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Trials:          %s (seed %d, %s)\n", humanize.Comma(int64(rec.Trials)), rec.Seed, executionMode(rec.Workers, rec.PerTrialStreams))
	printSummary(w, rec.HorizonPeriods, sim.Summary{
		Mean:        rec.Mean,
		Std:         rec.Std,
		Min:         rec.Min,
		Max:         rec.Max,
		Skewness:    rec.Skewness,
		ProbLoss:    rec.ProbLoss,
		Percentiles: rec.Percentiles,
	}, symbol)
	fmt.Fprintln(w, "---------------------------------")
}

func printSummary(w io.Writer, horizon int, s sim.Summary, symbol string) {
	fmt.Fprintf(w, "Mean %d-Year NPV: %s\n", horizon, formatMoney(symbol, s.Mean))
	fmt.Fprintf(w, "Std Dev of NPV:  %s\n", formatMoney(symbol, s.Std))
	fmt.Fprintf(w, "Range:           %s .. %s\n", formatMoney(symbol, s.Min), formatMoney(symbol, s.Max))
	fmt.Fprintf(w, "Skewness:        %.4f\n", s.Skewness)
	fmt.Fprintf(w, "P(NPV < 0):      %.2f%%\n", s.ProbLoss*100)
	printPercentiles(w, s.Percentiles, symbol)
}

func printPercentiles(w io.Writer, pcts map[string]float64, symbol string) {
	if len(pcts) == 0 {
		return
	}
	fmt.Fprintln(w, "\nNPV Distribution Percentiles:")
	for _, label := range sim.SortedPercentileLabels(pcts) {
		suffix := ""
		if label == "p50" {
			suffix = " (Median)"
		}
		fmt.Fprintf(w, "  %-6s %s%s\n", label+":", formatMoney(symbol, pcts[label]), suffix)
	}
}
