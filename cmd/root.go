package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ikiru/npvsim/sim"
	"github.com/ikiru/npvsim/sim/store"
)

var (
	// CLI flags for the simulation run
	seed            int64     // Seed for every random draw of the run
	trials          int       // Number of Monte Carlo trials
	percentiles     []float64 // Percentiles to report
	workers         int       // Parallel workers; 1 = sequential
	perTrialStreams bool      // Derive one random stream per trial
	assumptionsPath string    // YAML assumptions file; empty = built-in defaults
	logLevel        string    // Log verbosity level
	dbPath          string    // SQLite run store; empty = do not persist
	currency        string    // Currency symbol for the report
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "npvsim",
	Short: "Monte Carlo forecast of multi-year free cash flow NPV",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the NPV simulation",
	Run: func(cmd *cobra.Command, args []string) {
		assumptions := sim.DefaultAssumptions()
		if assumptionsPath != "" {
			var err error
			assumptions, err = sim.LoadAssumptions(assumptionsPath)
			if err != nil {
				logrus.Fatalf("Failed to load assumptions: %v", err)
			}
		}

		s, err := sim.NewSimulator(assumptions, sim.Options{
			Trials:          trials,
			Seed:            seed,
			Percentiles:     percentiles,
			Workers:         workers,
			PerTrialStreams: perTrialStreams,
		})
		if err != nil {
			logrus.Fatalf("Invalid simulation configuration: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		logrus.Infof("Starting simulation: trials=%d, seed=%d, workers=%d, horizon=%d",
			trials, seed, workers, assumptions.HorizonPeriods)
		result, err := s.Run(ctx)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		if dbPath != "" {
			st, err := store.Open(dbPath)
			if err != nil {
				logrus.Fatalf("Failed to open run store: %v", err)
			}
			defer st.Close()
			if err := st.SaveRun(ctx, result, s.Assumptions()); err != nil {
				logrus.Fatalf("Failed to save run: %v", err)
			}
			logrus.Infof("Saved run %s to %s", result.RunID, dbPath)
		}

		printResult(os.Stdout, result, currency)
		logrus.Info("Simulation complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&currency, "currency", "₹", "Currency symbol used in reports")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite run store (run persists into it when set)")

	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for every random draw of the run")
	runCmd.Flags().IntVar(&trials, "trials", 10000, "Number of Monte Carlo trials")
	runCmd.Flags().Float64SliceVar(&percentiles, "percentiles", []float64{5, 50, 95}, "Comma-separated percentiles to report")
	runCmd.Flags().IntVar(&workers, "workers", 1, "Parallel workers (1 = sequential)")
	runCmd.Flags().BoolVar(&perTrialStreams, "per-trial-streams", false, "Derive an independent random stream per trial (implied by --workers > 1)")
	runCmd.Flags().StringVar(&assumptionsPath, "assumptions", "", "Path to YAML assumptions file (default: built-in plan)")

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
}
