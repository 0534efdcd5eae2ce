// Package sim provides the Monte Carlo forecasting engine for npvsim.
//
// # Reading Guide
//
// Start with these files to understand one trial end to end:
//   - assumptions.go: AssumptionSet and its invariants
//   - distribution.go: growth-rate samplers (gaussian, uniform, triangular, student_t, constant)
//   - trajectory.go: path sampling and multiplicative compounding
//   - valuation.go: total revenue, free cash flow and present value (periods 1..H only)
//
// Then the run level:
//   - simulator.go: the Configured -> Running -> Completed lifecycle and Result
//   - executor.go: sequential and parallel trial execution
//   - stats.go: mean, population std and interpolated percentiles
//   - rng.go: seed derivation for the shared stream and per-trial streams
//
// # Determinism
//
// Every random draw of a run comes from sources derived from one seed.
// Streams are always visited in sorted name order. In sequential mode with
// the shared stream, a fixed seed reproduces the outcome sequence bit for bit.
// With per-trial streams (forced for parallel runs) trial i always draws from
// the source derived from (seed, i), so outcomes are identical for any worker
// count.
//
// Persistence of completed runs lives in sim/store/.
package sim
