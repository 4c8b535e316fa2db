// Package schedule invokes the pipeline on a cron cadence or on demand
// and records each run's outcome in the run history.
package schedule
