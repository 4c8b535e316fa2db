// Package store provides PostgreSQL persistence for the pipeline.
//
// The store:
//   - Manages a single pgx connection pool shared across a run
//   - Creates the schema idempotently before first use
//   - Upserts rows in chunked batches, one transaction per chunk, keyed
//     on (symbol, ts) so repeated ingestion converges to the same state
//   - Retries transient errors (deadlock, serialization failure,
//     connection drop) a bounded number of times
//   - Records a run-history row per pipeline run
package store
