// Package fetch implements the provider HTTP client.
//
// The client:
//   - Issues authenticated GETs against the daily time-series endpoint
//   - Retries transient failures (network errors, 5xx, 429) with
//     exponential backoff and jitter
//   - Treats the provider's in-band "Note" payload as a rate-limit
//     signal, not a hard failure, and backs off before retrying
//   - Reuses one underlying http.Client across all calls in a run
//
// A Pacer enforces the minimum inter-call delay between symbols,
// independent of retry backoff.
package fetch
