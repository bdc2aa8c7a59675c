// Package batch splits a range of independent work units, such as Monte
// Carlo trials, into fixed-size spans and runs them sequentially or on a
// bounded number of goroutines.
//
// Key properties:
//   - Spans are contiguous [Start, End) index ranges; the plan depends only on
//     the total and the batch size, never on the worker count
//   - Concurrent runs stop scheduling new spans after the first failure and
//     honor context cancellation
//   - A progress callback receives a snapshot after every completed span;
//     callbacks are serialized, so they may write to a terminal directly
package batch
