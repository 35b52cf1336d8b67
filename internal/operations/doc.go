// Package operations runs per-symbol tasks over a bounded worker pool.
//
// A Runner pulls symbols from the batch, paces task starts with a token
// bucket, bounds each task with a timeout and keeps an atomic progress count
// that is logged as "(i/n) symbol" and served by the status server. A
// failing symbol is logged and recorded; it never stops the batch. Only
// cancellation of the parent context ends a run early.
package operations
