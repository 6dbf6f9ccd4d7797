// Package analysis drives batches of independent per-item model calls
// and folds their outcomes into a single aggregate result. Items are
// processed sequentially: the backing model clients are memory- and
// rate-limited, so fanning out buys nothing but OOMs and throttling.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// MaxBatchItems is the hard cap on items per batch request. Requests
// above the cap are rejected outright, never truncated.
const MaxBatchItems = 10

// ErrBatchTooLarge is returned when a batch exceeds MaxBatchItems.
var ErrBatchTooLarge = errors.New("batch exceeds maximum item count")

// Outcome is the successful result of analyzing one item.
type Outcome struct {
	Description string
	Model       string
}

// ItemResult records the outcome of one item: either the success
// payload or a failure message, never both.
type ItemResult struct {
	Index   int
	Outcome *Outcome
	Failure string
}

// Succeeded reports whether the item produced a result.
func (r ItemResult) Succeeded() bool { return r.Outcome != nil }

// BatchResult aggregates per-item results in input order.
type BatchResult struct {
	Items     []ItemResult
	Total     int
	Succeeded int
	Failed    int
	Elapsed   time.Duration
}

// CheckBatchSize rejects oversized batches before any work starts.
func CheckBatchSize(n int) error {
	if n > MaxBatchItems {
		return fmt.Errorf("%w: got %d items, maximum is %d", ErrBatchTooLarge, n, MaxBatchItems)
	}
	return nil
}

// Run analyzes each item with the supplied function, sequentially and
// in order. An error (or panic) from one item is recorded as that
// item's failure and never aborts the rest of the batch. The result
// preserves input order and satisfies Succeeded+Failed == Total ==
// len(Items).
func Run[T any](ctx context.Context, items []T, analyze func(context.Context, T) (Outcome, error)) BatchResult {
	start := time.Now()
	result := BatchResult{
		Items: make([]ItemResult, 0, len(items)),
		Total: len(items),
	}

	for i, item := range items {
		outcome, err := runOne(ctx, item, analyze)
		if err != nil {
			result.Items = append(result.Items, ItemResult{Index: i, Failure: err.Error()})
			result.Failed++
			continue
		}
		result.Items = append(result.Items, ItemResult{Index: i, Outcome: &outcome})
		result.Succeeded++
	}

	result.Elapsed = time.Since(start)
	return result
}

// runOne isolates a single analysis call, converting panics from the
// injected function into ordinary per-item errors.
func runOne[T any](ctx context.Context, item T, analyze func(context.Context, T) (Outcome, error)) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panicked: %v", r)
		}
	}()
	return analyze(ctx, item)
}
