package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Result pairs an item's output with its error.
type Result[R any] struct {
	Value R
	Err   error
}

// Map runs fn for every item using at most limit goroutines. Results keep the
// order of items. A limit below 1 runs every item concurrently.
//
// Items not yet started when ctx is cancelled get ctx.Err() as their error.
func Map[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) []Result[R] {
	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}
	if limit < 1 || limit > len(items) {
		limit = len(items)
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		select {
		case <-ctx.Done():
			results[i].Err = ctx.Err()
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			v, err := fn(ctx, item)
			results[i] = Result[R]{Value: v, Err: err}
		}()
	}

	wg.Wait()
	return results
}

// Errors joins all non-nil errors of results, labelling each with its name.
func Errors[R any](results []Result[R], name func(i int) string) error {
	var errs []error
	for i, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name(i), r.Err))
		}
	}
	return errors.Join(errs...)
}
