// Package fanout runs one call per item under a concurrency ceiling.
//
// Both the prober and every verifier engine go through Run, so the
// bounded-concurrency discipline lives in exactly one place.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit is the ceiling used when limit is not positive.
const DefaultLimit = 10

// Run calls fn once per item with at most limit calls in flight.
// Completion order is unspecified. fn owns its own error handling; a
// failing item never stops the others.
//
// Once ctx is done no further calls are started and Run returns ctx.Err()
// after the in-flight calls finish.
func Run[T any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, item T)) error {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			fn(ctx, item)
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // goroutines never return errors
	return ctx.Err()
}
