//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

// Package parallel provides the process-wide bounded worker pool used to fan
// sub-flows out over many inputs. Acquiring a worker is the only
// synchronization point between logical conversations.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/oracle/wayflow-sub000/log"
)

var (
	poolOnce sync.Once
	poolMu   sync.Mutex
	pool     *ants.Pool
)

// Pool returns the shared worker pool, creating it on first use with one
// worker per available CPU.
func Pool() *ants.Pool {
	poolOnce.Do(func() {
		p, err := ants.NewPool(runtime.NumCPU())
		if err != nil {
			// NewPool only fails on a non-positive size.
			log.Fatalf("create worker pool: %v", err)
		}
		pool = p
	})
	return pool
}

// SetMaxWorkers resizes the shared pool.
func SetMaxWorkers(n int) {
	if n <= 0 {
		return
	}
	poolMu.Lock()
	defer poolMu.Unlock()
	Pool().Tune(n)
}

// ItemError reports the failure of a single fan-out item.
type ItemError struct {
	// Index is the input position of the failed item.
	Index int
	// Err is the item's failure.
	Err error
}

// Error implements the error interface.
func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *ItemError) Unwrap() error { return e.Err }

// MapOption configures Map.
type MapOption func(*mapOptions)

type mapOptions struct {
	collectErrors bool
}

// WithCollectErrors switches Map from fail-fast to partial-failure mode:
// every item runs to completion and all item errors are returned together.
func WithCollectErrors() MapOption {
	return func(o *mapOptions) { o.collectErrors = true }
}

// Map runs fn for every index in [0, n) on the shared pool and returns the
// results in input order regardless of completion order. By default the
// first item error cancels the remaining items and is returned alone; with
// WithCollectErrors all items run and errors are reported per item.
func Map(ctx context.Context, n int, fn func(ctx context.Context, i int) (any, error), opts ...MapOption) ([]any, error) {
	var o mapOptions
	for _, opt := range opts {
		opt(&o)
	}
	if n == 0 {
		return nil, nil
	}

	itemCtx := ctx
	var cancel context.CancelFunc
	if !o.collectErrors {
		itemCtx, cancel = context.WithCancel(ctx)
		defer cancel()
	}

	results := make([]any, n)
	itemErrs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		idx := i
		err := Pool().Submit(func() {
			defer wg.Done()
			if !o.collectErrors && itemCtx.Err() != nil {
				itemErrs[idx] = itemCtx.Err()
				return
			}
			out, err := fn(itemCtx, idx)
			if err != nil {
				itemErrs[idx] = err
				if cancel != nil {
					cancel()
				}
				return
			}
			results[idx] = out
		})
		if err != nil {
			wg.Done()
			itemErrs[idx] = fmt.Errorf("submit to worker pool: %w", err)
			if cancel != nil {
				cancel()
			}
		}
	}
	wg.Wait()

	if o.collectErrors {
		var errs []error
		for i, err := range itemErrs {
			if err != nil {
				errs = append(errs, &ItemError{Index: i, Err: err})
			}
		}
		if len(errs) > 0 {
			return results, errors.Join(errs...)
		}
		return results, nil
	}
	for i, err := range itemErrs {
		if err != nil && !errors.Is(err, context.Canceled) {
			return nil, &ItemError{Index: i, Err: err}
		}
	}
	// Only cancellations remain, surface the first one.
	for i, err := range itemErrs {
		if err != nil {
			return nil, &ItemError{Index: i, Err: err}
		}
	}
	return results, nil
}
