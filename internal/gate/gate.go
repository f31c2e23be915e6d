// Package gate provides the bounded-parallelism primitive that limits how
// many part operations are in flight at once.
package gate

import (
	"context"
	"runtime"
)

// DefaultLimit returns the concurrency bound used when the caller does not
// supply one: twice the available CPU parallelism.
func DefaultLimit() int {
	return runtime.NumCPU() * 2
}

// Gate is a counting semaphore admitting at most N concurrent holders.
// The zero value is not usable; construct with New.
type Gate struct {
	permits chan struct{}
}

// New creates a Gate admitting up to limit concurrent holders. A limit
// below one falls back to DefaultLimit.
func New(limit int) *Gate {
	if limit < 1 {
		limit = DefaultLimit()
	}
	return &Gate{permits: make(chan struct{}, limit)}
}

// Limit returns the maximum number of concurrent holders.
func (g *Gate) Limit() int {
	return cap(g.permits)
}

// Acquire blocks until a permit is available or the context is done.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.permits <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a permit. It must be called exactly once per successful
// Acquire.
func (g *Gate) Release() {
	<-g.permits
}
