// Package health reports whether the server's backing store is reachable,
// for use by the /healthz endpoint.
package health

import "context"

// Pinger is satisfied by *store.Store; kept as an interface here so this
// package does not import store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker answers liveness/readiness queries against the store.
type Checker struct {
	pinger Pinger
}

// New creates a Checker backed by pinger.
func New(pinger Pinger) *Checker {
	return &Checker{pinger: pinger}
}

// Ready reports whether the backing store currently answers pings.
func (c *Checker) Ready(ctx context.Context) error {
	return c.pinger.Ping(ctx)
}
