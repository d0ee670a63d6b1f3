// Package delivery defines the contract every serving surface implements.
package delivery

import "context"

// Delivery is a long-running serving surface (HTTP server, worker). Serve
// blocks until the surface stops; shutdown is driven through Fx lifecycle
// hooks.
type Delivery interface {
	Serve(ctx context.Context) error
}
