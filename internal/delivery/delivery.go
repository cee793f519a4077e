// Package delivery defines the transports that expose the gateway.
package delivery

import "context"

// Delivery is a long-running transport started by the fx container.
type Delivery interface {
	Serve(ctx context.Context) error
}
