// Package lifecycle holds process-wide lifecycle constants.
package lifecycle

import "time"

// DefaultTimeout bounds graceful shutdown of deliveries and exporters.
const DefaultTimeout = 10 * time.Second
