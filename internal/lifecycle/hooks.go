package lifecycle

import (
	"context"
	"time"
)

// Hook describes a named shutdown step.
type Hook struct {
	Name string
	Fn   func(ctx context.Context) error
	// Timeout bounds this hook; zero means the Shutdown default.
	Timeout time.Duration
}
