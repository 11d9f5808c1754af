package pacing

import (
	"context"
	"time"
)

// Hold suspends until at least min has elapsed since start.
// It returns immediately when that already happened, and returns ctx.Err()
// if the context ends first.
func Hold(ctx context.Context, start time.Time, min time.Duration) error {
	remaining := min - time.Since(start)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Sleep is Hold measured from now.
func Sleep(ctx context.Context, d time.Duration) error {
	return Hold(ctx, time.Now(), d)
}
