package gemini

import (
	"context"
	"time"
)

// pollInterval is the gap between answer reads while waiting for new text.
const pollInterval = 300 * time.Millisecond

// stabilize polls read until the text is unchanged across two consecutive
// reads spaced by pause, or timeout elapses. On timeout it returns whatever
// partial text was last seen — degraded output, not an error. Read errors
// are treated as "no text yet": the DOM churns while the agent streams.
func stabilize(ctx context.Context, read func() (string, error), timeout, pause time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	last := ""

	for time.Now().Before(deadline) {
		txt, err := read()
		if err == nil && txt != "" && txt != last {
			last = txt
			if err := sleepCtx(ctx, pause); err != nil {
				return last, err
			}
			again, err := read()
			if err == nil && again == last {
				return last, nil
			}
			continue
		}
		if err := sleepCtx(ctx, pollInterval); err != nil {
			return last, err
		}
	}
	return last, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
