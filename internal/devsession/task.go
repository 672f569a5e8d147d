package devsession

import (
	"context"
	"time"
)

// periodicTask runs fn every interval on its own goroutine until fn
// returns false, ctx is done, or Stop is called.
type periodicTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startPeriodic(ctx context.Context, interval time.Duration, fn func(context.Context) bool) *periodicTask {
	ctx, cancel := context.WithCancel(ctx)
	t := &periodicTask{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(t.done)
		defer cancel()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !fn(ctx) {
					return
				}
			}
		}
	}()
	return t
}

// Stop cancels the task and waits for its goroutine to exit. It must not
// be called from fn.
func (t *periodicTask) Stop() {
	t.cancel()
	<-t.done
}

func (t *periodicTask) running() bool {
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}
