package scheduler

import (
	"context"
	"sync"
	"time"

	"NewsPoster/internal/ports"
)

// Interval fires a job on a fixed cadence after an initial offset. The job
// runs inline in the trigger goroutine, so a run that overlaps its next tick
// delays or drops that tick instead of stacking concurrent runs.
type Interval struct {
	interval time.Duration
	offset   time.Duration
	mu       sync.Mutex
	stop     chan struct{}
}

var _ ports.Scheduler = (*Interval)(nil)

// NewInterval configures cadence and initial offset.
func NewInterval(interval, offset time.Duration) *Interval {
	return &Interval{interval: interval, offset: offset}
}

// Start launches the trigger goroutine. Calling Start twice is a no-op.
func (i *Interval) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	i.mu.Lock()
	if i.stop != nil {
		i.mu.Unlock()
		return nil
	}
	i.stop = make(chan struct{})
	stop := i.stop
	i.mu.Unlock()
	go func() {
		timer := time.NewTimer(i.offset)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case t := <-timer.C:
			job(t)
		}

		ticker := time.NewTicker(i.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case t := <-ticker.C:
				job(t)
			}
		}
	}()

	return nil
}

// Stop halts the trigger goroutine.
func (i *Interval) Stop(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.stop == nil {
		return nil
	}
	close(i.stop)
	i.stop = nil
	return nil
}
