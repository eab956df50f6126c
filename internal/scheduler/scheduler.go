// Package scheduler provides the tick sources that drive the scan and
// poll loops. Loops consume a plain tick channel, so tests drive them by
// sending on a channel instead of waiting on wall-clock timers.
package scheduler

import (
	"sync"
	"time"
)

// Source emits ticks on a fixed interval. Stop halts future ticks;
// in-flight consumer work is unaffected.
type Source struct {
	ticker *time.Ticker
	ch     chan time.Time

	stopOnce sync.Once
	done     chan struct{}
}

// Every creates a running tick source. When immediate is set, one tick is
// emitted right away before the interval cadence starts. Ticks are dropped
// rather than queued when the consumer is still busy.
func Every(interval time.Duration, immediate bool) *Source {
	s := &Source{
		ticker: time.NewTicker(interval),
		ch:     make(chan time.Time, 1),
		done:   make(chan struct{}),
	}
	if immediate {
		s.ch <- time.Now()
	}
	go s.run()
	return s
}

func (s *Source) run() {
	for {
		select {
		case <-s.done:
			return
		case t := <-s.ticker.C:
			select {
			case s.ch <- t:
			default: // consumer busy, drop the tick
			}
		}
	}
}

// Ticks returns the tick channel.
func (s *Source) Ticks() <-chan time.Time { return s.ch }

// Stop halts the source. Safe to call more than once.
func (s *Source) Stop() {
	s.stopOnce.Do(func() {
		s.ticker.Stop()
		close(s.done)
	})
}
