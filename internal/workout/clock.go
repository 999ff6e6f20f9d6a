package workout

import (
	"sync"
	"time"
)

// Timer is a running periodic callback.
type Timer interface {
	Stop()
}

// Clock schedules the rest countdown.
type Clock interface {
	// Every calls fn every d until the returned timer is stopped.
	Every(d time.Duration, fn func()) Timer
}

// SystemClock runs callbacks on a [time.Ticker] goroutine.
type SystemClock struct{}

func (SystemClock) Every(d time.Duration, fn func()) Timer {
	t := &tickerTimer{ticker: time.NewTicker(d), done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-t.ticker.C:
				fn()
			case <-t.done:
				return
			}
		}
	}()
	return t
}

type tickerTimer struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *tickerTimer) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}
