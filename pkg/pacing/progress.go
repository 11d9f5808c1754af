package pacing

import (
	"sync"
	"time"
)

// Progress advances linearly from 0 to 100 over a nominal duration,
// one step per tick, clamped at 100. It runs on its own goroutine so the
// caller's network call never waits on it.
type Progress struct {
	mu       sync.Mutex
	percent  int
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// StartProgress begins ticking immediately. onUpdate may be nil and is called
// from the ticker goroutine with the new percentage.
func StartProgress(duration, tick time.Duration, onUpdate func(percent int)) *Progress {
	p := &Progress{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	if duration <= 0 || tick <= 0 {
		p.percent = 100
		close(p.done)
		return p
	}

	go p.run(duration, tick, onUpdate)
	return p
}

// PercentAt is the progress after ticks ticks of length tick over duration.
func PercentAt(ticks int, tick, duration time.Duration) int {
	if duration <= 0 {
		return 100
	}
	return min(100, int(int64(ticks)*100*int64(tick)/int64(duration)))
}

func (p *Progress) run(duration, tick time.Duration, onUpdate func(int)) {
	defer close(p.done)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for n := 1; ; n++ {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			current := PercentAt(n, tick, duration)
			p.mu.Lock()
			p.percent = current
			p.mu.Unlock()

			if onUpdate != nil {
				onUpdate(current)
			}
			if current >= 100 {
				return
			}
		}
	}
}

// Stop cancels the ticker and waits for it to exit. No update is delivered
// after Stop returns. Safe to call more than once.
func (p *Progress) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}

func (p *Progress) Percent() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percent
}
