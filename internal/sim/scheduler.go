package sim

import (
	"sync"
	"time"
)

// PumpScheduler queues frame callbacks until the host fires them, once per
// host frame. Callbacks requested while firing run on the next Fire.
type PumpScheduler struct {
	mu      sync.Mutex
	next    FrameHandle
	pending map[FrameHandle]func(time.Time)
	order   []FrameHandle
}

func NewPumpScheduler() *PumpScheduler {
	return &PumpScheduler{pending: make(map[FrameHandle]func(time.Time))}
}

func (p *PumpScheduler) RequestFrame(fn func(now time.Time)) FrameHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	p.pending[p.next] = fn
	p.order = append(p.order, p.next)
	return p.next
}

func (p *PumpScheduler) CancelFrame(h FrameHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, h)
}

// Fire runs every callback pending at the time of the call and returns how
// many ran.
func (p *PumpScheduler) Fire(now time.Time) int {
	p.mu.Lock()
	order := p.order
	p.order = nil
	fns := make([]func(time.Time), 0, len(order))
	for _, h := range order {
		if fn, ok := p.pending[h]; ok {
			fns = append(fns, fn)
			delete(p.pending, h)
		}
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(now)
	}
	return len(fns)
}

// Pending reports how many callbacks are waiting.
func (p *PumpScheduler) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
