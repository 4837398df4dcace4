package workers

import (
	"errors"
	"fmt"
	"sync"
)

// ErrPoolSize is returned when a pool is requested with no workers.
var ErrPoolSize = errors.New("workers: pool size must be at least 1")

// Pool owns a fixed set of goroutines that live until Close.
type Pool struct {
	dispatch sync.Mutex

	mu      sync.Mutex
	start   *sync.Cond
	done    *sync.Cond
	gen     uint64
	pending int
	fn      func(worker int)
	closed  bool

	size int
	wg   sync.WaitGroup
}

func New(size int) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrPoolSize, size)
	}
	p := &Pool{size: size}
	p.start = sync.NewCond(&p.mu)
	p.done = sync.NewCond(&p.mu)

	p.wg.Add(size)
	for w := 0; w < size; w++ {
		go p.loop(w)
	}
	return p, nil
}

func (p *Pool) Size() int { return p.size }

// Run calls fn(w) for every worker index w in [0, Size()) and blocks until
// all calls have returned. Calls from multiple goroutines are serialized.
func (p *Pool) Run(fn func(worker int)) {
	p.dispatch.Lock()
	defer p.dispatch.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		panic("workers: run on closed pool")
	}
	p.fn = fn
	p.pending = p.size
	p.gen++
	p.start.Broadcast()
	for p.pending > 0 {
		p.done.Wait()
	}
	p.fn = nil
	p.mu.Unlock()
}

// For splits [0, n) into Size() contiguous chunks and runs fn on each.
// Workers whose chunk is empty return immediately.
func (p *Pool) For(n int, fn func(start, end int)) {
	p.Run(func(worker int) {
		start, end := Chunk(worker, p.size, n)
		if start < end {
			fn(start, end)
		}
	})
}

// Close stops the workers and waits for them to exit. It is safe to call
// more than once.
func (p *Pool) Close() {
	p.dispatch.Lock()
	defer p.dispatch.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.start.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) loop(worker int) {
	defer p.wg.Done()

	var seen uint64
	p.mu.Lock()
	for {
		for p.gen == seen && !p.closed {
			p.start.Wait()
		}
		if p.closed {
			p.mu.Unlock()
			return
		}
		seen = p.gen
		fn := p.fn
		p.mu.Unlock()

		fn(worker)

		p.mu.Lock()
		p.pending--
		if p.pending == 0 {
			p.done.Signal()
		}
	}
}
