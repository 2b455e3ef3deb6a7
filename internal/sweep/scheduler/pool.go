package scheduler

import (
	"fmt"
	"sync"
)

// Pool tracks a fixed amount of capacity (CPUs) shared by running tasks.
//
// Capacity is only handed out as a Lease; releasing the lease returns the
// capacity to the pool. Allocated capacity never exceeds the total.
//
// Pool is safe for concurrent use.
type Pool struct {
	mu        sync.Mutex
	total     int
	allocated int
	peak      int
}

// NewPool creates a pool with the given total capacity.
func NewPool(total int) *Pool {
	if total < 1 {
		panic(fmt.Sprintf("pool capacity must be positive, got %d", total))
	}
	return &Pool{total: total}
}

// Total returns the pool's fixed capacity.
func (p *Pool) Total() int {
	return p.total
}

// Allocated returns the capacity currently held by leases.
func (p *Pool) Allocated() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocated
}

// Free returns the capacity not held by any lease.
func (p *Pool) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total - p.allocated
}

// Peak returns the highest allocation observed.
func (p *Pool) Peak() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peak
}

// TryAcquire takes n units if they are free. It returns nil when the pool
// cannot currently satisfy the request.
func (p *Pool) TryAcquire(n int) *Lease {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n < 1 || n > p.total-p.allocated {
		return nil
	}
	p.allocated += n
	if p.allocated > p.peak {
		p.peak = p.allocated
	}
	return &Lease{pool: p, n: n}
}

func (p *Pool) release(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allocated -= n
}

// Lease is capacity held by one running task.
type Lease struct {
	pool *Pool
	n    int
	once sync.Once
}

// Size returns the number of units held.
func (l *Lease) Size() int {
	return l.n
}

// Release returns the capacity to the pool. Calling it more than once has
// no further effect.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.pool.release(l.n)
	})
}
