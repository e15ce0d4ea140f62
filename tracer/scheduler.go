package tracer

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/achilleasa/solaris/log"
)

var (
	ErrPoolClosed       = errors.New("scheduler: pool is closed")
	ErrBatchResubmitted = errors.New("scheduler: batch already submitted")
)

// A unit of work. Units run to completion on a pool worker.
type Unit func()

// The lifecycle of a batch.
type BatchState uint8

const (
	// Queued; no unit has started yet.
	BatchSubmitted BatchState = iota

	// At least one unit has started and more are waiting to be picked up.
	BatchRunning

	// No units left to start; waiting for in-flight units to finish.
	BatchDraining

	// All started units finished and the batch left the queue.
	BatchComplete
)

func (s BatchState) String() string {
	switch s {
	case BatchSubmitted:
		return "submitted"
	case BatchRunning:
		return "running"
	case BatchDraining:
		return "draining"
	case BatchComplete:
		return "complete"
	}
	return "unknown"
}

// An ordered list of units submitted to a pool as a whole. Units within a
// batch may run concurrently in any order.
type Batch struct {
	// Set once by Submit; read without the pool lock by the accessors.
	pool  atomic.Pointer[Pool]
	units []Unit

	// Index of the next unit to start.
	next int

	// Number of units currently executing.
	inFlight int

	// Number of units that must still finish before the batch completes.
	remaining int

	state     BatchState
	executed  int
	discarded int
}

// Create a batch with the given units.
func NewBatch(units ...Unit) *Batch {
	return &Batch{units: units}
}

// Append a unit. Units must be added before the batch is submitted.
func (b *Batch) Add(unit Unit) {
	b.units = append(b.units, unit)
}

// Get the number of units in the batch.
func (b *Batch) Len() int {
	return len(b.units)
}

// Get the batch state.
func (b *Batch) State() BatchState {
	p := b.pool.Load()
	if p == nil {
		return BatchSubmitted
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return b.state
}

// Get the number of units that ran to completion.
func (b *Batch) Executed() int {
	p := b.pool.Load()
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return b.executed
}

// Get the number of units dropped by Cancel or Close before they started.
func (b *Batch) Discarded() int {
	p := b.pool.Load()
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return b.discarded
}

// A fixed set of workers executing batches in FIFO order. Workers only pull
// units from the oldest queued batch.
type Pool struct {
	logger log.Logger

	mu            sync.Mutex
	workAvailable *sync.Cond
	batchComplete *sync.Cond

	queue      []*Batch
	running    bool
	numWorkers int
	wg         sync.WaitGroup
}

// Start a pool with numWorkers workers. A non-positive value selects one
// worker per logical CPU.
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	p := &Pool{
		logger:     log.New("worker pool"),
		running:    true,
		numWorkers: numWorkers,
	}
	p.workAvailable = sync.NewCond(&p.mu)
	p.batchComplete = sync.NewCond(&p.mu)

	p.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go p.work()
	}

	p.logger.Debugf("started %d workers", numWorkers)
	return p
}

// Get the number of pool workers.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Queue a batch for execution without waiting for it. Empty batches
// complete immediately.
func (p *Pool) Submit(b *Batch) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return ErrPoolClosed
	}
	if !b.pool.CompareAndSwap(nil, p) {
		return ErrBatchResubmitted
	}

	b.state = BatchSubmitted
	b.remaining = len(b.units)
	if b.remaining == 0 {
		b.state = BatchComplete
		p.batchComplete.Broadcast()
		return nil
	}

	p.queue = append(p.queue, b)
	p.workAvailable.Broadcast()
	return nil
}

// Block until the batch completes. Returns immediately if the batch was
// never submitted.
func (p *Pool) Wait(b *Batch) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if b.pool.Load() != p {
		return
	}
	for b.state != BatchComplete {
		p.batchComplete.Wait()
	}
}

// Submit a batch and block until it completes.
func (p *Pool) Run(b *Batch) error {
	if err := p.Submit(b); err != nil {
		return err
	}
	p.Wait(b)
	return nil
}

// Discard all units of the batch that have not started yet. Units already
// executing are left to finish; the batch completes when the last of them
// returns. Cancel does not block.
func (p *Pool) Cancel(b *Batch) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if b.pool.Load() != p || b.state == BatchComplete {
		return
	}

	b.discarded += len(b.units) - b.next
	b.next = len(b.units)
	b.remaining = b.inFlight
	if b.remaining == 0 {
		p.complete(b)
		return
	}
	b.state = BatchDraining
}

// Stop the workers and wait for them to exit. Units that are executing are
// allowed to finish; queued batches are completed without running their
// remaining units.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.workAvailable.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()

	p.mu.Lock()
	for len(p.queue) != 0 {
		b := p.queue[0]
		b.discarded += len(b.units) - b.next
		b.next = len(b.units)
		p.complete(b)
	}
	p.mu.Unlock()

	p.logger.Debug("all workers stopped")
}

// Returns true if the oldest batch has units left to start. Must be called
// with the lock held.
func (p *Pool) hasWork() bool {
	return len(p.queue) != 0 && p.queue[0].next < len(p.queue[0].units)
}

// Mark the batch as complete, remove it from the queue and wake up waiters.
// Must be called with the lock held.
func (p *Pool) complete(b *Batch) {
	b.state = BatchComplete
	b.remaining = 0
	for index, queued := range p.queue {
		if queued == b {
			p.queue = append(p.queue[:index], p.queue[index+1:]...)
			break
		}
	}

	p.batchComplete.Broadcast()
	if p.hasWork() {
		p.workAvailable.Broadcast()
	}
}

func (p *Pool) work() {
	defer p.wg.Done()

	p.mu.Lock()
	for {
		for p.running && !p.hasWork() {
			p.workAvailable.Wait()
		}
		if !p.running {
			p.mu.Unlock()
			return
		}

		b := p.queue[0]
		unit := b.units[b.next]
		b.units[b.next] = nil
		b.next++
		b.inFlight++
		if b.next == len(b.units) {
			b.state = BatchDraining
		} else {
			b.state = BatchRunning
		}

		p.mu.Unlock()
		unit()
		p.mu.Lock()

		b.inFlight--
		b.executed++
		b.remaining--
		if b.remaining == 0 && b.state != BatchComplete {
			p.complete(b)
		}
	}
}
