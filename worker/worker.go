// Package worker implements the three-phase (pre/thread/post) task pipeline
// that lets CPU-heavy mesh and physics-box generation run off the owner
// thread without blocking the tick loop.
package worker

import (
	"sync"
	"time"

	"github.com/gekko3d/voxelcore/logging"
)

// Task is a unit of work with three phases of distinct thread affinity.
// Pre runs on the submitting thread until it returns true ("done"); Thread
// runs on a worker goroutine until it returns true; Post runs back on the
// submitting thread, across ticks if necessary, until it returns true.
// Pre and Thread may be called multiple times ("not yet") before signaling
// completion; a task must not assume it is called exactly once per phase.
type Task interface {
	Pre() bool
	Thread() bool
	Post() bool
}

// deadline models original_source's run_post backpressure curve: the base
// budget is 2ms, growing 5ms per queued output task beyond 4.
const (
	baseDeadline    = 2 * time.Millisecond
	perExcessWorker = 5 * time.Millisecond
	backlogFloor    = 4
)

func postDeadline(queueSizeAtPop int) time.Duration {
	d := baseDeadline
	if excess := queueSizeAtPop - backlogFloor; excess > 0 {
		d += time.Duration(excess) * perExcessWorker
	}
	return d
}

// ThreadPool is a fixed-size pool of goroutines draining a task input queue,
// grounded on original_source's CThreadPool (mutex + counting semaphore +
// two deques) and translated into Go idiom the way the retrieval pack's
// channel-based chunk workers do: a buffered channel serves as both the
// FIFO input queue and its own readiness signal, replacing the semaphore.
type ThreadPool struct {
	logger logging.Logger
	clock  func() time.Time

	input chan Task
	stop  chan struct{}
	wg    sync.WaitGroup

	outMu  sync.Mutex
	output []Task
}

// NewThreadPool builds a pool; Start must be called before AddTask is useful.
func NewThreadPool(logger logging.Logger) *ThreadPool {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ThreadPool{
		logger: logger,
		clock:  time.Now,
		input:  make(chan Task, 4096),
	}
}

// Start launches n worker goroutines. The pool must not already be running.
func (p *ThreadPool) Start(n int) {
	if n < 1 {
		n = 1
	}
	p.stop = make(chan struct{})
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go p.runWorker()
	}
}

// RequestStop signals every worker to exit after its current task. Workers
// already dequeued a task will finish that task's Thread phase to completion
// before observing the stop signal; the pool is cancelled as a whole, not
// per task.
func (p *ThreadPool) RequestStop() {
	if p.stop != nil {
		close(p.stop)
	}
}

// Join waits for every worker goroutine to exit. After Join the pool holds
// no in-flight tasks and may be Start-ed again.
func (p *ThreadPool) Join() {
	p.wg.Wait()
}

// AddTask runs Pre to completion on the caller, then hands the task to the
// input queue for a worker to pick up.
func (p *ThreadPool) AddTask(t Task) {
	runPreToCompletion(t)
	p.input <- t
}

func runPreToCompletion(t Task) {
	for !t.Pre() {
	}
}

func (p *ThreadPool) runWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			return
		case t, ok := <-p.input:
			if !ok {
				return
			}
			runThreadToCompletion(p.logger, t)
			p.pushOutputBack(t)
		}
	}
}

func runThreadToCompletion(logger logging.Logger, t Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("worker: task panicked in Thread phase, marking done: %v", r)
		}
	}()
	for !t.Thread() {
	}
}

func (p *ThreadPool) pushOutputBack(t Task) {
	p.outMu.Lock()
	p.output = append(p.output, t)
	p.outMu.Unlock()
}

func (p *ThreadPool) pushOutputFront(t Task) {
	p.outMu.Lock()
	p.output = append([]Task{t}, p.output...)
	p.outMu.Unlock()
}

// popOutputFront removes and returns the head of the output queue along
// with the queue length observed at the moment of the pop (including the
// popped task), which seeds the deadline-growth calculation.
func (p *ThreadPool) popOutputFront() (Task, int, bool) {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	if len(p.output) == 0 {
		return nil, 0, false
	}
	size := len(p.output)
	t := p.output[0]
	p.output = p.output[1:]
	return t, size, true
}

// OutputLen reports the current backlog size, for metrics/testing.
func (p *ThreadPool) OutputLen() int {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	return len(p.output)
}

// RunPost drains the output queue on the calling (owner) thread, calling
// Post in a loop per task until either the task signals done or the
// cumulative wall-clock time since RunPost started exceeds the deadline
// computed from the backlog size seen at pop. A task that doesn't finish
// within its slice is pushed back to the front of the queue and RunPost
// returns, preserving per-task post ordering across calls.
func (p *ThreadPool) RunPost() {
	t1 := p.clock()
	for {
		task, queueSize, ok := p.popOutputFront()
		if !ok {
			return
		}
		deadline := postDeadline(queueSize)
		done := runPostOnce(p.logger, task, func() bool {
			return p.clock().Sub(t1) >= deadline
		})
		if !done {
			p.pushOutputFront(task)
			return
		}
	}
}

func runPostOnce(logger logging.Logger, t Task, expired func() bool) (done bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("worker: task panicked in Post phase, marking done: %v", r)
			done = true
		}
	}()
	for {
		if t.Post() {
			return true
		}
		if expired() {
			return false
		}
	}
}
