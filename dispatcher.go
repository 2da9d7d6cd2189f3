package livemix

import (
	"fmt"
	"sync"
	"time"

	"github.com/shaban/livemix/capture"
)

// opKind tags a dispatcher operation.
type opKind int

const (
	opAddSource opKind = iota
	opRemoveSource
)

func (k opKind) String() string {
	switch k {
	case opAddSource:
		return "add_source"
	case opRemoveSource:
		return "remove_source"
	default:
		return "unknown"
	}
}

type operation struct {
	kind   opKind
	slot   int
	label  string
	stream capture.Stream
	source Kind
	reply  chan opResult
}

type opResult struct {
	channel *Channel
	err     error
}

// slowOperation is the duration past which a topology change is reported
// through the error handler.
const slowOperation = 300 * time.Millisecond

// Dispatcher serializes topology changes (source attach/detach) onto one
// goroutine so stream lifecycle and graph rewiring never interleave, and
// tracks how long operations take.
type Dispatcher struct {
	engine *Engine

	mu      sync.RWMutex
	running bool
	ops     chan operation
	stop    chan struct{}

	lastDuration time.Duration
	maxDuration  time.Duration
}

// NewDispatcher creates a dispatcher for the engine.
func NewDispatcher(engine *Engine) *Dispatcher {
	return &Dispatcher{
		engine: engine,
		ops:    make(chan operation, 64),
		stop:   make(chan struct{}),
	}
}

// Start begins the dispatch loop.
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return fmt.Errorf("dispatcher is already running")
	}
	d.running = true
	go d.loop()
	return nil
}

// Stop halts the dispatch loop. Idempotent.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	close(d.stop)
	d.running = false
}

// IsRunning reports whether the dispatch loop is active.
func (d *Dispatcher) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// PerformanceStats returns the duration of the last operation and the
// longest seen so far.
func (d *Dispatcher) PerformanceStats() (last, max time.Duration) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastDuration, d.maxDuration
}

func (d *Dispatcher) loop() {
	for {
		select {
		case <-d.stop:
			return
		case op := <-d.ops:
			start := time.Now()
			res := d.execute(op)
			elapsed := time.Since(start)

			d.mu.Lock()
			d.lastDuration = elapsed
			if elapsed > d.maxDuration {
				d.maxDuration = elapsed
			}
			d.mu.Unlock()

			if elapsed > slowOperation {
				d.engine.errorHandler.HandleError(
					fmt.Errorf("topology change %s took %v, target is sub-%v", op.kind, elapsed, slowOperation))
			}
			op.reply <- res
		}
	}
}

func (d *Dispatcher) execute(op operation) opResult {
	switch op.kind {
	case opAddSource:
		ch, err := d.engine.addSource(op.slot, op.label, op.stream, op.source)
		return opResult{channel: ch, err: err}
	case opRemoveSource:
		return opResult{err: d.engine.removeSource(op.slot)}
	default:
		return opResult{err: fmt.Errorf("unknown operation kind %d", op.kind)}
	}
}

func (d *Dispatcher) submit(op operation) opResult {
	select {
	case d.ops <- op:
	case <-d.stop:
		return opResult{err: fmt.Errorf("dispatcher is not running")}
	}
	select {
	case res := <-op.reply:
		return res
	case <-d.stop:
		return opResult{err: fmt.Errorf("dispatcher stopped mid-operation")}
	}
}

// AddSource queues a source attach and waits for the result.
func (d *Dispatcher) AddSource(slot int, label string, stream capture.Stream, kind Kind) (*Channel, error) {
	res := d.submit(operation{
		kind:   opAddSource,
		slot:   slot,
		label:  label,
		stream: stream,
		source: kind,
		reply:  make(chan opResult, 1),
	})
	return res.channel, res.err
}

// RemoveSource queues a source detach and waits for the result.
func (d *Dispatcher) RemoveSource(id int) error {
	res := d.submit(operation{
		kind:  opRemoveSource,
		slot:  id,
		reply: make(chan opResult, 1),
	})
	return res.err
}
