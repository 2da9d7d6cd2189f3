package capture

import "sync/atomic"

// ring is a single-producer single-consumer sample ring between the device
// callback (producer) and the graph's source node (consumer). Neither side
// blocks: a full ring drops the incoming samples and counts them, an empty
// ring returns short reads.
type ring struct {
	buf     []float32
	mask    int64
	w, r    atomic.Int64
	dropped atomic.Int64
}

// newRing creates a ring holding at least size samples, rounded up to a
// power of two.
func newRing(size int) *ring {
	n := 1
	for n < size {
		n <<= 1
	}
	return &ring{buf: make([]float32, n), mask: int64(n) - 1}
}

// write appends src, returning how many samples fit.
func (q *ring) write(src []float32) int {
	w := q.w.Load()
	r := q.r.Load()
	free := int64(len(q.buf)) - (w - r)
	n := int64(len(src))
	if n > free {
		q.dropped.Add(n - free)
		n = free
	}
	for i := int64(0); i < n; i++ {
		q.buf[(w+i)&q.mask] = src[i]
	}
	q.w.Store(w + n)
	return int(n)
}

// read fills dst with up to len(dst) samples, returning how many were read.
func (q *ring) read(dst []float32) int {
	w := q.w.Load()
	r := q.r.Load()
	n := w - r
	if n > int64(len(dst)) {
		n = int64(len(dst))
	}
	for i := int64(0); i < n; i++ {
		dst[i] = q.buf[(r+i)&q.mask]
	}
	q.r.Store(r + n)
	return int(n)
}

// Dropped returns how many samples were discarded because the consumer fell
// behind.
func (q *ring) Dropped() int64 { return q.dropped.Load() }
