// Package capture acquires live mono sample streams for the mixing engine:
// portaudio-backed microphone and system-loopback devices, plus an
// in-memory stream for tests and offline rendering. The engine consumes an
// already-opened Stream and treats acquisition failures as terminal; this
// package is where those failures originate.
package capture

// Stream is an opened, live audio source. Read never blocks: it returns as
// many samples as are buffered, zero on underrun or after Close. Close
// stops the underlying device and is idempotent.
type Stream interface {
	Read(dst []float32) int
	Close() error
}

// Buffer is an in-memory Stream over a fixed sample slice, optionally
// looping. Used by tests and offline rendering.
type Buffer struct {
	samples []float32
	pos     int
	loop    bool
	closed  bool
}

// NewBuffer creates a stream over samples. With loop set it repeats
// forever; otherwise reads past the end return 0.
func NewBuffer(samples []float32, loop bool) *Buffer {
	return &Buffer{samples: samples, loop: loop}
}

func (b *Buffer) Read(dst []float32) int {
	if b.closed || len(b.samples) == 0 {
		return 0
	}
	n := 0
	for n < len(dst) {
		if b.pos == len(b.samples) {
			if !b.loop {
				break
			}
			b.pos = 0
		}
		dst[n] = b.samples[b.pos]
		b.pos++
		n++
	}
	return n
}

// Close marks the stream exhausted. Subsequent reads return 0.
func (b *Buffer) Close() error {
	b.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (b *Buffer) Closed() bool { return b.closed }
