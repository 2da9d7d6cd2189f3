// Package dsp implements the block-processing primitives the mixing engine
// is built from: smoothed gain stages, summing mixers, a waveshaper, a
// biquad filter, a feedback delay, a compressor and spectral probes.
//
// Nodes form a pull graph. The render driver processes the final node of the
// graph once per block; every node first processes its inputs, then renders
// into its own pre-allocated buffer. A per-block stamp makes fan-out cheap:
// a node pulled through two paths in the same block renders only once. No
// node allocates or blocks inside Process.
package dsp

// Node is a single processing stage in the signal graph.
type Node interface {
	// Process renders the node's output for the given block into its
	// internal buffer. The block number must increase monotonically;
	// processing the same block twice is a no-op.
	Process(block int64)

	// Buffer returns the block most recently rendered by Process. The
	// returned slice is owned by the node and reused every block.
	Buffer() []float32
}

// buffered is the common output-buffer-plus-block-stamp base for nodes.
type buffered struct {
	buf  []float32
	last int64
}

func newBuffered(blockSize int) buffered {
	return buffered{buf: make([]float32, blockSize), last: -1}
}

func (b *buffered) Buffer() []float32 { return b.buf }

// begin reports whether this block still needs rendering and marks it done.
func (b *buffered) begin(block int64) bool {
	if b.last == block {
		return false
	}
	b.last = block
	return true
}
