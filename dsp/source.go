package dsp

// Reader supplies successive mono sample blocks to a Source node. Read must
// never block: it fills as much of dst as it has available and returns the
// number of samples written. A device-backed implementation drains a ring
// filled by the capture callback; an exhausted or closed reader returns 0.
type Reader interface {
	Read(dst []float32) int
}

// Source feeds an external sample stream into the graph. Underruns are
// rendered as silence rather than stale data.
type Source struct {
	buffered
	r Reader
}

// NewSource wraps r as a graph node.
func NewSource(r Reader, blockSize int) *Source {
	return &Source{buffered: newBuffered(blockSize), r: r}
}

func (s *Source) Process(block int64) {
	if !s.begin(block) {
		return
	}
	n := s.r.Read(s.buf)
	for i := n; i < len(s.buf); i++ {
		s.buf[i] = 0
	}
}
