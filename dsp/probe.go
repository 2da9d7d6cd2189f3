package dsp

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Spectrum byte mapping range. Magnitudes are converted to dB and mapped
// linearly from [minDecibels, maxDecibels] onto 0..255.
const (
	minDecibels = -100.0
	maxDecibels = -30.0

	// smoothing is the per-poll magnitude smoothing factor: the published
	// spectrum is smoothing*previous + (1-smoothing)*current.
	smoothing = 0.8
)

// Probe is a pass-through analysis tap. The audio path only copies samples
// into a ring; the frequency transform runs on the polling context when
// Spectrum is called, so the render callback never pays for the FFT.
//
// The ring is written by Process and read by CopyWindow and Spectrum; the
// caller serializes those against each other. The engine runs both under
// its own lock, so the render callback and the metrics tick never touch the
// ring concurrently.
type Probe struct {
	buffered
	in      Node
	fftSize int
	ring    []float32
	pos     int

	// polling-context scratch, allocated once
	hann     []float64
	scratch  []float64
	smoothed []float64
}

// NewProbe creates a probe with the given transform size. fftSize must be a
// power of two; the probe exposes fftSize/2 magnitude bins.
func NewProbe(in Node, blockSize, fftSize int) *Probe {
	p := &Probe{
		buffered: newBuffered(blockSize),
		in:       in,
		fftSize:  fftSize,
		ring:     make([]float32, fftSize),
		hann:     make([]float64, fftSize),
		scratch:  make([]float64, fftSize),
		smoothed: make([]float64, fftSize/2),
	}
	for i := range p.hann {
		p.hann[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}
	return p
}

// Bins returns the number of magnitude bins Spectrum produces.
func (p *Probe) Bins() int { return p.fftSize / 2 }

func (p *Probe) Process(block int64) {
	if !p.begin(block) {
		return
	}
	p.in.Process(block)
	src := p.in.Buffer()
	copy(p.buf, src)
	for _, s := range src {
		p.ring[p.pos] = s
		p.pos++
		if p.pos == len(p.ring) {
			p.pos = 0
		}
	}
}

// CopyWindow copies the most recent len(dst) samples, oldest first, and
// returns how many were written. len(dst) must not exceed the probe's
// transform size.
func (p *Probe) CopyWindow(dst []float32) int {
	n := len(dst)
	if n > len(p.ring) {
		n = len(p.ring)
	}
	start := p.pos - n
	if start < 0 {
		start += len(p.ring)
	}
	for i := 0; i < n; i++ {
		dst[i] = p.ring[(start+i)%len(p.ring)]
	}
	return n
}

// Spectrum computes the current magnitude spectrum and writes up to Bins()
// byte magnitudes into dst, returning how many were written. Meant to be
// called from the polling context; not safe for concurrent callers.
func (p *Probe) Spectrum(dst []byte) int {
	// Gather the latest fftSize samples in chronological order and window.
	start := p.pos
	for i := 0; i < p.fftSize; i++ {
		p.scratch[i] = float64(p.ring[(start+i)%p.fftSize]) * p.hann[i]
	}
	spec := fft.FFTReal(p.scratch)

	n := len(dst)
	if n > p.fftSize/2 {
		n = p.fftSize / 2
	}
	scale := 2.0 / float64(p.fftSize)
	for k := 0; k < n; k++ {
		mag := cmplx.Abs(spec[k]) * scale
		p.smoothed[k] = smoothing*p.smoothed[k] + (1-smoothing)*mag
		db := -math.MaxFloat64
		if p.smoothed[k] > 0 {
			db = 20 * math.Log10(p.smoothed[k])
		}
		v := (db - minDecibels) / (maxDecibels - minDecibels) * 255
		dst[k] = byte(clamp(v, 0, 255))
	}
	return n
}
