package dsp

import (
	"math"
	"sync/atomic"
)

// FilterType selects the response of a Biquad.
type FilterType int32

const (
	FilterBypass FilterType = iota
	FilterLowpass
	FilterHighpass
)

func (t FilterType) String() string {
	switch t {
	case FilterLowpass:
		return "lowpass"
	case FilterHighpass:
		return "highpass"
	default:
		return "bypass"
	}
}

// Biquad is a two-pole filter with lowpass, highpass and bypass responses.
// Frequency and resonance targets are smoothed per block so coefficient
// updates never step audibly. Bypass passes the signal unaltered and clears
// the filter state.
type Biquad struct {
	buffered
	in         Node
	sampleRate float64

	typ   atomic.Int32
	freqT param
	resT  param

	freq, res  float64
	alphaBlock float64

	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

// NewBiquad creates a bypassed filter reading from in.
func NewBiquad(in Node, blockSize int, sampleRate float64) *Biquad {
	b := &Biquad{
		buffered:   newBuffered(blockSize),
		in:         in,
		sampleRate: sampleRate,
		freq:       1000,
		res:        1,
		// per-block parameter smoothing with the engine-wide ramp constant
		alphaBlock: 1 - math.Exp(-float64(blockSize)/(DefaultRampMs/1000*sampleRate)),
	}
	b.freqT.Store(1000)
	b.resT.Store(1)
	return b
}

// SetType switches the filter response.
func (b *Biquad) SetType(t FilterType) { b.typ.Store(int32(t)) }

// Type returns the current filter response.
func (b *Biquad) Type() FilterType { return FilterType(b.typ.Load()) }

// SetFrequency schedules a smoothed ramp of the cutoff toward hz (20-20000).
func (b *Biquad) SetFrequency(hz float64) { b.freqT.Store(clamp(hz, 20, 20000)) }

// SetResonance schedules a smoothed ramp of the resonance toward q (0-20).
func (b *Biquad) SetResonance(q float64) { b.resT.Store(clamp(q, 0, 20)) }

func (b *Biquad) Process(block int64) {
	if !b.begin(block) {
		return
	}
	b.in.Process(block)
	src := b.in.Buffer()

	if b.Type() == FilterBypass {
		copy(b.buf, src)
		b.x1, b.x2, b.y1, b.y2 = 0, 0, 0, 0
		return
	}

	b.freq += b.alphaBlock * (b.freqT.Load() - b.freq)
	b.res += b.alphaBlock * (b.resT.Load() - b.res)
	b.updateCoefficients()

	x1, x2, y1, y2 := b.x1, b.x2, b.y1, b.y2
	for i, s := range src {
		x := float64(s)
		y := b.b0*x + b.b1*x1 + b.b2*x2 - b.a1*y1 - b.a2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		b.buf[i] = float32(y)
	}
	b.x1, b.x2, b.y1, b.y2 = x1, x2, y1, y2
}

// updateCoefficients derives RBJ cookbook coefficients from the smoothed
// cutoff and resonance. A resonance at or below zero falls back to a
// Butterworth Q.
func (b *Biquad) updateCoefficients() {
	q := b.res
	if q <= 0 {
		q = math.Sqrt2 / 2
	}
	w0 := 2 * math.Pi * b.freq / b.sampleRate
	sin, cos := math.Sin(w0), math.Cos(w0)
	alpha := sin / (2 * q)

	var b0, b1, b2, a0, a1, a2 float64
	switch b.Type() {
	case FilterLowpass:
		b0 = (1 - cos) / 2
		b1 = 1 - cos
		b2 = (1 - cos) / 2
	case FilterHighpass:
		b0 = (1 + cos) / 2
		b1 = -(1 + cos)
		b2 = (1 + cos) / 2
	}
	a0 = 1 + alpha
	a1 = -2 * cos
	a2 = 1 - alpha

	b.b0 = b0 / a0
	b.b1 = b1 / a0
	b.b2 = b2 / a0
	b.a1 = a1 / a0
	b.a2 = a2 / a0
}
