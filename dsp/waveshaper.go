package dsp

import (
	"math"
	"sync/atomic"
)

const curveLen = 1024

// Waveshaper applies a memoryless distortion curve by table lookup with
// linear interpolation. With no curve installed it copies its input, which
// keeps the bypassed case free of per-sample math. Curve replacement is an
// atomic pointer swap and takes effect on the next block; unlike gains,
// curves are not ramped.
type Waveshaper struct {
	buffered
	in    Node
	curve atomic.Pointer[[curveLen]float32]
}

// NewWaveshaper creates a bypassed waveshaper reading from in.
func NewWaveshaper(in Node, blockSize int) *Waveshaper {
	return &Waveshaper{buffered: newBuffered(blockSize), in: in}
}

// SetAmount installs a shaping curve for the given drive amount (0-100).
// Zero removes the curve entirely instead of installing an identity table.
func (w *Waveshaper) SetAmount(amount float64) {
	amount = clamp(amount, 0, 100)
	if amount == 0 {
		w.curve.Store(nil)
		return
	}
	var c [curveLen]float32
	k := amount
	deg := math.Pi / 180
	for i := range c {
		x := float64(i)*2/float64(curveLen-1) - 1
		c[i] = float32((3 + k) * x * 20 * deg / (math.Pi + k*math.Abs(x)))
	}
	w.curve.Store(&c)
}

// Active reports whether a shaping curve is installed.
func (w *Waveshaper) Active() bool { return w.curve.Load() != nil }

func (w *Waveshaper) Process(block int64) {
	if !w.begin(block) {
		return
	}
	w.in.Process(block)
	src := w.in.Buffer()
	c := w.curve.Load()
	if c == nil {
		copy(w.buf, src)
		return
	}
	for i, s := range src {
		pos := (float64(s) + 1) / 2 * float64(curveLen-1)
		pos = clamp(pos, 0, float64(curveLen-1))
		lo := int(pos)
		hi := lo
		if hi < curveLen-1 {
			hi++
		}
		frac := float32(pos - float64(lo))
		w.buf[i] = c[lo] + (c[hi]-c[lo])*frac
	}
}
