package dsp

import (
	"math"
	"sync/atomic"
)

// param is a float64 parameter target written by the control context and
// read by the render callback without locking.
type param struct {
	bits atomic.Uint64
}

func (p *param) Store(v float64) { p.bits.Store(math.Float64bits(v)) }
func (p *param) Load() float64   { return math.Float64frombits(p.bits.Load()) }

// rampAlpha returns the per-sample coefficient of a one-pole ramp with the
// given time constant in milliseconds.
func rampAlpha(sampleRate, ms float64) float64 {
	if ms <= 0 {
		return 1
	}
	return 1 - math.Exp(-1000/(ms*sampleRate))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
