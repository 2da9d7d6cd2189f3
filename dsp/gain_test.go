package dsp

import (
	"math"
	"testing"
)

func TestGainAppliesValue(t *testing.T) {
	src := newConstNode(64, 1)
	g := NewGain(src, 64, 48000, 0.5)
	g.Process(1)
	for i, v := range g.Buffer() {
		if math.Abs(float64(v)-0.5) > 1e-6 {
			t.Fatalf("sample %d = %v, want 0.5", i, v)
		}
	}
}

func TestGainRampConverges(t *testing.T) {
	const (
		blockSize  = 512
		sampleRate = 48000.0
	)
	src := newConstNode(blockSize, 1)
	g := NewGain(src, blockSize, sampleRate, 0)
	g.SetTarget(1)

	// One second of audio is far beyond the ramp time constant.
	blocks := int(sampleRate) / blockSize
	var last float32
	for b := 1; b <= blocks; b++ {
		g.Process(int64(b))
		last = g.Buffer()[blockSize-1]
	}
	if last < 0.99 {
		t.Fatalf("gain converged to %v after 1 s, want ≈1", last)
	}
}

func TestGainRampIsMonotonic(t *testing.T) {
	src := newConstNode(256, 1)
	g := NewGain(src, 256, 48000, 0)
	g.SetTarget(1)

	prev := float32(-1)
	for b := 1; b <= 20; b++ {
		g.Process(int64(b))
		for i, v := range g.Buffer() {
			if v < prev {
				t.Fatalf("block %d sample %d: ramp went from %v down to %v", b, i, prev, v)
			}
			prev = v
		}
	}
}

func TestGainSetJumpsImmediately(t *testing.T) {
	src := newConstNode(64, 1)
	g := NewGain(src, 64, 48000, 0)
	g.Set(0.75)
	if g.Target() != 0.75 {
		t.Fatalf("target = %v, want 0.75", g.Target())
	}
	g.Process(1)
	v := g.Buffer()[0]
	if math.Abs(float64(v)-0.75) > 0.01 {
		t.Fatalf("first sample after Set = %v, want ≈0.75", v)
	}
}
