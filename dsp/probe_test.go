package dsp

import (
	"math"
	"testing"
)

func TestProbeIsTransparent(t *testing.T) {
	src := newConstNode(64, 0.42)
	p := NewProbe(src, 64, 256)
	p.Process(1)
	for i, v := range p.Buffer() {
		if v != 0.42 {
			t.Fatalf("sample %d = %v, want exact passthrough", i, v)
		}
	}
}

func TestProbeCopyWindowOrdersOldestFirst(t *testing.T) {
	const (
		blockSize = 64
		fftSize   = 256
	)
	ramp := make([]float32, blockSize*10)
	for i := range ramp {
		ramp[i] = float32(i)
	}
	s := NewSource(&sliceReader{samples: ramp}, blockSize)
	p := NewProbe(s, blockSize, fftSize)
	for blk := 1; blk <= 10; blk++ {
		p.Process(int64(blk))
	}

	window := make([]float32, 128)
	n := p.CopyWindow(window)
	if n != 128 {
		t.Fatalf("CopyWindow wrote %d samples, want 128", n)
	}
	// The newest sample is 639; a 128-wide window starts at 512.
	for i, v := range window {
		if want := float32(512 + i); v != want {
			t.Fatalf("window[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestProbeCopyWindowCapsAtTransformSize(t *testing.T) {
	p := NewProbe(newConstNode(64, 0), 64, 128)
	dst := make([]float32, 512)
	if n := p.CopyWindow(dst); n != 128 {
		t.Fatalf("CopyWindow wrote %d samples, want the transform size 128", n)
	}
}

func TestProbeSpectrumLocatesTone(t *testing.T) {
	const (
		blockSize = 64
		fftSize   = 256
		bin       = 8
	)
	tone := make([]float32, fftSize)
	for i := range tone {
		tone[i] = float32(math.Sin(2 * math.Pi * bin * float64(i) / fftSize))
	}
	s := NewSource(&sliceReader{samples: append(tone, tone...)}, blockSize)
	p := NewProbe(s, blockSize, fftSize)
	for blk := 1; blk <= fftSize/blockSize; blk++ {
		p.Process(int64(blk))
	}

	spec := make([]byte, p.Bins())
	if n := p.Spectrum(spec); n != fftSize/2 {
		t.Fatalf("Spectrum wrote %d bins, want %d", n, fftSize/2)
	}
	peak := 0
	for k, v := range spec {
		if v > spec[peak] {
			peak = k
		}
	}
	if peak != bin {
		t.Fatalf("spectral peak at bin %d, want %d", peak, bin)
	}
	if spec[bin] < 200 {
		t.Fatalf("tone bin magnitude %d, want near full scale", spec[bin])
	}
}

func TestProbeSpectrumOfSilence(t *testing.T) {
	p := NewProbe(newConstNode(64, 0), 64, 256)
	p.Process(1)
	spec := make([]byte, p.Bins())
	p.Spectrum(spec)
	for k, v := range spec {
		if v != 0 {
			t.Fatalf("bin %d = %d for silence, want 0", k, v)
		}
	}
}
