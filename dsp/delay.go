package dsp

import "math"

// MaxDelaySeconds bounds the delay line length.
const MaxDelaySeconds = 4.0

// Delay is a feedback delay line. The feedback loop (delay output, scaled,
// summed back into the delay input) is the one intentional cycle in the
// graph; it stays internal to this node and the feedback factor is clamped
// below unity, so the loop is bounded. Delay time ramps per block and the
// feedback factor ramps per sample to keep retargeting clickless.
type Delay struct {
	buffered
	in   Node
	ring []float32
	pos  int

	timeT param
	fbT   param

	time       float64 // smoothed, seconds
	fb         float64 // smoothed
	sampleRate float64
	alphaBlock float64
	alpha      float64
}

// NewDelay creates a delay reading from in, initially at 0.3 s with no
// feedback.
func NewDelay(in Node, blockSize int, sampleRate float64) *Delay {
	d := &Delay{
		buffered:   newBuffered(blockSize),
		in:         in,
		ring:       make([]float32, int(MaxDelaySeconds*sampleRate)+1),
		time:       0.3,
		sampleRate: sampleRate,
		alphaBlock: 1 - math.Exp(-float64(blockSize)/(DefaultRampMs/1000*sampleRate)),
		alpha:      rampAlpha(sampleRate, DefaultRampMs),
	}
	d.timeT.Store(0.3)
	return d
}

// SetTime schedules a ramp of the delay time toward sec (0-4 s).
func (d *Delay) SetTime(sec float64) { d.timeT.Store(clamp(sec, 0, MaxDelaySeconds)) }

// SetFeedback schedules a ramp of the feedback factor toward fb (0-0.95).
func (d *Delay) SetFeedback(fb float64) { d.fbT.Store(clamp(fb, 0, 0.95)) }

// Feedback returns the feedback factor the ramp is converging to.
func (d *Delay) Feedback() float64 { return d.fbT.Load() }

func (d *Delay) Process(block int64) {
	if !d.begin(block) {
		return
	}
	d.in.Process(block)
	src := d.in.Buffer()

	d.time += d.alphaBlock * (d.timeT.Load() - d.time)
	offset := int(d.time * d.sampleRate)
	// A zero time still reads one sample behind: the slot at the write
	// position holds last wrap's data, so a same-sample tap is not
	// representable in a write-after-read ring.
	if offset < 1 {
		offset = 1
	}
	if offset >= len(d.ring) {
		offset = len(d.ring) - 1
	}
	fbT := d.fbT.Load()
	fb := d.fb

	for i, s := range src {
		fb += d.alpha * (fbT - fb)
		read := d.pos - offset
		if read < 0 {
			read += len(d.ring)
		}
		out := d.ring[read]
		d.ring[d.pos] = s + out*float32(fb)
		d.pos++
		if d.pos == len(d.ring) {
			d.pos = 0
		}
		d.buf[i] = out
	}
	d.fb = fb
}
