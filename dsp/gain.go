package dsp

// Gain is a controllable amplitude multiplier. Target changes are applied
// through a one-pole ramp so a control-context write never produces an
// audible step in the rendered signal.
type Gain struct {
	buffered
	in     Node
	target param
	value  float64
	alpha  float64
}

// DefaultRampMs is the smoothing time constant used for every gain ramp in
// the engine. Short enough to feel immediate, long enough to avoid clicks.
const DefaultRampMs = 30.0

// NewGain creates a gain stage reading from in, starting at the given value.
func NewGain(in Node, blockSize int, sampleRate, initial float64) *Gain {
	g := &Gain{
		buffered: newBuffered(blockSize),
		in:       in,
		value:    initial,
		alpha:    rampAlpha(sampleRate, DefaultRampMs),
	}
	g.target.Store(initial)
	return g
}

// SetTarget schedules a smoothed ramp toward v.
func (g *Gain) SetTarget(v float64) { g.target.Store(v) }

// Target returns the value the ramp is converging to.
func (g *Gain) Target() float64 { return g.target.Load() }

// Set jumps the gain immediately. Only safe before the node carries signal,
// e.g. when a freshly built chain is first wired up.
func (g *Gain) Set(v float64) {
	g.target.Store(v)
	g.value = v
}

func (g *Gain) Process(block int64) {
	if !g.begin(block) {
		return
	}
	g.in.Process(block)
	src := g.in.Buffer()
	t := g.target.Load()
	v, a := g.value, g.alpha
	for i := range g.buf {
		v += a * (t - v)
		g.buf[i] = src[i] * float32(v)
	}
	g.value = v
}
