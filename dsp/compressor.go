package dsp

import "math"

// Compressor applies downward dynamic range compression with a fast-attack,
// slow-release envelope follower. Threshold and ratio are externally
// controllable; attack and release stay at their fixed defaults.
type Compressor struct {
	buffered
	in Node

	thresholdT param // linear
	ratioT     param

	attack  float64
	release float64
	env     float64
}

const (
	compressorAttackMs  = 3.0
	compressorReleaseMs = 250.0
)

// NewCompressor creates a compressor reading from in with a -24 dB
// threshold and 12:1 ratio.
func NewCompressor(in Node, blockSize int, sampleRate float64) *Compressor {
	c := &Compressor{
		buffered: newBuffered(blockSize),
		in:       in,
		attack:   rampAlpha(sampleRate, compressorAttackMs),
		release:  rampAlpha(sampleRate, compressorReleaseMs),
	}
	c.thresholdT.Store(dbToLinear(-24))
	c.ratioT.Store(12)
	return c
}

// SetThreshold sets the compression threshold in dB (-60 to 0).
func (c *Compressor) SetThreshold(db float64) {
	c.thresholdT.Store(dbToLinear(clamp(db, -60, 0)))
}

// SetRatio sets the compression ratio (1-20).
func (c *Compressor) SetRatio(ratio float64) { c.ratioT.Store(clamp(ratio, 1, 20)) }

func (c *Compressor) Process(block int64) {
	if !c.begin(block) {
		return
	}
	c.in.Process(block)
	src := c.in.Buffer()
	threshold := c.thresholdT.Load()
	ratio := c.ratioT.Load()
	env := c.env

	for i, s := range src {
		abs := math.Abs(float64(s))
		if abs > env {
			env += c.attack * (abs - env)
		} else {
			env += c.release * (abs - env)
		}
		gain := 1.0
		if env > threshold && threshold > 0 {
			over := env / threshold
			gain = math.Pow(over, 1/ratio-1)
		}
		c.buf[i] = s * float32(gain)
	}
	c.env = env
}

func dbToLinear(db float64) float64 { return math.Pow(10, db/20) }
