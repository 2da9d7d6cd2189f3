package dsp

import "fmt"

// Mixer sums any number of inputs into one output and applies its own
// smoothed gain, making it the summing stage of a bus. Inputs are mutated
// by the control context; the engine excludes mutation and rendering from
// each other, so no locking happens here.
type Mixer struct {
	buffered
	inputs []Node
	target param
	value  float64
	alpha  float64
}

// NewMixer creates an empty summing mixer with unity gain.
func NewMixer(blockSize int, sampleRate float64) *Mixer {
	m := &Mixer{
		buffered: newBuffered(blockSize),
		inputs:   make([]Node, 0, 8),
		value:    1,
		alpha:    rampAlpha(sampleRate, DefaultRampMs),
	}
	m.target.Store(1)
	return m
}

// Connect adds n as an input. Connecting a node that is already an input is
// an error; the caller tracks edges and must not create duplicates.
func (m *Mixer) Connect(n Node) error {
	for _, in := range m.inputs {
		if in == n {
			return fmt.Errorf("node already connected to mixer")
		}
	}
	m.inputs = append(m.inputs, n)
	return nil
}

// Disconnect removes n from the inputs. Removing a node that is not
// connected reports false; the edge invariant it protects already holds,
// so callers treat that as success.
func (m *Mixer) Disconnect(n Node) bool {
	for i, in := range m.inputs {
		if in == n {
			copy(m.inputs[i:], m.inputs[i+1:])
			m.inputs[len(m.inputs)-1] = nil
			m.inputs = m.inputs[:len(m.inputs)-1]
			return true
		}
	}
	return false
}

// NumInputs returns how many nodes feed this mixer.
func (m *Mixer) NumInputs() int { return len(m.inputs) }

// SetTarget schedules a smoothed ramp of the bus gain toward v.
func (m *Mixer) SetTarget(v float64) { m.target.Store(v) }

// Target returns the value the bus gain is converging to.
func (m *Mixer) Target() float64 { return m.target.Load() }

func (m *Mixer) Process(block int64) {
	if !m.begin(block) {
		return
	}
	for i := range m.buf {
		m.buf[i] = 0
	}
	for _, in := range m.inputs {
		in.Process(block)
		src := in.Buffer()
		for i := range m.buf {
			m.buf[i] += src[i]
		}
	}
	t := m.target.Load()
	v, a := m.value, m.alpha
	for i := range m.buf {
		v += a * (t - v)
		m.buf[i] *= float32(v)
	}
	m.value = v
}
