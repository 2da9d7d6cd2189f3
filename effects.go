package livemix

import "github.com/shaban/livemix/dsp"

// FilterType selects the effects-chain filter response.
type FilterType = dsp.FilterType

const (
	FilterBypass   = dsp.FilterBypass
	FilterLowpass  = dsp.FilterLowpass
	FilterHighpass = dsp.FilterHighpass
)

// EffectsState is the externally controllable state of the post-master
// effects chain. All values are clamped to their documented ranges on
// update and applied through smoothed ramps, except the distortion curve,
// which is swapped instantaneously.
type EffectsState struct {
	FilterType       FilterType `json:"filterType"`
	FilterFreq       float64    `json:"filterFreq"`       // 20-20000 Hz
	FilterResonance  float64    `json:"filterResonance"`  // 0-20
	DistortionAmount float64    `json:"distortionAmount"` // 0-100, 0 = bypass
	DelayTime        float64    `json:"delayTime"`        // 0-4 s
	DelayFeedback    float64    `json:"delayFeedback"`    // 0-0.95
	DelayWet         float64    `json:"delayWet"`         // 0-1
}

func defaultEffectsState() EffectsState {
	return EffectsState{
		FilterType:      FilterBypass,
		FilterFreq:      1000,
		FilterResonance: 1,
		DelayTime:       0.3,
		DelayFeedback:   0.3,
	}
}

func (s EffectsState) clamped() EffectsState {
	if s.FilterType != FilterLowpass && s.FilterType != FilterHighpass {
		s.FilterType = FilterBypass
	}
	s.FilterFreq = clampf(s.FilterFreq, 20, 20000)
	s.FilterResonance = clampf(s.FilterResonance, 0, 20)
	s.DistortionAmount = clampf(s.DistortionAmount, 0, 100)
	s.DelayTime = clampf(s.DelayTime, 0, dsp.MaxDelaySeconds)
	s.DelayFeedback = clampf(s.DelayFeedback, 0, 0.95)
	s.DelayWet = clampf(s.DelayWet, 0, 1)
	return s
}

// UpdateFx applies a new effects state. Out-of-range values degrade to the
// nearest valid value rather than erroring.
func (e *Engine) UpdateFx(s EffectsState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fx = s.clamped()
	e.applyEffectsLocked()
}

// Effects returns the current (clamped) effects state.
func (e *Engine) Effects() EffectsState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fx
}

// UpdateCompressor sets the compressor threshold (-60 to 0 dB) and ratio
// (1-20).
func (e *Engine) UpdateCompressor(thresholdDB, ratio float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compThreshold = clampf(thresholdDB, -60, 0)
	e.compRatio = clampf(ratio, 1, 20)
	e.comp.SetThreshold(e.compThreshold)
	e.comp.SetRatio(e.compRatio)
}

func (e *Engine) applyEffectsLocked() {
	e.shaper.SetAmount(e.fx.DistortionAmount)
	e.filter.SetType(e.fx.FilterType)
	e.filter.SetFrequency(e.fx.FilterFreq)
	e.filter.SetResonance(e.fx.FilterResonance)
	e.delay.SetTime(e.fx.DelayTime)
	e.delay.SetFeedback(e.fx.DelayFeedback)
	e.wetGain.SetTarget(e.fx.DelayWet)
	e.dryGain.SetTarget(1 - e.fx.DelayWet)
}
