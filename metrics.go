package livemix

import "math"

// Metrics pipeline constants. The peak estimator is attack-instant and
// release-smoothed: meters rise immediately and fall geometrically.
const (
	peakWindowSize = 256
	peakBoost      = 5.0
	peakDecay      = 0.90

	hueStep       = 0.15
	hueBassWeight = 2.5
)

// metricsScratch holds the pre-allocated buffers the metrics pipeline
// reuses every tick; the steady-state path allocates nothing.
type metricsScratch struct {
	spectrum []byte
	window   []float32
}

func newMetricsScratch(bins, maxSources int) metricsScratch {
	return metricsScratch{
		spectrum: make([]byte, bins),
		window:   make([]float32, peakWindowSize),
	}
}

// collect runs one metrics tick: band energy for Master/GroupA/GroupB, the
// hue clock, and per-channel decayed peak levels, all written into the
// shared telemetry record. Called from the metrics goroutine only. The
// whole tick holds the engine lock so probe rings are never read while the
// render callback writes them; the tick is a few small transforms and stays
// well inside a block period.
func (e *Engine) collect() {
	t := e.telemetry
	e.mu.Lock()
	defer e.mu.Unlock()

	e.masterProbe.Spectrum(t.rawSpectrum)
	master := splitBands(t.rawSpectrum)
	t.setMasterBands(master)
	t.setHue(math.Mod(t.Hue()+hueStep+master.Bass*hueBassWeight, 360))

	e.probeA.Spectrum(e.scratch.spectrum)
	t.setGroupA(splitBands(e.scratch.spectrum))
	e.probeB.Spectrum(e.scratch.spectrum)
	t.setGroupB(splitBands(e.scratch.spectrum))

	for _, ch := range e.channels {
		n := ch.probe.CopyWindow(e.scratch.window)
		raw := windowRMS(e.scratch.window[:n]) * peakBoost
		decayed := ch.peak * peakDecay
		if raw > decayed {
			ch.peak = raw
		} else {
			ch.peak = decayed
		}
		t.setPeak(ch.id, ch.peak)
	}
}

// splitBands partitions a magnitude spectrum of length L into bass (first
// ⌊0.06·L⌋ bins), mid (next ⌊0.35·L⌋) and high (the rest), so every bin is
// counted exactly once for any L ≥ 1. Each mean is normalized by 255.
func splitBands(spec []byte) BandEnergy {
	l := len(spec)
	if l == 0 {
		return BandEnergy{}
	}
	nb := int(0.06 * float64(l))
	nm := int(0.35 * float64(l))
	return BandEnergy{
		Bass: byteMean(spec[:nb]),
		Mid:  byteMean(spec[nb : nb+nm]),
		High: byteMean(spec[nb+nm:]),
	}
}

func byteMean(b []byte) float64 {
	if len(b) == 0 {
		return 0
	}
	sum := 0
	for _, v := range b {
		sum += int(v)
	}
	return float64(sum) / float64(len(b)) / 255
}

// windowRMS computes the RMS of a sample window, accumulating four partial
// sums per iteration for throughput on the hot metering path.
func windowRMS(w []float32) float64 {
	if len(w) == 0 {
		return 0
	}
	var s0, s1, s2, s3 float64
	i := 0
	for ; i+4 <= len(w); i += 4 {
		s0 += float64(w[i]) * float64(w[i])
		s1 += float64(w[i+1]) * float64(w[i+1])
		s2 += float64(w[i+2]) * float64(w[i+2])
		s3 += float64(w[i+3]) * float64(w[i+3])
	}
	for ; i < len(w); i++ {
		s0 += float64(w[i]) * float64(w[i])
	}
	return math.Sqrt((s0 + s1 + s2 + s3) / float64(len(w)))
}
