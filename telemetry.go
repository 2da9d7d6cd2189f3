package livemix

import (
	"math"
	"sync/atomic"
)

// atomicFloat is a float64 published by the metrics pipeline and read by
// any number of consumers without locking.
type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) store(v float64) { f.bits.Store(math.Float64bits(v)) }
func (f *atomicFloat) load() float64   { return math.Float64frombits(f.bits.Load()) }

// BandEnergy is a bass/mid/high energy triple, each component in [0,1].
type BandEnergy struct {
	Bass float64 `json:"bass"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
}

// TelemetryRecord is the shared record the metrics pipeline writes once per
// tick and external consumers (visualization, lighting, controller
// feedback) poll at their own rate.
//
// Single writer, many readers. Every scalar is individually atomic; there
// is no cross-field atomicity and none is needed, since each value is
// independently meaningful per frame. The raw spectrum and peak slices are
// updated in place; readers copy what they need and tolerate frames
// straddling an update.
type TelemetryRecord struct {
	bassMaster atomicFloat
	midMaster  atomicFloat
	highMaster atomicFloat
	hue        atomicFloat

	groupA [3]atomicFloat
	groupB [3]atomicFloat

	rawSpectrum []byte
	peaks       []atomicFloat // indexed by slot id
}

func newTelemetryRecord(bins, maxSources int) *TelemetryRecord {
	return &TelemetryRecord{
		rawSpectrum: make([]byte, bins),
		peaks:       make([]atomicFloat, maxSources+1),
	}
}

// BassMaster returns the master-bus bass energy (0-1).
func (t *TelemetryRecord) BassMaster() float64 { return t.bassMaster.load() }

// MidMaster returns the master-bus mid energy (0-1).
func (t *TelemetryRecord) MidMaster() float64 { return t.midMaster.load() }

// HighMaster returns the master-bus high energy (0-1).
func (t *TelemetryRecord) HighMaster() float64 { return t.highMaster.load() }

// Hue returns the shared color clock (0-360). It drifts slowly and
// accelerates with bass energy; downstream visual and lighting consumers
// use it as a common phase.
func (t *TelemetryRecord) Hue() float64 { return t.hue.load() }

// GroupA returns the band energy of the Group A bus.
func (t *TelemetryRecord) GroupA() BandEnergy {
	return BandEnergy{t.groupA[0].load(), t.groupA[1].load(), t.groupA[2].load()}
}

// GroupB returns the band energy of the Group B bus.
func (t *TelemetryRecord) GroupB() BandEnergy {
	return BandEnergy{t.groupB[0].load(), t.groupB[1].load(), t.groupB[2].load()}
}

// PeakLevel returns the decayed peak level of the given channel slot, 0 for
// unknown slots.
func (t *TelemetryRecord) PeakLevel(id int) float64 {
	if id < 0 || id >= len(t.peaks) {
		return 0
	}
	return t.peaks[id].load()
}

// Bins returns the length of the raw spectrum.
func (t *TelemetryRecord) Bins() int { return len(t.rawSpectrum) }

// RawSpectrum copies the latest master magnitude spectrum (one byte per
// bin, 0-255) into dst and returns how many bins were written.
func (t *TelemetryRecord) RawSpectrum(dst []byte) int {
	return copy(dst, t.rawSpectrum)
}

func (t *TelemetryRecord) setMasterBands(b BandEnergy) {
	t.bassMaster.store(b.Bass)
	t.midMaster.store(b.Mid)
	t.highMaster.store(b.High)
}

func (t *TelemetryRecord) setHue(h float64) { t.hue.store(h) }

func (t *TelemetryRecord) setGroupA(b BandEnergy) {
	t.groupA[0].store(b.Bass)
	t.groupA[1].store(b.Mid)
	t.groupA[2].store(b.High)
}

func (t *TelemetryRecord) setGroupB(b BandEnergy) {
	t.groupB[0].store(b.Bass)
	t.groupB[1].store(b.Mid)
	t.groupB[2].store(b.High)
}

func (t *TelemetryRecord) setPeak(id int, v float64) {
	if id < 0 || id >= len(t.peaks) {
		return
	}
	t.peaks[id].store(v)
}
