package livemix

import (
	"math"
	"testing"

	"github.com/shaban/livemix/capture"
)

func TestSplitBandsCoversEveryBin(t *testing.T) {
	for _, l := range []int{1, 2, 7, 16, 100, 128, 256, 333, 2048} {
		spec := make([]byte, l)
		for i := range spec {
			spec[i] = 255
		}
		b := splitBands(spec)
		// With every bin saturated, each non-empty band must read 1 and no
		// band may read anything else; a dropped or double-counted bin
		// would show up as a value off 0 or 1.
		for _, v := range []float64{b.Bass, b.Mid, b.High} {
			if v != 0 && math.Abs(v-1) > 1e-12 {
				t.Fatalf("L=%d: band value %v, want 0 or 1", l, v)
			}
		}
		if b.High == 0 {
			t.Fatalf("L=%d: high band empty, the remainder must be non-empty", l)
		}
	}
}

func TestSplitBandsProportions(t *testing.T) {
	spec := make([]byte, 128)
	// Saturate only the bass region: first ⌊0.06·128⌋ = 7 bins.
	for i := 0; i < 7; i++ {
		spec[i] = 255
	}
	b := splitBands(spec)
	if math.Abs(b.Bass-1) > 1e-12 {
		t.Fatalf("bass = %v, want 1", b.Bass)
	}
	if b.Mid != 0 || b.High != 0 {
		t.Fatalf("mid/high = %v/%v, want 0/0", b.Mid, b.High)
	}
}

func TestSplitBandsEmpty(t *testing.T) {
	if b := splitBands(nil); b != (BandEnergy{}) {
		t.Fatalf("splitBands(nil) = %+v, want zero", b)
	}
}

func TestByteMean(t *testing.T) {
	if v := byteMean(nil); v != 0 {
		t.Fatalf("byteMean(nil) = %v, want 0", v)
	}
	if v := byteMean([]byte{0, 255}); math.Abs(v-0.5) > 1e-12 {
		t.Fatalf("byteMean = %v, want 0.5", v)
	}
}

func TestWindowRMS(t *testing.T) {
	if v := windowRMS(nil); v != 0 {
		t.Fatalf("windowRMS(nil) = %v, want 0", v)
	}
	w := make([]float32, 256)
	for i := range w {
		w[i] = 0.5
	}
	if v := windowRMS(w); math.Abs(v-0.5) > 1e-9 {
		t.Fatalf("windowRMS of constant 0.5 = %v, want 0.5", v)
	}
	// Odd length exercises the scalar tail.
	if v := windowRMS(w[:7]); math.Abs(v-0.5) > 1e-9 {
		t.Fatalf("windowRMS of 7 samples = %v, want 0.5", v)
	}
}

func TestPeakRisesWithSignal(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.AddSource(1, "tone", loopingTone(512, 0.5), KindMicrophone); err != nil {
		t.Fatal(err)
	}
	e.advance(100)
	e.collect()
	if p := e.telemetry.PeakLevel(1); p <= 0 {
		t.Fatalf("peak = %v with live signal, want > 0", p)
	}
}

func TestPeakDecaysUnderSilence(t *testing.T) {
	e := newTestEngine(t)
	ch, err := e.AddSource(1, "silent", loopingTone(512, 0), KindMicrophone)
	if err != nil {
		t.Fatal(err)
	}
	e.advance(4)

	ch.peak = 0.5
	e.collect()
	if p := e.telemetry.PeakLevel(1); math.Abs(p-0.45) > 1e-9 {
		t.Fatalf("peak = %v after one silent tick, want 0.45", p)
	}
	e.collect()
	if p := e.telemetry.PeakLevel(1); math.Abs(p-0.405) > 1e-9 {
		t.Fatalf("peak = %v after two silent ticks, want 0.405", p)
	}
}

func TestHueAdvancesAndWraps(t *testing.T) {
	e := newTestEngine(t)
	e.telemetry.setHue(359.99)
	e.collect()
	h := e.telemetry.Hue()
	if h < 0 || h >= 360 {
		t.Fatalf("hue = %v, want wrapped into [0,360)", h)
	}
	if h > 359 {
		t.Fatalf("hue = %v, want wrapped past 360", h)
	}
}

func TestCollectPublishesMasterBands(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.AddSource(1, "tone", sineTone(48000, 440, 0.8), KindMicrophone); err != nil {
		t.Fatal(err)
	}
	e.advance(100)
	e.collect()

	t.Log("master bands:", e.telemetry.BassMaster(), e.telemetry.MidMaster(), e.telemetry.HighMaster())
	total := e.telemetry.BassMaster() + e.telemetry.MidMaster() + e.telemetry.HighMaster()
	if total <= 0 {
		t.Fatal("no master band energy with a live tone")
	}
	spec := make([]byte, e.telemetry.Bins())
	if n := e.telemetry.RawSpectrum(spec); n != e.cfg.FFTSize/2 {
		t.Fatalf("RawSpectrum wrote %d bins, want %d", n, e.cfg.FFTSize/2)
	}
}

func TestCollectPublishesGroupBands(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.AddSource(1, "tone", sineTone(48000, 440, 0.8), KindMicrophone); err != nil {
		t.Fatal(err)
	}
	e.SetCrossfadeGroup(1, GroupA)
	e.advance(100)
	e.collect()

	if ga := e.telemetry.GroupA(); ga.Bass+ga.Mid+ga.High <= 0 {
		t.Fatal("no Group A band energy with a live tone routed to it")
	}
	if gb := e.telemetry.GroupB(); gb.Bass+gb.Mid+gb.High != 0 {
		t.Fatalf("Group B band energy %+v with nothing routed to it", gb)
	}
}

// sineTone returns a looping one-second sine stream.
func sineTone(sampleRate int, freq, amplitude float64) *capture.Buffer {
	samples := make([]float32, sampleRate)
	for i := range samples {
		samples[i] = float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return capture.NewBuffer(samples, true)
}
