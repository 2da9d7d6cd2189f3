// Package livemix is a real-time multi-channel audio mixing and analysis
// engine. Live input channels route through a crossfade-aware bus topology
// (Group A, Group B, Master, Monitor) into a fixed post-master effects
// chain, while a polling metrics pipeline derives band energy and peak
// levels into a shared telemetry record for external consumers.
package livemix

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gordonklaus/portaudio"

	"github.com/shaban/livemix/capture"
	"github.com/shaban/livemix/dsp"
)

// RecordSink receives the effects-chain output, one block per render. It
// must never block; the record package provides the file-backed
// implementation.
type RecordSink interface {
	WriteBlock(block []float32)
}

// EngineConfig holds configuration for engine construction. Zero values
// select documented defaults.
type EngineConfig struct {
	SampleRate      float64       // default 48000, accepted 8000-384000
	BlockSize       int           // default 512, accepted 64-4096
	MaxSources      int           // default 8 channel slots
	FFTSize         int           // default 256 (128 spectrum bins), power of two
	MetricsInterval time.Duration // default ~60 Hz
	ErrorHandler    ErrorHandler  // default DefaultErrorHandler
}

// Engine owns the signal graph and all engine state. Construct with New,
// pass by reference to every consumer; there is no package-level instance.
type Engine struct {
	id   uuid.UUID
	name string

	mu  sync.Mutex
	cfg EngineConfig

	channels       map[int]*Channel
	crossfader     float64
	masterVolume   float64
	monitorEnabled bool
	closed         bool

	// bus topology, process-lifetime singletons
	groupA, groupB *dsp.Mixer
	probeA, probeB *dsp.Probe
	master         *dsp.Mixer
	monitor        *dsp.Mixer

	// effects chain, fixed order
	shaper      *dsp.Waveshaper
	filter      *dsp.Biquad
	dryGain     *dsp.Gain
	delay       *dsp.Delay
	wetGain     *dsp.Gain
	fxSum       *dsp.Mixer
	comp        *dsp.Compressor
	masterProbe *dsp.Probe

	fx            EffectsState
	compThreshold float64
	compRatio     float64

	telemetry *TelemetryRecord
	scratch   metricsScratch

	dispatcher   *Dispatcher
	errorHandler ErrorHandler
	recordSink   RecordSink

	block      int64
	reconnects int64
	pumpBuf    []float32

	playback    *portaudio.Stream
	paReady     bool
	running     bool
	metricsStop chan struct{}
	metricsWG   sync.WaitGroup
}

// New creates an engine with its bus topology and effects chain built and
// its dispatcher running. The audio clock is not started until Resume.
func New(cfg EngineConfig) (*Engine, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 48000
	} else if cfg.SampleRate < 8000 {
		return nil, fmt.Errorf("SampleRate must be at least 8000 Hz, got %.0f", cfg.SampleRate)
	} else if cfg.SampleRate > 384000 {
		return nil, fmt.Errorf("SampleRate cannot exceed 384000 Hz, got %.0f", cfg.SampleRate)
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = 512
	} else if cfg.BlockSize < 64 {
		return nil, fmt.Errorf("BlockSize must be at least 64 samples, got %d", cfg.BlockSize)
	} else if cfg.BlockSize > 4096 {
		return nil, fmt.Errorf("BlockSize cannot exceed 4096 samples, got %d", cfg.BlockSize)
	}
	if cfg.MaxSources == 0 {
		cfg.MaxSources = 8
	} else if cfg.MaxSources < 1 || cfg.MaxSources > 64 {
		return nil, fmt.Errorf("MaxSources must be 1-64, got %d", cfg.MaxSources)
	}
	if cfg.FFTSize == 0 {
		cfg.FFTSize = 256
	} else if cfg.FFTSize < 64 || cfg.FFTSize > 4096 || cfg.FFTSize&(cfg.FFTSize-1) != 0 {
		return nil, fmt.Errorf("FFTSize must be a power of two in 64-4096, got %d", cfg.FFTSize)
	}
	if cfg.MetricsInterval == 0 {
		cfg.MetricsInterval = 16 * time.Millisecond
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = DefaultErrorHandler{}
	}

	e := &Engine{
		id:             uuid.New(),
		name:           "livemix engine",
		cfg:            cfg,
		channels:       make(map[int]*Channel),
		masterVolume:   1,
		monitorEnabled: true,
		errorHandler:   cfg.ErrorHandler,
		fx:             defaultEffectsState(),
		compThreshold:  -24,
		compRatio:      12,
		pumpBuf:        make([]float32, cfg.BlockSize),
	}
	e.buildGraph()
	e.telemetry = newTelemetryRecord(cfg.FFTSize/2, cfg.MaxSources)
	e.scratch = newMetricsScratch(cfg.FFTSize/2, cfg.MaxSources)

	e.dispatcher = NewDispatcher(e)
	if err := e.dispatcher.Start(); err != nil {
		return nil, fmt.Errorf("failed to start dispatcher: %w", err)
	}
	return e, nil
}

// buildGraph wires the process-lifetime bus and effects topology:
//
//	channels → {groupA→probeA, groupB→probeB, master}
//	master → shaper → filter → {dry, delay→wet} → sum → comp → masterProbe
//	masterProbe + monitor gates → monitor (local playback)
func (e *Engine) buildGraph() {
	bs, sr := e.cfg.BlockSize, e.cfg.SampleRate

	e.groupA = dsp.NewMixer(bs, sr)
	e.groupB = dsp.NewMixer(bs, sr)
	e.probeA = dsp.NewProbe(e.groupA, bs, e.cfg.FFTSize)
	e.probeB = dsp.NewProbe(e.groupB, bs, e.cfg.FFTSize)
	e.master = dsp.NewMixer(bs, sr)
	e.master.Connect(e.probeA)
	e.master.Connect(e.probeB)

	e.shaper = dsp.NewWaveshaper(e.master, bs)
	e.filter = dsp.NewBiquad(e.shaper, bs, sr)
	e.dryGain = dsp.NewGain(e.filter, bs, sr, 1)
	e.delay = dsp.NewDelay(e.filter, bs, sr)
	e.wetGain = dsp.NewGain(e.delay, bs, sr, 0)
	e.fxSum = dsp.NewMixer(bs, sr)
	e.fxSum.Connect(e.dryGain)
	e.fxSum.Connect(e.wetGain)
	e.comp = dsp.NewCompressor(e.fxSum, bs, sr)
	e.masterProbe = dsp.NewProbe(e.comp, bs, e.cfg.FFTSize)

	e.monitor = dsp.NewMixer(bs, sr)
	e.monitor.Connect(e.masterProbe)

	e.applyEffectsLocked()
}

// ID returns the engine's identity.
func (e *Engine) ID() uuid.UUID { return e.id }

// Name returns the engine's display name.
func (e *Engine) Name() string { return e.name }

// Telemetry returns the shared telemetry record. Consumers may poll it at
// any rate; see TelemetryRecord for the read contract.
func (e *Engine) Telemetry() *TelemetryRecord { return e.telemetry }

// SetRecordSink attaches (or with nil detaches) the recording collaborator
// that receives the effects-chain output. Detach before closing a sink.
func (e *Engine) SetRecordSink(sink RecordSink) {
	e.mu.Lock()
	e.recordSink = sink
	e.mu.Unlock()
}

// Resume ensures the audio clock is running: it opens the playback stream
// on the default output device and starts the metrics pipeline. Idempotent.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("engine is closed")
	}
	if e.running {
		return nil
	}
	if !e.paReady {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize audio host: %w", err)
		}
		e.paReady = true
	}
	stream, err := portaudio.OpenDefaultStream(0, 1, e.cfg.SampleRate, e.cfg.BlockSize, e.render)
	if err != nil {
		return fmt.Errorf("failed to open playback stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start playback stream: %w", err)
	}
	e.playback = stream

	e.metricsStop = make(chan struct{})
	e.metricsWG.Add(1)
	go e.metricsLoop(e.metricsStop)

	e.running = true
	return nil
}

// IsRunning reports whether the audio clock is running.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// render is the playback callback: it advances the graph one block and
// fans the processed mix out to the speakers and the record sink.
func (e *Engine) render(out []float32) {
	e.mu.Lock()
	e.block++
	e.monitor.Process(e.block)
	n := copy(out, e.monitor.Buffer())
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	if e.recordSink != nil {
		e.recordSink.WriteBlock(e.masterProbe.Buffer())
	}
	e.mu.Unlock()
}

// advance renders n blocks without a playback device. Tests and offline
// rendering drive the graph through this instead of Resume.
func (e *Engine) advance(n int) {
	for i := 0; i < n; i++ {
		e.render(e.pumpBuf)
	}
}

func (e *Engine) metricsLoop(stop chan struct{}) {
	defer e.metricsWG.Done()
	ticker := time.NewTicker(e.cfg.MetricsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.collect()
		}
	}
}

// Close stops the metrics pipeline and the audio clock, then releases every
// channel's stream and disconnects every edge. Teardown errors are reported
// through the error handler and never stop the remainder of teardown; the
// first one is returned.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	running := e.running
	e.running = false
	stop := e.metricsStop
	e.mu.Unlock()

	if running && stop != nil {
		close(stop)
		e.metricsWG.Wait()
	}
	e.dispatcher.Stop()

	var firstErr error
	report := func(err error) {
		if err == nil {
			return
		}
		e.errorHandler.HandleError(err)
		if firstErr == nil {
			firstErr = err
		}
	}

	e.mu.Lock()
	streams := make(map[int]capture.Stream, len(e.channels))
	for id, ch := range e.channels {
		streams[id] = e.unlinkLocked(ch)
	}
	playback := e.playback
	e.playback = nil
	paReady := e.paReady
	e.paReady = false
	e.mu.Unlock()

	for id, stream := range streams {
		if err := stream.Close(); err != nil {
			report(fmt.Errorf("teardown of channel %d: %w", id, err))
		}
	}

	if playback != nil {
		if err := playback.Stop(); err != nil {
			report(fmt.Errorf("failed to stop playback stream: %w", err))
		}
		if err := playback.Close(); err != nil {
			report(fmt.Errorf("failed to close playback stream: %w", err))
		}
	}
	if paReady {
		if err := portaudio.Terminate(); err != nil {
			report(fmt.Errorf("failed to terminate audio host: %w", err))
		}
	}
	return firstErr
}

// busMixerLocked maps a bus tag to its summing mixer.
func (e *Engine) busMixerLocked(id busID) *dsp.Mixer {
	switch id {
	case busGroupA:
		return e.groupA
	case busGroupB:
		return e.groupB
	default:
		return e.master
	}
}
