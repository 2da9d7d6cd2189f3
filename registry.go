package livemix

import (
	"fmt"

	"github.com/shaban/livemix/capture"
	"github.com/shaban/livemix/dsp"
)

// initialSourceVolume is the entered volume a freshly added channel starts
// with.
const initialSourceVolume = 0.8

// AddSource attaches an already-opened stream to the given slot (1 to
// MaxSources) and returns the new channel. An occupied slot is torn down
// first (stream stopped, edges removed) before the replacement is
// built. On failure the engine is left unchanged; the caller still owns the
// stream it passed in.
//
// Screen/system captures default to an audible monitor tap; microphones
// default to a muted one to avoid feedback.
func (e *Engine) AddSource(slot int, label string, stream capture.Stream, kind Kind) (*Channel, error) {
	return e.dispatcher.AddSource(slot, label, stream, kind)
}

// RemoveSource stops the channel's stream, disconnects its edges and drops
// it from the registry. Removing an absent id is a no-op.
func (e *Engine) RemoveSource(id int) error {
	return e.dispatcher.RemoveSource(id)
}

// addSource runs on the dispatcher goroutine.
func (e *Engine) addSource(slot int, label string, stream capture.Stream, kind Kind) (*Channel, error) {
	if stream == nil {
		return nil, fmt.Errorf("stream cannot be nil")
	}
	e.mu.Lock()
	ch, replaced, err := e.addSourceLocked(slot, label, stream, kind)
	e.mu.Unlock()

	// Stopping a device stream can be slow; it happens with the lock
	// released so the render callback is never held up by it.
	if replaced != nil {
		if cerr := replaced.Close(); cerr != nil {
			e.errorHandler.HandleError(fmt.Errorf("teardown of replaced channel %d: %w", slot, cerr))
		}
	}
	return ch, err
}

func (e *Engine) addSourceLocked(slot int, label string, stream capture.Stream, kind Kind) (*Channel, capture.Stream, error) {
	if e.closed {
		return nil, nil, fmt.Errorf("engine is closed")
	}
	if slot < 1 || slot > e.cfg.MaxSources {
		return nil, nil, fmt.Errorf("slot %d out of range 1-%d", slot, e.cfg.MaxSources)
	}

	var replaced capture.Stream
	if prev, ok := e.channels[slot]; ok {
		replaced = e.unlinkLocked(prev)
	}

	bs, sr := e.cfg.BlockSize, e.cfg.SampleRate
	ch := &Channel{
		id:         slot,
		label:      label,
		kind:       kind,
		stream:     stream,
		volume:     initialSourceVolume,
		group:      GroupNeutral,
		monitoring: kind == KindCapturedScreen,
	}
	ch.source = dsp.NewSource(stream, bs)
	ch.gain = dsp.NewGain(ch.source, bs, sr, 0) // ramps up on first recompute
	ch.probe = dsp.NewProbe(ch.gain, bs, e.cfg.FFTSize)
	gate := 0.0
	if ch.monitoring {
		gate = 1.0
	}
	ch.monitorGate = dsp.NewGain(ch.gain, bs, sr, gate)

	if err := e.monitor.Connect(ch.monitorGate); err != nil {
		return nil, replaced, fmt.Errorf("failed to wire monitor tap for slot %d: %w", slot, err)
	}
	e.channels[slot] = ch

	if err := e.recomputeMixLocked(); err != nil {
		// a failed connect is fatal to this call: unwind so no partial
		// channel remains observable
		if ch.connectedBus != busNone {
			e.busMixerLocked(ch.connectedBus).Disconnect(ch.probe)
			ch.connectedBus = busNone
		}
		e.monitor.Disconnect(ch.monitorGate)
		delete(e.channels, slot)
		return nil, replaced, err
	}
	return ch, replaced, nil
}

// removeSource runs on the dispatcher goroutine.
func (e *Engine) removeSource(id int) error {
	e.mu.Lock()
	ch, ok := e.channels[id]
	if !ok {
		e.mu.Unlock()
		return nil
	}
	stream := e.unlinkLocked(ch)
	e.telemetry.setPeak(id, 0)
	rerr := e.recomputeMixLocked()
	e.mu.Unlock()

	var err error
	if cerr := stream.Close(); cerr != nil {
		err = fmt.Errorf("failed to stop stream: %w", cerr)
	}
	if err == nil {
		err = rerr
	}
	return err
}

// unlinkLocked removes a channel atomically: edges off and registry entry
// gone in one critical section, so no intermediate state is ever
// observable. The channel's stream is returned for the caller to close
// after releasing the engine lock; a slow device stop must not stall the
// render callback.
func (e *Engine) unlinkLocked(ch *Channel) capture.Stream {
	if ch.connectedBus != busNone {
		// disconnect of an already-severed edge counts as success
		e.busMixerLocked(ch.connectedBus).Disconnect(ch.probe)
		ch.connectedBus = busNone
	}
	e.monitor.Disconnect(ch.monitorGate)
	delete(e.channels, ch.id)
	return ch.stream
}

// SetVolume sets a channel's entered volume (clamped to 0-2).
func (e *Engine) SetVolume(id int, volume float64) {
	e.mutateChannel(id, func(ch *Channel) { ch.volume = clampf(volume, 0, 2) })
}

// SetMute silences the channel regardless of any other state.
func (e *Engine) SetMute(id int, muted bool) {
	e.mutateChannel(id, func(ch *Channel) { ch.muted = muted })
}

// SetSolo marks the channel solo. While any channel is soloed, every
// non-solo channel is forced silent.
func (e *Engine) SetSolo(id int, solo bool) {
	e.mutateChannel(id, func(ch *Channel) { ch.solo = solo })
}

// SetMonitoring opens or closes the channel's monitor tap.
func (e *Engine) SetMonitoring(id int, monitoring bool) {
	e.mutateChannel(id, func(ch *Channel) { ch.monitoring = monitoring })
}

// SetCrossfadeGroup assigns the channel to Group A, Group B or neither.
func (e *Engine) SetCrossfadeGroup(id int, group CrossfadeGroup) {
	e.mutateChannel(id, func(ch *Channel) { ch.group = group })
}

// mutateChannel applies fn to the channel and recomputes the mix. Unknown
// ids are a no-op, matching RemoveSource's idempotence.
func (e *Engine) mutateChannel(id int, fn func(*Channel)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch, ok := e.channels[id]
	if !ok {
		return
	}
	fn(ch)
	if err := e.recomputeMixLocked(); err != nil {
		e.errorHandler.HandleError(err)
	}
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
