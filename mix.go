package livemix

import "fmt"

// SetCrossfader positions the crossfader (-1 to 1). Negative values favor
// Group A by attenuating Group B and vice versa; 0 passes both groups at
// full level. This is gain compensation, not a gate.
func (e *Engine) SetCrossfader(x float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.crossfader = clampf(x, -1, 1)
	if err := e.recomputeMixLocked(); err != nil {
		e.errorHandler.HandleError(err)
	}
}

// Crossfader returns the current crossfader position.
func (e *Engine) Crossfader() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.crossfader
}

// SetMasterVolume sets the master bus gain (clamped to 0-2), applied as a
// smoothed ramp.
func (e *Engine) SetMasterVolume(volume float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.masterVolume = clampf(volume, 0, 2)
	e.master.SetTarget(e.masterVolume)
}

// SetMonitorEnabled opens or silences the monitor bus that feeds local
// playback.
func (e *Engine) SetMonitorEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.monitorEnabled = enabled
	if enabled {
		e.monitor.SetTarget(1)
	} else {
		e.monitor.SetTarget(0)
	}
}

// recomputeMixLocked reevaluates every channel: effective gain (volume,
// mute, solo law, crossfade compensation), target bus, monitor gate. The
// bus edge is only touched when the target actually changed; gains always
// retarget their ramps, which is idempotent for unchanged values.
//
// A failed reconnect is fatal to the calling operation but does not stop
// the remaining channels from being updated.
func (e *Engine) recomputeMixLocked() error {
	anySolo := false
	for _, ch := range e.channels {
		if ch.solo {
			anySolo = true
			break
		}
	}

	var firstErr error
	for _, ch := range e.channels {
		gain := clampf(ch.volume, 0, 2)
		if ch.muted {
			gain = 0
		}
		if anySolo && !ch.solo {
			gain = 0
		}

		target := busMaster
		switch ch.group {
		case GroupA:
			target = busGroupA
		case GroupB:
			target = busGroupB
		}
		switch {
		case target == busGroupA && e.crossfader > 0:
			gain *= 1 - e.crossfader
		case target == busGroupB && e.crossfader < 0:
			gain *= 1 + e.crossfader
		}

		if ch.connectedBus != target {
			if err := e.reconnectLocked(ch, target); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
		}

		ch.gain.SetTarget(gain)
		if ch.monitoring {
			ch.monitorGate.SetTarget(1)
		} else {
			ch.monitorGate.SetTarget(0)
		}
	}
	return firstErr
}

// reconnectLocked moves the channel's output edge to the target bus. The
// channel must end up connected somewhere: if the new connect fails, the
// old edge is restored before the error is reported.
func (e *Engine) reconnectLocked(ch *Channel, target busID) error {
	prev := ch.connectedBus
	if prev != busNone {
		e.busMixerLocked(prev).Disconnect(ch.probe)
	}
	if err := e.busMixerLocked(target).Connect(ch.probe); err != nil {
		if prev != busNone {
			if rerr := e.busMixerLocked(prev).Connect(ch.probe); rerr != nil {
				ch.connectedBus = busNone
				return fmt.Errorf("failed to route channel %d to %s (restore to %s also failed: %v): %w",
					ch.id, target, prev, rerr, err)
			}
		}
		return fmt.Errorf("failed to route channel %d to %s: %w", ch.id, target, err)
	}
	ch.connectedBus = target
	e.reconnects++
	return nil
}
