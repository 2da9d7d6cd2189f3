package livemix

import "sort"

// ChannelInfo is a point-in-time copy of one channel's mix state, safe to
// serialize and hand to UI layers.
type ChannelInfo struct {
	ID             int     `json:"id"`
	Label          string  `json:"label"`
	Kind           string  `json:"kind"`
	Volume         float64 `json:"volume"`
	Muted          bool    `json:"muted"`
	Solo           bool    `json:"solo"`
	Monitoring     bool    `json:"monitoring"`
	CrossfadeGroup string  `json:"crossfadeGroup"`
}

// EngineSnapshot is a point-in-time copy of the engine's externally visible
// state.
type EngineSnapshot struct {
	Name                string        `json:"name"`
	MasterVolume        float64       `json:"masterVolume"`
	Crossfader          float64       `json:"crossfader"`
	MonitorEnabled      bool          `json:"monitorEnabled"`
	Effects             EffectsState  `json:"effects"`
	CompressorThreshold float64       `json:"compressorThreshold"`
	CompressorRatio     float64       `json:"compressorRatio"`
	Channels            []ChannelInfo `json:"channels"`
}

// SourcesSnapshot returns every registered channel's state, ordered by slot.
func (e *Engine) SourcesSnapshot() []ChannelInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sourcesSnapshotLocked()
}

func (e *Engine) sourcesSnapshotLocked() []ChannelInfo {
	out := make([]ChannelInfo, 0, len(e.channels))
	for _, ch := range e.channels {
		out = append(out, ChannelInfo{
			ID:             ch.id,
			Label:          ch.label,
			Kind:           ch.kind.String(),
			Volume:         ch.volume,
			Muted:          ch.muted,
			Solo:           ch.solo,
			Monitoring:     ch.monitoring,
			CrossfadeGroup: ch.group.String(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Snapshot returns the full engine state in one consistent copy.
func (e *Engine) Snapshot() EngineSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EngineSnapshot{
		Name:                e.name,
		MasterVolume:        e.masterVolume,
		Crossfader:          e.crossfader,
		MonitorEnabled:      e.monitorEnabled,
		Effects:             e.fx,
		CompressorThreshold: e.compThreshold,
		CompressorRatio:     e.compRatio,
		Channels:            e.sourcesSnapshotLocked(),
	}
}
