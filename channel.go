package livemix

import (
	"github.com/shaban/livemix/capture"
	"github.com/shaban/livemix/dsp"
)

// Kind classifies what a channel captures.
type Kind int

const (
	KindCapturedScreen Kind = iota
	KindMicrophone
)

func (k Kind) String() string {
	switch k {
	case KindCapturedScreen:
		return "capturedScreen"
	case KindMicrophone:
		return "microphone"
	default:
		return "unknown"
	}
}

// CrossfadeGroup assigns a channel to one side of the crossfader, or to
// neither (routing straight to the master bus).
type CrossfadeGroup int

const (
	GroupNeutral CrossfadeGroup = iota
	GroupA
	GroupB
)

func (g CrossfadeGroup) String() string {
	switch g {
	case GroupA:
		return "A"
	case GroupB:
		return "B"
	default:
		return "neutral"
	}
}

// busID tags which bus a channel's output edge currently lands on. Tracked
// on the channel and compared by tag, never by node identity, so the
// stability check survives any change to the node representation.
type busID int

const (
	busNone busID = iota
	busGroupA
	busGroupB
	busMaster
)

func (b busID) String() string {
	switch b {
	case busGroupA:
		return "groupA"
	case busGroupB:
		return "groupB"
	case busMaster:
		return "master"
	default:
		return "none"
	}
}

// Channel is one live input source: its capture stream, its processing
// chain (gain stage, spectral probe, monitor gate) and its mix state. All
// mutable state is owned by the engine and guarded by the engine's lock;
// external consumers read channels through SourcesSnapshot.
type Channel struct {
	id    int
	label string
	kind  Kind

	stream      capture.Stream
	source      *dsp.Source
	gain        *dsp.Gain
	probe       *dsp.Probe
	monitorGate *dsp.Gain

	volume     float64
	muted      bool
	solo       bool
	monitoring bool
	group      CrossfadeGroup

	connectedBus busID

	// peak is the decayed peak-hold level, owned by the metrics pipeline.
	peak float64
}

// ID returns the channel's slot id.
func (c *Channel) ID() int { return c.id }

// Label returns the channel's display label.
func (c *Channel) Label() string { return c.label }

// Kind returns what this channel captures.
func (c *Channel) Kind() Kind { return c.kind }
