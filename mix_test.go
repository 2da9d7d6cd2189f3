package livemix

import (
	"math"
	"testing"
)

func addTestChannel(t *testing.T, e *Engine, slot int) *Channel {
	t.Helper()
	ch, err := e.AddSource(slot, "ch", loopingTone(64, 0.1), KindMicrophone)
	if err != nil {
		t.Fatal(err)
	}
	return ch
}

func wantGainTarget(t *testing.T, ch *Channel, want float64) {
	t.Helper()
	if got := ch.gain.Target(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("channel %d gain target = %v, want %v", ch.id, got, want)
	}
}

func TestVolumeClamp(t *testing.T) {
	e := newTestEngine(t)
	ch := addTestChannel(t, e, 1)

	e.SetVolume(1, 1.5)
	wantGainTarget(t, ch, 1.5)

	e.SetVolume(1, 5)
	wantGainTarget(t, ch, 2)

	e.SetVolume(1, -3)
	wantGainTarget(t, ch, 0)
}

func TestMuteOverridesVolume(t *testing.T) {
	e := newTestEngine(t)
	ch := addTestChannel(t, e, 1)

	e.SetVolume(1, 1.2)
	e.SetMute(1, true)
	wantGainTarget(t, ch, 0)
	if ch.volume != 1.2 {
		t.Fatalf("entered volume = %v, want preserved 1.2", ch.volume)
	}

	e.SetMute(1, false)
	wantGainTarget(t, ch, 1.2)
}

func TestSoloSilencesOthers(t *testing.T) {
	e := newTestEngine(t)
	a := addTestChannel(t, e, 1)
	b := addTestChannel(t, e, 2)
	c := addTestChannel(t, e, 3)
	e.SetVolume(1, 1)
	e.SetVolume(2, 1)
	e.SetVolume(3, 1)

	e.SetSolo(2, true)
	wantGainTarget(t, a, 0)
	wantGainTarget(t, b, 1)
	wantGainTarget(t, c, 0)

	// Two soloed channels both play.
	e.SetSolo(3, true)
	wantGainTarget(t, a, 0)
	wantGainTarget(t, b, 1)
	wantGainTarget(t, c, 1)

	// A muted solo channel stays silent; mute wins.
	e.SetMute(2, true)
	wantGainTarget(t, b, 0)
	wantGainTarget(t, c, 1)

	// Dropping the last solo restores everyone.
	e.SetSolo(2, false)
	e.SetSolo(3, false)
	wantGainTarget(t, a, 1)
	wantGainTarget(t, b, 0) // still muted
	wantGainTarget(t, c, 1)
}

func TestCrossfadeCompensation(t *testing.T) {
	e := newTestEngine(t)
	a := addTestChannel(t, e, 1)
	b := addTestChannel(t, e, 2)
	n := addTestChannel(t, e, 3)
	e.SetVolume(1, 1)
	e.SetVolume(2, 1)
	e.SetVolume(3, 1)
	e.SetCrossfadeGroup(1, GroupA)
	e.SetCrossfadeGroup(2, GroupB)

	// Center: both groups at full level.
	e.SetCrossfader(0)
	wantGainTarget(t, a, 1)
	wantGainTarget(t, b, 1)
	wantGainTarget(t, n, 1)

	// Toward B: A attenuates, B untouched.
	e.SetCrossfader(0.5)
	wantGainTarget(t, a, 0.5)
	wantGainTarget(t, b, 1)
	wantGainTarget(t, n, 1)

	// Toward A: mirror image.
	e.SetCrossfader(-0.5)
	wantGainTarget(t, a, 1)
	wantGainTarget(t, b, 0.5)
	wantGainTarget(t, n, 1)

	// Extremes silence the far group entirely.
	e.SetCrossfader(1)
	wantGainTarget(t, a, 0)
	wantGainTarget(t, b, 1)
	e.SetCrossfader(-1)
	wantGainTarget(t, a, 1)
	wantGainTarget(t, b, 0)

	// Out-of-range positions clamp.
	e.SetCrossfader(3)
	if e.Crossfader() != 1 {
		t.Fatalf("crossfader = %v, want clamped 1", e.Crossfader())
	}
}

func TestCrossfadeScalesEnteredVolume(t *testing.T) {
	e := newTestEngine(t)
	ch := addTestChannel(t, e, 1)
	e.SetVolume(1, 1.6)
	e.SetCrossfadeGroup(1, GroupA)
	e.SetCrossfader(0.25)
	wantGainTarget(t, ch, 1.6*0.75)
}

func TestRoutingStability(t *testing.T) {
	e := newTestEngine(t)
	ch := addTestChannel(t, e, 1)
	if e.reconnects != 1 {
		t.Fatalf("reconnects = %d after add, want 1", e.reconnects)
	}

	// Gain-only changes never touch the bus edge.
	e.SetVolume(1, 0.5)
	e.SetMute(1, true)
	e.SetMute(1, false)
	e.SetSolo(1, true)
	e.SetSolo(1, false)
	e.SetCrossfader(0.7)
	e.SetCrossfader(0)
	if e.reconnects != 1 {
		t.Fatalf("reconnects = %d after gain changes, want 1", e.reconnects)
	}

	e.SetCrossfadeGroup(1, GroupA)
	if e.reconnects != 2 || ch.connectedBus != busGroupA {
		t.Fatalf("reconnects = %d bus = %v, want 2 on groupA", e.reconnects, ch.connectedBus)
	}

	// Re-assigning the same group is a no-op on the edge.
	e.SetCrossfadeGroup(1, GroupA)
	if e.reconnects != 2 {
		t.Fatalf("reconnects = %d after same-group assign, want 2", e.reconnects)
	}

	e.SetCrossfadeGroup(1, GroupNeutral)
	if e.reconnects != 3 || ch.connectedBus != busMaster {
		t.Fatalf("reconnects = %d bus = %v, want 3 on master", e.reconnects, ch.connectedBus)
	}
}

func TestGroupAssignmentMovesBusEdge(t *testing.T) {
	e := newTestEngine(t)
	ch := addTestChannel(t, e, 1)
	masterInputs := e.master.NumInputs()

	e.SetCrossfadeGroup(1, GroupB)
	if e.groupB.NumInputs() != 1 {
		t.Fatalf("groupB inputs = %d, want 1", e.groupB.NumInputs())
	}
	if e.master.NumInputs() != masterInputs-1 {
		t.Fatalf("master inputs = %d, want %d", e.master.NumInputs(), masterInputs-1)
	}
	if ch.connectedBus != busGroupB {
		t.Fatalf("connected bus = %v, want groupB", ch.connectedBus)
	}
}

func TestSettersOnUnknownChannelAreNoOps(t *testing.T) {
	e := newTestEngine(t)
	e.SetVolume(9, 1)
	e.SetMute(9, true)
	e.SetSolo(9, true)
	e.SetMonitoring(9, true)
	e.SetCrossfadeGroup(9, GroupA)
}

func TestMasterVolume(t *testing.T) {
	e := newTestEngine(t)
	e.SetMasterVolume(1.5)
	if e.master.Target() != 1.5 {
		t.Fatalf("master target = %v, want 1.5", e.master.Target())
	}
	e.SetMasterVolume(7)
	if e.master.Target() != 2 {
		t.Fatalf("master target = %v, want clamped 2", e.master.Target())
	}
}

func TestMonitorEnable(t *testing.T) {
	e := newTestEngine(t)
	if e.monitor.Target() != 1 {
		t.Fatalf("monitor target = %v, want 1 by default", e.monitor.Target())
	}
	e.SetMonitorEnabled(false)
	if e.monitor.Target() != 0 {
		t.Fatalf("monitor target = %v after disable, want 0", e.monitor.Target())
	}
	e.SetMonitorEnabled(true)
	if e.monitor.Target() != 1 {
		t.Fatalf("monitor target = %v after enable, want 1", e.monitor.Target())
	}
}

func TestMonitoringToggle(t *testing.T) {
	e := newTestEngine(t)
	ch := addTestChannel(t, e, 1)
	e.SetMonitoring(1, true)
	if ch.monitorGate.Target() != 1 {
		t.Fatalf("monitor gate = %v, want 1", ch.monitorGate.Target())
	}
	e.SetMonitoring(1, false)
	if ch.monitorGate.Target() != 0 {
		t.Fatalf("monitor gate = %v, want 0", ch.monitorGate.Target())
	}
}
