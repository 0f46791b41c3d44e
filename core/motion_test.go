package core

import (
	"testing"
)

// frame is one recorded bridge output pair.
type frame struct {
	pattern   BridgePattern
	amplitude PWMAmplitude
	parked    bool
}

// recordingBridge is a test implementation of BridgeDriver that keeps
// every latched output pair.
type recordingBridge struct {
	frames []frame
}

func (b *recordingBridge) Apply(pattern BridgePattern, amplitude PWMAmplitude) error {
	parked := false
	for _, p := range parkedPatterns {
		if p == pattern {
			parked = true
		}
	}
	b.frames = append(b.frames, frame{pattern: pattern, amplitude: amplitude, parked: parked})
	return nil
}

func (b *recordingBridge) GetName() string { return "recording" }

func (b *recordingBridge) reset() { b.frames = nil }

func newTestMotor() (*Motor, *recordingBridge) {
	bridge := &recordingBridge{}
	motor := NewMotor(bridge)
	bridge.reset()
	return motor, bridge
}

func tick(m *Motor, n int) {
	for i := 0; i < n; i++ {
		m.Dispatch(EventTick)
	}
}

func TestNewMotorParksOnStepZero(t *testing.T) {
	bridge := &recordingBridge{}
	motor := NewMotor(bridge)

	if motor.State() != Stopped {
		t.Errorf("initial state = %v, want %v", motor.State(), Stopped)
	}
	if motor.Position() != 0 {
		t.Errorf("initial position = %d, want 0", motor.Position())
	}
	if len(bridge.frames) != 1 {
		t.Fatalf("expected 1 initial bridge write, got %d", len(bridge.frames))
	}
	if got := bridge.frames[0]; got.pattern != parkedPatterns[0] || got.amplitude != holdAmplitude {
		t.Errorf("initial frame = %+v, want parked pattern %d amplitude %d",
			got, parkedPatterns[0], holdAmplitude)
	}
}

func TestStoppedTransitions(t *testing.T) {
	testCases := []struct {
		event Event
		want  MotionState
	}{
		{EventForward, RunningForward},
		{EventBackward, RunningBackward},
		{EventStop, Stopped},
		{EventTick, Stopped},
	}

	for _, tc := range testCases {
		motor, bridge := newTestMotor()
		motor.Dispatch(tc.event)

		if motor.State() != tc.want {
			t.Errorf("Stopped + %v: state = %v, want %v", tc.event, motor.State(), tc.want)
		}
		if motor.Position() != 0 {
			t.Errorf("Stopped + %v: position = %d, want 0", tc.event, motor.Position())
		}
		if len(bridge.frames) != 0 {
			t.Errorf("Stopped + %v: %d bridge writes, want 0", tc.event, len(bridge.frames))
		}
	}
}

func TestStopIdempotentWhileStopped(t *testing.T) {
	motor, bridge := newTestMotor()
	for i := 0; i < 5; i++ {
		motor.Dispatch(EventStop)
	}
	if motor.State() != Stopped || motor.Position() != 0 {
		t.Errorf("state = %v position = %d after repeated stops, want Stopped 0",
			motor.State(), motor.Position())
	}
	if len(bridge.frames) != 0 {
		t.Errorf("%d bridge writes after repeated stops, want 0", len(bridge.frames))
	}
}

func TestForwardRun(t *testing.T) {
	motor, bridge := newTestMotor()
	motor.Dispatch(EventForward)
	tick(motor, 40)

	if motor.State() != RunningForward {
		t.Errorf("state = %v, want %v", motor.State(), RunningForward)
	}
	if motor.Position() != 8 {
		t.Errorf("position = %d, want 8 (40 mod 32)", motor.Position())
	}
	if len(bridge.frames) != 40 {
		t.Fatalf("%d bridge writes, want 40", len(bridge.frames))
	}
	for i, f := range bridge.frames {
		pos := StepPosition(i) & stepMask
		wantPattern, wantAmplitude := movingFrame(pos)
		if f.pattern != wantPattern || f.amplitude != wantAmplitude {
			t.Errorf("frame %d = %+v, want pattern %d amplitude %d",
				i, f, wantPattern, wantAmplitude)
		}
	}
}

func TestPositionWrapsForward(t *testing.T) {
	motor, _ := newTestMotor()
	motor.Dispatch(EventForward)
	tick(motor, 31)
	if motor.Position() != 31 {
		t.Fatalf("position = %d, want 31", motor.Position())
	}
	tick(motor, 1)
	if motor.Position() != 0 {
		t.Errorf("position after wrap = %d, want 0", motor.Position())
	}
}

func TestPositionWrapsBackward(t *testing.T) {
	motor, bridge := newTestMotor()
	motor.Dispatch(EventBackward)
	tick(motor, 1)

	if motor.Position() != 31 {
		t.Errorf("position = %d, want 31 (0 wraps to 31)", motor.Position())
	}
	// The commutation applied belongs to the position before the
	// retreat.
	wantPattern, wantAmplitude := movingFrame(0)
	if f := bridge.frames[0]; f.pattern != wantPattern || f.amplitude != wantAmplitude {
		t.Errorf("frame = %+v, want pattern %d amplitude %d", f, wantPattern, wantAmplitude)
	}
}

func TestBrakingForwardStopsOnFullStep(t *testing.T) {
	motor, bridge := newTestMotor()
	motor.Dispatch(EventForward)
	tick(motor, 3) // position 3

	motor.Dispatch(EventBackward)
	if motor.State() != BrakingForward {
		t.Fatalf("state after reversal = %v, want %v", motor.State(), BrakingForward)
	}

	bridge.reset()
	// Positions 3..7 are unaligned: the motor coasts forward.
	for i := 0; i < 5; i++ {
		motor.Dispatch(EventTick)
		if motor.State() != BrakingForward {
			t.Fatalf("state after braking tick %d = %v, want %v", i, motor.State(), BrakingForward)
		}
	}
	if motor.Position() != 8 {
		t.Fatalf("position after coasting = %d, want 8", motor.Position())
	}
	for i, f := range bridge.frames {
		if f.parked {
			t.Errorf("braking tick %d produced a parked write %+v", i, f)
		}
	}

	// The tick on the aligned step parks and stops.
	bridge.reset()
	motor.Dispatch(EventTick)
	if motor.State() != Stopped {
		t.Errorf("state = %v, want %v", motor.State(), Stopped)
	}
	if motor.Position() != 8 {
		t.Errorf("position = %d, want 8", motor.Position())
	}
	if len(bridge.frames) != 1 || !bridge.frames[0].parked {
		t.Fatalf("final write = %+v, want a single parked frame", bridge.frames)
	}
	if bridge.frames[0].amplitude != holdAmplitude {
		t.Errorf("parked amplitude = %d, want %d", bridge.frames[0].amplitude, holdAmplitude)
	}
}

func TestBrakingBackwardStopsOnFullStep(t *testing.T) {
	motor, bridge := newTestMotor()
	motor.Dispatch(EventBackward)
	tick(motor, 3) // position 29

	motor.Dispatch(EventForward)
	if motor.State() != BrakingBackward {
		t.Fatalf("state after reversal = %v, want %v", motor.State(), BrakingBackward)
	}

	// Positions 29..25 are unaligned: the motor coasts backward to 24.
	tick(motor, 5)
	if motor.State() != BrakingBackward || motor.Position() != 24 {
		t.Fatalf("state = %v position = %d, want %v 24",
			motor.State(), motor.Position(), BrakingBackward)
	}

	bridge.reset()
	motor.Dispatch(EventTick)
	if motor.State() != Stopped || motor.Position() != 24 {
		t.Errorf("state = %v position = %d, want %v 24",
			motor.State(), motor.Position(), Stopped)
	}
	if len(bridge.frames) != 1 || !bridge.frames[0].parked {
		t.Fatalf("final write = %+v, want a single parked frame", bridge.frames)
	}
}

func TestStopWhileRunningBrakes(t *testing.T) {
	motor, _ := newTestMotor()
	motor.Dispatch(EventForward)
	tick(motor, 1)

	motor.Dispatch(EventStop)
	if motor.State() != BrakingForward {
		t.Errorf("state = %v, want %v", motor.State(), BrakingForward)
	}

	motor, _ = newTestMotor()
	motor.Dispatch(EventBackward)
	tick(motor, 1)

	motor.Dispatch(EventStop)
	if motor.State() != BrakingBackward {
		t.Errorf("state = %v, want %v", motor.State(), BrakingBackward)
	}
}

func TestUnlistedEventsDiscarded(t *testing.T) {
	motor, bridge := newTestMotor()
	motor.Dispatch(EventForward)
	tick(motor, 2)
	bridge.reset()

	// Forward while already running forward is a no-op.
	motor.Dispatch(EventForward)
	if motor.State() != RunningForward || motor.Position() != 2 {
		t.Errorf("state = %v position = %d, want %v 2",
			motor.State(), motor.Position(), RunningForward)
	}

	// Direction and stop events are ignored while braking.
	motor.Dispatch(EventStop)
	motor.Dispatch(EventForward)
	motor.Dispatch(EventBackward)
	motor.Dispatch(EventStop)
	if motor.State() != BrakingForward {
		t.Errorf("state = %v, want %v", motor.State(), BrakingForward)
	}
	if len(bridge.frames) != 0 {
		t.Errorf("%d bridge writes from non-tick events, want 0", len(bridge.frames))
	}
}

// A full reversal: run forward, request backward, coast to the full
// step, stop, then run backward on the next command.
func TestReversalThroughBraking(t *testing.T) {
	motor, _ := newTestMotor()
	motor.Dispatch(EventForward)
	tick(motor, 5) // position 5

	motor.Dispatch(EventBackward)
	tick(motor, 3) // coasting to position 8, not yet parked
	if motor.State() != BrakingForward || motor.Position() != 8 {
		t.Fatalf("state = %v position = %d, want %v 8",
			motor.State(), motor.Position(), BrakingForward)
	}
	tick(motor, 1) // parks
	if motor.State() != Stopped || motor.Position() != 8 {
		t.Fatalf("state = %v position = %d, want Stopped 8", motor.State(), motor.Position())
	}

	// The reversal was consumed by the braking entry; a fresh command
	// starts the backward run.
	motor.Dispatch(EventBackward)
	tick(motor, 2)
	if motor.State() != RunningBackward || motor.Position() != 6 {
		t.Errorf("state = %v position = %d, want %v 6",
			motor.State(), motor.Position(), RunningBackward)
	}
}

type failingBridge struct {
	calls int
}

func (b *failingBridge) Apply(BridgePattern, PWMAmplitude) error {
	b.calls++
	return errApply
}

func (b *failingBridge) GetName() string { return "failing" }

var errApply = &bridgeError{}

type bridgeError struct{}

func (*bridgeError) Error() string { return "latch rejected" }

// A failed bridge write must not disturb the state machine.
func TestBridgeErrorDoesNotStopDispatch(t *testing.T) {
	var logged []string
	SetDebugWriter(func(s string) { logged = append(logged, s) })
	defer SetDebugWriter(func(string) {})

	bridge := &failingBridge{}
	motor := NewMotor(bridge)
	motor.Dispatch(EventForward)
	tick(motor, 3)

	if motor.State() != RunningForward || motor.Position() != 3 {
		t.Errorf("state = %v position = %d, want %v 3",
			motor.State(), motor.Position(), RunningForward)
	}
	if bridge.calls != 4 { // initial park + 3 ticks
		t.Errorf("bridge calls = %d, want 4", bridge.calls)
	}
	if len(logged) != 4 {
		t.Errorf("%d debug lines, want 4", len(logged))
	}
}
