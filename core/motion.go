// Motion state machine for the stepper controller.
// Consumes direction/stop events from the input lines and tick events
// from the step clock, and drives the bridge outputs through the
// commutation tables. Every transition is bounded: table lookups and
// arithmetic only, no allocation, no blocking, so it is safe to run
// inside an interrupt handler.
package core

// MotionState enumerates the states of the motion state machine.
type MotionState uint8

const (
	// Stopped: the motor is at rest on a full step, holding torque applied.
	Stopped MotionState = iota

	// RunningForward: the motor advances one microstep per tick.
	RunningForward

	// BrakingForward: a stop or reversal was requested; the motor keeps
	// advancing until it reaches the next full step, then stops.
	BrakingForward

	// RunningBackward: the motor retreats one microstep per tick.
	RunningBackward

	// BrakingBackward: as BrakingForward, but retreating.
	BrakingBackward
)

func (s MotionState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case RunningForward:
		return "running-forward"
	case BrakingForward:
		return "braking-forward"
	case RunningBackward:
		return "running-backward"
	case BrakingBackward:
		return "braking-backward"
	}
	return "unknown"
}

// Event is an input to the motion state machine. Events are transient:
// each one is dispatched synchronously before its source returns, never
// queued or batched.
type Event uint8

const (
	// EventForward requests forward rotation.
	EventForward Event = iota

	// EventBackward requests backward rotation.
	EventBackward

	// EventStop requests a controlled stop on the next full step.
	EventStop

	// EventTick is the step-clock tick that actually moves the rotor.
	EventTick
)

func (e Event) String() string {
	switch e {
	case EventForward:
		return "forward"
	case EventBackward:
		return "backward"
	case EventStop:
		return "stop"
	case EventTick:
		return "tick"
	}
	return "unknown"
}

// Motor owns the motion state machine: the current state and the step
// position. Both are mutated only inside Dispatch, under the interrupt
// mask on hardware targets.
type Motor struct {
	state  MotionState
	pos    StepPosition
	bridge BridgeDriver
}

// NewMotor creates a Motor parked on step 0 and writes the initial
// parked output, so the rotor is held before any event arrives.
func NewMotor(bridge BridgeDriver) *Motor {
	m := &Motor{bridge: bridge}
	m.applyParked()
	return m
}

// State returns the current motion state.
func (m *Motor) State() MotionState {
	mask := disableInterrupts()
	s := m.state
	restoreInterrupts(mask)
	return s
}

// Position returns the current step position.
func (m *Motor) Position() StepPosition {
	mask := disableInterrupts()
	p := m.pos
	restoreInterrupts(mask)
	return p
}

// Dispatch runs one state machine transition. Unlisted (state, event)
// pairs are silently discarded. A reversal while running does not take
// effect immediately: the motor first brakes to the next full step, so
// the rotor is never asked to reverse mid-microstep.
func (m *Motor) Dispatch(ev Event) {
	mask := disableInterrupts()
	defer restoreInterrupts(mask)

	switch m.state {
	case Stopped:
		switch ev {
		case EventForward:
			m.state = RunningForward
		case EventBackward:
			m.state = RunningBackward
		}

	case RunningForward:
		switch ev {
		case EventTick:
			m.applyMoving()
			m.advance()
		case EventBackward, EventStop:
			m.state = BrakingForward
		}

	case BrakingForward:
		if ev == EventTick {
			if m.aligned() {
				m.applyParked()
				m.state = Stopped
			} else {
				m.applyMoving()
				m.advance()
			}
		}

	case RunningBackward:
		switch ev {
		case EventTick:
			m.applyMoving()
			m.retreat()
		case EventForward, EventStop:
			m.state = BrakingBackward
		}

	case BrakingBackward:
		if ev == EventTick {
			if m.aligned() {
				m.applyParked()
				m.state = Stopped
			} else {
				m.applyMoving()
				m.retreat()
			}
		}
	}
}

// aligned reports whether the position is on a mechanically aligned
// full step (0, 8, 16 or 24), the only positions a stop may occur on.
func (m *Motor) aligned() bool {
	return m.pos&7 == 0
}

func (m *Motor) advance() {
	m.pos = (m.pos + 1) & stepMask
}

func (m *Motor) retreat() {
	m.pos = (m.pos + StepCount - 1) & stepMask
}

// applyMoving writes the moving commutation for the current position.
// A failed write is an electrical symptom, not a state machine event:
// it is reported to the debug writer and the transition continues.
func (m *Motor) applyMoving() {
	pattern, amplitude := movingFrame(m.pos)
	if err := m.bridge.Apply(pattern, amplitude); err != nil {
		debugPrintln("bridge apply: " + err.Error())
	}
}

// applyParked writes the holding commutation for the current position.
func (m *Motor) applyParked() {
	pattern, amplitude := parkedFrame(m.pos)
	if err := m.bridge.Apply(pattern, amplitude); err != nil {
		debugPrintln("bridge apply: " + err.Error())
	}
}
