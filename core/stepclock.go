package core

// DefaultDivisor is the reference configuration: 26 carrier interrupts
// per logical tick.
const DefaultDivisor = 26

// StepClock derives the slow mechanical step rate from the fast PWM
// carrier interrupt by integer division. The carrier rate is chosen for
// bridge-switching and audible-noise reasons and is far too fast to
// step a rotor, so only every Nth firing advances the motor. N sets the
// rotation speed.
type StepClock struct {
	motor   *Motor
	divisor uint8
	count   uint8
}

// NewStepClock creates a step clock dispatching ticks to motor every
// divisor carrier interrupts. A zero divisor selects DefaultDivisor.
func NewStepClock(motor *Motor, divisor uint8) *StepClock {
	if divisor == 0 {
		divisor = DefaultDivisor
	}
	return &StepClock{motor: motor, divisor: divisor}
}

// Interrupt consumes one fast-timer firing. Every Nth firing emits
// exactly one tick to the motor; all other firings only advance the
// divider, which wraps silently.
func (c *StepClock) Interrupt() {
	c.count++
	if c.count >= c.divisor {
		c.count = 0
		c.motor.Dispatch(EventTick)
	}
}
