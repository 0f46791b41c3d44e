// Commutation for a bipolar stepper driven through a bridge front end.
// The 32-position electrical cycle is split into 4 coarse bridge
// polarities times 8 fine PWM amplitude levels, approximating a
// sinusoidal coil current with table lookups only. No trigonometry runs
// on the tick path.
package core

// StepPosition is a position in the 32-step commutation sequence.
// Arithmetic on it always wraps modulo StepCount.
type StepPosition uint8

// BridgePattern selects which pair of motor terminals the bridge
// energises. One-hot over the 4 bridge-select lines.
type BridgePattern uint8

// PWMAmplitude is the duty count written to the PWM compare register,
// measured against a CarrierTicks period (0..32 maps to 0..100%).
type PWMAmplitude uint8

const (
	// StepCount is the length of the commutation sequence: 4 bridge
	// phases of 8 micro-positions each.
	StepCount = 32

	// stepMask wraps a position into [0, StepCount).
	stepMask = StepCount - 1

	// CarrierTicks is the PWM carrier period in timer ticks.
	CarrierTicks = 32

	// holdAmplitude is the 50% duty applied while parked: enough
	// current for holding torque without rotation.
	holdAmplitude PWMAmplitude = 16
)

// Bridge-select sequence while parked on a full step.
var parkedPatterns = [4]BridgePattern{1, 4, 2, 8}

// Bridge-select sequence while moving.
var movingPatterns = [4]BridgePattern{5, 6, 10, 9}

// Half-period cosine weights for the microstep amplitudes. The second
// half of the waveform is covered by the pattern sequence, so one half
// period of precomputed values is enough.
var cosAmplitudes = [16]PWMAmplitude{
	32, 31, 27, 22, 16, 10, 5, 1,
	0, 1, 5, 10, 16, 22, 27, 31,
}

// parkedFrame returns the output pair that holds the rotor on a full
// step. The high 2 bits of the position select the bridge pattern.
func parkedFrame(pos StepPosition) (BridgePattern, PWMAmplitude) {
	return parkedPatterns[pos>>3], holdAmplitude
}

// movingFrame returns the output pair for one microstep of rotation.
// The low 4 bits index the amplitude table, the high 2 bits select the
// bridge pattern.
func movingFrame(pos StepPosition) (BridgePattern, PWMAmplitude) {
	return movingPatterns[pos>>3], cosAmplitudes[pos&0x0F]
}
