package core

// BridgeDriver is the abstract interface to the bridge-driver front
// end. Platform-specific implementations handle actual hardware
// control; tests substitute a recording implementation.
type BridgeDriver interface {
	// Apply latches a bridge-select pattern and PWM amplitude
	// together, so the hardware never observes a half-updated pair.
	// Called once per processed tick from interrupt context: it must
	// be fast and must not block.
	Apply(pattern BridgePattern, amplitude PWMAmplitude) error

	// GetName returns the driver implementation name.
	GetName() string
}
