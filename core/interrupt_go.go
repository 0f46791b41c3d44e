//go:build !tinygo

package core

// IrqState is a placeholder for the saved interrupt mask on regular Go.
type IrqState uintptr

// disableInterrupts is a no-op on regular Go, where dispatch runs on a
// single goroutine (tests, the simulator run loop, host tools).
func disableInterrupts() IrqState {
	return 0
}

// restoreInterrupts is a no-op on regular Go.
func restoreInterrupts(state IrqState) {
}
