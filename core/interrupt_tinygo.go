//go:build tinygo

package core

import "runtime/interrupt"

// IrqState is the saved interrupt mask.
type IrqState = interrupt.State

// disableInterrupts masks interrupts and returns the previous state.
// The carrier interrupt and the direction-line interrupts both funnel
// into Dispatch, so each transition masks interrupts around its
// read-modify-write of the motor state.
func disableInterrupts() IrqState {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt mask.
func restoreInterrupts(state IrqState) {
	interrupt.Restore(state)
}
