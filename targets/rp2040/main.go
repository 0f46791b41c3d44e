//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"bridgestep/core"
)

const (
	// pwmPeriod is the PWM carrier period in nanoseconds. 25kHz keeps
	// the bridge switching above the audible range.
	pwmPeriod = 40000

	// carrierInterval paces the software carrier loop. One iteration
	// is one fast-timer opportunity for the step clock; the divider
	// turns every 26th into a mechanical tick.
	carrierInterval = 500 * time.Microsecond
)

// Board wiring.
var (
	bridgePins   = [4]machine.Pin{machine.GP10, machine.GP11, machine.GP12, machine.GP13}
	amplitudePin = machine.GP6 // PWM3 channel A
	forwardPin   = machine.GP14
	backwardPin  = machine.GP15
	ledPin       = machine.GP16
)

func main() {
	// Give USB CDC a moment to enumerate before anything prints.
	time.Sleep(500 * time.Millisecond)

	core.SetDebugWriter(func(s string) {
		println(s)
	})

	bridge, err := NewRPBridgeDriver(bridgePins, machine.PWM3, amplitudePin, pwmPeriod)
	if err != nil {
		panic("bridge init: " + err.Error())
	}

	// NewMotor parks the rotor on step 0 before any interrupt is armed.
	motor := core.NewMotor(bridge)
	clock := core.NewStepClock(motor, core.DefaultDivisor)

	led := newStatusLED(ledPin)
	led.Show(motor.State())

	// Direction buttons: pull-ups and falling-edge selection provide
	// the debounce contract; each edge asserts exactly one event.
	forwardPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	backwardPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	forwardPin.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		motor.Dispatch(core.EventForward)
	})
	backwardPin.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		motor.Dispatch(core.EventBackward)
	})

	// Serial console for host control alongside the buttons. The
	// machine serial read returns immediately when nothing is
	// buffered: yield there, or the cooperative scheduler never gets
	// back to the carrier loop.
	console := core.NewConsole(motor, serialDevice{})
	console.SetIdle(func() {
		time.Sleep(100 * time.Microsecond)
	})
	go console.Run()

	// Carrier pacing loop.
	for {
		clock.Interrupt()
		led.Show(motor.State())
		time.Sleep(carrierInterval)
	}
}

// serialDevice adapts the machine serial port to the console device
// interface.
type serialDevice struct{}

func (serialDevice) ReadByte() (byte, error) {
	return machine.Serial.ReadByte()
}

func (serialDevice) WriteByte(b byte) error {
	return machine.Serial.WriteByte(b)
}
