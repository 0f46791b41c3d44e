//go:build rp2040 || rp2350

package main

import (
	"image/color"
	"machine"

	"tinygo.org/x/drivers/ws2812"

	"bridgestep/core"
)

// stateColors maps each motion state to a colour on the board's WS2812
// status LED. Braking states show amber so an operator can see the
// coast-to-full-step window.
var stateColors = map[core.MotionState]color.RGBA{
	core.Stopped:         {R: 0, G: 0, B: 16},
	core.RunningForward:  {R: 0, G: 16, B: 0},
	core.RunningBackward: {R: 0, G: 8, B: 8},
	core.BrakingForward:  {R: 16, G: 8, B: 0},
	core.BrakingBackward: {R: 16, G: 8, B: 0},
}

type statusLED struct {
	dev  ws2812.Device
	last core.MotionState
}

func newStatusLED(pin machine.Pin) *statusLED {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	l := &statusLED{dev: ws2812.NewWS2812(pin)}
	l.last = core.MotionState(0xFF) // force first Show to write
	return l
}

// Show updates the LED if the state changed. WS2812 writes are
// timing-sensitive bit-banged bursts, so skip them when nothing moved.
func (l *statusLED) Show(state core.MotionState) {
	if state == l.last {
		return
	}
	l.last = state
	l.dev.WriteColors([]color.RGBA{stateColors[state]})
}
