//go:build rp2040 || rp2350

package main

import (
	"machine"

	"bridgestep/core"
)

// pwmPeripheral abstracts TinyGo's unexported *pwmGroup type so the
// amplitude channel can be configured and driven through an interface.
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// RPBridgeDriver implements core.BridgeDriver for RP2040/RP2350 boards:
// 4 GPIO bridge-select lines plus one hardware PWM channel for the
// amplitude. The select lines and the compare register are written
// back-to-back inside one Apply call; the bridge hardware latches them
// for the tick duration.
type RPBridgeDriver struct {
	selects [4]machine.Pin
	pwm     pwmPeripheral
	channel uint8
	top     uint32
}

// NewRPBridgeDriver configures the select pins as outputs and the PWM
// pin for the carrier period (in nanoseconds).
func NewRPBridgeDriver(selects [4]machine.Pin, pwm pwmPeripheral, pwmPin machine.Pin, carrierPeriod uint64) (*RPBridgeDriver, error) {
	for _, p := range selects {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.Low()
	}

	if err := pwm.Configure(machine.PWMConfig{Period: carrierPeriod}); err != nil {
		return nil, err
	}
	channel, err := pwm.Channel(pwmPin)
	if err != nil {
		return nil, err
	}

	return &RPBridgeDriver{
		selects: selects,
		pwm:     pwm,
		channel: channel,
		top:     pwm.Top(),
	}, nil
}

// Apply latches a bridge pattern and amplitude. Runs in interrupt
// context once per tick.
func (d *RPBridgeDriver) Apply(pattern core.BridgePattern, amplitude core.PWMAmplitude) error {
	for i := range d.selects {
		d.selects[i].Set(pattern&(1<<i) != 0)
	}

	// Scale the 0..CarrierTicks duty count to the slice's counter range.
	duty := (uint32(amplitude) * d.top) / core.CarrierTicks
	d.pwm.Set(d.channel, duty)
	return nil
}

func (d *RPBridgeDriver) GetName() string {
	return "rp-gpio-pwm"
}
