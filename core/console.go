// Serial command console for the stepper controller.
// Single-byte commands inject direction/stop events into the motion
// state machine and report its state; the console never advances the
// rotor itself, so event ordering stays with the state machine.
package core

import "io"

// ConsoleDevice is the byte-level I/O the console runs over. Hardware
// targets adapt the machine serial port; tests use an in-memory script.
type ConsoleDevice interface {
	ReadByte() (byte, error)
	WriteByte(b byte) error
}

// ConsoleCommand maps a single command byte to an action on the motor.
type ConsoleCommand struct {
	Flag        byte
	Run         func(c *Console) error
	Description string
}

var consoleCommands = []*ConsoleCommand{
	{
		Flag: 'f',
		Run: func(c *Console) error {
			c.motor.Dispatch(EventForward)
			return nil
		},
		Description: "Run the motor forward.",
	},
	{
		Flag: 'b',
		Run: func(c *Console) error {
			c.motor.Dispatch(EventBackward)
			return nil
		},
		Description: "Run the motor backward.",
	},
	{
		Flag: 's',
		Run: func(c *Console) error {
			c.motor.Dispatch(EventStop)
			return nil
		},
		Description: "Stop on the next full step.",
	},
	{
		Flag: '?',
		Run: func(c *Console) error {
			return c.writeStatus()
		},
		Description: "Report motion state and step position.",
	},
}

// Console drives a Motor from byte commands on a serial device.
type Console struct {
	motor *Motor
	dev   ConsoleDevice
	idle  func()
}

// NewConsole creates a console for motor over dev.
func NewConsole(motor *Motor, dev ConsoleDevice) *Console {
	return &Console{motor: motor, dev: dev}
}

// SetIdle sets a hook invoked whenever a read returns no data.
// Hardware serial reads do not block, so on a cooperative scheduler
// the target must yield here or Run starves every other goroutine.
func (c *Console) SetIdle(idle func()) {
	c.idle = idle
}

// Run services the console until the device reports io.EOF. Read
// errors other than EOF are treated as "no byte available": the idle
// hook runs and the read is retried, matching the semantics of
// TinyGo's machine serial.
func (c *Console) Run() {
	cmdMap := make(map[byte]*ConsoleCommand)
	for _, cmd := range consoleCommands {
		cmdMap[cmd.Flag] = cmd
	}

	for {
		in, err := c.dev.ReadByte()
		if err == io.EOF {
			return
		}
		if err != nil {
			if c.idle != nil {
				c.idle()
			}
			continue
		}

		if in == 'h' {
			c.writeHelp()
			continue
		}

		cmd, ok := cmdMap[in]
		if !ok {
			continue
		}
		if err := cmd.Run(c); err != nil {
			c.writeString("error: " + err.Error() + "\n")
		}
	}
}

// writeStatus emits a one-line report, e.g. "state=stopped pos=8".
func (c *Console) writeStatus() error {
	line := "state=" + c.motor.State().String() +
		" pos=" + itoa(int(c.motor.Position())) + "\n"
	return c.writeString(line)
}

func (c *Console) writeHelp() {
	for _, cmd := range consoleCommands {
		c.writeString(string(cmd.Flag) + ": " + cmd.Description + "\n")
	}
	c.writeString("h: Show this help.\n")
}

func (c *Console) writeString(s string) error {
	for i := 0; i < len(s); i++ {
		if err := c.dev.WriteByte(s[i]); err != nil {
			return err
		}
	}
	return nil
}

// itoa avoids pulling fmt onto the firmware image for a two digit
// number.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [4]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
