// Host control tool for the stepper controller.
// Speaks the single-byte console protocol over a serial link and
// relays the controller's replies.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/aamcrae/config"

	"bridgestep/host/serial"
)

var (
	device     = flag.String("device", "", "Serial device path")
	baud       = flag.Int("baud", 0, "Baud rate (ignored for USB CDC)")
	configFile = flag.String("config", "", "Configuration file")
)

// commandBytes maps interactive commands to console protocol bytes.
var commandBytes = map[string]byte{
	"forward":  'f',
	"f":        'f',
	"backward": 'b',
	"b":        'b',
	"stop":     's',
	"s":        's',
	"status":   '?',
	"?":        '?',
}

func main() {
	flag.Parse()

	cfg := serial.DefaultConfig(*device)
	if *configFile != "" {
		if err := loadConfig(*configFile, cfg); err != nil {
			log.Fatalf("%s: %v", *configFile, err)
		}
	}
	applyOverrides(cfg, *device, *baud)
	if cfg.Device == "" {
		log.Fatalf("no serial device (use -device or a config file)")
	}

	port, err := serial.Open(cfg)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer port.Close()

	// Drop anything stale buffered in the link before talking.
	if err := port.Flush(); err != nil {
		log.Printf("flush: %v", err)
	}

	// Relay replies (status lines, help text) from the controller.
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := port.Read(buf)
			if err != nil {
				return
			}
			if n > 0 {
				os.Stdout.Write(buf[:n])
			}
		}
	}()

	fmt.Printf("Connected to %s\n", cfg.Device)
	fmt.Println("Commands: forward, backward, stop, status, help, quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "quit", "exit", "q":
			return
		case "help", "h":
			send(port, 'h')
		default:
			b, ok := commandBytes[line]
			if !ok {
				fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", line)
				continue
			}
			send(port, b)
		}
	}
}

func send(port serial.Port, b byte) {
	if _, err := port.Write([]byte{b}); err != nil {
		log.Printf("write: %v", err)
	}
}

// applyOverrides lets command line flags win over the config file.
// Zero values mean "flag not set".
func applyOverrides(cfg *serial.Config, device string, baud int) {
	if device != "" {
		cfg.Device = device
	}
	if baud != 0 {
		cfg.Baud = baud
	}
}

// loadConfig fills cfg from the [link] section of an INI-style file.
// Sample config:
//
//	[link]
//	device=/dev/ttyACM0
//	baud=115200
func loadConfig(path string, cfg *serial.Config) error {
	conf, err := config.ParseFile(path)
	if err != nil {
		return err
	}
	s := conf.GetSection("link")
	if s == nil {
		return fmt.Errorf("no [link] section")
	}
	var dev string
	if n, err := s.Parse("device", "%s", &dev); err == nil && n == 1 {
		cfg.Device = dev
	}
	var b int
	if n, err := s.Parse("baud", "%d", &b); err == nil && n == 1 {
		cfg.Baud = b
	}
	return nil
}
