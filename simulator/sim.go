// Simulator for the stepper controller.
//
// Runs the motion engine against a recording bridge driver, paced by a
// wall-clock carrier ticker, and serves a live view of the rotor angle
// and coil duty over HTTP. Useful for watching the braking alignment
// behaviour without hardware.
//
//	/rotor.png  - rendered rotor position and duty bar
//	/status     - one-line state report
//	/forward /backward /stop - inject events
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/fogleman/gg"

	"bridgestep/core"
)

var (
	port    = flag.Int("port", 8080, "Web server port number")
	divisor = flag.Int("divisor", core.DefaultDivisor, "Carrier interrupts per tick")
	carrier = flag.Duration("carrier", 2*time.Millisecond, "Carrier interrupt period")
)

// simBridge records the most recently latched output pair.
type simBridge struct {
	mu        sync.Mutex
	pattern   core.BridgePattern
	amplitude core.PWMAmplitude
	writes    int
}

func (b *simBridge) Apply(pattern core.BridgePattern, amplitude core.PWMAmplitude) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pattern = pattern
	b.amplitude = amplitude
	b.writes++
	return nil
}

func (b *simBridge) GetName() string { return "simulator" }

func (b *simBridge) latched() (core.BridgePattern, core.PWMAmplitude, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pattern, b.amplitude, b.writes
}

// sim owns the motor. All dispatching happens on the run goroutine, so
// the core needs no locking of its own; HTTP handlers read a snapshot.
type sim struct {
	bridge *simBridge
	events chan core.Event

	mu    sync.Mutex
	state core.MotionState
	pos   core.StepPosition
}

func newSim() *sim {
	return &sim{
		bridge: &simBridge{},
		events: make(chan core.Event, 4),
	}
}

// run is the single goroutine that touches the motor, standing in for
// the interrupt context of a hardware target.
func (s *sim) run() {
	motor := core.NewMotor(s.bridge)
	clock := core.NewStepClock(motor, uint8(*divisor))
	s.store(motor)

	ticker := time.NewTicker(*carrier)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			clock.Interrupt()
		case ev := <-s.events:
			motor.Dispatch(ev)
		}
		s.store(motor)
	}
}

func (s *sim) store(motor *core.Motor) {
	s.mu.Lock()
	s.state = motor.State()
	s.pos = motor.Position()
	s.mu.Unlock()
}

func (s *sim) snapshot() (core.MotionState, core.StepPosition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.pos
}

// checkDivisor validates the flag before the narrowing conversion to
// the step clock's uint8 divisor.
func checkDivisor(n int) error {
	if n < 1 || n > 255 {
		return fmt.Errorf("divisor %d out of range [1,255]", n)
	}
	return nil
}

func main() {
	flag.Parse()

	if err := checkDivisor(*divisor); err != nil {
		log.Fatal(err)
	}

	s := newSim()
	go s.run()

	http.HandleFunc("/forward", s.command(core.EventForward))
	http.HandleFunc("/backward", s.command(core.EventBackward))
	http.HandleFunc("/stop", s.command(core.EventStop))
	http.HandleFunc("/status", s.status)
	http.HandleFunc("/rotor.png", s.rotor)

	url := fmt.Sprintf(":%d", *port)
	log.Printf("Starting simulator on %s", url)
	log.Fatal(http.ListenAndServe(url, nil))
}

func (s *sim) command(ev core.Event) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		s.events <- ev
		s.status(w, r)
	}
}

func (s *sim) status(w http.ResponseWriter, r *http.Request) {
	state, pos := s.snapshot()
	_, amplitude, writes := s.bridge.latched()
	fmt.Fprintf(w, "state=%s pos=%d duty=%d/%d writes=%d\n",
		state, pos, amplitude, core.CarrierTicks, writes)
}

const (
	imgSize = 480
	dialR   = 180
)

// rotor renders the electrical angle as a dial needle plus a duty bar
// along the bottom. Full steps are drawn as long marks, microsteps as
// short ones, so the braking alignment is visible.
func (s *sim) rotor(w http.ResponseWriter, r *http.Request) {
	state, pos := s.snapshot()
	_, amplitude, _ := s.bridge.latched()

	c := gg.NewContext(imgSize, imgSize)
	c.SetRGB(1, 1, 1)
	c.Clear()

	const mid = imgSize / 2

	// Dial with step marks.
	c.SetRGB(0.2, 0.2, 0.2)
	c.SetLineWidth(2)
	c.DrawCircle(mid, mid, dialR)
	c.Stroke()
	for i := 0; i < core.StepCount; i++ {
		radians := float64(i) * 2 * math.Pi / core.StepCount
		inner := float64(dialR) - 8
		if i%8 == 0 {
			inner = dialR - 20
		}
		c.DrawLine(
			mid+inner*math.Sin(radians), mid-inner*math.Cos(radians),
			mid+dialR*math.Sin(radians), mid-dialR*math.Cos(radians))
		c.Stroke()
	}

	// Needle: green while running, amber while braking, blue stopped.
	switch state {
	case core.RunningForward, core.RunningBackward:
		c.SetRGB(0, 0.7, 0)
	case core.BrakingForward, core.BrakingBackward:
		c.SetRGB(0.9, 0.6, 0)
	default:
		c.SetRGB(0, 0, 0.8)
	}
	radians := float64(pos) * 2 * math.Pi / core.StepCount
	c.SetLineWidth(6)
	c.DrawLine(mid, mid,
		mid+(dialR-30)*math.Sin(radians), mid-(dialR-30)*math.Cos(radians))
	c.Stroke()

	// Duty bar.
	c.SetRGB(0.3, 0.3, 0.9)
	width := float64(amplitude) / core.CarrierTicks * (imgSize - 40)
	c.DrawRectangle(20, imgSize-30, width, 16)
	c.Fill()

	w.Header().Set("Content-Type", "image/png")
	if err := c.EncodePNG(w); err != nil {
		log.Printf("Error writing image: %v", err)
	}
}
