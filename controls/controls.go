package controls

import (
	"sync"
	"time"
)

// Analog stick navigation thresholds. An axis becomes a held direction
// once it moves more than analogThreshold from centre, and lets go only
// after returning inside analogThreshold-AnalogDeadZone.
const (
	AnalogDeadZone  = 8
	analogThreshold = 0x40
)

// Repeat timer slots, direction-major then player.
const (
	repeatUp = iota * MaxPlayers
	repeatDown
	repeatLeft
	repeatRight
	repeatSlots
)

// Snapshot is one frame's worth of input. The navigation events (Up
// through Service) are true only on the frame a press edge or a
// qualifying repeat happened, and at most one category fires per frame.
type Snapshot struct {
	Up, Down, Left, Right bool
	Start                 bool
	Test                  bool
	Service               bool

	// Raw analog channels, for calibration displays.
	Analog [MaxPlayers][AnalogAxes]uint8

	// Raw digital state, for pinout verification.
	Player   [MaxPlayers]Player
	TestHeld bool

	// Front panel, reported individually in separated mode.
	PSW1 bool
	PSW2 bool
	DIP  uint8
}

// Sampler polls the bus once per frame and derives navigation events.
// A running EEPROM test samples from its worker while the host may be
// changing options, so all state below is guarded by mu.
type Sampler struct {
	bus   Bus
	clock Clock

	mu      sync.Mutex
	players int

	// analogNav enables stick-as-direction navigation. It is off by
	// default so boards without sticks, whose channels may float, do
	// not read as a held direction.
	analogNav bool

	repeats [repeatSlots]RepeatTimer

	// Analog stick derived directions, per player.
	analogHeld [MaxPlayers]direction
}

type direction struct {
	up, down, left, right bool
}

// NewSampler creates a sampler for a single-player cabinet.
func NewSampler(bus Bus, clock Clock) *Sampler {
	return &Sampler{
		bus:     bus,
		clock:   clock,
		players: 1,
	}
}

// SetPlayers configures how many player ports participate in navigation.
func (s *Sampler) SetPlayers(n int) {
	if n < 1 {
		n = 1
	}
	s.mu.Lock()
	s.players = n
	s.mu.Unlock()
}

// SetAnalogNavigation enables or disables analog stick navigation.
func (s *Sampler) SetAnalogNavigation(enabled bool) {
	s.mu.Lock()
	s.analogNav = enabled
	s.analogHeld = [MaxPlayers]direction{}
	s.mu.Unlock()
}

// Players returns the configured player count.
func (s *Sampler) Players() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players
}

// Reset clears all repeat and analog edge state so that a button held
// across a screen change does not repeat until pressed again.
func (s *Sampler) Reset() {
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
}

func (s *Sampler) reset() {
	for i := range s.repeats {
		s.repeats[i].Reset()
	}
	s.analogHeld = [MaxPlayers]direction{}
}

// Sample polls the bus and returns this frame's controls. reinit resets
// repeat state first. In separated mode the front-panel switches are not
// folded into test and service.
func (s *Sampler) Sample(reinit, separated bool) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reinit {
		s.reset()
	}

	pressed, held := s.bus.Poll()
	if s.analogNav {
		s.foldAnalog(&pressed, &held, reinit)
	}

	two := s.players >= 2
	p1p, p2p := pressed.Player[0], pressed.Player[1]
	p1h, p2h := held.Player[0], held.Player[1]

	var c Snapshot

	c.Analog[0] = held.Player[0].Analog
	if two {
		c.Analog[1] = held.Player[1].Analog
	} else {
		for i := range c.Analog[1] {
			c.Analog[1][i] = AnalogCenter
		}
	}

	c.Player = held.Player
	c.TestHeld = held.Test
	c.PSW1 = held.PSW1
	c.PSW2 = held.PSW2
	for i, on := range held.DIP {
		if on {
			c.DIP |= 1 << i
		}
	}

	switch {
	case pressed.Test || (!separated && pressed.PSW1):
		c.Test = true
	case p1p.Service || (!separated && pressed.PSW2) || (two && p2p.Service):
		c.Service = true
	case p1p.Start || (two && p2p.Start):
		c.Start = true
	default:
		now := s.clock.Now()

		c.Up = s.direction(repeatUp, p1p.Up, p2p.Up, p1h.Up, p2h.Up, now)
		down := s.direction(repeatDown, p1p.Down, p2p.Down, p1h.Down, p2h.Down, now)
		left := s.direction(repeatLeft, p1p.Left, p2p.Left, p1h.Left, p2h.Left, now)
		right := s.direction(repeatRight, p1p.Right, p2p.Right, p1h.Right, p2h.Right, now)

		// Up/down win over left/right; within an axis the first wins.
		c.Down = !c.Up && down
		if !c.Up && !c.Down {
			c.Left = left
			c.Right = !left && right
		}
	}

	return c
}

// direction reports whether a direction fires this frame, either from a
// fresh press on a participating port or from an auto-repeat. Every
// participating timer is serviced so releases are seen promptly.
func (s *Sampler) direction(slot int, p1Pressed, p2Pressed, p1Held, p2Held bool, now time.Duration) bool {
	two := s.players >= 2

	fired := p1Pressed || (two && p2Pressed)
	s.repeats[slot].Arm(p1Pressed, now)
	if two {
		s.repeats[slot+1].Arm(p2Pressed, now)
	}

	if s.repeats[slot].ShouldRepeat(p1Held, now) {
		fired = true
	}
	if two && s.repeats[slot+1].ShouldRepeat(p2Held, now) {
		fired = true
	}
	return fired
}

// foldAnalog turns stick deflection on analog channels 1 (vertical) and
// 2 (horizontal) into digital directions with hysteresis, OR-ing the
// result into the polled button sets. When priming, the current stick
// position is latched without producing press edges.
func (s *Sampler) foldAnalog(pressed, held *Buttons, prime bool) {
	for p := 0; p < MaxPlayers; p++ {
		old := s.analogHeld[p]
		v := held.Player[p].Analog[0]
		h := held.Player[p].Analog[1]

		cur := direction{
			up:    hysteresis(old.up, AnalogCenter-int(v)),
			down:  hysteresis(old.down, int(v)-AnalogCenter),
			left:  hysteresis(old.left, AnalogCenter-int(h)),
			right: hysteresis(old.right, int(h)-AnalogCenter),
		}
		s.analogHeld[p] = cur
		if prime {
			old = cur
		}

		hp := &held.Player[p]
		pp := &pressed.Player[p]
		hp.Up = hp.Up || cur.up
		hp.Down = hp.Down || cur.down
		hp.Left = hp.Left || cur.left
		hp.Right = hp.Right || cur.right
		pp.Up = pp.Up || (cur.up && !old.up)
		pp.Down = pp.Down || (cur.down && !old.down)
		pp.Left = pp.Left || (cur.left && !old.left)
		pp.Right = pp.Right || (cur.right && !old.right)
	}
}

func hysteresis(wasHeld bool, deflection int) bool {
	if wasHeld {
		return deflection > analogThreshold-AnalogDeadZone
	}
	return deflection > analogThreshold
}
