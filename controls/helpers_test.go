package controls

import "time"

// manualClock is advanced explicitly by tests.
type manualClock struct {
	now time.Duration
}

func (c *manualClock) Now() time.Duration { return c.now }

func (c *manualClock) advance(d time.Duration) { c.now += d }

// edgeBus derives pressed edges from successive held states the same
// way the board's bus does.
type edgeBus struct {
	line Buttons
	prev Buttons
}

func newEdgeBus() *edgeBus {
	b := &edgeBus{}
	b.line = neutral()
	b.prev = neutral()
	return b
}

func neutral() Buttons {
	var b Buttons
	for p := range b.Player {
		for a := range b.Player[p].Analog {
			b.Player[p].Analog[a] = AnalogCenter
		}
	}
	return b
}

func (b *edgeBus) Poll() (pressed, held Buttons) {
	held = b.line
	pressed = held
	for p := range pressed.Player {
		cur, old := &pressed.Player[p], b.prev.Player[p]
		cur.Up = cur.Up && !old.Up
		cur.Down = cur.Down && !old.Down
		cur.Left = cur.Left && !old.Left
		cur.Right = cur.Right && !old.Right
		cur.Start = cur.Start && !old.Start
		cur.Service = cur.Service && !old.Service
		for i := range cur.Buttons {
			cur.Buttons[i] = cur.Buttons[i] && !old.Buttons[i]
		}
	}
	pressed.Test = held.Test && !b.prev.Test
	pressed.PSW1 = held.PSW1 && !b.prev.PSW1
	pressed.PSW2 = held.PSW2 && !b.prev.PSW2
	b.prev = held
	return pressed, held
}

// frame is one 60 Hz frame.
const frame = time.Second / 60
