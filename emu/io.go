package emu

import (
	"sync"
	"time"

	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/emdiag/controls"
)

// Input bit positions in the SetInput bitmask. The d-pad uses the
// emucore positions.
const (
	BitButton1 = 4 + iota
	BitButton2
	BitButton3
	BitButton4
	BitButton5
	BitButton6
	BitStart
	BitService
	BitTest
	BitPSW1
	BitPSW2
)

// MapleBus is the board's controller bus. Host input lands on the line
// state at any time; a transaction (an input poll or an EEPROM access)
// holds the bus until it completes, including its latency.
type MapleBus struct {
	lineMu sync.Mutex
	lines  [controls.MaxPlayers]uint32
	analog [controls.MaxPlayers][controls.AnalogAxes]uint8
	dip    [4]bool

	busMu sync.Mutex
	prev  controls.Buttons
}

// Compile-time interface check.
var _ controls.Bus = (*MapleBus)(nil)

// NewMapleBus returns a bus with nothing pressed and every analog axis
// centred.
func NewMapleBus() *MapleBus {
	b := &MapleBus{}
	for p := range b.analog {
		for a := range b.analog[p] {
			b.analog[p][a] = controls.AnalogCenter
		}
	}
	b.prev = b.decode()
	return b
}

// SetLine replaces a player's button bitmask.
func (b *MapleBus) SetLine(player int, buttons uint32) {
	if player < 0 || player >= controls.MaxPlayers {
		return
	}
	b.lineMu.Lock()
	b.lines[player] = buttons
	b.lineMu.Unlock()
}

// SetAnalog sets one analog axis of a player.
func (b *MapleBus) SetAnalog(player, axis int, value uint8) {
	if player < 0 || player >= controls.MaxPlayers || axis < 0 || axis >= controls.AnalogAxes {
		return
	}
	b.lineMu.Lock()
	b.analog[player][axis] = value
	b.lineMu.Unlock()
}

// SetDIP sets DIP switch n (0 based).
func (b *MapleBus) SetDIP(n int, on bool) {
	if n < 0 || n >= len(b.dip) {
		return
	}
	b.lineMu.Lock()
	b.dip[n] = on
	b.lineMu.Unlock()
}

// DIP returns the DIP switch bank.
func (b *MapleBus) DIP() [4]bool {
	b.lineMu.Lock()
	defer b.lineMu.Unlock()
	return b.dip
}

// Poll implements controls.Bus.
func (b *MapleBus) Poll() (pressed, held controls.Buttons) {
	b.busMu.Lock()
	defer b.busMu.Unlock()

	held = b.decode()
	pressed = edges(held, b.prev)
	b.prev = held
	return pressed, held
}

// Transaction holds the bus for latency and then runs fn.
func (b *MapleBus) Transaction(latency time.Duration, fn func()) {
	b.busMu.Lock()
	defer b.busMu.Unlock()
	if latency > 0 {
		time.Sleep(latency)
	}
	fn()
}

// decode reads the line state into bus buttons. The front panel bits
// are shared, so they are taken from either port.
func (b *MapleBus) decode() controls.Buttons {
	b.lineMu.Lock()
	lines, analog, dip := b.lines, b.analog, b.dip
	b.lineMu.Unlock()

	var out controls.Buttons
	var panel uint32
	for p, bits := range lines {
		pl := &out.Player[p]
		pl.Up = bit(bits, int(emucore.ButtonUp))
		pl.Down = bit(bits, int(emucore.ButtonDown))
		pl.Left = bit(bits, int(emucore.ButtonLeft))
		pl.Right = bit(bits, int(emucore.ButtonRight))
		pl.Start = bit(bits, BitStart)
		pl.Service = bit(bits, BitService)
		for i := range pl.Buttons {
			pl.Buttons[i] = bit(bits, BitButton1+i)
		}
		pl.Analog = analog[p]
		panel |= bits
	}
	out.Test = bit(panel, BitTest)
	out.PSW1 = bit(panel, BitPSW1)
	out.PSW2 = bit(panel, BitPSW2)
	out.DIP = dip
	return out
}

// edges keeps the digital inputs of held that were up in prev. Analog
// axes and DIP switches are levels and pass through.
func edges(held, prev controls.Buttons) controls.Buttons {
	pressed := held
	for p := range pressed.Player {
		cur, old := &pressed.Player[p], prev.Player[p]
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
	pressed.Test = held.Test && !prev.Test
	pressed.PSW1 = held.PSW1 && !prev.PSW1
	pressed.PSW2 = held.PSW2 && !prev.PSW2
	return pressed
}

func bit(bits uint32, n int) bool {
	return bits&(1<<n) != 0
}
