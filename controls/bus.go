// Package controls turns raw polled input-bus state into per-frame
// navigation events with edge detection and auto-repeat.
package controls

import "time"

// MaxPlayers is the number of player ports on the input bus.
const MaxPlayers = 2

// AnalogAxes is the number of analog channels per player port.
const AnalogAxes = 4

// AnalogCenter is the neutral reading of an analog channel.
const AnalogCenter = 0x80

// Player holds one player port's digital and analog state.
type Player struct {
	Up, Down, Left, Right bool
	Start                 bool
	Service               bool
	Buttons               [6]bool
	Analog                [AnalogAxes]uint8
}

// Buttons is one view (pressed or held) of the whole input bus.
type Buttons struct {
	Player [MaxPlayers]Player
	Test   bool
	PSW1   bool
	PSW2   bool
	DIP    [4]bool
}

// Bus is the input side of the board's controller bus. Poll performs one
// bus transaction and returns the buttons that went down since the
// previous poll along with everything currently held.
type Bus interface {
	Poll() (pressed, held Buttons)
}

// Clock supplies the time base for repeat timers.
type Clock interface {
	Now() time.Duration
}
