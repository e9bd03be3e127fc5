// Package menu implements the diagnostic screen navigator and every
// screen reachable from the main menu.
//
// Screens are drawn once per frame through Navigator.Draw. Each screen
// owns its own state, is told when it has just been entered (reinit), and
// returns the screen to show on the next frame.
package menu

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/user-none/emdiag/controls"
	"github.com/user-none/emdiag/hwtest"
)

// ScreenID identifies a screen. Ids above 1000 are actions rather than
// displays.
type ScreenID int

const (
	ScreenNone ScreenID = -1

	MainMenu     ScreenID = 0
	MonitorTests ScreenID = 1
	AudioTests   ScreenID = 2
	InputTests   ScreenID = 3
	EEPROMTests  ScreenID = 4
	SRAMTests    ScreenID = 5
	DIPTests     ScreenID = 6

	SystemMenu   ScreenID = 1001
	RebootSystem ScreenID = 1002
)

// Entry is one row of the main menu. An empty label is a spacer.
type Entry struct {
	Label string
	ID    ScreenID
}

// Entries is the main menu as shipped.
var Entries = []Entry{
	{"Monitor Tests", MonitorTests},
	{"Audio Tests", AudioTests},
	{"Input Tests", InputTests},
	{"DIP Switch Tests", DIPTests},
	{"EEPROM Tests", EEPROMTests},
	{"SRAM Tests", SRAMTests},
	{"", MainMenu},
	{"BIOS Test Menu", SystemMenu},
	{"Reboot Naomi", RebootSystem},
}

// ErrBadEntries reports a main menu the cursor cannot walk.
var ErrBadEntries = errors.New("invalid menu entries")

// ValidateEntries checks that the first and last entries are real and
// that no two spacers are adjacent, so skipping a spacer always lands on
// an entry.
func ValidateEntries(entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("no entries: %w", ErrBadEntries)
	}
	if entries[0].Label == "" {
		return fmt.Errorf("first entry is a spacer: %w", ErrBadEntries)
	}
	if entries[len(entries)-1].Label == "" {
		return fmt.Errorf("last entry is a spacer: %w", ErrBadEntries)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Label == "" && entries[i-1].Label == "" {
			return fmt.Errorf("adjacent spacers at %d: %w", i-1, ErrBadEntries)
		}
	}
	return nil
}

// Font selects one of the board's typefaces.
type Font int

const (
	FontLarge Font = iota
	FontSmall
	FontMono
)

// Sprite selects one of the board's fixed images.
type Sprite int

const (
	SpriteUp Sprite = iota
	SpriteDown
	SpriteCursor
	SpritePSWOff
	SpritePSWOn
	SpriteButtonMask
)

// Speaker is a bitmask of output channels.
type Speaker uint8

const (
	SpeakerLeft Speaker = 1 << iota
	SpeakerRight

	SpeakerBoth = SpeakerLeft | SpeakerRight
)

// Common colours.
var (
	White     = color.RGBA{255, 255, 255, 255}
	Black     = color.RGBA{0, 0, 0, 255}
	Highlight = color.RGBA{255, 255, 20, 255}
	Pass      = color.RGBA{0, 255, 0, 255}
	Fail      = color.RGBA{255, 0, 0, 255}
	Dim       = color.RGBA{128, 128, 128, 255}
)

// Renderer draws into the frame being built. Coordinates are pixels from
// the top left; boxes are half-open. Text is positioned by its top edge.
type Renderer interface {
	Width() int
	Height() int
	FillBox(x0, y0, x1, y1 int, c color.RGBA)
	DrawText(x, y int, f Font, c color.RGBA, s string)
	TextWidth(f Font, s string) int
	DrawSprite(x, y int, s Sprite)
}

// Sound drives the board audio.
type Sound interface {
	// Scroll plays the menu navigation blip on both speakers.
	Scroll()
	// StartTone plays a continuous tone on the given speakers until
	// StopTone.
	StartTone(hz int, speakers Speaker)
	StopTone()
}

// Board is the hardware the action screens and the test screens reach.
type Board interface {
	EEPROM() hwtest.EEPROM
	SRAM() (hwtest.Region, hwtest.MemoryConfig)
	EnterSystemMenu()
	Reboot()
}

// Frame carries everything a screen may use while drawing one frame.
type Frame struct {
	Controls *controls.Sampler
	Render   Renderer
	Sound    Sound
	Board    Board

	// Animation is a free running seconds counter.
	Animation float64
	FPS       float64
}

// Screen is one display of the diagnostic menu.
type Screen interface {
	// Update handles input and draws one frame. reinit is true on the
	// first frame after the screen was entered. It returns the screen to
	// show next, which is its own id to stay.
	Update(f *Frame, reinit bool) ScreenID
}

// Exiter is implemented by screens that need to release something when
// the navigator leaves them.
type Exiter interface {
	Exit()
}

// Closer is implemented by screens that hold background work which must
// be stopped at board shutdown.
type Closer interface {
	Close()
}

// drawCentered draws s horizontally centred at row y.
func drawCentered(r Renderer, y int, f Font, c color.RGBA, s string) {
	r.DrawText((r.Width()-r.TextWidth(f, s))/2, y, f, c, s)
}

// drawLines draws a block of centred lines starting at row y.
func drawLines(r Renderer, y, spacing int, f Font, c color.RGBA, lines []string) {
	for i, l := range lines {
		if l == "" {
			continue
		}
		drawCentered(r, y+i*spacing, f, c, l)
	}
}

// scrollOffset is the bounce of the scroll arrows for an animation time.
func scrollOffset(anim float64) int {
	bounce := [4]int{1, 2, 1, 0}
	return bounce[int(anim*4)&3]
}
