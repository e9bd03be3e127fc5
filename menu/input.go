package menu

import (
	"fmt"
	"image/color"

	"github.com/user-none/emdiag/controls"
)

const (
	inputColumnWidth = 300
	inputRowHeight   = 16
	analogBarWidth   = 128
)

type inputRow struct {
	name string
	on   bool
}

// InputTest shows the raw state of every player input. Start and service
// are under test here, so only test leaves the screen.
type InputTest struct{}

func (InputTest) Update(f *Frame, reinit bool) ScreenID {
	c := f.Controls.Sample(reinit, false)
	if c.Test {
		return MainMenu
	}

	r := f.Render
	drawCentered(r, 22, FontLarge, White, "Input Tests")

	players := f.Controls.Players()
	for p := 0; p < controls.MaxPlayers; p++ {
		x := 20 + p*(inputColumnWidth+20)
		y := 60
		title := fmt.Sprintf("Player %d", p+1)
		if p >= players {
			title += " (disabled)"
		}
		r.DrawText(x, y, FontSmall, Highlight, title)
		y += inputRowHeight + 4

		pl := c.Player[p]
		digital := []inputRow{
			{"Up", pl.Up}, {"Down", pl.Down}, {"Left", pl.Left}, {"Right", pl.Right},
			{"Start", pl.Start}, {"Service", pl.Service},
		}
		for i, b := range pl.Buttons {
			digital = append(digital, inputRow{fmt.Sprintf("Button %d", i+1), b})
		}
		for _, d := range digital {
			drawInputRow(r, x, y, d.name, d.on)
			y += inputRowHeight
		}

		y += 8
		for axis, v := range c.Analog[p] {
			r.DrawText(x, y, FontMono, White, fmt.Sprintf("Analog %d: %02X", axis+1, v))
			drawAnalogBar(r, x+120, y, v)
			y += inputRowHeight
		}
	}

	y := r.Height() - 60
	drawInputRow(r, 20, y, "Test", c.TestHeld)
	drawCentered(r, r.Height()-30, FontSmall, White, "Press test to exit.")

	return InputTests
}

func drawInputRow(r Renderer, x, y int, name string, on bool) {
	state, col := "released", Dim
	if on {
		state, col = "PRESSED", Pass
	}
	r.DrawText(x, y, FontSmall, White, name)
	r.DrawText(x+100, y, FontSmall, col, state)
}

// drawAnalogBar draws v as a filled bar with a centre tick.
func drawAnalogBar(r Renderer, x, y int, v uint8) {
	h := inputRowHeight - 4
	r.FillBox(x, y, x+analogBarWidth, y+h, color.RGBA{40, 40, 40, 255})
	r.FillBox(x, y, x+int(v)*analogBarWidth/256, y+h, Highlight)
	mid := x + analogBarWidth/2
	r.FillBox(mid, y, mid+1, y+h, White)
}
