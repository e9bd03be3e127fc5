package menu

import "fmt"

const dipSwitches = 4

// DIPTest shows the front-panel push switches and the DIP bank. The
// switches are read individually here, so start leaves the screen.
type DIPTest struct{}

func (DIPTest) Update(f *Frame, reinit bool) ScreenID {
	c := f.Controls.Sample(reinit, true)
	if c.Start {
		return MainMenu
	}

	r := f.Render
	drawCentered(r, 22, FontLarge, White, "DIP Switch Tests")

	y := 90
	for i, on := range []bool{c.PSW1, c.PSW2} {
		x := r.Width()/2 - 110 + i*140
		sprite := SpritePSWOff
		if on {
			sprite = SpritePSWOn
		}
		r.DrawSprite(x, y, sprite)
		r.DrawText(x, y+40, FontSmall, White, fmt.Sprintf("PSW%d", i+1))
	}

	y = 200
	for i := 0; i < dipSwitches; i++ {
		x := r.Width()/2 - 140 + i*70
		on := c.DIP&(1<<i) != 0
		drawDIP(r, x, y, on)
		r.DrawText(x, y+70, FontSmall, White, fmt.Sprintf("DIP%d", i+1))
	}

	drawCentered(r, r.Height()-30, FontSmall, White, "Press start to exit.")
	return DIPTests
}

// drawDIP draws one rocker with the lever up when on.
func drawDIP(r Renderer, x, y int, on bool) {
	r.FillBox(x, y, x+30, y+60, White)
	lever, col := y+30, Dim
	if on {
		lever, col = y, Pass
	}
	r.FillBox(x+4, lever+4, x+26, lever+26, col)
}
