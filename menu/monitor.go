package menu

import (
	"image/color"
	"strconv"
)

// Monitor test pages. Page 0 is the instructions and is only shown on
// entry; paging wraps over the pattern pages.
const (
	monitorPages = 7

	gradientSteps    = 24
	gradientSafeArea = 32

	crossHorizontalSteps = 16
	crossVerticalSteps   = 12
	crossWeight          = 3
)

var monitorInstructions = []string{
	"Use joystick left/right to move between pages.",
	"Press start button to exit back to main menu.",
	"",
	"Alternatively, use service to move between pages and test to exit.",
	"",
	"Page 1 is a pure white screen for white balance adjustments.",
	"Page 2-4 are pure red/green/blue for purity adjustments.",
	"Page 5 is a gradient for individual gain/bias adjustments.",
	"Page 6 is a cross hatch for focus and convergence adjustments.",
}

var purityColors = [4]color.RGBA{
	{255, 255, 255, 255},
	{255, 0, 0, 255},
	{0, 255, 0, 255},
	{0, 0, 255, 255},
}

var gradientColors = []color.RGBA{
	{255, 0, 0, 255},
	{255, 255, 0, 255},
	{0, 255, 0, 255},
	{0, 255, 255, 255},
	{0, 0, 255, 255},
	{255, 0, 255, 255},
	{255, 255, 255, 255},
}

// Monitor shows calibration patterns for CRT adjustment.
type Monitor struct {
	page int
}

// Page returns the page currently displayed.
func (m *Monitor) Page() int {
	return m.page
}

func (m *Monitor) Update(f *Frame, reinit bool) ScreenID {
	if reinit {
		m.page = 0
	}

	next := MonitorTests
	c := f.Controls.Sample(reinit, false)

	switch {
	case c.Test || c.Start:
		next = MainMenu
	case c.Service || c.Right:
		m.page = nextPage(m.page, monitorPages)
		f.Sound.Scroll()
	case c.Left:
		m.page = prevPage(m.page, monitorPages)
		f.Sound.Scroll()
	}

	r := f.Render
	switch m.page {
	case 0:
		drawLines(r, 22, 14, FontSmall, White, monitorInstructions)
	case 1, 2, 3, 4:
		r.FillBox(0, 0, r.Width(), r.Height(), purityColors[m.page-1])
	case 5:
		drawGradient(r)
	case 6:
		drawCrossHatch(r)
	}

	return next
}

// nextPage steps forward over pages 1..n-1, wrapping past the last.
func nextPage(page, n int) int {
	if page < n-1 {
		return page + 1
	}
	return 1
}

// prevPage steps back over pages 1..n-1, wrapping past the first.
func prevPage(page, n int) int {
	if page > 1 {
		return page - 1
	}
	return n - 1
}

func drawGradient(r Renderer) {
	w, h := r.Width(), r.Height()
	step := (w - gradientSafeArea*2) / gradientSteps
	rowHeight := (h - gradientSafeArea*2 - 24) / len(gradientColors)

	for bar := 0; bar < gradientSteps; bar++ {
		left := gradientSafeArea + bar*step
		right := left + step

		label := strconv.Itoa(bar + 1)
		r.DrawText((left+right-r.TextWidth(FontSmall, label))/2, gradientSafeArea, FontSmall, White, label)

		for i, col := range gradientColors {
			top := gradientSafeArea + 24 + i*rowHeight
			r.FillBox(left, top, right, top+rowHeight, scaleColor(col, bar+1, gradientSteps))
		}
	}
}

// scaleColor scales c by num/den, leaving alpha alone.
func scaleColor(c color.RGBA, num, den int) color.RGBA {
	return color.RGBA{
		R: uint8(int(c.R) * num / den),
		G: uint8(int(c.G) * num / den),
		B: uint8(int(c.B) * num / den),
		A: c.A,
	}
}

func drawCrossHatch(r Renderer) {
	w, h := r.Width(), r.Height()

	for _, x := range hatchLines(w, crossHorizontalSteps) {
		r.FillBox(x, 0, x+crossWeight, h, White)
	}
	for _, y := range hatchLines(h, crossVerticalSteps) {
		r.FillBox(0, y, w, y+crossWeight, White)
	}
}

// hatchLines returns the leading edge of steps+1 evenly spaced lines
// across extent. The remainder of the division is spread over the lines
// so the last one lands flush with the far edge.
func hatchLines(extent, steps int) []int {
	jump := (extent - crossWeight) / steps
	rem := extent - (jump*steps + crossWeight)

	lines := make([]int, 0, steps+1)
	accum, bump := 0, 0
	for i := 0; i <= steps; i++ {
		accum += rem
		for accum >= steps {
			bump++
			accum -= steps
		}
		lines = append(lines, i*jump+bump)
	}
	return lines
}
