package menu

// Audio test pages. Page 0 is the instructions.
const (
	audioPages  = 4
	audioToneHz = 1000
)

var audioInstructions = []string{
	"Use joystick left/right to move between pages.",
	"Press start button to exit back to main menu.",
	"",
	"Alternatively, use service to move between pages and test to exit.",
	"",
	"Page 1 plays a 1kHz tone on the left speaker only.",
	"Page 2 plays a 1kHz tone on the right speaker only.",
	"Page 3 plays a 1kHz tone on both speakers.",
}

var audioPageSpeakers = [audioPages]Speaker{0, SpeakerLeft, SpeakerRight, SpeakerBoth}

var audioPageTitles = [audioPages]string{
	"",
	"Left speaker",
	"Right speaker",
	"Both speakers",
}

// AudioTest plays a reference tone on each speaker in turn.
type AudioTest struct {
	page  int
	sound Sound
}

// Page returns the page currently displayed.
func (a *AudioTest) Page() int {
	return a.page
}

func (a *AudioTest) Update(f *Frame, reinit bool) ScreenID {
	a.sound = f.Sound
	if reinit {
		a.page = 0
		f.Sound.StopTone()
	}

	next := AudioTests
	c := f.Controls.Sample(reinit, false)

	page := a.page
	switch {
	case c.Test || c.Start:
		f.Sound.StopTone()
		next = MainMenu
	case c.Service || c.Right:
		page = nextPage(a.page, audioPages)
	case c.Left:
		page = prevPage(a.page, audioPages)
	}
	if page != a.page {
		a.page = page
		f.Sound.StartTone(audioToneHz, audioPageSpeakers[page])
	}

	r := f.Render
	if a.page == 0 {
		drawLines(r, 22, 14, FontSmall, White, audioInstructions)
	} else {
		drawCentered(r, r.Height()/2-30, FontLarge, White, audioPageTitles[a.page])
		drawCentered(r, r.Height()/2, FontSmall, Dim, "1kHz tone")
		a.drawSpeakers(r, audioPageSpeakers[a.page])
	}

	return next
}

func (a *AudioTest) drawSpeakers(r Renderer, on Speaker) {
	y := r.Height()/2 + 40
	for i, s := range []Speaker{SpeakerLeft, SpeakerRight} {
		x := r.Width()/4 + i*r.Width()/2 - 20
		col := Dim
		if on&s != 0 {
			col = Pass
		}
		r.FillBox(x, y, x+40, y+40, col)
	}
}

// Exit silences the tone if the screen is left without the exit buttons.
func (a *AudioTest) Exit() {
	if a.sound != nil {
		a.sound.StopTone()
	}
}
