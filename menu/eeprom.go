package menu

import (
	"github.com/user-none/emdiag/hwtest"
	"github.com/user-none/emdiag/worker"
)

var eepromSteps = []hwtest.EEPROMPhase{
	hwtest.PhaseInitialRead,
	hwtest.PhaseInitialWriteback,
	hwtest.PhaseSecondRead,
	hwtest.PhaseSecondWriteback,
}

// EEPROMTest runs the EEPROM round trip on a worker and shows its
// progress.
//
// The EEPROM shares the bus with the controls, so while the worker runs
// it is the only thing polling them. The screen only watches the
// published exit request until the worker is done.
type EEPROMTest struct {
	Options hwtest.EEPROMOptions

	session *worker.Session[hwtest.EEPROMState]
	leaving bool
}

// NewEEPROMTest returns an EEPROM screen that verifies the restore.
func NewEEPROMTest() *EEPROMTest {
	return &EEPROMTest{Options: hwtest.EEPROMOptions{Verify: true}}
}

func (e *EEPROMTest) Update(f *Frame, reinit bool) ScreenID {
	if reinit {
		e.session.End()
		f.Controls.Sample(true, false)

		sampler := f.Controls
		exit := func() bool {
			c := sampler.Sample(false, false)
			return c.Start || c.Test
		}
		e.session = hwtest.StartEEPROM(f.Board.EEPROM(), exit, e.Options)
		e.leaving = false
	}

	// Without a session (the board closed it) there is nothing to watch.
	if e.session == nil {
		e.leaving = true
	}

	st := hwtest.NewEEPROMState()
	if e.session != nil {
		st = e.session.Snapshot()
	}
	if st.ExitRequested {
		e.leaving = true
	}
	if !e.leaving && e.session.Done() {
		c := f.Controls.Sample(false, false)
		e.leaving = c.Start || c.Test
	}

	next := EEPROMTests
	if e.leaving {
		next = e.leave()
	}

	e.draw(f.Render, st)
	return next
}

// leave cancels the run and reports MainMenu once the worker has exited.
// Until then the screen keeps drawing the last published state.
func (e *EEPROMTest) leave() ScreenID {
	if e.session != nil {
		e.session.Cancel()
		if !e.session.Done() {
			return EEPROMTests
		}
		e.session.End()
		e.session = nil
	}
	return MainMenu
}

// Close ends a run left in progress.
func (e *EEPROMTest) Close() {
	e.session.End()
	e.session = nil
}

func (e *EEPROMTest) draw(r Renderer, st hwtest.EEPROMState) {
	drawCentered(r, 22, FontLarge, White, "EEPROM Tests")

	step := st.Phase.Step()
	y := 80
	for _, p := range eepromSteps {
		label, col := "", Dim
		switch {
		case st.Phase.Failed() && p == step:
			label, col = "FAIL", Fail
		case st.Phase == hwtest.PhaseFinished || p < step:
			label, col = "PASS", Pass
		case p == step && st.Cancelled:
			label = "Cancelled"
		case p == step:
			label, col = "Running...", Highlight
		}
		r.DrawText(120, y, FontLarge, White, p.String())
		r.DrawText(400, y, FontLarge, col, label)
		y += menuRowHeight
	}

	if st.Err != "" {
		drawCentered(r, y+20, FontSmall, Fail, st.Err)
	}

	msg := "Testing, press start or test to abort."
	switch {
	case e.leaving:
		msg = "Stopping test..."
	case st.Phase == hwtest.PhaseFinished:
		msg = "EEPROM test passed. Press start or test to exit."
	case st.Phase.Failed():
		msg = "EEPROM test failed. Press start or test to exit."
	}
	drawCentered(r, r.Height()-30, FontSmall, White, msg)
}
