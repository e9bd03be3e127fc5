package menu

import (
	"github.com/user-none/emdiag/hwtest"
	"github.com/user-none/emdiag/worker"
)

// SRAMTest runs the memory pattern scans over the battery-backed SRAM.
type SRAMTest struct {
	session *worker.Session[hwtest.MemoryState]
	err     error
	leaving bool
}

func (s *SRAMTest) Update(f *Frame, reinit bool) ScreenID {
	if reinit {
		s.session.End()
		region, cfg := f.Board.SRAM()
		s.session, s.err = hwtest.StartMemory(region, cfg)
		s.leaving = false
	}

	c := f.Controls.Sample(reinit, false)
	if c.Start || c.Test {
		s.leaving = true
	}

	st := hwtest.NewMemoryState()
	if s.session != nil {
		st = s.session.Snapshot()
	}

	next := SRAMTests
	if s.leaving {
		next = s.leave()
	}

	s.draw(f.Render, st)
	return next
}

func (s *SRAMTest) leave() ScreenID {
	if s.session != nil {
		s.session.Cancel()
		if !s.session.Done() {
			return SRAMTests
		}
		s.session.End()
		s.session = nil
	}
	return MainMenu
}

// Close ends a scan left in progress.
func (s *SRAMTest) Close() {
	s.session.End()
	s.session = nil
}

func (s *SRAMTest) draw(r Renderer, st hwtest.MemoryState) {
	drawCentered(r, 22, FontLarge, White, "SRAM Tests")

	if s.err != nil {
		drawCentered(r, 80, FontSmall, Fail, s.err.Error())
		drawCentered(r, r.Height()-30, FontSmall, White, "Press start or test to exit.")
		return
	}

	rows := []struct {
		phase hwtest.MemoryPhase
		res   hwtest.Result
	}{
		{hwtest.PhaseWalkingOnes, st.WalkingOnes},
		{hwtest.PhaseWalkingZeros, st.WalkingZeros},
		{hwtest.PhaseAddressLines, st.AddressLines},
		{hwtest.PhaseDevice, st.Device},
	}

	y := 80
	for _, row := range rows {
		label, col := row.res.String(), Dim
		switch {
		case row.res == hwtest.Pass:
			col = Pass
		case row.res.Failed():
			col = Fail
		case st.Phase == row.phase:
			label, col = "Running...", Highlight
		}
		r.DrawText(120, y, FontLarge, White, row.phase.String())
		r.DrawText(360, y, FontLarge, col, label)
		y += menuRowHeight
	}

	msg := "Testing, press start or test to abort."
	switch {
	case s.leaving:
		msg = "Stopping test..."
	case st.Phase == hwtest.PhaseComplete:
		msg = "SRAM test complete. Press start or test to exit."
	case st.Phase == hwtest.PhaseRestore:
		msg = "Restoring SRAM contents..."
	}
	drawCentered(r, r.Height()-30, FontSmall, White, msg)
}
