package menu

// SystemMenuAction hands the board over to the BIOS test menu. It never
// returns to the main menu by itself; the board takes over from here.
type SystemMenuAction struct{}

func (SystemMenuAction) Update(f *Frame, reinit bool) ScreenID {
	if reinit {
		f.Board.EnterSystemMenu()
	}
	drawCentered(f.Render, f.Render.Height()/2, FontLarge, White, "Entering BIOS test menu...")
	return SystemMenu
}

// RebootAction restarts the board.
type RebootAction struct{}

func (RebootAction) Update(f *Frame, reinit bool) ScreenID {
	if reinit {
		f.Board.Reboot()
	}
	drawCentered(f.Render, f.Render.Height()/2, FontLarge, White, "Rebooting...")
	return RebootSystem
}
