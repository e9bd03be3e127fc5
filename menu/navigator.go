package menu

import "log"

// Navigator runs the current screen once per frame and tracks screen
// changes so each screen sees reinit on its first frame.
type Navigator struct {
	screens map[ScreenID]Screen
	cur     ScreenID
	prev    ScreenID

	// Ids that were requested but are not registered, reported once.
	unknown map[ScreenID]bool
}

// NewNavigator validates the main menu entries and builds a navigator
// starting on the main menu. screens supplies every other screen; a
// missing id makes its menu entry a no-op.
func NewNavigator(entries []Entry, screens map[ScreenID]Screen) (*Navigator, error) {
	mm, err := NewMainMenu(entries)
	if err != nil {
		return nil, err
	}

	reg := make(map[ScreenID]Screen, len(screens)+1)
	for id, s := range screens {
		reg[id] = s
	}
	reg[MainMenu] = mm

	return &Navigator{
		screens: reg,
		cur:     MainMenu,
		prev:    ScreenNone,
		unknown: make(map[ScreenID]bool),
	}, nil
}

// DefaultScreens returns one of every screen the main menu lists.
func DefaultScreens() map[ScreenID]Screen {
	return map[ScreenID]Screen{
		MonitorTests: &Monitor{},
		AudioTests:   &AudioTest{},
		InputTests:   &InputTest{},
		DIPTests:     &DIPTest{},
		EEPROMTests:  NewEEPROMTest(),
		SRAMTests:    &SRAMTest{},
		SystemMenu:   &SystemMenuAction{},
		RebootSystem: &RebootAction{},
	}
}

// Current returns the screen that the next Draw will run.
func (n *Navigator) Current() ScreenID {
	return n.cur
}

// Draw renders one frame of the current screen and applies the
// transition it asks for.
func (n *Navigator) Draw(f *Frame) {
	s := n.screens[n.cur]
	next := s.Update(f, n.cur != n.prev)
	n.prev = n.cur

	if next == n.cur {
		return
	}
	if _, ok := n.screens[next]; !ok {
		if !n.unknown[next] {
			n.unknown[next] = true
			log.Printf("menu: screen %d is not registered, staying on %d", next, n.cur)
		}
		return
	}

	if ex, ok := s.(Exiter); ok {
		ex.Exit()
	}
	n.cur = next
}

// Close stops any background work held by the registered screens.
func (n *Navigator) Close() {
	for _, s := range n.screens {
		if c, ok := s.(Closer); ok {
			c.Close()
		}
	}
}
