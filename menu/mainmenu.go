package menu

// Main menu layout.
const (
	menuPadding    = 24
	menuRowHeight  = 21
	menuCursorX    = 24
	menuTextX      = 48
	menuTextOffset = -2 // text sits slightly above the cursor sprite
)

// MainMenuScreen lists the diagnostic screens.
type MainMenuScreen struct {
	entries []Entry

	// selected survives visits to other screens.
	selected int

	cursor     int
	top        int
	maxEntries int
}

// NewMainMenu returns a main menu over entries after validating them.
func NewMainMenu(entries []Entry) (*MainMenuScreen, error) {
	if err := ValidateEntries(entries); err != nil {
		return nil, err
	}
	return &MainMenuScreen{entries: entries}, nil
}

// Selected returns the remembered cursor position.
func (m *MainMenuScreen) Selected() int {
	return m.selected
}

func (m *MainMenuScreen) Update(f *Frame, reinit bool) ScreenID {
	r := f.Render
	if reinit {
		m.maxEntries = visibleEntries(r.Height())
		m.cursor = m.selected
		m.top = scrollWindow(0, m.cursor, m.maxEntries)
	}

	next := MainMenu
	c := f.Controls.Sample(reinit, false)

	switch {
	case c.Test || c.Start:
		m.selected = m.cursor
		next = m.entries[m.cursor].ID
	case c.Service || c.Down:
		m.cursor = nextEntry(m.entries, m.cursor)
		f.Sound.Scroll()
	case c.Up:
		if m.cursor > 0 {
			m.cursor = prevEntry(m.entries, m.cursor)
			f.Sound.Scroll()
		}
	}
	m.top = scrollWindow(m.top, m.cursor, m.maxEntries)

	m.draw(f)
	return next
}

func (m *MainMenuScreen) draw(f *Frame) {
	r := f.Render
	bounce := scrollOffset(f.Animation)

	if m.top > 0 {
		r.DrawSprite(r.Width()/2-10, 10-bounce, SpriteUp)
	}

	for row := 0; row < m.maxEntries; row++ {
		i := m.top + row
		if i >= len(m.entries) {
			break
		}
		y := menuPadding + row*menuRowHeight

		col := White
		if i == m.cursor {
			r.DrawSprite(menuCursorX, y, SpriteCursor)
			col = Highlight
		}
		r.DrawText(menuTextX, y+menuTextOffset, FontLarge, col, m.entries[i].Label)
	}

	if m.top+m.maxEntries < len(m.entries) {
		r.DrawSprite(r.Width()/2-10, menuPadding+m.maxEntries*menuRowHeight+bounce, SpriteDown)
	}
}

// visibleEntries is how many rows fit between the scroll arrows.
func visibleEntries(height int) int {
	n := (height - (menuPadding + 16)) / menuRowHeight
	if n < 1 {
		n = 1
	}
	return n
}

// nextEntry moves the cursor down one real entry, wrapping to the top.
func nextEntry(entries []Entry, cursor int) int {
	for {
		cursor = (cursor + 1) % len(entries)
		if entries[cursor].Label != "" {
			return cursor
		}
	}
}

// prevEntry moves the cursor up one real entry. The top entry stays
// put.
func prevEntry(entries []Entry, cursor int) int {
	for cursor > 0 {
		cursor--
		if entries[cursor].Label != "" {
			return cursor
		}
	}
	return 0
}

// scrollWindow returns the first visible row so that cursor stays on
// screen, moving top as little as possible.
func scrollWindow(top, cursor, visible int) int {
	if cursor < top {
		return cursor
	}
	if cursor >= top+visible {
		return cursor - (visible - 1)
	}
	return top
}
