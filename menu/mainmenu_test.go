package menu

import "testing"

func TestMainMenu_NextEntrySkipsSpacerAndWraps(t *testing.T) {
	tests := []struct {
		from, want int
	}{
		{0, 1},
		{5, 7}, // entry 6 is a spacer
		{7, 8},
		{8, 0},
	}
	for _, tt := range tests {
		if got := nextEntry(Entries, tt.from); got != tt.want {
			t.Errorf("next from %d: got %d, want %d", tt.from, got, tt.want)
		}
	}
}

func TestMainMenu_PrevEntrySkipsSpacerAndStops(t *testing.T) {
	tests := []struct {
		from, want int
	}{
		{1, 0},
		{7, 5},
		{0, 0},
	}
	for _, tt := range tests {
		if got := prevEntry(Entries, tt.from); got != tt.want {
			t.Errorf("prev from %d: got %d, want %d", tt.from, got, tt.want)
		}
	}
}

func TestMainMenu_CursorNeverRestsOnSpacer(t *testing.T) {
	for start := range Entries {
		if Entries[start].Label == "" {
			continue
		}
		c := start
		for i := 0; i < 2*len(Entries); i++ {
			c = nextEntry(Entries, c)
			if Entries[c].Label == "" {
				t.Fatalf("next landed on spacer %d", c)
			}
		}
		for i := 0; i < 2*len(Entries); i++ {
			c = prevEntry(Entries, c)
			if Entries[c].Label == "" {
				t.Fatalf("prev landed on spacer %d", c)
			}
		}
	}
}

func TestMainMenu_ScrollWindow(t *testing.T) {
	tests := []struct {
		top, cursor, visible, want int
	}{
		{0, 0, 3, 0},
		{0, 2, 3, 0},
		{0, 3, 3, 1},
		{0, 8, 3, 6},
		{6, 0, 3, 0},
		{4, 5, 3, 4},
	}
	for _, tt := range tests {
		if got := scrollWindow(tt.top, tt.cursor, tt.visible); got != tt.want {
			t.Errorf("scrollWindow(%d, %d, %d): got %d, want %d",
				tt.top, tt.cursor, tt.visible, got, tt.want)
		}
	}
}

func TestMainMenu_VisibleEntries(t *testing.T) {
	if got := visibleEntries(480); got != 20 {
		t.Errorf("480 lines: got %d, want 20", got)
	}
	if got := visibleEntries(10); got != 1 {
		t.Errorf("tiny screen: got %d, want 1", got)
	}
}

func TestMainMenu_NavigateAndEnter(t *testing.T) {
	a := &stubScreen{id: AudioTests}
	r := newRig(map[ScreenID]Screen{AudioTests: a})
	mm := r.nav.screens[MainMenu].(*MainMenuScreen)

	r.press(down)
	if mm.cursor != 1 {
		t.Fatalf("cursor after down: got %d", mm.cursor)
	}
	if r.snd.scrolls != 1 {
		t.Errorf("scroll sound: got %d plays", r.snd.scrolls)
	}
	if !r.rec.contains("Monitor Tests") {
		t.Error("menu labels should be drawn")
	}

	if got := r.press(start); got != AudioTests {
		t.Fatalf("start on entry 1: got %d", got)
	}

	a.route = []ScreenID{MainMenu}
	r.step()
	r.step()
	if mm.cursor != 1 || mm.Selected() != 1 {
		t.Errorf("selection not remembered: cursor %d selected %d", mm.cursor, mm.Selected())
	}
}

func TestMainMenu_ServiceCyclesAndTestEnters(t *testing.T) {
	r := newRig(map[ScreenID]Screen{RebootSystem: &stubScreen{id: RebootSystem}})
	mm := r.nav.screens[MainMenu].(*MainMenuScreen)

	for i := 0; i < 7; i++ {
		r.press(service)
	}
	if mm.cursor != 8 {
		t.Fatalf("after 7 service presses: cursor %d, want 8", mm.cursor)
	}
	r.press(service)
	if mm.cursor != 0 {
		t.Errorf("service should wrap to the top, got %d", mm.cursor)
	}

	scrolls := r.snd.scrolls
	r.press(up)
	if mm.cursor != 0 || r.snd.scrolls != scrolls {
		t.Errorf("up at the top should do nothing: cursor %d, %d new scrolls", mm.cursor, r.snd.scrolls-scrolls)
	}
	for i := 0; i < 7; i++ {
		r.press(down)
	}
	if got := r.press(test); got != RebootSystem {
		t.Errorf("test should enter the entry: got %d", got)
	}
}

func TestMainMenu_HeldDownRepeats(t *testing.T) {
	r := newRig(nil)

	r.bus.set(down)
	for i := 0; i < 60; i++ {
		r.step()
	}
	// One press plus about ten repeats in the last half second.
	if r.snd.scrolls < 9 || r.snd.scrolls > 12 {
		t.Errorf("held down for a second moved %d times", r.snd.scrolls)
	}
}

func TestMainMenu_ScrollArrows(t *testing.T) {
	entries := make([]Entry, 30)
	for i := range entries {
		entries[i] = Entry{Label: "Entry", ID: MonitorTests}
	}
	mm, err := NewMainMenu(entries)
	if err != nil {
		t.Fatal(err)
	}
	r := newRig(nil)
	r.nav.screens[MainMenu] = mm

	r.step()
	if !hasSprite(r.rec.sprites, SpriteDown) || hasSprite(r.rec.sprites, SpriteUp) {
		t.Errorf("top of a long list: sprites %v", r.rec.sprites)
	}

	for i := 0; i < 29; i++ {
		r.press(down)
	}
	r.step()
	if !hasSprite(r.rec.sprites, SpriteUp) || hasSprite(r.rec.sprites, SpriteDown) {
		t.Errorf("bottom of a long list: sprites %v", r.rec.sprites)
	}
	if mm.top != 30-mm.maxEntries {
		t.Errorf("window top: got %d, want %d", mm.top, 30-mm.maxEntries)
	}
}

func hasSprite(list []Sprite, s Sprite) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
