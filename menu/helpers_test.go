package menu

import (
	"image/color"
	"strings"
	"sync"
	"time"

	"github.com/user-none/emdiag/controls"
	"github.com/user-none/emdiag/hwtest"
)

const frame = time.Second / 60

// lineBus reports edges between successive polls of a settable line.
type lineBus struct {
	mu   sync.Mutex
	line controls.Buttons
	prev controls.Buttons
}

func neutralButtons() controls.Buttons {
	var b controls.Buttons
	for p := range b.Player {
		for a := range b.Player[p].Analog {
			b.Player[p].Analog[a] = controls.AnalogCenter
		}
	}
	return b
}

func newLineBus() *lineBus {
	return &lineBus{line: neutralButtons(), prev: neutralButtons()}
}

func (b *lineBus) set(fn func(l *controls.Buttons)) {
	b.mu.Lock()
	fn(&b.line)
	b.mu.Unlock()
}

func (b *lineBus) Poll() (pressed, held controls.Buttons) {
	b.mu.Lock()
	defer b.mu.Unlock()

	held = b.line
	pressed = held
	for p := range pressed.Player {
		cur, old := &pressed.Player[p], b.prev.Player[p]
		cur.Up = cur.Up && !old.Up
		cur.Down = cur.Down && !old.Down
		cur.Left = cur.Left && !old.Left
		cur.Right = cur.Right && !old.Right
		cur.Start = cur.Start && !old.Start
		cur.Service = cur.Service && !old.Service
		for i := range cur.Buttons {
			cur.Buttons[i] = cur.Buttons[i] && !old.Buttons[i]
		}
	}
	pressed.Test = held.Test && !b.prev.Test
	pressed.PSW1 = held.PSW1 && !b.prev.PSW1
	pressed.PSW2 = held.PSW2 && !b.prev.PSW2
	b.prev = held
	return pressed, held
}

type frameClock struct {
	mu  sync.Mutex
	now time.Duration
}

func (c *frameClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *frameClock) tick() {
	c.mu.Lock()
	c.now += frame
	c.mu.Unlock()
}

// recorder is a Renderer that keeps the text of the current frame.
type recorder struct {
	texts   []string
	sprites []Sprite
	boxes   int
}

func (r *recorder) reset() {
	r.texts = r.texts[:0]
	r.sprites = r.sprites[:0]
	r.boxes = 0
}

func (r *recorder) Width() int  { return 640 }
func (r *recorder) Height() int { return 480 }

func (r *recorder) FillBox(x0, y0, x1, y1 int, c color.RGBA) { r.boxes++ }

func (r *recorder) DrawText(x, y int, f Font, c color.RGBA, s string) {
	r.texts = append(r.texts, s)
}

func (r *recorder) TextWidth(f Font, s string) int { return 8 * len(s) }

func (r *recorder) DrawSprite(x, y int, s Sprite) {
	r.sprites = append(r.sprites, s)
}

func (r *recorder) contains(sub string) bool {
	for _, t := range r.texts {
		if strings.Contains(t, sub) {
			return true
		}
	}
	return false
}

type fakeSound struct {
	scrolls  int
	toneHz   int
	speakers Speaker
	playing  bool
}

func (s *fakeSound) Scroll() { s.scrolls++ }

func (s *fakeSound) StartTone(hz int, speakers Speaker) {
	s.toneHz, s.speakers, s.playing = hz, speakers, true
}

func (s *fakeSound) StopTone() { s.playing = false }

type memEEPROM struct {
	mu    sync.Mutex
	data  [hwtest.EEPROMSize]byte
	gate  chan struct{} // when set, every transaction waits for a value
	reads int
}

func (e *memEEPROM) wait() {
	if e.gate != nil {
		<-e.gate
	}
}

func (e *memEEPROM) Read() ([hwtest.EEPROMSize]byte, error) {
	e.wait()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reads++
	return e.data, nil
}

func (e *memEEPROM) Write(data [hwtest.EEPROMSize]byte) error {
	e.wait()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.data = data
	return nil
}

type memRegion struct {
	base uint32
	mem  []byte
}

func (m *memRegion) ReadByte(addr uint32) byte     { return m.mem[addr-m.base] }
func (m *memRegion) WriteByte(addr uint32, v byte) { m.mem[addr-m.base] = v }

type fakeBoard struct {
	eeprom     *memEEPROM
	sram       *memRegion
	systemMenu int
	reboots    int
}

func (b *fakeBoard) EEPROM() hwtest.EEPROM { return b.eeprom }

func (b *fakeBoard) SRAM() (hwtest.Region, hwtest.MemoryConfig) {
	return b.sram, hwtest.MemoryConfig{Base: b.sram.base, Size: uint32(len(b.sram.mem))}
}

func (b *fakeBoard) EnterSystemMenu() { b.systemMenu++ }
func (b *fakeBoard) Reboot()          { b.reboots++ }

// rig wires a navigator to fakes and steps it one frame at a time.
type rig struct {
	nav   *Navigator
	bus   *lineBus
	clock *frameClock
	rec   *recorder
	snd   *fakeSound
	board *fakeBoard
	frame Frame
}

func newRig(screens map[ScreenID]Screen) *rig {
	r := &rig{
		bus:   newLineBus(),
		clock: &frameClock{},
		rec:   &recorder{},
		snd:   &fakeSound{},
		board: &fakeBoard{
			eeprom: &memEEPROM{},
			sram:   &memRegion{base: 0x00200000, mem: make([]byte, 0x100)},
		},
	}
	nav, err := NewNavigator(Entries, screens)
	if err != nil {
		panic(err)
	}
	r.nav = nav
	r.frame = Frame{
		Controls: controls.NewSampler(r.bus, r.clock),
		Render:   r.rec,
		Sound:    r.snd,
		Board:    r.board,
	}
	return r
}

func (r *rig) step() ScreenID {
	r.clock.tick()
	r.rec.reset()
	r.nav.Draw(&r.frame)
	r.frame.Animation += frame.Seconds()
	return r.nav.Current()
}

// press holds fn's buttons for one frame and releases them on the next.
func (r *rig) press(fn func(l *controls.Buttons)) ScreenID {
	r.bus.set(fn)
	id := r.step()
	r.bus.set(func(l *controls.Buttons) { *l = neutralButtons() })
	r.step()
	return id
}

func start(l *controls.Buttons)   { l.Player[0].Start = true }
func test(l *controls.Buttons)    { l.Test = true }
func service(l *controls.Buttons) { l.Player[0].Service = true }
func up(l *controls.Buttons)      { l.Player[0].Up = true }
func down(l *controls.Buttons)    { l.Player[0].Down = true }
func left(l *controls.Buttons)    { l.Player[0].Left = true }
func right(l *controls.Buttons)   { l.Player[0].Right = true }
