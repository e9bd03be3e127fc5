package emu

import (
	"fmt"
	"hash/crc32"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/emdiag/controls"
	"github.com/user-none/emdiag/hwtest"
	"github.com/user-none/emdiag/menu"
)

// Compile-time interface checks.
var _ emucore.Emulator = (*Emulator)(nil)
var _ emucore.SaveStater = (*Emulator)(nil)
var _ emucore.BatterySaver = (*Emulator)(nil)
var _ emucore.MemoryInspector = (*Emulator)(nil)
var _ emucore.MemoryMapper = (*Emulator)(nil)
var _ menu.Board = (*Emulator)(nil)

// Flat address boundaries for ReadMemory.
const (
	eepromStart = 0x00000000
	eepromEnd   = eepromStart + hwtest.EEPROMSize - 1
	sramStart   = SRAMBase
	sramEnd     = SRAMBase + SRAMSize - 1
)

// BatterySize is the length of the battery image: SRAM then EEPROM.
const BatterySize = SRAMSize + hwtest.EEPROMSize

// handoffFrames is how long the BIOS test menu message stays up before
// control comes back to the harness.
const handoffFrames = 120

// Emulator is the simulated system board running the diagnostic menu.
type Emulator struct {
	bus    *MapleBus
	eeprom *EEPROM
	sram   *SRAM
	fb     *Framebuffer
	sound  *Sound
	clock  *frameClock

	sampler *controls.Sampler
	nav     *menu.Navigator
	frame   menu.Frame

	region   Region
	timing   RegionTiming
	imageCRC uint32

	players      string
	debug        bool
	eepromFault  EEPROMFault
	sramFault    SRAMFault
	fps          fpsMeter
	lastDrawTime time.Duration

	frames      uint64
	handoffAt   uint64
	rebootQueue atomic.Bool
}

// NewEmulator builds a board. image may be empty (factory state), an
// EEPROM dump, an SRAM dump, or a battery image.
func NewEmulator(image []byte, region Region) (*Emulator, error) {
	timing := GetTimingForRegion(region)
	bus := NewMapleBus()
	clock := &frameClock{}

	e := &Emulator{
		bus:      bus,
		eeprom:   NewEEPROM(bus),
		sram:     &SRAM{},
		fb:       NewFramebuffer(),
		sound:    NewSound(timing.FPS),
		clock:    clock,
		sampler:  controls.NewSampler(bus, clock),
		region:   region,
		timing:   timing,
		imageCRC: crc32.ChecksumIEEE(image),
		players:  "auto",
	}
	if err := e.loadImage(image); err != nil {
		return nil, err
	}

	nav, err := menu.NewNavigator(menu.Entries, menu.DefaultScreens())
	if err != nil {
		return nil, err
	}
	e.nav = nav
	e.frame = menu.Frame{
		Controls: e.sampler,
		Render:   e.fb,
		Sound:    e.sound,
		Board:    e,
	}
	e.applyPlayers()
	return e, nil
}

func (e *Emulator) loadImage(image []byte) error {
	switch len(image) {
	case 0:
	case hwtest.EEPROMSize:
		e.eeprom.Load([hwtest.EEPROMSize]byte(image))
	case SRAMSize:
		e.sram.Load(image)
	case BatterySize:
		e.SetSRAM(image)
	default:
		return fmt.Errorf("unsupported board image size %d", len(image))
	}
	return nil
}

// RunFrame draws one frame of the diagnostic menu and generates its
// audio.
func (e *Emulator) RunFrame() {
	start := time.Now()
	e.frames++
	e.clock.advance(e.timing.FPS)
	e.frame.FPS = e.fps.tick(start)

	e.fb.Clear()
	e.nav.Draw(&e.frame)
	if e.debug {
		e.drawDebug()
	}
	e.sound.RunFrame()
	e.frame.Animation += 1 / float64(e.timing.FPS)

	if e.handoffAt != 0 && e.frames >= e.handoffAt {
		e.handoffAt = 0
		log.Printf("BIOS test menu returned")
		e.rebootQueue.Store(true)
	}
	if e.rebootQueue.Swap(false) {
		e.restart()
	}
	e.lastDrawTime = time.Since(start)
}

// restart tears down every screen and comes back up on the main menu
// with the settings currently in EEPROM.
func (e *Emulator) restart() {
	e.nav.Close()
	e.sound.StopTone()
	nav, err := menu.NewNavigator(menu.Entries, menu.DefaultScreens())
	if err != nil {
		log.Printf("Warning: reboot failed: %v", err)
		return
	}
	e.nav = nav
	e.sampler.Reset()
	e.frame.Animation = 0
	e.applyPlayers()
}

func (e *Emulator) drawDebug() {
	s := fmt.Sprintf("%.1f FPS  %.2f ms", e.frame.FPS, float64(e.lastDrawTime)/float64(time.Millisecond))
	w := e.fb.TextWidth(menu.FontMono, s)
	e.fb.FillBox(0, 0, w+8, 16, menu.Black)
	e.fb.DrawText(4, 2, menu.FontMono, menu.Highlight, s)
}

// EEPROM implements menu.Board.
func (e *Emulator) EEPROM() hwtest.EEPROM {
	return e.eeprom
}

// SRAM implements menu.Board.
func (e *Emulator) SRAM() (hwtest.Region, hwtest.MemoryConfig) {
	return e.sram, e.sram.Config()
}

// EnterSystemMenu hands the board to the BIOS test menu. There is no
// BIOS here, so the harness comes back after a short pause.
func (e *Emulator) EnterSystemMenu() {
	log.Printf("Entering BIOS test menu")
	e.handoffAt = e.frames + handoffFrames
}

// Reboot restarts the harness at the end of the current frame.
func (e *Emulator) Reboot() {
	log.Printf("Rebooting")
	e.rebootQueue.Store(true)
}

// SetInput sets the button bitmask of a player port.
func (e *Emulator) SetInput(player int, buttons uint32) {
	e.bus.SetLine(player, buttons)
}

// SetAnalog sets one analog axis of a player port.
func (e *Emulator) SetAnalog(player, axis int, value uint8) {
	e.bus.SetAnalog(player, axis, value)
}

// SetEEPROMLatency sets the bus time each EEPROM read and write takes.
func (e *Emulator) SetEEPROMLatency(read, write time.Duration) {
	e.eeprom.SetLatency(read, write)
}

// applyPlayers sets the two player gating from the players option, or
// from the EEPROM settings when it is auto.
func (e *Emulator) applyPlayers() {
	n := 1
	switch e.players {
	case "2":
		n = 2
	case "1":
	default:
		if s, _ := ParseSettings(e.eeprom.Contents()); s.Players >= 2 {
			n = 2
		}
	}
	e.sampler.SetPlayers(n)
}

// GetFramebuffer returns raw RGBA pixel data for current frame.
func (e *Emulator) GetFramebuffer() []byte {
	return e.fb.Pixels()
}

// GetFramebufferStride returns the stride (bytes per row) of the framebuffer.
func (e *Emulator) GetFramebufferStride() int {
	return e.fb.Stride()
}

// GetActiveHeight returns the display height, which never changes.
func (e *Emulator) GetActiveHeight() int {
	return ScreenHeight
}

// GetAudioSamples returns the last frame as 16-bit stereo PCM.
func (e *Emulator) GetAudioSamples() []int16 {
	return e.sound.Samples()
}

// GetRegion returns the emulator's region setting.
func (e *Emulator) GetRegion() Region {
	return e.region
}

// GetTiming returns FPS and scanline count for the current region.
func (e *Emulator) GetTiming() emucore.Timing {
	return emucore.Timing{
		FPS:       e.timing.FPS,
		Scanlines: e.timing.Scanlines,
	}
}

// SetRegion updates the emulator's region configuration.
func (e *Emulator) SetRegion(region Region) {
	e.region = region
	e.timing = GetTimingForRegion(region)
	e.sound.SetFPS(e.timing.FPS)
}

// HasSRAM reports battery backed memory, which the board always has.
func (e *Emulator) HasSRAM() bool {
	return true
}

// GetSRAM returns the battery image: SRAM followed by EEPROM.
func (e *Emulator) GetSRAM() []byte {
	out := make([]byte, 0, BatterySize)
	out = append(out, e.sram.Contents()...)
	ee := e.eeprom.Contents()
	return append(out, ee[:]...)
}

// SetSRAM loads a battery image. A short image only fills SRAM.
func (e *Emulator) SetSRAM(data []byte) {
	e.sram.Load(data)
	if len(data) >= BatterySize {
		e.eeprom.Load([hwtest.EEPROMSize]byte(data[SRAMSize:BatterySize]))
	}
	e.applyPlayers()
}

// Close stops any running hardware test.
func (e *Emulator) Close() {
	e.nav.Close()
}

// SetOption applies a core option change identified by key.
func (e *Emulator) SetOption(key string, value string) {
	switch key {
	case "players":
		e.players = value
		e.applyPlayers()
	case "dip1", "dip2", "dip3", "dip4":
		n, _ := strconv.Atoi(key[3:])
		e.bus.SetDIP(n-1, value == "true")
	case "analog_navigation":
		e.sampler.SetAnalogNavigation(value == "true")
	case "eeprom_fault":
		f, err := ParseEEPROMFault(value)
		if err != nil {
			log.Printf("Warning: %v", err)
			return
		}
		e.eepromFault = f
		e.eeprom.SetFault(f)
	case "sram_fault":
		f, err := ParseSRAMFault(value)
		if err != nil {
			log.Printf("Warning: %v", err)
			return
		}
		e.sramFault = f
		e.sram.SetFault(f)
	case "debug":
		e.debug = value == "true"
	}
}

// ReadMemory reads from a flat address into buf and returns the number
// of bytes read. EEPROM sits at 0 and SRAM at SRAMBase.
func (e *Emulator) ReadMemory(addr uint32, buf []byte) uint32 {
	var count uint32
	ee := e.eeprom.Contents()
	for i := range buf {
		cur := addr + uint32(i)
		var b byte
		switch {
		case cur <= eepromEnd:
			b = ee[cur-eepromStart]
		case cur >= sramStart && cur <= sramEnd:
			b = e.sram.ReadByte(cur)
		default:
			return count
		}
		buf[i] = b
		count++
	}
	return count
}

// MemoryMap returns a list of available memory regions with sizes.
func (e *Emulator) MemoryMap() []emucore.MemoryRegion {
	return []emucore.MemoryRegion{
		{Type: emucore.MemorySystemRAM, Size: SRAMSize},
		{Type: emucore.MemorySaveRAM, Size: BatterySize},
	}
}

// ReadRegion returns a copy of the specified memory region.
func (e *Emulator) ReadRegion(regionType int) []byte {
	switch regionType {
	case emucore.MemorySystemRAM:
		return e.sram.Contents()
	case emucore.MemorySaveRAM:
		return e.GetSRAM()
	default:
		return nil
	}
}

// WriteRegion writes data to the specified memory region.
func (e *Emulator) WriteRegion(regionType int, data []byte) {
	switch regionType {
	case emucore.MemorySystemRAM:
		e.sram.Load(data)
	case emucore.MemorySaveRAM:
		e.SetSRAM(data)
	}
}

// frameClock is the controls time base: the emulated time of the frames
// run so far, independent of host pacing.
type frameClock struct {
	elapsed atomic.Int64
}

func (c *frameClock) Now() time.Duration {
	return time.Duration(c.elapsed.Load())
}

func (c *frameClock) advance(fps int) {
	c.elapsed.Add(int64(time.Second) / int64(fps))
}

// fpsMeter smooths the host's real frame rate.
type fpsMeter struct {
	last time.Time
	fps  float64
}

func (m *fpsMeter) tick(now time.Time) float64 {
	if !m.last.IsZero() {
		if dt := now.Sub(m.last).Seconds(); dt > 0 {
			if m.fps == 0 {
				m.fps = 1 / dt
			} else {
				m.fps = 0.9*m.fps + 0.1/dt
			}
		}
	}
	m.last = now
	return m.fps
}
