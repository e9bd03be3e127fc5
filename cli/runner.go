// Package cli provides a command-line runner for the board.
// It handles input polling and runs the board in a window without the full UI.
package cli

import (
	"fmt"
	"image/color"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	emucore "github.com/user-none/eblitui/api"
	emubridge "github.com/user-none/emdiag/bridge/ebiten"
	"github.com/user-none/emdiag/controls"
	"github.com/user-none/emdiag/emu"
	"github.com/user-none/emdiag/ui"
	"golang.org/x/image/font/basicfont"
)

// ADT buffer thresholds in bytes.
const (
	adtMinBuffer = 9600
	adtMaxBuffer = 19200
)

// Runner wraps a board for command-line mode.
// The board runs on a dedicated goroutine with audio-driven timing.
// The Ebiten thread handles input polling and rendering from the shared framebuffer.
type Runner struct {
	emulator    *emubridge.Emulator
	audioPlayer *ui.AudioPlayer

	emuControl        *ui.EmuControl
	sharedInput       *ui.SharedInput
	sharedFramebuffer *ui.SharedFramebuffer
	emuDone           chan struct{}

	overlay bool
	frames  int
}

// NewRunner creates a new Runner wrapping e. sink, if not nil, sees every
// frame of audio. Audio initialization failure is non-fatal.
func NewRunner(e *emubridge.Emulator, sink ui.SampleSink) *Runner {
	player, err := ui.NewAudioPlayer(1.0)
	if err != nil {
		log.Printf("Warning: audio initialization failed: %v", err)
	} else {
		player.SetSink(sink)
	}

	r := &Runner{
		emulator:          e,
		audioPlayer:       player,
		emuControl:        ui.NewEmuControl(),
		sharedInput:       ui.NewSharedInput(),
		sharedFramebuffer: ui.NewSharedFramebuffer(),
		emuDone:           make(chan struct{}),
	}
	if player == nil && sink != nil {
		log.Printf("Warning: no audio output, capture will be empty")
	}

	go r.emulationLoop()

	return r
}

// Close stops the emulation goroutine and audio. It must run before the
// board's battery image is saved.
func (r *Runner) Close() {
	if r.emuControl != nil {
		r.emuControl.Stop()
		<-r.emuDone
	}

	if r.audioPlayer != nil {
		r.audioPlayer.Close()
		r.audioPlayer = nil
	}
}

// emulationLoop runs on a dedicated goroutine with ADT.
func (r *Runner) emulationLoop() {
	defer close(r.emuDone)

	timing := r.emulator.GetTiming()
	frameTime := time.Duration(float64(time.Second) / float64(timing.FPS))
	lastFrameTime := time.Now()

	for {
		if !r.emuControl.CheckPause() {
			return
		}

		r.sharedInput.Apply(r.emulator.Emulator)
		r.emulator.RunFrame()

		if r.audioPlayer != nil {
			r.audioPlayer.QueueSamples(r.emulator.GetAudioSamples())
		}

		r.sharedFramebuffer.Update(
			r.emulator.GetFramebuffer(),
			r.emulator.GetFramebufferStride(),
		)

		elapsed := time.Since(lastFrameTime)
		sleepTime := frameTime - elapsed

		if r.audioPlayer != nil {
			bufferLevel := r.audioPlayer.GetBufferLevel()
			if bufferLevel < adtMinBuffer {
				sleepTime = time.Duration(float64(sleepTime) * 0.9)
			} else if bufferLevel > adtMaxBuffer {
				sleepTime = time.Duration(float64(sleepTime) * 1.1)
			}
		}

		if sleepTime > time.Millisecond {
			time.Sleep(sleepTime)
		}

		lastFrameTime = time.Now()
	}
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		r.overlay = !r.overlay
	}
	r.pollInputToShared()
	return nil
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	pixels, stride, fresh := r.sharedFramebuffer.Read()
	if fresh {
		r.frames++
	}
	r.emulator.DrawCachedFramebuffer(screen, pixels, stride)
	if r.overlay {
		r.drawOverlay(screen)
	}
}

var overlayColor = color.RGBA{0, 220, 90, 255}

// drawOverlay shows host side audio health, which the board cannot see.
func (r *Runner) drawOverlay(screen *ebiten.Image) {
	face := basicfont.Face7x13
	lines := []string{fmt.Sprintf("frames %d  tps %.1f", r.frames, ebiten.ActualTPS())}
	if r.audioPlayer != nil {
		lines = append(lines, fmt.Sprintf("audio %d bytes  dropped %d",
			r.audioPlayer.GetBufferLevel(), r.audioPlayer.Dropped()))
	} else {
		lines = append(lines, "audio off")
	}
	y := screen.Bounds().Dy() - 6 - 14*(len(lines)-1)
	for _, s := range lines {
		text.Draw(screen, s, face, 6, y, overlayColor)
		y += 14
	}
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.emulator.Layout(outsideWidth, outsideHeight)
}

// Keyboard drives player 1. Player 2 is gamepad only.
var keyMap = []struct {
	keys []ebiten.Key
	bit  int
}{
	{[]ebiten.Key{ebiten.KeyW, ebiten.KeyArrowUp}, emucore.ButtonUp},
	{[]ebiten.Key{ebiten.KeyS, ebiten.KeyArrowDown}, emucore.ButtonDown},
	{[]ebiten.Key{ebiten.KeyA, ebiten.KeyArrowLeft}, emucore.ButtonLeft},
	{[]ebiten.Key{ebiten.KeyD, ebiten.KeyArrowRight}, emucore.ButtonRight},
	{[]ebiten.Key{ebiten.KeyJ}, emu.BitButton1},
	{[]ebiten.Key{ebiten.KeyK}, emu.BitButton2},
	{[]ebiten.Key{ebiten.KeyL}, emu.BitButton3},
	{[]ebiten.Key{ebiten.KeyU}, emu.BitButton4},
	{[]ebiten.Key{ebiten.KeyI}, emu.BitButton5},
	{[]ebiten.Key{ebiten.KeyO}, emu.BitButton6},
	{[]ebiten.Key{ebiten.KeyEnter}, emu.BitStart},
	{[]ebiten.Key{ebiten.Key9}, emu.BitService},
	{[]ebiten.Key{ebiten.KeyF2}, emu.BitTest},
	{[]ebiten.Key{ebiten.Key1}, emu.BitPSW1},
	{[]ebiten.Key{ebiten.Key2}, emu.BitPSW2},
}

var padMap = []struct {
	button ebiten.StandardGamepadButton
	bit    int
}{
	{ebiten.StandardGamepadButtonLeftTop, emucore.ButtonUp},
	{ebiten.StandardGamepadButtonLeftBottom, emucore.ButtonDown},
	{ebiten.StandardGamepadButtonLeftLeft, emucore.ButtonLeft},
	{ebiten.StandardGamepadButtonLeftRight, emucore.ButtonRight},
	{ebiten.StandardGamepadButtonRightLeft, emu.BitButton1},
	{ebiten.StandardGamepadButtonRightBottom, emu.BitButton2},
	{ebiten.StandardGamepadButtonRightRight, emu.BitButton3},
	{ebiten.StandardGamepadButtonRightTop, emu.BitButton4},
	{ebiten.StandardGamepadButtonFrontTopLeft, emu.BitButton5},
	{ebiten.StandardGamepadButtonFrontTopRight, emu.BitButton6},
	{ebiten.StandardGamepadButtonCenterRight, emu.BitStart},
	{ebiten.StandardGamepadButtonFrontBottomLeft, emu.BitService},
	{ebiten.StandardGamepadButtonCenterLeft, emu.BitTest},
	{ebiten.StandardGamepadButtonLeftStick, emu.BitPSW1},
	{ebiten.StandardGamepadButtonRightStick, emu.BitPSW2},
}

var padAxes = [controls.AnalogAxes]ebiten.StandardGamepadAxis{
	ebiten.StandardGamepadAxisLeftStickHorizontal,
	ebiten.StandardGamepadAxisLeftStickVertical,
	ebiten.StandardGamepadAxisRightStickHorizontal,
	ebiten.StandardGamepadAxisRightStickVertical,
}

// pollInputToShared reads keyboard and gamepad input and writes to shared state.
func (r *Runner) pollInputToShared() {
	var ports [controls.MaxPlayers]ui.PortState
	for i := range ports {
		ports[i] = ui.NeutralPort()
	}

	if ebiten.IsFocused() {
		for _, m := range keyMap {
			for _, k := range m.keys {
				if ebiten.IsKeyPressed(k) {
					ports[0].Buttons |= 1 << m.bit
				}
			}
		}
	}

	// The first standard gamepad is player 1, the second player 2.
	player := 0
	for _, id := range ebiten.AppendGamepadIDs(nil) {
		if player >= controls.MaxPlayers {
			break
		}
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		p := &ports[player]
		for _, m := range padMap {
			if ebiten.IsStandardGamepadButtonPressed(id, m.button) {
				p.Buttons |= 1 << m.bit
			}
		}
		for axis, a := range padAxes {
			p.Analog[axis] = axisByte(ebiten.StandardGamepadAxisValue(id, a))
		}
		player++
	}

	for i, p := range ports {
		r.sharedInput.Set(i, p)
	}
}

// axisByte maps an axis in [-1, 1] to the board's 0..255 with 0x80 at
// rest.
func axisByte(v float64) uint8 {
	n := controls.AnalogCenter + int(v*127)
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}
