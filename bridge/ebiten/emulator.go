// Package ebiten provides an Ebiten-specific wrapper for the board.
package ebiten

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/emdiag/emu"
)

// Emulator wraps emu.Emulator with Ebiten rendering.
type Emulator struct {
	*emu.Emulator

	offscreen *ebiten.Image
	drawOpts  ebiten.DrawImageOptions
}

// NewEmulator creates a board from an NVRAM image.
func NewEmulator(image []byte, region emu.Region) (*Emulator, error) {
	base, err := emu.NewEmulator(image, region)
	if err != nil {
		return nil, err
	}
	return &Emulator{Emulator: base}, nil
}

// Layout implements ebiten.Game.
func (e *Emulator) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// DrawCachedFramebuffer scales a frame copied out by the emulation
// goroutine onto screen, keeping the 4:3 aspect.
func (e *Emulator) DrawCachedFramebuffer(screen *ebiten.Image, pixels []byte, stride int) {
	if stride != emu.ScreenWidth*4 || len(pixels) < stride*emu.ScreenHeight {
		return
	}
	if e.offscreen == nil {
		e.offscreen = ebiten.NewImage(emu.ScreenWidth, emu.ScreenHeight)
	}
	e.offscreen.WritePixels(pixels[:stride*emu.ScreenHeight])

	screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
	scale := float64(screenW) / emu.ScreenWidth
	if s := float64(screenH) / emu.ScreenHeight; s < scale {
		scale = s
	}
	offsetX := (float64(screenW) - emu.ScreenWidth*scale) / 2
	offsetY := (float64(screenH) - emu.ScreenHeight*scale) / 2

	e.drawOpts = ebiten.DrawImageOptions{}
	e.drawOpts.GeoM.Scale(scale, scale)
	e.drawOpts.GeoM.Translate(offsetX, offsetY)
	e.drawOpts.Filter = ebiten.FilterLinear
	screen.DrawImage(e.offscreen, &e.drawOpts)
}
