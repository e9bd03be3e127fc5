package emu

import (
	"image"
	"image/color"
	"image/draw"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/user-none/emdiag/menu"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freesans"
	"tinygo.org/x/tinyfont/proggy"
)

// Compile-time interface checks.
var (
	_ menu.Renderer     = (*Framebuffer)(nil)
	_ drivers.Displayer = (*Framebuffer)(nil)
)

// face is a tinyfont font plus the distance from the top of a line to
// its baseline.
type face struct {
	font   tinyfont.Fonter
	ascent int16
}

var faces = [...]face{
	menu.FontLarge: {font: &freesans.Regular9pt7b, ascent: 14},
	menu.FontSmall: {font: &proggy.TinySZ8pt7b, ascent: 10},
	menu.FontMono:  {font: &proggy.TinySZ8pt7b, ascent: 10},
}

const textWidthCacheSize = 256

type textKey struct {
	font menu.Font
	s    string
}

// Framebuffer is the board's 640x480 RGBA video memory. It is a tinyfont
// display so text is rasterised straight into it.
type Framebuffer struct {
	img    *image.RGBA
	widths *lru.Cache[textKey, int]
}

// NewFramebuffer returns a cleared framebuffer.
func NewFramebuffer() *Framebuffer {
	widths, err := lru.New[textKey, int](textWidthCacheSize)
	if err != nil {
		// Only a non-positive size fails.
		panic(err)
	}
	fb := &Framebuffer{
		img:    image.NewRGBA(image.Rect(0, 0, ScreenWidth, ScreenHeight)),
		widths: widths,
	}
	fb.Clear()
	return fb
}

// Pixels returns the RGBA bytes of the frame.
func (fb *Framebuffer) Pixels() []byte {
	return fb.img.Pix
}

// Stride returns the number of bytes per row.
func (fb *Framebuffer) Stride() int {
	return fb.img.Stride
}

// Image returns the frame as an image.
func (fb *Framebuffer) Image() *image.RGBA {
	return fb.img
}

// Clear fills the frame with opaque black.
func (fb *Framebuffer) Clear() {
	pix := fb.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = 0
		pix[i+1] = 0
		pix[i+2] = 0
		pix[i+3] = 0xFF
	}
}

// Size implements drivers.Displayer.
func (fb *Framebuffer) Size() (x, y int16) {
	return ScreenWidth, ScreenHeight
}

// SetPixel implements drivers.Displayer. Pixels outside the frame are
// dropped.
func (fb *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || int(x) >= ScreenWidth || int(y) >= ScreenHeight {
		return
	}
	fb.img.SetRGBA(int(x), int(y), c)
}

// Display implements drivers.Displayer. The frame is presented by the
// host, so there is nothing to flush.
func (fb *Framebuffer) Display() error {
	return nil
}

func (fb *Framebuffer) Width() int  { return ScreenWidth }
func (fb *Framebuffer) Height() int { return ScreenHeight }

// FillBox fills the half-open box [x0,x1) x [y0,y1), clipped to the frame.
func (fb *Framebuffer) FillBox(x0, y0, x1, y1 int, c color.RGBA) {
	r := image.Rect(x0, y0, x1, y1).Intersect(fb.img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(fb.img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// DrawText draws s with its top edge at row y.
func (fb *Framebuffer) DrawText(x, y int, f menu.Font, c color.RGBA, s string) {
	fc := faceFor(f)
	tinyfont.WriteLine(fb, fc.font, int16(x), int16(y)+fc.ascent, s, c)
}

// TextWidth returns the advance width of s in pixels.
func (fb *Framebuffer) TextWidth(f menu.Font, s string) int {
	key := textKey{f, s}
	if w, ok := fb.widths.Get(key); ok {
		return w
	}
	_, outbox := tinyfont.LineWidth(faceFor(f).font, s)
	w := int(outbox)
	fb.widths.Add(key, w)
	return w
}

// DrawSprite draws one of the fixed images with its top left at x, y.
func (fb *Framebuffer) DrawSprite(x, y int, s menu.Sprite) {
	sp, ok := sprites[s]
	if !ok {
		return
	}
	for row, line := range sp.rows {
		for col, ch := range line {
			c, ok := sp.palette[ch]
			if !ok {
				continue
			}
			fb.SetPixel(int16(x+col), int16(y+row), c)
		}
	}
}

func faceFor(f menu.Font) face {
	if f < 0 || int(f) >= len(faces) {
		return faces[menu.FontSmall]
	}
	return faces[f]
}

// sprite is a small pixmap. Characters missing from the palette are
// transparent.
type sprite struct {
	palette map[rune]color.RGBA
	rows    []string
}

var arrowPalette = map[rune]color.RGBA{'#': menu.White}

var switchPalette = map[rune]color.RGBA{
	'#': menu.White,
	'o': menu.Dim,
	'*': menu.Pass,
}

var sprites = map[menu.Sprite]sprite{
	menu.SpriteUp: {arrowPalette, []string{
		".........##.........",
		"........####........",
		".......######.......",
		"......########......",
		".....##########.....",
		"....############....",
		"...##############...",
		"..################..",
		".##################.",
		"####################",
	}},
	menu.SpriteDown: {arrowPalette, []string{
		"####################",
		".##################.",
		"..################..",
		"...##############...",
		"....############....",
		".....##########.....",
		"......########......",
		".......######.......",
		"........####........",
		".........##.........",
	}},
	menu.SpriteCursor: {map[rune]color.RGBA{'#': menu.Highlight}, []string{
		"##..............",
		"####............",
		"######..........",
		"########........",
		"##########......",
		"############....",
		"##############..",
		"################",
		"################",
		"##############..",
		"############....",
		"##########......",
		"########........",
		"######..........",
		"####............",
		"##..............",
	}},
	menu.SpritePSWOff: {switchPalette, pswRows('o')},
	menu.SpritePSWOn:  {switchPalette, pswRows('*')},
	menu.SpriteButtonMask: {map[rune]color.RGBA{'#': menu.Dim}, []string{
		"....########....",
		"..############..",
		".##############.",
		".##############.",
		"################",
		"################",
		"################",
		"################",
		"################",
		"################",
		"################",
		"################",
		".##############.",
		".##############.",
		"..############..",
		"....########....",
	}},
}

// pswRows builds a 32x32 push switch with the cap drawn in ch.
func pswRows(ch rune) []string {
	rows := make([]string, 32)
	for y := range rows {
		line := make([]rune, 32)
		for x := range line {
			switch {
			case x < 2 || x >= 30 || y < 2 || y >= 30:
				line[x] = '#'
			case x >= 6 && x < 26 && y >= 6 && y < 26:
				line[x] = ch
			default:
				line[x] = '.'
			}
		}
		rows[y] = string(line)
	}
	return rows
}
