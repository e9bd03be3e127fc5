package ui

import (
	"sync"

	"github.com/user-none/emdiag/controls"
	"github.com/user-none/emdiag/emu"
)

// PortState is one controller port as seen by the host: the SetInput
// bitmask and the analog axes.
type PortState struct {
	Buttons uint32
	Analog  [controls.AnalogAxes]uint8
}

// NeutralPort returns a port with nothing pressed and centred sticks.
func NeutralPort() PortState {
	var p PortState
	for i := range p.Analog {
		p.Analog[i] = controls.AnalogCenter
	}
	return p
}

// SharedInput holds controller state written by the Ebiten thread
// and read by the emulation goroutine.
type SharedInput struct {
	mu    sync.Mutex
	ports [controls.MaxPlayers]PortState
}

// NewSharedInput returns input with every port neutral.
func NewSharedInput() *SharedInput {
	si := &SharedInput{}
	for i := range si.ports {
		si.ports[i] = NeutralPort()
	}
	return si
}

// Set replaces the state of one port.
func (si *SharedInput) Set(player int, p PortState) {
	if player < 0 || player >= controls.MaxPlayers {
		return
	}
	si.mu.Lock()
	si.ports[player] = p
	si.mu.Unlock()
}

// Read returns every port.
func (si *SharedInput) Read() [controls.MaxPlayers]PortState {
	si.mu.Lock()
	defer si.mu.Unlock()
	return si.ports
}

// Apply pushes the shared state onto the board.
func (si *SharedInput) Apply(e *emu.Emulator) {
	for player, p := range si.Read() {
		e.SetInput(player, p.Buttons)
		for axis, v := range p.Analog {
			e.SetAnalog(player, axis, v)
		}
	}
}

// SharedFramebuffer double buffers the board's fixed size frame between
// the emulation goroutine and Ebiten's Draw.
type SharedFramebuffer struct {
	mu     sync.Mutex
	write  []byte
	read   []byte
	stride int
	fresh  bool
}

// NewSharedFramebuffer creates a pre-allocated framebuffer.
func NewSharedFramebuffer() *SharedFramebuffer {
	n := emu.ScreenWidth * emu.ScreenHeight * 4
	return &SharedFramebuffer{
		write:  make([]byte, n),
		read:   make([]byte, n),
		stride: emu.ScreenWidth * 4,
	}
}

// Update copies a finished frame from the emulation goroutine.
func (sf *SharedFramebuffer) Update(pixels []byte, stride int) {
	sf.mu.Lock()
	copy(sf.write, pixels)
	sf.stride = stride
	sf.fresh = true
	sf.mu.Unlock()
}

// Read returns the latest frame. The slice stays valid until the next
// Read. fresh reports whether a new frame arrived since the last Read.
func (sf *SharedFramebuffer) Read() (pixels []byte, stride int, fresh bool) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if sf.fresh {
		copy(sf.read, sf.write)
	}
	fresh, sf.fresh = sf.fresh, false
	return sf.read, sf.stride, fresh
}

// EmuControl coordinates pausing and stopping the emulation goroutine
// from the Ebiten thread.
type EmuControl struct {
	mu       sync.Mutex
	cond     *sync.Cond
	pauseReq bool
	paused   bool
	stopped  bool
}

// NewEmuControl returns a running control.
func NewEmuControl() *EmuControl {
	ec := &EmuControl{}
	ec.cond = sync.NewCond(&ec.mu)
	return ec
}

// RequestPause asks the emulation goroutine to pause and waits until it
// has, or until it stops.
func (ec *EmuControl) RequestPause() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.pauseReq = true
	for !ec.paused && !ec.stopped {
		ec.cond.Wait()
	}
}

// RequestResume lets a paused emulation goroutine continue.
func (ec *EmuControl) RequestResume() {
	ec.mu.Lock()
	ec.pauseReq = false
	ec.cond.Broadcast()
	ec.mu.Unlock()
}

// CheckPause is called by the emulation goroutine between frames. It
// blocks while paused and returns false once the goroutine should exit.
func (ec *EmuControl) CheckPause() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	for ec.pauseReq && !ec.stopped {
		if !ec.paused {
			ec.paused = true
			ec.cond.Broadcast()
		}
		ec.cond.Wait()
	}
	ec.paused = false
	return !ec.stopped
}

// Stop tells the emulation goroutine to exit.
func (ec *EmuControl) Stop() {
	ec.mu.Lock()
	ec.stopped = true
	ec.cond.Broadcast()
	ec.mu.Unlock()
}

// ShouldRun reports whether Stop has not been called.
func (ec *EmuControl) ShouldRun() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return !ec.stopped
}
