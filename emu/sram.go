package emu

import (
	"fmt"
	"log"
	"sync"

	"github.com/user-none/emdiag/hwtest"
)

// SRAM geometry.
const (
	SRAMBase = 0x00200000
	SRAMSize = 32 * 1024
)

// SRAMFault selects an injected SRAM failure.
type SRAMFault int

const (
	SRAMHealthy SRAMFault = iota
	SRAMStuckBit
	SRAMAddressLine
)

var sramFaultNames = map[string]SRAMFault{
	"none":         SRAMHealthy,
	"stuck_bit":    SRAMStuckBit,
	"address_line": SRAMAddressLine,
}

// ParseSRAMFault maps a core option value to a fault.
func ParseSRAMFault(s string) (SRAMFault, error) {
	f, ok := sramFaultNames[s]
	if !ok {
		return SRAMHealthy, fmt.Errorf("unknown sram fault %q", s)
	}
	return f, nil
}

// Injected fault locations.
const (
	stuckOffset = 0x1234
	stuckMask   = 0x04
	brokenLine  = 0x0400
)

// SRAM is the battery backed work RAM at SRAMBase. Accesses outside the
// chip read as 0xFF and drop writes.
type SRAM struct {
	mu    sync.Mutex
	mem   [SRAMSize]byte
	fault SRAMFault
}

// Compile-time interface check.
var _ hwtest.Region = (*SRAM)(nil)

// Config returns the test region covering the whole chip.
func (s *SRAM) Config() hwtest.MemoryConfig {
	return hwtest.MemoryConfig{Base: SRAMBase, Size: SRAMSize}
}

// SetFault injects a failure into later accesses.
func (s *SRAM) SetFault(f SRAMFault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f != s.fault && f != SRAMHealthy {
		log.Printf("SRAM fault injected: %d", f)
	}
	s.fault = f
}

func (s *SRAM) ReadByte(addr uint32) byte {
	off, ok := sramOffset(addr)
	if !ok {
		return 0xFF
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.fault {
	case SRAMStuckBit:
		if off == stuckOffset {
			return s.mem[off] &^ stuckMask
		}
	case SRAMAddressLine:
		off &^= brokenLine
	}
	return s.mem[off]
}

func (s *SRAM) WriteByte(addr uint32, v byte) {
	off, ok := sramOffset(addr)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fault == SRAMAddressLine {
		off &^= brokenLine
	}
	s.mem[off] = v
}

// Contents returns a copy of the chip.
func (s *SRAM) Contents() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, SRAMSize)
	copy(out, s.mem[:])
	return out
}

// Load copies data into the start of the chip.
func (s *SRAM) Load(data []byte) {
	s.mu.Lock()
	copy(s.mem[:], data)
	s.mu.Unlock()
}

func sramOffset(addr uint32) (uint32, bool) {
	if addr < SRAMBase || addr-SRAMBase >= SRAMSize {
		return 0, false
	}
	return addr - SRAMBase, true
}
