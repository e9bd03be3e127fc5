package hwtest

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/user-none/emdiag/worker"
)

// ErrInvalidRegion reports a memory test configuration that cannot be
// scanned.
var ErrInvalidRegion = errors.New("invalid test region")

// Region is a byte-addressable memory range under test. Addresses are
// absolute bus addresses.
type Region interface {
	ReadByte(addr uint32) byte
	WriteByte(addr uint32, v byte)
}

// Result is the outcome of one memory sub-test: Pass, NotRun, or the
// first failing address.
type Result uint32

const (
	Pass   Result = 0
	NotRun Result = 0xFFFFFFFF
)

// Failed reports whether r holds a failing address.
func (r Result) Failed() bool {
	return r != Pass && r != NotRun
}

func (r Result) String() string {
	switch r {
	case Pass:
		return "PASS"
	case NotRun:
		return "Not run"
	default:
		return fmt.Sprintf("FAIL @ 0x%08X", uint32(r))
	}
}

// MemoryPhase is the sub-test currently running.
type MemoryPhase int

const (
	PhaseBackup MemoryPhase = iota
	PhaseWalkingOnes
	PhaseWalkingZeros
	PhaseAddressLines
	PhaseDevice
	PhaseRestore
	PhaseComplete
)

var memoryPhaseNames = [...]string{
	PhaseBackup:       "Saving contents",
	PhaseWalkingOnes:  "Walking 1s",
	PhaseWalkingZeros: "Walking 0s",
	PhaseAddressLines: "Address lines",
	PhaseDevice:       "Device test",
	PhaseRestore:      "Restoring contents",
	PhaseComplete:     "Complete",
}

func (p MemoryPhase) String() string {
	if p < 0 || int(p) >= len(memoryPhaseNames) {
		return fmt.Sprintf("MemoryPhase(%d)", int(p))
	}
	return memoryPhaseNames[p]
}

// MemoryState is the published state of a memory scan.
type MemoryState struct {
	Phase MemoryPhase

	WalkingOnes  Result
	WalkingZeros Result
	AddressLines Result
	Device       Result

	Cancelled bool
}

// NewMemoryState returns the state a fresh scan starts in.
func NewMemoryState() MemoryState {
	return MemoryState{
		Phase:        PhaseBackup,
		WalkingOnes:  NotRun,
		WalkingZeros: NotRun,
		AddressLines: NotRun,
		Device:       NotRun,
	}
}

// MemoryConfig is the immutable range a scan covers.
type MemoryConfig struct {
	Base uint32
	Size uint32
}

// Validate checks that results from a scan over c are unambiguous.
func (c MemoryConfig) Validate() error {
	switch {
	case c.Base == 0:
		return fmt.Errorf("base address 0 aliases a pass result: %w", ErrInvalidRegion)
	case c.Size == 0:
		return fmt.Errorf("empty range: %w", ErrInvalidRegion)
	case bits.OnesCount32(c.Size) != 1:
		return fmt.Errorf("size 0x%X is not a power of two: %w", c.Size, ErrInvalidRegion)
	case uint64(c.Base)+uint64(c.Size) > 1<<32:
		return fmt.Errorf("range 0x%08X+0x%X overflows the bus: %w", c.Base, c.Size, ErrInvalidRegion)
	case uint64(c.Base)+uint64(c.Size) == 1<<32:
		return fmt.Errorf("last address 0x%08X aliases not run: %w", uint32(NotRun), ErrInvalidRegion)
	}
	return nil
}

// StartMemory validates cfg and launches a memory scan on a worker.
func StartMemory(region Region, cfg MemoryConfig) (*worker.Session[MemoryState], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return worker.Start(NewMemoryState(), func(t *worker.Task[MemoryState]) {
		RunMemory(t, region, cfg)
	}), nil
}

// RunMemory saves the region, runs the four sub-tests in order, and
// puts the original contents back. Each sub-test is independent and
// reports its own result; cancellation is checked between them.
func RunMemory(t *worker.Task[MemoryState], region Region, cfg MemoryConfig) {
	backup := make([]byte, cfg.Size)
	for i := range backup {
		backup[i] = region.ReadByte(cfg.Base + uint32(i))
	}
	defer func() {
		t.Update(func(st *MemoryState) { st.Phase = PhaseRestore })
		for i, v := range backup {
			region.WriteByte(cfg.Base+uint32(i), v)
		}
		t.Update(func(st *MemoryState) { st.Phase = PhaseComplete })
	}()

	steps := []struct {
		phase MemoryPhase
		run   func(Region, uint32, uint32) Result
		store func(*MemoryState, Result)
	}{
		{PhaseWalkingOnes, WalkingOnes, func(st *MemoryState, r Result) { st.WalkingOnes = r }},
		{PhaseWalkingZeros, WalkingZeros, func(st *MemoryState, r Result) { st.WalkingZeros = r }},
		{PhaseAddressLines, AddressLines, func(st *MemoryState, r Result) { st.AddressLines = r }},
		{PhaseDevice, DeviceTest, func(st *MemoryState, r Result) { st.Device = r }},
	}

	for _, s := range steps {
		if t.Cancelled() {
			t.Update(func(st *MemoryState) { st.Cancelled = true })
			return
		}
		t.Update(func(st *MemoryState) { st.Phase = s.phase })
		res := s.run(region, cfg.Base, cfg.Size)
		t.Update(func(st *MemoryState) { s.store(st, res) })
	}
}

// WalkingOnes writes and immediately re-reads each single-bit-set
// pattern at every address, catching data bits stuck low.
func WalkingOnes(r Region, base, size uint32) Result {
	for off := uint32(0); off < size; off++ {
		addr := base + off
		for pattern := byte(1); pattern != 0; pattern <<= 1 {
			r.WriteByte(addr, pattern)
			if r.ReadByte(addr) != pattern {
				return Result(addr)
			}
		}
	}
	return Pass
}

// WalkingZeros is WalkingOnes with single-bit-clear patterns, catching
// data bits stuck high.
func WalkingZeros(r Region, base, size uint32) Result {
	for off := uint32(0); off < size; off++ {
		addr := base + off
		for bit := byte(1); bit != 0; bit <<= 1 {
			pattern := ^bit
			r.WriteByte(addr, pattern)
			if r.ReadByte(addr) != pattern {
				return Result(addr)
			}
		}
	}
	return Pass
}

// AddressLines checks for address lines stuck high, stuck low, or
// shorted together, once with 0xAA/0x55 and once with the polarities
// swapped. It only touches the base and power-of-two offsets.
func AddressLines(r Region, base, size uint32) Result {
	if res := addressLines(r, base, size, 0xAA, 0x55); res != Pass {
		return res
	}
	return addressLines(r, base, size, 0x55, 0xAA)
}

func addressLines(r Region, base, size uint32, pattern, antipattern byte) Result {
	mask := size - 1

	// Every power-of-two offset gets the pattern.
	for off := uint32(1); off&mask != 0; off <<= 1 {
		r.WriteByte(base+off, pattern)
	}

	// Stuck high: writing the base must not disturb any offset.
	r.WriteByte(base, antipattern)
	for off := uint32(1); off&mask != 0; off <<= 1 {
		if r.ReadByte(base+off) != pattern {
			return Result(base + off)
		}
	}
	r.WriteByte(base, pattern)

	// Stuck low or shorted: each marker must land only on its own cell.
	for test := uint32(1); test&mask != 0; test <<= 1 {
		r.WriteByte(base+test, antipattern)

		if r.ReadByte(base) != pattern {
			return Result(base + test)
		}
		for off := uint32(1); off&mask != 0; off <<= 1 {
			if off != test && r.ReadByte(base+off) != pattern {
				return Result(base + test)
			}
		}

		r.WriteByte(base+test, pattern)
	}

	return Pass
}

// DeviceTest fills the range with an increasing byte pattern, verifies
// it, then repeats with the pattern inverted so every bit of every cell
// holds both values.
func DeviceTest(r Region, base, size uint32) Result {
	for off := uint32(0); off < size; off++ {
		r.WriteByte(base+off, byte(off+1))
	}
	for off := uint32(0); off < size; off++ {
		if r.ReadByte(base+off) != byte(off+1) {
			return Result(base + off)
		}
	}

	for off := uint32(0); off < size; off++ {
		r.WriteByte(base+off, ^byte(off+1))
	}
	for off := uint32(0); off < size; off++ {
		if r.ReadByte(base+off) != ^byte(off+1) {
			return Result(base + off)
		}
	}

	return Pass
}
