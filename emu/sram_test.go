package emu

import (
	"testing"

	"github.com/user-none/emdiag/hwtest"
)

func TestSRAM_OutOfRange(t *testing.T) {
	s := &SRAM{}
	s.WriteByte(SRAMBase-1, 0x12)
	s.WriteByte(SRAMBase+SRAMSize, 0x12)

	if got := s.ReadByte(SRAMBase + SRAMSize); got != 0xFF {
		t.Errorf("past the end: got 0x%02X", got)
	}
	for i, b := range s.Contents() {
		if b != 0 {
			t.Fatalf("byte %d written by an out of range access", i)
		}
	}
}

func TestSRAM_HealthyPassesEveryScan(t *testing.T) {
	s := &SRAM{}
	cfg := s.Config()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	for name, scan := range map[string]func(hwtest.Region, uint32, uint32) hwtest.Result{
		"walking ones":  hwtest.WalkingOnes,
		"walking zeros": hwtest.WalkingZeros,
		"address lines": hwtest.AddressLines,
		"device":        hwtest.DeviceTest,
	} {
		if res := scan(s, cfg.Base, cfg.Size); res != hwtest.Pass {
			t.Errorf("%s: %v", name, res)
		}
	}
}

func TestSRAM_StuckBitFault(t *testing.T) {
	s := &SRAM{}
	s.SetFault(SRAMStuckBit)

	res := hwtest.WalkingOnes(s, SRAMBase, SRAMSize)
	if res != hwtest.Result(SRAMBase+stuckOffset) {
		t.Errorf("got %v, want FAIL @ 0x%08X", res, SRAMBase+stuckOffset)
	}
}

func TestSRAM_AddressLineFault(t *testing.T) {
	s := &SRAM{}
	s.SetFault(SRAMAddressLine)

	if res := hwtest.AddressLines(s, SRAMBase, SRAMSize); !res.Failed() {
		t.Error("broken address line not detected")
	}
	if res := hwtest.WalkingOnes(s, SRAMBase, SRAMSize); res != hwtest.Pass {
		t.Errorf("aliasing should not upset the data bits: %v", res)
	}
}

func TestParseSRAMFault(t *testing.T) {
	if f, err := ParseSRAMFault("address_line"); err != nil || f != SRAMAddressLine {
		t.Errorf("got %v, %v", f, err)
	}
	if _, err := ParseSRAMFault("melted"); err == nil {
		t.Error("unknown fault accepted")
	}
}
