package hwtest

import (
	"errors"
	"testing"

	"github.com/go-test/deep"
	"github.com/user-none/emdiag/worker"
)

const (
	testBase = 0x00200000
	testSize = 0x400
)

func TestMemory_HealthyRegionPasses(t *testing.T) {
	tests := []struct {
		name string
		run  func(Region, uint32, uint32) Result
	}{
		{"walking ones", WalkingOnes},
		{"walking zeros", WalkingZeros},
		{"address lines", AddressLines},
		{"device", DeviceTest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRAM(testBase, testSize)
			if got := tt.run(r, testBase, testSize); got != Pass {
				t.Errorf("got %v, want %v", got, Pass)
			}
		})
	}
}

func TestMemory_AddressLinesDetectsStuckLine(t *testing.T) {
	for line := uint32(1); line < testSize; line <<= 1 {
		r := &stuckLine{ram: newRAM(testBase, testSize), line: line}
		got := AddressLines(r, testBase, testSize)
		if !got.Failed() {
			t.Errorf("line 0x%X: got %v, want a failing address", line, got)
		}
	}
}

func TestMemory_StuckDataBit(t *testing.T) {
	const bad = testBase + 0x13
	r := &stuckBit{ram: newRAM(testBase, testSize), addr: bad, bit: 0x04}

	if got := WalkingZeros(r, testBase, testSize); got != Result(bad) {
		t.Errorf("walking zeros: got %v, want 0x%08X", got, bad)
	}
	if got := WalkingOnes(r, testBase, testSize); got != Result(bad) {
		t.Errorf("walking ones: got %v, want 0x%08X", got, bad)
	}
	// 0x13 is not a power-of-two offset.
	if got := AddressLines(r, testBase, testSize); got != Pass {
		t.Errorf("address lines: got %v, want %v", got, Pass)
	}
	if got := DeviceTest(r, testBase, testSize); got != Result(bad) {
		t.Errorf("device: got %v, want 0x%08X", got, bad)
	}
}

func TestMemory_RunPublishesEveryResult(t *testing.T) {
	r := newRAM(testBase, testSize)
	before := append([]byte(nil), r.mem...)

	s, err := StartMemory(r, MemoryConfig{Base: testBase, Size: testSize})
	if err != nil {
		t.Fatal(err)
	}
	s.Wait()

	want := MemoryState{
		Phase:        PhaseComplete,
		WalkingOnes:  Pass,
		WalkingZeros: Pass,
		AddressLines: Pass,
		Device:       Pass,
	}
	if diff := deep.Equal(s.Snapshot(), want); diff != nil {
		t.Error(diff)
	}
	if diff := deep.Equal(r.mem, before); diff != nil {
		t.Errorf("region not restored: %v", diff)
	}
	s.End()
}

func TestMemory_FailuresAreIndependent(t *testing.T) {
	r := &stuckLine{ram: newRAM(testBase, testSize), line: 0x10}

	s, err := StartMemory(r, MemoryConfig{Base: testBase, Size: testSize})
	if err != nil {
		t.Fatal(err)
	}
	s.Wait()
	s.End()

	st := s.Snapshot()
	if !st.AddressLines.Failed() {
		t.Errorf("address lines: got %v", st.AddressLines)
	}
	if st.WalkingOnes != Pass || st.WalkingZeros != Pass {
		t.Errorf("data bit tests should pass on a stuck address line: %v %v", st.WalkingOnes, st.WalkingZeros)
	}
	if st.Phase != PhaseComplete {
		t.Errorf("a failing sub-test should not stop the run: %v", st.Phase)
	}
}

func TestMemory_CancelRestoresRegion(t *testing.T) {
	r := newRAM(testBase, testSize)
	before := append([]byte(nil), r.mem...)

	gate := make(chan struct{})
	s := worker.Start(NewMemoryState(), func(task *worker.Task[MemoryState]) {
		<-gate
		RunMemory(task, r, MemoryConfig{Base: testBase, Size: testSize})
	})
	s.Cancel()
	close(gate)
	s.End()

	st := s.Snapshot()
	if !st.Cancelled {
		t.Error("expected cancelled state")
	}
	if st.WalkingOnes != NotRun || st.Device != NotRun {
		t.Errorf("no sub-test should have run: %+v", st)
	}
	if diff := deep.Equal(r.mem, before); diff != nil {
		t.Errorf("region not restored: %v", diff)
	}
}

func TestMemoryConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  MemoryConfig
		ok   bool
	}{
		{"sram", MemoryConfig{Base: testBase, Size: 0x8000}, true},
		{"zero base", MemoryConfig{Base: 0, Size: 0x8000}, false},
		{"empty", MemoryConfig{Base: testBase, Size: 0}, false},
		{"odd size", MemoryConfig{Base: testBase, Size: 0x7FFF}, false},
		{"overflow", MemoryConfig{Base: 0xFFFF0000, Size: 0x20000}, false},
		{"top of bus", MemoryConfig{Base: 0xFFFF0000, Size: 0x10000}, false},
		{"below top", MemoryConfig{Base: 0xFFFE0000, Size: 0x10000}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidRegion) {
				t.Errorf("got %v, want ErrInvalidRegion", err)
			}
		})
	}
}

func TestResult_String(t *testing.T) {
	tests := []struct {
		r    Result
		want string
	}{
		{Pass, "PASS"},
		{NotRun, "Not run"},
		{Result(0x00200013), "FAIL @ 0x00200013"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}
