package hwtest

import (
	"strings"
	"testing"
	"time"

	"github.com/go-test/deep"
	"github.com/user-none/emdiag/worker"
)

func TestEEPROM_PhaseTrace(t *testing.T) {
	dev := newFakeEEPROM()
	st, trace := runEEPROM(dev, nil, EEPROMOptions{})

	want := []EEPROMPhase{
		PhaseInitialRead,
		PhaseInitialWriteback,
		PhaseSecondRead,
		PhaseSecondWriteback,
		PhaseFinished,
	}
	if diff := deep.Equal(trace, want); diff != nil {
		t.Errorf("phase trace: %v", diff)
	}
	if st.Phase != PhaseFinished {
		t.Errorf("final phase: got %v", st.Phase)
	}
	if diff := deep.Equal(dev.ops, []string{"read", "write", "read", "write"}); diff != nil {
		t.Errorf("transactions: %v", diff)
	}
}

func TestEEPROM_RoundTripIsIdempotent(t *testing.T) {
	for _, verify := range []bool{false, true} {
		dev := newFakeEEPROM()
		before := dev.data

		st, _ := runEEPROM(dev, nil, EEPROMOptions{Verify: verify})
		if st.Phase != PhaseFinished {
			t.Fatalf("verify=%v: run ended in %v: %s", verify, st.Phase, st.Err)
		}
		if dev.data != before {
			t.Errorf("verify=%v: EEPROM contents changed by a successful run", verify)
		}
	}
}

func TestEEPROM_FaultAtStep(t *testing.T) {
	tests := []struct {
		step int
		want EEPROMPhase
	}{
		{1, PhaseFailedInitialRead},
		{2, PhaseFailedInitialWriteback},
		{3, PhaseFailedSecondRead},
		{4, PhaseFailedSecondWriteback},
		{5, PhaseFailedSecondWriteback}, // verify read
	}

	for _, tt := range tests {
		dev := newFakeEEPROM()
		dev.failAt = tt.step
		st, trace := runEEPROM(dev, nil, EEPROMOptions{Verify: true})

		if st.Phase != tt.want {
			t.Errorf("fault at step %d: got %v, want %v", tt.step, st.Phase, tt.want)
		}
		if !st.Phase.Failed() || !st.Phase.Terminal() {
			t.Errorf("fault at step %d: %v should be a terminal failure", tt.step, st.Phase)
		}
		for _, p := range trace {
			if p == PhaseFinished {
				t.Errorf("fault at step %d: reached Finished", tt.step)
			}
		}
		if !strings.Contains(st.Err, errInjected.Error()) {
			t.Errorf("fault at step %d: error text %q", tt.step, st.Err)
		}
		if len(dev.ops) != tt.step {
			t.Errorf("fault at step %d: %d transactions after the fault", tt.step, len(dev.ops)-tt.step)
		}
	}
}

func TestEEPROM_MismatchRestoresOriginal(t *testing.T) {
	dev := newFakeEEPROM()
	before := dev.data
	dev.corruptAt = 3

	st, _ := runEEPROM(dev, nil, EEPROMOptions{})
	if st.Phase != PhaseFailedSecondRead {
		t.Fatalf("got %v, want %v", st.Phase, PhaseFailedSecondRead)
	}
	if !strings.Contains(st.Err, ErrMismatch.Error()) {
		t.Errorf("error text %q should report a mismatch", st.Err)
	}
	if dev.data != before {
		t.Error("original contents should be written back after a mismatch")
	}
}

func TestEEPROM_FailedRestoreIsReported(t *testing.T) {
	dev := newFakeEEPROM()
	dev.corruptAt = 3
	dev.failAt = 4

	st, _ := runEEPROM(dev, nil, EEPROMOptions{})
	if st.Phase != PhaseFailedSecondRead {
		t.Fatalf("got %v, want %v", st.Phase, PhaseFailedSecondRead)
	}
	if !strings.Contains(st.Err, ErrMismatch.Error()) || !strings.Contains(st.Err, errInjected.Error()) {
		t.Errorf("error text %q should report the mismatch and the failed restore", st.Err)
	}
}

func TestEEPROM_VerifyMismatch(t *testing.T) {
	dev := newFakeEEPROM()
	dev.corruptAt = 5

	st, _ := runEEPROM(dev, nil, EEPROMOptions{Verify: true})
	if st.Phase != PhaseFailedSecondWriteback {
		t.Errorf("got %v, want %v", st.Phase, PhaseFailedSecondWriteback)
	}
}

func TestEEPROM_ExitRequestLatches(t *testing.T) {
	dev := newFakeEEPROM()
	calls := 0
	exit := func() bool {
		calls++
		return calls == 2
	}

	st, _ := runEEPROM(dev, exit, EEPROMOptions{})
	if !st.ExitRequested {
		t.Error("a press seen between transactions should latch")
	}
	if st.Phase != PhaseFinished {
		t.Errorf("exit request alone should not stop the run: %v", st.Phase)
	}
	if calls < 4 {
		t.Errorf("exit check sampled %d times, want one per transition", calls)
	}
}

func TestEEPROM_CancelBeforeWrite(t *testing.T) {
	dev := newFakeEEPROM()
	before := dev.data

	gate := make(chan struct{})
	s := worker.Start(NewEEPROMState(), func(task *worker.Task[EEPROMState]) {
		<-gate
		RunEEPROM(task, dev, nil, EEPROMOptions{})
	})
	s.Cancel()
	close(gate)
	s.End()

	st := s.Snapshot()
	if !st.Cancelled {
		t.Error("expected cancelled state")
	}
	if st.Phase != PhaseInitialRead {
		t.Errorf("cancelled run should stop before writing: %v", st.Phase)
	}
	if diff := deep.Equal(dev.ops, []string{"read"}); diff != nil {
		t.Errorf("transactions: %v", diff)
	}
	if dev.data != before {
		t.Error("cancelled run modified the EEPROM")
	}
}

// slowEEPROM blocks every transaction for a fixed delay.
type slowEEPROM struct {
	*fakeEEPROM
	delay time.Duration
}

func (d *slowEEPROM) Read() ([EEPROMSize]byte, error) {
	time.Sleep(d.delay)
	return d.fakeEEPROM.Read()
}

func (d *slowEEPROM) Write(data [EEPROMSize]byte) error {
	time.Sleep(d.delay)
	return d.fakeEEPROM.Write(data)
}

func TestEEPROM_EndMidRunJoins(t *testing.T) {
	dev := &slowEEPROM{fakeEEPROM: newFakeEEPROM(), delay: 5 * time.Millisecond}
	s := StartEEPROM(dev, nil, EEPROMOptions{Verify: true})

	deadline := time.Now().Add(time.Second)
	for s.Snapshot().Phase == PhaseInitialRead && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	s.End()
	if !s.Done() {
		t.Fatal("End returned with the worker still running")
	}

	// No transaction may happen once End has returned.
	n := len(dev.ops)
	time.Sleep(20 * time.Millisecond)
	if len(dev.ops) != n {
		t.Error("worker kept using the bus after End")
	}
}

func TestEEPROMPhase_String(t *testing.T) {
	if got := PhaseFailedSecondRead.String(); got != "Failed second read" {
		t.Errorf("got %q", got)
	}
	if got := EEPROMPhase(42).String(); got != "EEPROMPhase(42)" {
		t.Errorf("got %q", got)
	}
}
