// Package hwtest implements the EEPROM and static RAM verification
// protocols. Each protocol runs inside a worker session and publishes
// its progress through the session's task handle.
package hwtest

import (
	"errors"
	"fmt"

	"github.com/user-none/emdiag/worker"
)

// EEPROMSize is the size of the board EEPROM in bytes.
const EEPROMSize = 128

// ErrMismatch reports that a verify read disagreed with what was written.
var ErrMismatch = errors.New("verify mismatch")

// EEPROM is the board EEPROM as seen over the bus. Each call is a whole
// bus transaction.
type EEPROM interface {
	Read() ([EEPROMSize]byte, error)
	Write(data [EEPROMSize]byte) error
}

// ExitCheck samples the controls between bus transactions and reports
// whether the operator asked to leave.
type ExitCheck func() bool

// EEPROMPhase is a step of the EEPROM round-trip protocol.
type EEPROMPhase int

const (
	PhaseInitialRead EEPROMPhase = iota
	PhaseInitialWriteback
	PhaseSecondRead
	PhaseSecondWriteback
	PhaseFinished
	PhaseFailedInitialRead
	PhaseFailedInitialWriteback
	PhaseFailedSecondRead
	PhaseFailedSecondWriteback
)

var eepromPhaseNames = [...]string{
	PhaseInitialRead:            "Initial read",
	PhaseInitialWriteback:       "Initial writeback",
	PhaseSecondRead:             "Second read",
	PhaseSecondWriteback:        "Second writeback",
	PhaseFinished:               "Finished",
	PhaseFailedInitialRead:      "Failed initial read",
	PhaseFailedInitialWriteback: "Failed initial writeback",
	PhaseFailedSecondRead:       "Failed second read",
	PhaseFailedSecondWriteback:  "Failed second writeback",
}

func (p EEPROMPhase) String() string {
	if p < 0 || int(p) >= len(eepromPhaseNames) {
		return fmt.Sprintf("EEPROMPhase(%d)", int(p))
	}
	return eepromPhaseNames[p]
}

// Failed reports whether p is one of the absorbing failure phases.
func (p EEPROMPhase) Failed() bool {
	return p >= PhaseFailedInitialRead
}

// Terminal reports whether the protocol has stopped in p, either
// because it finished or because a step failed.
func (p EEPROMPhase) Terminal() bool {
	return p == PhaseFinished || p.Failed()
}

// Step returns the ordinary phase p belongs to, which for a failure phase
// is the step that failed.
func (p EEPROMPhase) Step() EEPROMPhase {
	if p.Failed() {
		return p - PhaseFailedInitialRead
	}
	return p
}

// failure maps an ordinary phase to the failure phase it can fall into.
func (p EEPROMPhase) failure() EEPROMPhase {
	switch p {
	case PhaseInitialRead:
		return PhaseFailedInitialRead
	case PhaseInitialWriteback:
		return PhaseFailedInitialWriteback
	case PhaseSecondRead:
		return PhaseFailedSecondRead
	default:
		return PhaseFailedSecondWriteback
	}
}

// EEPROMState is the published state of an EEPROM run.
type EEPROMState struct {
	Phase EEPROMPhase

	// ExitRequested latches once the operator pressed start or test
	// during the run.
	ExitRequested bool

	// Cancelled is set when the run stopped early on request.
	Cancelled bool

	// Err describes the failure for a failed phase.
	Err string
}

// EEPROMOptions tunes the round-trip protocol.
type EEPROMOptions struct {
	// Verify re-reads the EEPROM after the restore and compares it to
	// the original contents.
	Verify bool
}

// NewEEPROMState returns the state a fresh run starts in.
func NewEEPROMState() EEPROMState {
	return EEPROMState{Phase: PhaseInitialRead}
}

// StartEEPROM launches the round-trip protocol on a worker.
func StartEEPROM(dev EEPROM, exit ExitCheck, opts EEPROMOptions) *worker.Session[EEPROMState] {
	return worker.Start(NewEEPROMState(), func(t *worker.Task[EEPROMState]) {
		RunEEPROM(t, dev, exit, opts)
	})
}

// RunEEPROM reads the EEPROM, writes back the bitwise inverse, reads
// and verifies the inverse, then writes the original back. Any error
// parks the run in the failure phase of the step that failed.
//
// Cancellation is honoured only while the device holds its original
// contents, so a cancelled run never leaves the EEPROM inverted.
func RunEEPROM(t *worker.Task[EEPROMState], dev EEPROM, exit ExitCheck, opts EEPROMOptions) {
	r := eepromRun{t: t, exit: exit}

	original, err := dev.Read()
	if err != nil {
		r.fail(PhaseInitialRead, fmt.Errorf("read: %w", err))
		return
	}
	if r.stopRequested() {
		return
	}
	r.advance(PhaseInitialWriteback)

	inverted := invert(original)
	if err := dev.Write(inverted); err != nil {
		r.fail(PhaseInitialWriteback, fmt.Errorf("write inverted: %w", err))
		return
	}
	r.advance(PhaseSecondRead)

	readback, err := dev.Read()
	if err != nil {
		r.fail(PhaseSecondRead, fmt.Errorf("read inverted: %w", err))
		return
	}
	if off, bad := mismatch(readback, inverted); bad {
		// Put the original back before reporting; the data is known bad
		// but leaving it inverted is worse.
		err := fmt.Errorf("byte 0x%02X: got 0x%02X want 0x%02X: %w",
			off, readback[off], inverted[off], ErrMismatch)
		if werr := dev.Write(original); werr != nil {
			err = errors.Join(err, fmt.Errorf("restore original: %w", werr))
		}
		r.fail(PhaseSecondRead, err)
		return
	}
	r.advance(PhaseSecondWriteback)

	restored := invert(readback)
	if err := dev.Write(restored); err != nil {
		r.fail(PhaseSecondWriteback, fmt.Errorf("write original: %w", err))
		return
	}

	if opts.Verify {
		if r.stopRequested() {
			return
		}
		final, err := dev.Read()
		if err != nil {
			r.fail(PhaseSecondWriteback, fmt.Errorf("verify read: %w", err))
			return
		}
		if off, bad := mismatch(final, original); bad {
			r.fail(PhaseSecondWriteback, fmt.Errorf("byte 0x%02X: got 0x%02X want 0x%02X: %w",
				off, final[off], original[off], ErrMismatch))
			return
		}
	}

	r.advance(PhaseFinished)
}

type eepromRun struct {
	t    *worker.Task[EEPROMState]
	exit ExitCheck
}

// advance samples the exit check, which polls the same bus as the
// EEPROM, and then publishes the next phase.
func (r *eepromRun) advance(next EEPROMPhase) {
	exit := r.sampleExit()
	r.t.Update(func(st *EEPROMState) {
		st.Phase = next
		if exit {
			st.ExitRequested = true
		}
	})
}

// stopRequested samples the exit check and reports whether the owner
// cancelled the run. A cancelled run is marked and left in its current
// phase.
func (r *eepromRun) stopRequested() bool {
	exit := r.sampleExit()
	cancelled := r.t.Cancelled()
	r.t.Update(func(st *EEPROMState) {
		if exit {
			st.ExitRequested = true
		}
		st.Cancelled = cancelled
	})
	return cancelled
}

func (r *eepromRun) sampleExit() bool {
	return r.exit != nil && r.exit()
}

func (r *eepromRun) fail(at EEPROMPhase, err error) {
	r.t.Update(func(st *EEPROMState) {
		st.Phase = at.failure()
		st.Err = err.Error()
	})
}

func invert(data [EEPROMSize]byte) [EEPROMSize]byte {
	for i := range data {
		data[i] = ^data[i]
	}
	return data
}

// mismatch returns the first offset where a and b differ.
func mismatch(a, b [EEPROMSize]byte) (int, bool) {
	for i := range a {
		if a[i] != b[i] {
			return i, true
		}
	}
	return 0, false
}
