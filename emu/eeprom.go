package emu

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/user-none/emdiag/hwtest"
)

// ErrBusTimeout is returned by a device transaction that never
// completes.
var ErrBusTimeout = errors.New("maple bus timeout")

// EEPROMFault selects an injected EEPROM failure.
type EEPROMFault int

const (
	EEPROMHealthy EEPROMFault = iota
	EEPROMReadFault
	EEPROMWriteFault
	EEPROMCorrupt
)

var eepromFaultNames = map[string]EEPROMFault{
	"none":    EEPROMHealthy,
	"read":    EEPROMReadFault,
	"write":   EEPROMWriteFault,
	"corrupt": EEPROMCorrupt,
}

// ParseEEPROMFault maps a core option value to a fault.
func ParseEEPROMFault(s string) (EEPROMFault, error) {
	f, ok := eepromFaultNames[s]
	if !ok {
		return EEPROMHealthy, fmt.Errorf("unknown eeprom fault %q", s)
	}
	return f, nil
}

// Default transaction latencies of the EEPROM behind the bus.
const (
	DefaultEEPROMReadLatency  = 40 * time.Millisecond
	DefaultEEPROMWriteLatency = 80 * time.Millisecond
)

// A corrupt EEPROM has this cell stuck low.
const (
	corruptCell = 0x10
	corruptBit  = 0x01
)

// EEPROM is the 128 byte serial EEPROM reached over the maple bus.
type EEPROM struct {
	bus *MapleBus

	mu           sync.Mutex
	data         [hwtest.EEPROMSize]byte
	fault        EEPROMFault
	readLatency  time.Duration
	writeLatency time.Duration
}

// Compile-time interface check.
var _ hwtest.EEPROM = (*EEPROM)(nil)

// NewEEPROM returns an EEPROM holding factory settings.
func NewEEPROM(bus *MapleBus) *EEPROM {
	e := &EEPROM{
		bus:          bus,
		readLatency:  DefaultEEPROMReadLatency,
		writeLatency: DefaultEEPROMWriteLatency,
	}
	DefaultSettings().Encode(&e.data)
	return e
}

// SetLatency sets the time each read and write holds the bus.
func (e *EEPROM) SetLatency(read, write time.Duration) {
	e.mu.Lock()
	e.readLatency, e.writeLatency = read, write
	e.mu.Unlock()
}

// SetFault injects a failure into later transactions.
func (e *EEPROM) SetFault(f EEPROMFault) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if f != e.fault && f != EEPROMHealthy {
		log.Printf("EEPROM fault injected: %d", f)
	}
	e.fault = f
}

// Read performs one bus transaction returning the whole device.
func (e *EEPROM) Read() ([hwtest.EEPROMSize]byte, error) {
	var out [hwtest.EEPROMSize]byte
	var err error
	e.bus.Transaction(e.latency(false), func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.fault == EEPROMReadFault {
			err = fmt.Errorf("eeprom read: %w", ErrBusTimeout)
			return
		}
		out = e.data
	})
	return out, err
}

// Write performs one bus transaction replacing the whole device.
func (e *EEPROM) Write(data [hwtest.EEPROMSize]byte) error {
	var err error
	e.bus.Transaction(e.latency(true), func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.fault == EEPROMWriteFault {
			err = fmt.Errorf("eeprom write: %w", ErrBusTimeout)
			return
		}
		if e.fault == EEPROMCorrupt {
			data[corruptCell] &^= corruptBit
		}
		e.data = data
	})
	return err
}

// Contents returns the device bytes without a bus transaction.
func (e *EEPROM) Contents() [hwtest.EEPROMSize]byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.data
}

// Load replaces the device bytes without a bus transaction.
func (e *EEPROM) Load(data [hwtest.EEPROMSize]byte) {
	e.mu.Lock()
	e.data = data
	e.mu.Unlock()
}

func (e *EEPROM) latency(write bool) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if write {
		return e.writeLatency
	}
	return e.readLatency
}
