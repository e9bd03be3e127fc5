package hwtest

import (
	"errors"
	"fmt"

	"github.com/user-none/emdiag/worker"
)

var errInjected = errors.New("injected bus fault")

// fakeEEPROM counts transactions and can fail or corrupt the k-th one.
type fakeEEPROM struct {
	data [EEPROMSize]byte
	ops  []string

	failAt    int // 1-based transaction number, 0 disables
	corruptAt int // corrupts the buffer returned by this read
}

func newFakeEEPROM() *fakeEEPROM {
	d := &fakeEEPROM{}
	for i := range d.data {
		d.data[i] = byte(i*7 + 3)
	}
	return d
}

func (d *fakeEEPROM) Read() ([EEPROMSize]byte, error) {
	d.ops = append(d.ops, "read")
	n := len(d.ops)
	if n == d.failAt {
		return [EEPROMSize]byte{}, fmt.Errorf("transaction %d: %w", n, errInjected)
	}
	out := d.data
	if n == d.corruptAt {
		out[5] ^= 0x10
	}
	return out, nil
}

func (d *fakeEEPROM) Write(data [EEPROMSize]byte) error {
	d.ops = append(d.ops, "write")
	n := len(d.ops)
	if n == d.failAt {
		return fmt.Errorf("transaction %d: %w", n, errInjected)
	}
	d.data = data
	return nil
}

// runEEPROM runs the protocol synchronously and records every phase it
// published.
func runEEPROM(dev EEPROM, exit ExitCheck, opts EEPROMOptions) (EEPROMState, []EEPROMPhase) {
	var trace []EEPROMPhase
	s := worker.Start(NewEEPROMState(), func(t *worker.Task[EEPROMState]) {
		tracer := &tracingEEPROM{dev: dev, t: t, trace: &trace}
		trace = append(trace, t.State().Phase)
		RunEEPROM(t, tracer, exit, opts)
		if p := t.State().Phase; p != trace[len(trace)-1] {
			trace = append(trace, p)
		}
	})
	s.Wait()
	s.End()
	return s.Snapshot(), trace
}

// tracingEEPROM records the published phase at every transaction.
type tracingEEPROM struct {
	dev   EEPROM
	t     *worker.Task[EEPROMState]
	trace *[]EEPROMPhase
}

func (e *tracingEEPROM) note() {
	p := e.t.State().Phase
	if n := len(*e.trace); n == 0 || (*e.trace)[n-1] != p {
		*e.trace = append(*e.trace, p)
	}
}

func (e *tracingEEPROM) Read() ([EEPROMSize]byte, error) {
	e.note()
	return e.dev.Read()
}

func (e *tracingEEPROM) Write(data [EEPROMSize]byte) error {
	e.note()
	return e.dev.Write(data)
}

// ram is a healthy memory region starting at base.
type ram struct {
	base uint32
	mem  []byte
}

func newRAM(base, size uint32) *ram {
	r := &ram{base: base, mem: make([]byte, size)}
	for i := range r.mem {
		r.mem[i] = byte(i ^ 0x5A)
	}
	return r
}

func (r *ram) ReadByte(addr uint32) byte     { return r.mem[addr-r.base] }
func (r *ram) WriteByte(addr uint32, v byte) { r.mem[addr-r.base] = v }

// stuckBit forces one data bit of one cell high.
type stuckBit struct {
	*ram
	addr uint32
	bit  byte
}

func (r *stuckBit) ReadByte(addr uint32) byte {
	v := r.ram.ReadByte(addr)
	if addr == r.addr {
		v |= r.bit
	}
	return v
}

// stuckLine ties one address line low, so cells that differ only in that
// line alias each other.
type stuckLine struct {
	*ram
	line uint32
}

func (r *stuckLine) decode(addr uint32) uint32 {
	return r.base + ((addr - r.base) &^ r.line)
}

func (r *stuckLine) ReadByte(addr uint32) byte     { return r.ram.ReadByte(r.decode(addr)) }
func (r *stuckLine) WriteByte(addr uint32, v byte) { r.ram.WriteByte(r.decode(addr), v) }
