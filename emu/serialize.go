package emu

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"math"
	"time"

	"github.com/user-none/emdiag/hwtest"
	"github.com/user-none/go-chip-sn76489"
)

// Save state format constants
const (
	stateVersion    = 1
	stateMagic      = "eMDiagState\x00"
	stateHeaderSize = 22 // magic(12) + version(2) + imageCRC(4) + dataCRC(4)
)

// boardSerializeSize covers the inline board state after the memories:
// clock(8) + frames(8) + animation(8) + options(5) + filter(16) + blip(1)
const boardSerializeSize = 46

// boolByte converts a bool to a uint8 (0 or 1).
func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// SerializeSize returns the total size in bytes needed for a save state.
func SerializeSize() int {
	return stateHeaderSize +
		hwtest.EEPROMSize +
		SRAMSize +
		2*sn76489.SerializeSize +
		boardSerializeSize
}

// Serialize creates a save state and returns it as a byte slice. The
// screen being shown is not part of the state.
func (e *Emulator) Serialize() ([]byte, error) {
	data := make([]byte, SerializeSize())

	copy(data[0:12], stateMagic)
	binary.LittleEndian.PutUint16(data[12:14], stateVersion)
	binary.LittleEndian.PutUint32(data[14:18], e.imageCRC)

	offset := stateHeaderSize

	ee := e.eeprom.Contents()
	copy(data[offset:], ee[:])
	offset += hwtest.EEPROMSize

	copy(data[offset:], e.sram.Contents())
	offset += SRAMSize

	if err := e.sound.serialize(data[offset:]); err != nil {
		return nil, err
	}
	offset += 2 * sn76489.SerializeSize

	e.serializeBoard(data, offset)

	binary.LittleEndian.PutUint32(data[18:22], crc32.ChecksumIEEE(data[stateHeaderSize:]))
	return data, nil
}

// Deserialize restores a save state and returns to the main menu.
func (e *Emulator) Deserialize(data []byte) error {
	if err := e.VerifyState(data); err != nil {
		return err
	}

	// Decode the chips into a spare pair first so a bad block leaves
	// the board untouched.
	psgOffset := stateHeaderSize + hwtest.EEPROMSize + SRAMSize
	chips := NewSound(e.timing.FPS)
	if err := chips.deserialize(data[psgOffset:]); err != nil {
		return err
	}

	// Running tests must not touch the memories while they are replaced.
	e.nav.Close()

	offset := stateHeaderSize

	e.eeprom.Load([hwtest.EEPROMSize]byte(data[offset : offset+hwtest.EEPROMSize]))
	offset += hwtest.EEPROMSize

	e.sram.Load(data[offset : offset+SRAMSize])
	offset += SRAMSize

	e.sound.left, e.sound.right = chips.left, chips.right
	offset += 2 * sn76489.SerializeSize

	animation := e.deserializeBoard(data, offset)

	e.restart()
	e.frame.Animation = animation
	return nil
}

// VerifyState checks if a save state is valid without loading it.
func (e *Emulator) VerifyState(data []byte) error {
	if len(data) < SerializeSize() {
		return errors.New("save state too short")
	}

	if string(data[0:12]) != stateMagic {
		return errors.New("invalid save state magic")
	}

	version := binary.LittleEndian.Uint16(data[12:14])
	if version > stateVersion {
		return errors.New("unsupported save state version")
	}

	imageCRC := binary.LittleEndian.Uint32(data[14:18])
	if imageCRC != e.imageCRC {
		return errors.New("save state is for a different board image")
	}

	expectedCRC := binary.LittleEndian.Uint32(data[18:22])
	actualCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	if expectedCRC != actualCRC {
		return errors.New("save state data is corrupted")
	}

	return nil
}

var playersCodes = map[string]uint8{"auto": 0, "1": 1, "2": 2}

func (e *Emulator) serializeBoard(data []byte, offset int) {
	binary.LittleEndian.PutUint64(data[offset:], uint64(e.clock.Now()))
	offset += 8
	binary.LittleEndian.PutUint64(data[offset:], e.frames)
	offset += 8
	binary.LittleEndian.PutUint64(data[offset:], math.Float64bits(e.frame.Animation))
	offset += 8

	data[offset] = playersCodes[e.players]
	offset++
	data[offset] = boolByte(e.debug)
	offset++
	var dip uint8
	for i, on := range e.bus.DIP() {
		dip |= boolByte(on) << i
	}
	data[offset] = dip
	offset++
	data[offset] = uint8(e.eepromFault)
	offset++
	data[offset] = uint8(e.sramFault)
	offset++

	binary.LittleEndian.PutUint64(data[offset:], math.Float64bits(e.sound.filterPrevL))
	offset += 8
	binary.LittleEndian.PutUint64(data[offset:], math.Float64bits(e.sound.filterPrevR))
	offset += 8

	data[offset] = uint8(e.sound.blip)
}

// deserializeBoard restores the inline board state and returns the
// animation time.
func (e *Emulator) deserializeBoard(data []byte, offset int) float64 {
	e.clock.elapsed.Store(int64(time.Duration(binary.LittleEndian.Uint64(data[offset:]))))
	offset += 8
	e.frames = binary.LittleEndian.Uint64(data[offset:])
	offset += 8
	animation := math.Float64frombits(binary.LittleEndian.Uint64(data[offset:]))
	offset += 8

	e.players = "auto"
	for name, code := range playersCodes {
		if code == data[offset] {
			e.players = name
		}
	}
	offset++
	e.debug = data[offset] != 0
	offset++
	dip := data[offset]
	for i := 0; i < 4; i++ {
		e.bus.SetDIP(i, dip&(1<<i) != 0)
	}
	offset++
	e.eepromFault = EEPROMFault(data[offset])
	e.eeprom.SetFault(e.eepromFault)
	offset++
	e.sramFault = SRAMFault(data[offset])
	e.sram.SetFault(e.sramFault)
	offset++

	e.sound.filterPrevL = math.Float64frombits(binary.LittleEndian.Uint64(data[offset:]))
	offset += 8
	e.sound.filterPrevR = math.Float64frombits(binary.LittleEndian.Uint64(data[offset:]))
	offset += 8

	e.sound.blip = int(data[offset])
	e.handoffAt = 0
	return animation
}
