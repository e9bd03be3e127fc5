package emu

import (
	"encoding/binary"

	"github.com/user-none/emdiag/hwtest"
)

// The system settings live in two redundant banks at the start of the
// EEPROM. Each bank starts with a little endian CRC over the rest of it.
const (
	settingsBankSize = 18
	settingsBanks    = 2
)

// Monitor orientations.
const (
	Horizontal uint8 = 0
	Vertical   uint8 = 1
)

// Settings is the system block kept in EEPROM.
type Settings struct {
	AttractSound bool
	Orientation  uint8
	Serial       [4]byte
	Chute        uint8
	Players      uint8 // 1 to 4
}

// DefaultSettings returns the factory settings.
func DefaultSettings() Settings {
	return Settings{
		AttractSound: true,
		Orientation:  Horizontal,
		Serial:       [4]byte{'B', 'X', 'X', 'X'},
		Players:      1,
	}
}

// ParseSettings decodes the first bank whose CRC matches. ok is false
// when neither does and the factory settings are returned.
func ParseSettings(data [hwtest.EEPROMSize]byte) (s Settings, ok bool) {
	for b := 0; b < settingsBanks; b++ {
		bank := data[b*settingsBankSize : (b+1)*settingsBankSize]
		if binary.LittleEndian.Uint16(bank[0:2]) != crc16(bank[2:]) {
			continue
		}
		s = Settings{
			AttractSound: bank[2] != 0,
			Orientation:  bank[3],
			Chute:        bank[8],
			Players:      bank[9],
		}
		copy(s.Serial[:], bank[4:8])
		if s.Players < 1 || s.Players > 4 {
			s.Players = 1
		}
		return s, true
	}
	return DefaultSettings(), false
}

// Encode writes s into both banks of data.
func (s Settings) Encode(data *[hwtest.EEPROMSize]byte) {
	var bank [settingsBankSize]byte
	bank[2] = boolByte(s.AttractSound)
	bank[3] = s.Orientation
	copy(bank[4:8], s.Serial[:])
	bank[8] = s.Chute
	bank[9] = s.Players
	binary.LittleEndian.PutUint16(bank[0:2], crc16(bank[2:]))

	for b := 0; b < settingsBanks; b++ {
		copy(data[b*settingsBankSize:], bank[:])
	}
}

// crc16 is CRC-16/CCITT-FALSE.
func crc16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
