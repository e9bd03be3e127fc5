package adapter

import (
	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/emdiag/emu"
)

// Compile-time interface check.
var _ emucore.CoreFactory = (*Factory)(nil)

// Factory implements emucore.CoreFactory for the diagnostic board.
type Factory struct{}

// SystemInfo returns system metadata for UI configuration.
func (f *Factory) SystemInfo() emucore.SystemInfo {
	return emucore.SystemInfo{
		Name:            "emdiag",
		ConsoleName:     "Arcade Board Diagnostics",
		Extensions:      []string{".eeprom", ".sram", ".nv", ".bin"},
		ScreenWidth:     emu.ScreenWidth,
		MaxScreenHeight: emu.MaxScreenHeight,
		AspectRatio:     4.0 / 3.0,
		SampleRate:      48000,
		Buttons: []emucore.Button{
			{Name: "Button 1", ID: emu.BitButton1, DefaultKey: "J", DefaultPad: "X"},
			{Name: "Button 2", ID: emu.BitButton2, DefaultKey: "K", DefaultPad: "A"},
			{Name: "Button 3", ID: emu.BitButton3, DefaultKey: "L", DefaultPad: "B"},
			{Name: "Button 4", ID: emu.BitButton4, DefaultKey: "U", DefaultPad: "Y"},
			{Name: "Button 5", ID: emu.BitButton5, DefaultKey: "I", DefaultPad: "L1"},
			{Name: "Button 6", ID: emu.BitButton6, DefaultKey: "O", DefaultPad: "R1"},
			{Name: "Start", ID: emu.BitStart, DefaultKey: "Enter", DefaultPad: "Start"},
			{Name: "Service", ID: emu.BitService, DefaultKey: "9", DefaultPad: "L2"},
			{Name: "Test", ID: emu.BitTest, DefaultKey: "F2", DefaultPad: "Select"},
			{Name: "PSW1", ID: emu.BitPSW1, DefaultKey: "1", DefaultPad: "L3"},
			{Name: "PSW2", ID: emu.BitPSW2, DefaultKey: "2", DefaultPad: "R3"},
		},
		Players: 2,
		CoreOptions: []emucore.CoreOption{
			{
				Key:         "players",
				Label:       "Players",
				Description: "Number of player ports the menus accept input from",
				Type:        emucore.CoreOptionSelect,
				Default:     "auto",
				Values:      []string{"auto", "1", "2"},
				Category:    emucore.CoreOptionCategoryInput,
			},
			{
				Key:         "analog_navigation",
				Label:       "Analog Navigation",
				Description: "Let the analog stick move menu cursors",
				Type:        emucore.CoreOptionBool,
				Default:     "false",
				Category:    emucore.CoreOptionCategoryInput,
			},
			dipOption("dip1", "DIP Switch 1"),
			dipOption("dip2", "DIP Switch 2"),
			dipOption("dip3", "DIP Switch 3"),
			dipOption("dip4", "DIP Switch 4"),
			{
				Key:         "eeprom_fault",
				Label:       "EEPROM Fault",
				Description: "Inject a failure into the EEPROM",
				Type:        emucore.CoreOptionSelect,
				Default:     "none",
				Values:      []string{"none", "read", "write", "corrupt"},
				Category:    emucore.CoreOptionCategoryCore,
			},
			{
				Key:         "sram_fault",
				Label:       "SRAM Fault",
				Description: "Inject a failure into the work RAM",
				Type:        emucore.CoreOptionSelect,
				Default:     "none",
				Values:      []string{"none", "stuck_bit", "address_line"},
				Category:    emucore.CoreOptionCategoryCore,
			},
			{
				Key:         "debug",
				Label:       "Frame Stats",
				Description: "Show frame rate and draw time in the corner",
				Type:        emucore.CoreOptionBool,
				Default:     "false",
				Category:    emucore.CoreOptionCategoryVideo,
			},
		},
		RDBName:       "",
		ThumbnailRepo: "",
		DataDirName:   "emdiag",
		ConsoleID:     0,
		CoreName:      emu.Name,
		CoreVersion:   emu.Version,
		SerializeSize: emu.SerializeSize(),
	}
}

func dipOption(key, label string) emucore.CoreOption {
	return emucore.CoreOption{
		Key:         key,
		Label:       label,
		Description: "Cabinet DIP switch shown on the input test",
		Type:        emucore.CoreOptionBool,
		Default:     "false",
		Category:    emucore.CoreOptionCategoryInput,
	}
}

// CreateEmulator creates a board from an NVRAM image. region only sets
// the refresh rate.
func (f *Factory) CreateEmulator(image []byte, region emucore.Region) (emucore.Emulator, error) {
	e, err := emu.NewEmulator(image, region)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// DetectRegion always reports NTSC. Board images carry no region.
func (f *Factory) DetectRegion(image []byte) (emucore.Region, bool) {
	return emu.DetectRegion(image), false
}
