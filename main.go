package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/afero"
	emubridge "github.com/user-none/emdiag/bridge/ebiten"
	"github.com/user-none/emdiag/cli"
	"github.com/user-none/emdiag/emu"
	"github.com/user-none/emdiag/ui"
)

func main() {
	nvramPath := flag.String("nvram", "emdiag.nv", "battery image (SRAM then EEPROM), created on exit")
	regionFlag := flag.String("region", "ntsc", "refresh rate: ntsc or pal")
	players := flag.String("players", "auto", "player ports: auto, 1, or 2")
	eepromFault := flag.String("eeprom-fault", "none", "inject EEPROM fault: none, read, write, corrupt")
	sramFault := flag.String("sram-fault", "none", "inject SRAM fault: none, stuck_bit, address_line")
	wavPath := flag.String("wav", "", "record audio output to a WAV file")
	analogNav := flag.Bool("analog-nav", false, "let the analog stick move menu cursors")
	debug := flag.Bool("debug", false, "show frame stats")
	flag.Parse()

	var region emu.Region
	switch strings.ToLower(*regionFlag) {
	case "ntsc":
		region = emu.RegionNTSC
	case "pal":
		region = emu.RegionPAL
	default:
		log.Fatalf("Invalid region: %s (use ntsc or pal)", *regionFlag)
	}

	fs := afero.NewOsFs()
	store := ui.NewNVRAMStore(fs, *nvramPath, emu.BatterySize)
	image, found, err := store.Load()
	if err != nil {
		log.Fatalf("Failed to load NVRAM: %v", err)
	}
	if !found {
		log.Printf("No NVRAM at %s, starting from factory settings", store.Path())
	}

	e, err := emubridge.NewEmulator(image, region)
	if err != nil {
		log.Fatalf("Failed to initialize board: %v", err)
	}
	e.SetOption("players", *players)
	e.SetOption("eeprom_fault", *eepromFault)
	e.SetOption("sram_fault", *sramFault)
	e.SetOption("analog_navigation", fmt.Sprint(*analogNav))
	e.SetOption("debug", fmt.Sprint(*debug))

	var capture *ui.WAVCapture
	var sink ui.SampleSink
	if *wavPath != "" {
		capture = ui.NewWAVCapture(fs, *wavPath)
		sink = capture
	}

	ebiten.SetWindowSize(emu.ScreenWidth*3/2, emu.ScreenHeight*3/2)
	ebiten.SetWindowTitle(emu.Name)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(emu.ScreenWidth/2, emu.ScreenHeight/2, -1, -1)
	ebiten.SetTPS(60)

	runner := cli.NewRunner(e, sink)
	defer func() {
		// The emulation goroutine must be gone before the image is read.
		runner.Close()
		e.Close()
		if err := store.Save(e.GetSRAM()); err != nil {
			log.Printf("Warning: %v", err)
		}
		if capture != nil {
			if err := capture.Close(); err != nil {
				log.Printf("Warning: %v", err)
			}
		}
	}()

	if err := ebiten.RunGame(runner); err != nil {
		log.Print(err)
	}
}
