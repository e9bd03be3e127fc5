//go:build !libretro && !ios

package main

import (
	"flag"
	"log"

	"github.com/user-none/eblitui/standalone"
	"github.com/user-none/emdiag/adapter"
)

func main() {
	imagePath := flag.String("image", "", "path to NVRAM image (opens UI if not provided)")
	regionFlag := flag.String("region", "ntsc", "refresh rate: ntsc or pal")
	players := flag.String("players", "auto", "player ports: auto, 1, or 2")
	eepromFault := flag.String("eeprom-fault", "none", "inject EEPROM fault: none, read, write, corrupt")
	sramFault := flag.String("sram-fault", "none", "inject SRAM fault: none, stuck_bit, address_line")
	debug := flag.Bool("debug", false, "show frame stats")
	flag.Parse()

	factory := &adapter.Factory{}

	if *imagePath != "" {
		options := map[string]string{
			"players":      *players,
			"eeprom_fault": *eepromFault,
			"sram_fault":   *sramFault,
			"debug":        "false",
		}
		if *debug {
			options["debug"] = "true"
		}
		if err := standalone.RunDirect(factory, *imagePath, *regionFlag, options); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := standalone.Run(factory); err != nil {
		log.Fatal(err)
	}
}
