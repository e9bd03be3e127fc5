package main

import (
	libretro "github.com/user-none/eblitui/libretro"
	"github.com/user-none/emdiag/adapter"
	"github.com/user-none/emdiag/emu"
)

func init() {
	libretro.RegisterFactory(&adapter.Factory{}, []libretro.RetropadMapping{
		{RetroID: libretro.JoypadY, BitID: emu.BitButton1},
		{RetroID: libretro.JoypadB, BitID: emu.BitButton2},
		{RetroID: libretro.JoypadA, BitID: emu.BitButton3},
		{RetroID: libretro.JoypadX, BitID: emu.BitButton4},
		{RetroID: libretro.JoypadL, BitID: emu.BitButton5},
		{RetroID: libretro.JoypadR, BitID: emu.BitButton6},
		{RetroID: libretro.JoypadStart, BitID: emu.BitStart},
		{RetroID: libretro.JoypadSelect, BitID: emu.BitTest},
	})
}

func main() {}
