package emu

// Core identity reported to frontends.
const (
	Name    = "emdiag"
	Version = "0.1.0"
)

// Display geometry. The board drives a single fixed mode.
const (
	ScreenWidth     = 640
	ScreenHeight    = 480
	MaxScreenHeight = ScreenHeight
)
