package emu

import emucore "github.com/user-none/eblitui/api"

// Region is an alias for emucore.Region.
type Region = emucore.Region

const (
	RegionNTSC = emucore.RegionNTSC
	RegionPAL  = emucore.RegionPAL
)

// RegionTiming holds the frame timing for a video standard. The board
// always renders 640x480; only the refresh rate changes.
type RegionTiming struct {
	Scanlines int // Total scanlines per frame
	FPS       int // Frames per second
}

// NTSC timing: 525 lines at 60 Hz
var NTSCTiming = RegionTiming{
	Scanlines: 525,
	FPS:       60,
}

// PAL timing: 625 lines at 50 Hz
var PALTiming = RegionTiming{
	Scanlines: 625,
	FPS:       50,
}

// GetTimingForRegion returns the appropriate timing constants
func GetTimingForRegion(r Region) RegionTiming {
	if r == RegionPAL {
		return PALTiming
	}
	return NTSCTiming
}

// DetectRegion returns the display region for a board image. Images
// carry no region information, so this is always NTSC.
func DetectRegion(image []byte) Region {
	return RegionNTSC
}

// DefaultRegion returns the default region (NTSC).
func DefaultRegion() Region {
	return RegionNTSC
}
