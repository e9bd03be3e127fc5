package emu

import (
	"fmt"
	"math"

	"github.com/user-none/emdiag/menu"
	"github.com/user-none/go-chip-sn76489"
)

const (
	sampleRate    = 48000
	psgClockHz    = 3579545
	psgBufferSize = 1024
	psgGain       = 1898.0
	lpfCutoffHz   = 8000.0
)

// PSG channel use.
const (
	toneChannel = 0
	blipChannel = 1

	toneVolume  = 2 // attenuation, 0 is loudest
	blipVolume  = 4
	silent      = 0x0F
	blipHz      = 1800
	blipFrames  = 3
	maxToneDiv  = 0x3FF
	minToneDiv  = 1
	latchBit    = 0x80
	volumeBit   = 0x10
	channelBits = 5
)

// lpfAlpha is the smoothing factor for the first-order RC low-pass filter.
// Derived from: alpha = dt / (RC + dt) where RC = 1/(2*pi*fc).
var lpfAlpha = 1.0 / (float64(sampleRate)/(2*math.Pi*lpfCutoffHz) + 1)

// Sound is the board's audio: one SN76489 per speaker.
type Sound struct {
	left, right *sn76489.SN76489

	fps       int
	remainder int
	blip      int

	buf                      []int16
	filterPrevL, filterPrevR float64
}

// Compile-time interface check.
var _ menu.Sound = (*Sound)(nil)

// NewSound returns a silent pair of chips paced for fps frames a second.
func NewSound(fps int) *Sound {
	s := &Sound{
		left:  newPSG(),
		right: newPSG(),
		fps:   fps,
		buf:   make([]int16, 0, 2*psgBufferSize),
	}
	return s
}

func newPSG() *sn76489.SN76489 {
	psg := sn76489.New(psgClockHz, sampleRate, psgBufferSize, sn76489.Sega)
	psg.SetGain(psgGain)
	for ch := 0; ch < 4; ch++ {
		setVolume(psg, ch, silent)
	}
	return psg
}

// SetFPS changes the frame pacing.
func (s *Sound) SetFPS(fps int) {
	s.fps = fps
	s.remainder = 0
}

// Scroll implements menu.Sound.
func (s *Sound) Scroll() {
	for _, psg := range s.chips() {
		setTone(psg, blipChannel, blipHz)
		setVolume(psg, blipChannel, blipVolume)
	}
	s.blip = blipFrames
}

// StartTone implements menu.Sound.
func (s *Sound) StartTone(hz int, speakers menu.Speaker) {
	for i, psg := range s.chips() {
		if speakers&(1<<i) == 0 {
			setVolume(psg, toneChannel, silent)
			continue
		}
		setTone(psg, toneChannel, hz)
		setVolume(psg, toneChannel, toneVolume)
	}
}

// StopTone implements menu.Sound.
func (s *Sound) StopTone() {
	for _, psg := range s.chips() {
		setVolume(psg, toneChannel, silent)
	}
}

// RunFrame generates one frame of audio.
func (s *Sound) RunFrame() {
	s.buf = s.buf[:0]
	s.left.ResetBuffer()
	s.right.ResetBuffer()

	cycles := psgClockHz / s.fps
	s.remainder += psgClockHz % s.fps
	if s.remainder >= s.fps {
		s.remainder -= s.fps
		cycles++
	}
	s.left.Run(cycles)
	s.right.Run(cycles)

	if s.blip > 0 {
		s.blip--
		if s.blip == 0 {
			for _, psg := range s.chips() {
				setVolume(psg, blipChannel, silent)
			}
		}
	}

	s.mix()
}

// Samples returns the last frame as interleaved 16-bit stereo PCM.
func (s *Sound) Samples() []int16 {
	return s.buf
}

// mix interleaves the two chips into the stereo buffer, one chip per
// channel.
func (s *Sound) mix() {
	lBuf, lCount := s.left.GetBuffer()
	rBuf, rCount := s.right.GetBuffer()

	n := lCount
	if rCount < n {
		n = rCount
	}
	for i := 0; i < n; i++ {
		l := clampInt32(int32(lBuf[i]), -32768, 32767)
		r := clampInt32(int32(rBuf[i]), -32768, 32767)
		s.buf = append(s.buf, int16(l), int16(r))
	}

	s.applyLowPass()
}

// applyLowPass applies a first-order RC low-pass filter to the audio
// buffer, per channel with state persisting across frames.
func (s *Sound) applyLowPass() {
	for i := 0; i < len(s.buf); i += 2 {
		inL := float64(s.buf[i])
		inR := float64(s.buf[i+1])
		s.filterPrevL = lpfAlpha*inL + (1-lpfAlpha)*s.filterPrevL
		s.filterPrevR = lpfAlpha*inR + (1-lpfAlpha)*s.filterPrevR
		s.buf[i] = int16(math.Round(s.filterPrevL))
		s.buf[i+1] = int16(math.Round(s.filterPrevR))
	}
}

func (s *Sound) chips() [2]*sn76489.SN76489 {
	return [2]*sn76489.SN76489{s.left, s.right}
}

// serialize writes both chips into data.
func (s *Sound) serialize(data []byte) error {
	for i, psg := range s.chips() {
		if err := psg.Serialize(data[i*sn76489.SerializeSize:]); err != nil {
			return fmt.Errorf("psg %d: %w", i, err)
		}
	}
	return nil
}

func (s *Sound) deserialize(data []byte) error {
	for i, psg := range s.chips() {
		if err := psg.Deserialize(data[i*sn76489.SerializeSize:]); err != nil {
			return fmt.Errorf("psg %d: %w", i, err)
		}
	}
	return nil
}

// toneDivider is the SN76489 period register value for hz.
func toneDivider(hz int) int {
	if hz <= 0 {
		return maxToneDiv
	}
	n := (psgClockHz + 16*hz) / (32 * hz)
	if n < minToneDiv {
		return minToneDiv
	}
	if n > maxToneDiv {
		return maxToneDiv
	}
	return n
}

func setTone(psg *sn76489.SN76489, ch, hz int) {
	n := toneDivider(hz)
	psg.Write(byte(latchBit | ch<<channelBits | n&0x0F))
	psg.Write(byte(n >> 4 & 0x3F))
}

func setVolume(psg *sn76489.SN76489, ch int, attenuation byte) {
	psg.Write(latchBit | byte(ch)<<channelBits | volumeBit | attenuation&0x0F)
}

// clampInt32 clamps v to [min, max].
func clampInt32(v, min, max int32) int32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
