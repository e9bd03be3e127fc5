package ui

import (
	"fmt"
	"sync"

	"github.com/spf13/afero"
	"github.com/youpy/go-wav"
)

// WAVCapture records the board's audio output to a WAV file. Samples are
// held in memory and the file is written on Close.
type WAVCapture struct {
	fs   afero.Fs
	path string

	mu      sync.Mutex
	samples []wav.Sample
	closed  bool
}

// Compile-time interface check.
var _ SampleSink = (*WAVCapture)(nil)

// NewWAVCapture records to path on fs.
func NewWAVCapture(fs afero.Fs, path string) *WAVCapture {
	return &WAVCapture{fs: fs, path: path}
}

// Add records a frame of interleaved stereo samples.
func (c *WAVCapture) Add(samples []int16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for i := 0; i+1 < len(samples); i += 2 {
		var s wav.Sample
		s.Values[0] = int(samples[i])
		s.Values[1] = int(samples[i+1])
		c.samples = append(c.samples, s)
	}
}

// Frames returns the number of stereo frames recorded.
func (c *WAVCapture) Frames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}

// Close writes the file. Later samples are ignored.
func (c *WAVCapture) Close() (rerr error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	f, err := c.fs.Create(c.path)
	if err != nil {
		return fmt.Errorf("wav capture: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("wav capture: %w", err)
		}
	}()

	enc := wav.NewWriter(f, uint32(len(c.samples)), 2, audioSampleRate, 16)
	if enc == nil {
		return fmt.Errorf("wav capture: bad encoding parameters")
	}
	if err := enc.WriteSamples(c.samples); err != nil {
		return fmt.Errorf("wav capture: %w", err)
	}
	return nil
}
