package config

import (
	"errors"
	"fmt"
	"runtime"
)

// Analysis settings
const (
	WindowSize     = 4096    // Samples per spectrogram column (image height is WindowSize/2)
	MinWindowSize  = 2       // Smallest window that still yields one frequency row
	MaxWindowSize  = 1 << 16 // Keeps a single column under 256 KiB of pixels
	DefaultChannel = 0       // Left channel
	DefaultBackend = "gofft"
)

// Colour scale applied to log10(magnitude + 1).
// Green is always zero; only red and blue carry magnitude.
const (
	RedScale  = 100.0
	BlueScale = 50.0
)

// Output settings
const (
	DefaultOutput = "output.png"
)

// UI settings
const (
	ProgressInterval = 8  // Send a progress update every N windows
	PreviewWidth     = 72 // Terminal cells
	PreviewHeight    = 16 // Terminal rows
)

// Settings is the validated run configuration built from the command line.
type Settings struct {
	Input      string
	Output     string
	Channel    int
	WindowSize int
	Workers    int // 0 selects runtime.NumCPU()
	Backend    string
	NoProgress bool
}

// Validate reports the first invalid field.
func (s Settings) Validate() error {
	if s.Input == "" {
		return errors.New("input file is required")
	}
	if s.Output == "" {
		return errors.New("output file is required")
	}
	if s.Channel < 0 {
		return fmt.Errorf("invalid channel %d (must be 0 or greater)", s.Channel)
	}
	if !IsPowerOfTwo(s.WindowSize) || s.WindowSize < MinWindowSize || s.WindowSize > MaxWindowSize {
		return fmt.Errorf("invalid window size %d (must be a power of two between %d and %d)",
			s.WindowSize, MinWindowSize, MaxWindowSize)
	}
	if s.Workers < 0 {
		return fmt.Errorf("invalid workers value %d (must be 0 or greater)", s.Workers)
	}
	return nil
}

// WorkerCount resolves Workers, mapping 0 to the number of CPUs.
func (s Settings) WorkerCount() int {
	if s.Workers == 0 {
		return runtime.NumCPU()
	}
	return s.Workers
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
