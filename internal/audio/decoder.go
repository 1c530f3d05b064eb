package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Errors returned by NewDecoder and by decoders mid-stream. Callers classify
// failures with errors.Is.
var (
	// ErrInputAccess means the input file could not be opened or read.
	ErrInputAccess = errors.New("cannot access input")

	// ErrDecode means the input could be read but is not decodable audio.
	ErrDecode = errors.New("cannot decode audio")
)

// SampleSource is a sequential, single-pass stream of mono samples.
type SampleSource interface {
	// ReadChunk reads up to numSamples samples.
	// Returns io.EOF when the stream is exhausted.
	ReadChunk(numSamples int) ([]float64, error)
}

// AudioDecoder defines the interface for all audio format decoders.
// Every decoder yields a single designated channel, normalised to [-1.0, 1.0].
type AudioDecoder interface {
	SampleSource

	// SampleRate returns the audio sample rate in Hz
	SampleRate() int

	// NumSamples returns the number of frames per channel.
	// Returns 0 if the length is unknown.
	NumSamples() int64

	// NumChannels returns the number of channels in the source file
	NumChannels() int

	// Format returns a short name for the container, e.g. "MP3"
	Format() string

	// Close closes the decoder and releases resources
	Close() error
}

type openFunc func(f *os.File, channel int) (AudioDecoder, error)

var decoders = map[string]openFunc{
	".mp3":  newMP3Decoder,
	".wav":  newWAVDecoder,
	".flac": newFLACDecoder,
	".ogg":  newOGGDecoder,
}

// NewDecoder opens filename and returns a decoder for the requested channel.
// The format is chosen by file extension.
func NewDecoder(filename string, channel int) (AudioDecoder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputAccess, err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	open, ok := decoders[ext]
	if !ok {
		f.Close()
		return nil, fmt.Errorf("%w: unsupported format %q (supported: %s)",
			ErrDecode, ext, strings.Join(SupportedExts(), ", "))
	}

	d, err := open(f, channel)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return d, nil
}

// SupportedExts returns the input extensions NewDecoder accepts, sorted.
func SupportedExts() []string {
	exts := make([]string, 0, len(decoders))
	for ext := range decoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func checkChannel(channel, numChannels int) error {
	if channel < 0 || channel >= numChannels {
		return fmt.Errorf("channel %d out of range (file has %d channels)", channel, numChannels)
	}
	return nil
}
