package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

// FLACDecoder implements AudioDecoder for FLAC files
type FLACDecoder struct {
	stream      *flac.Stream
	file        *os.File
	channel     int
	sampleRate  int
	numSamples  int64
	numChannels int

	// Samples decoded from the last frame but not yet returned
	pending []float64
}

func newFLACDecoder(f *os.File, channel int) (AudioDecoder, error) {
	// Parse FLAC stream - reads signature and StreamInfo block
	stream, err := flac.New(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create FLAC decoder: %w", err)
	}

	info := stream.Info
	if err := checkChannel(channel, int(info.NChannels)); err != nil {
		stream.Close()
		return nil, err
	}

	return &FLACDecoder{
		stream:      stream,
		file:        f,
		channel:     channel,
		sampleRate:  int(info.SampleRate),
		numSamples:  int64(info.NSamples),
		numChannels: int(info.NChannels),
	}, nil
}

// ReadChunk reads up to numSamples frames and returns the selected channel
func (d *FLACDecoder) ReadChunk(numSamples int) ([]float64, error) {
	// Parse the next frame only when nothing is left over from the previous one
	if len(d.pending) == 0 {
		frame, err := d.stream.ParseNext()
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("%w: failed to parse FLAC frame: %w", ErrDecode, err)
		}

		// FLAC frames contain one subframe per channel
		sub := frame.Subframes[d.channel]

		// Normalise to [-1.0, 1.0]; FLAC supports 4-32 bits per sample
		maxVal := float64(int64(1) << (frame.BitsPerSample - 1))
		for _, s := range sub.Samples[:sub.NSamples] {
			d.pending = append(d.pending, float64(s)/maxVal)
		}
	}

	n := min(numSamples, len(d.pending))
	samples := make([]float64, n)
	copy(samples, d.pending)
	d.pending = d.pending[:copy(d.pending, d.pending[n:])]

	return samples, nil
}

// SampleRate returns the sample rate
func (d *FLACDecoder) SampleRate() int {
	return d.sampleRate
}

// NumSamples returns the total number of samples
func (d *FLACDecoder) NumSamples() int64 {
	return d.numSamples
}

// NumChannels returns the number of audio channels
func (d *FLACDecoder) NumChannels() int {
	return d.numChannels
}

// Format returns "FLAC"
func (d *FLACDecoder) Format() string {
	return "FLAC"
}

// Close closes the decoder and releases resources
func (d *FLACDecoder) Close() error {
	if d.stream != nil {
		d.stream.Close()
	}
	if d.file != nil {
		// The stream may already have closed the file through io.Closer
		if err := d.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			return err
		}
	}
	return nil
}
