package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

// OGGDecoder implements AudioDecoder for Ogg Vorbis files
type OGGDecoder struct {
	reader      *oggvorbis.Reader
	file        *os.File
	channel     int
	sampleRate  int
	numSamples  int64
	numChannels int
	buf         []float32
}

func newOGGDecoder(f *os.File, channel int) (AudioDecoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create OGG decoder: %w", err)
	}

	if err := checkChannel(channel, reader.Channels()); err != nil {
		return nil, err
	}

	return &OGGDecoder{
		reader:      reader,
		file:        f,
		channel:     channel,
		sampleRate:  reader.SampleRate(),
		numSamples:  reader.Length(), // samples per channel
		numChannels: reader.Channels(),
	}, nil
}

// ReadChunk reads up to numSamples frames and returns the selected channel
func (d *OGGDecoder) ReadChunk(numSamples int) ([]float64, error) {
	// Vorbis samples are interleaved float32
	bufSize := numSamples * d.numChannels
	if cap(d.buf) < bufSize {
		d.buf = make([]float32, bufSize)
	}
	buf := d.buf[:bufSize]

	n, err := d.reader.Read(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: failed to read OGG data: %w", ErrDecode, err)
	}

	frames := n / d.numChannels
	if frames == 0 {
		if err == io.EOF {
			return nil, io.EOF
		}
		return []float64{}, nil
	}

	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		samples[i] = float64(buf[i*d.numChannels+d.channel])
	}

	return samples, nil
}

// SampleRate returns the sample rate
func (d *OGGDecoder) SampleRate() int {
	return d.sampleRate
}

// NumSamples returns the number of samples per channel
func (d *OGGDecoder) NumSamples() int64 {
	return d.numSamples
}

// NumChannels returns the number of audio channels
func (d *OGGDecoder) NumChannels() int {
	return d.numChannels
}

// Format returns "OGG"
func (d *OGGDecoder) Format() string {
	return "OGG"
}

// Close closes the decoder and releases resources
func (d *OGGDecoder) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
