package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always outputs interleaved 16-bit little-endian stereo: L0 R0 L1 R1 ...
const (
	mp3Channels   = 2
	mp3FrameBytes = 4
)

// MP3Decoder implements AudioDecoder for MP3 files
type MP3Decoder struct {
	decoder    *mp3.Decoder
	file       *os.File
	channel    int
	sampleRate int
	numSamples int64

	buf []byte
	rem []byte // Partial frame carried over from the previous read
}

func newMP3Decoder(f *os.File, channel int) (AudioDecoder, error) {
	if err := checkChannel(channel, mp3Channels); err != nil {
		return nil, err
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create MP3 decoder: %w", err)
	}

	// Length is in bytes and only known because *os.File is seekable
	var numSamples int64
	if length := decoder.Length(); length > 0 {
		numSamples = length / mp3FrameBytes
	}

	return &MP3Decoder{
		decoder:    decoder,
		file:       f,
		channel:    channel,
		sampleRate: decoder.SampleRate(),
		numSamples: numSamples,
	}, nil
}

// ReadChunk reads up to numSamples frames and returns the selected channel
func (d *MP3Decoder) ReadChunk(numSamples int) ([]float64, error) {
	if numSamples <= 0 {
		return []float64{}, nil
	}

	need := numSamples * mp3FrameBytes
	if cap(d.buf) < need {
		d.buf = make([]byte, need)
	}
	buf := d.buf[:need]

	have := copy(buf, d.rem)
	d.rem = d.rem[:0]

	n, err := d.decoder.Read(buf[have:])
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: failed to read MP3 data: %w", ErrDecode, err)
	}
	n += have

	whole := n - n%mp3FrameBytes
	d.rem = append(d.rem, buf[whole:n]...)

	if whole == 0 {
		if err == io.EOF {
			return nil, io.EOF
		}
		return []float64{}, nil
	}

	frames := whole / mp3FrameBytes
	samples := make([]float64, frames)
	offset := d.channel * 2
	for i := 0; i < frames; i++ {
		lo := buf[i*mp3FrameBytes+offset]
		hi := buf[i*mp3FrameBytes+offset+1]
		samples[i] = float64(int16(uint16(lo)|uint16(hi)<<8)) / 32768.0
	}

	return samples, nil
}

// SampleRate returns the sample rate
func (d *MP3Decoder) SampleRate() int {
	return d.sampleRate
}

// NumSamples returns the number of frames per channel
func (d *MP3Decoder) NumSamples() int64 {
	return d.numSamples
}

// NumChannels returns the number of audio channels
func (d *MP3Decoder) NumChannels() int {
	return mp3Channels
}

// Format returns "MP3"
func (d *MP3Decoder) Format() string {
	return "MP3"
}

// Close closes the decoder and releases resources
func (d *MP3Decoder) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
