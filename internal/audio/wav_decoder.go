package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV format tags accepted by the decoder. Extensible files carry integer
// PCM in every case go-audio/wav can read.
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// WAVDecoder implements AudioDecoder for WAV files
type WAVDecoder struct {
	decoder    *wav.Decoder
	file       *os.File
	channel    int
	sampleRate int
	bitDepth   int
	numChans   int
	numSamples int64
	intBuf     *audio.IntBuffer
}

func newWAVDecoder(f *os.File, channel int) (AudioDecoder, error) {
	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}

	// Get format info without reading all samples
	if err := decoder.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to seek to PCM data: %w", err)
	}

	// go-audio/wav reads every payload as integers; float data would decode as noise
	switch decoder.WavAudioFormat {
	case wavFormatPCM, wavFormatExtensible:
	default:
		return nil, fmt.Errorf("unsupported WAV encoding (format tag %d), only integer PCM is supported",
			decoder.WavAudioFormat)
	}

	numChans := int(decoder.NumChans)
	bitDepth := int(decoder.BitDepth)
	if numChans == 0 || bitDepth < 8 || bitDepth%8 != 0 {
		return nil, fmt.Errorf("invalid WAV format: %d channels, %d bits", numChans, bitDepth)
	}
	if err := checkChannel(channel, numChans); err != nil {
		return nil, err
	}

	// PCMLen gives us the length of PCM data in bytes
	bytesPerSample := int64(bitDepth / 8)
	numSamples := decoder.PCMLen() / (bytesPerSample * int64(numChans))

	return &WAVDecoder{
		decoder:    decoder,
		file:       f,
		channel:    channel,
		sampleRate: int(decoder.SampleRate),
		bitDepth:   bitDepth,
		numChans:   numChans,
		numSamples: numSamples,
	}, nil
}

// ReadChunk reads up to numSamples frames and returns the selected channel
func (d *WAVDecoder) ReadChunk(numSamples int) ([]float64, error) {
	// Interleaved data needs numSamples × numChannels slots
	bufSize := numSamples * d.numChans
	if d.intBuf == nil || cap(d.intBuf.Data) < bufSize {
		d.intBuf = &audio.IntBuffer{
			Data: make([]int, bufSize),
			Format: &audio.Format{
				NumChannels: d.numChans,
				SampleRate:  d.sampleRate,
			},
		}
	}
	d.intBuf.Data = d.intBuf.Data[:bufSize]

	n, err := d.decoder.PCMBuffer(d.intBuf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: failed to read PCM buffer: %w", ErrDecode, err)
	}

	frames := n / d.numChans
	if frames == 0 {
		return nil, io.EOF
	}

	maxVal := float64(audio.IntMaxSignedValue(d.bitDepth))
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		v := d.intBuf.Data[i*d.numChans+d.channel]
		if d.bitDepth == 8 {
			// 8-bit WAV is unsigned
			v -= 128
		}
		samples[i] = float64(v) / maxVal
	}

	return samples, nil
}

// SampleRate returns the sample rate
func (d *WAVDecoder) SampleRate() int {
	return d.sampleRate
}

// NumSamples returns the number of frames per channel
func (d *WAVDecoder) NumSamples() int64 {
	return d.numSamples
}

// NumChannels returns the number of audio channels
func (d *WAVDecoder) NumChannels() int {
	return d.numChans
}

// Format returns "WAV"
func (d *WAVDecoder) Format() string {
	return "WAV"
}

// Close closes the decoder and releases resources
func (d *WAVDecoder) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
