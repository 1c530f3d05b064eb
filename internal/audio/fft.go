package audio

import (
	"fmt"

	"github.com/argusdusty/gofft"
	"github.com/linuxmatters/spectrograph/internal/config"
	dspfft "github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Backend names a forward FFT implementation.
type Backend string

// Available transform backends
const (
	BackendGoFFT Backend = "gofft" // argusdusty/gofft, in-place radix-2
	BackendGonum Backend = "gonum" // gonum dsp/fourier
	BackendGoDSP Backend = "godsp" // mjibson/go-dsp
)

// Backends lists every backend in a stable order.
func Backends() []Backend {
	return []Backend{BackendGoFFT, BackendGonum, BackendGoDSP}
}

// ParseBackend maps a backend name to a Backend.
func ParseBackend(name string) (Backend, error) {
	for _, b := range Backends() {
		if string(b) == name {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown FFT backend %q (available: gofft, gonum, godsp)", name)
}

// Transformer performs an in-place forward DFT on buffers of the size it was
// created with. A Transformer is not safe for concurrent use; create one per
// goroutine.
type Transformer interface {
	Transform(buf []complex128)
}

// TransformSizeError is the panic value raised when a buffer of the wrong
// length reaches a Transformer. The chunker never produces one.
type TransformSizeError struct {
	Want int
	Got  int
}

func (e *TransformSizeError) Error() string {
	return fmt.Sprintf("transform expects %d values, got %d", e.Want, e.Got)
}

func checkLength(size int, buf []complex128) {
	if len(buf) != size {
		panic(&TransformSizeError{Want: size, Got: len(buf)})
	}
}

// NewTransformer creates a Transformer for the given backend and size.
// The gonum and godsp backends prepare twiddle factors here, so create every
// Transformer before starting the goroutines that use them. gofft needs no
// preparation.
func NewTransformer(backend Backend, size int) (Transformer, error) {
	if !config.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("FFT size %d is not a power of two", size)
	}

	switch backend {
	case BackendGoFFT:
		return &gofftTransformer{size: size}, nil
	case BackendGonum:
		return &gonumTransformer{
			fft:     fourier.NewCmplxFFT(size),
			scratch: make([]complex128, size),
		}, nil
	case BackendGoDSP:
		dspfft.EnsureRadix2Factors(size)
		return &godspTransformer{size: size}, nil
	default:
		return nil, fmt.Errorf("unknown FFT backend %q", backend)
	}
}

type gofftTransformer struct {
	size int
}

func (t *gofftTransformer) Transform(buf []complex128) {
	checkLength(t.size, buf)
	if err := gofft.FFT(buf); err != nil {
		panic(fmt.Errorf("gofft: %w", err))
	}
}

type gonumTransformer struct {
	fft     *fourier.CmplxFFT
	scratch []complex128
}

func (t *gonumTransformer) Transform(buf []complex128) {
	checkLength(len(t.scratch), buf)
	t.fft.Coefficients(t.scratch, buf)
	copy(buf, t.scratch)
}

type godspTransformer struct {
	size int
}

func (t *godspTransformer) Transform(buf []complex128) {
	checkLength(t.size, buf)
	copy(buf, dspfft.FFT(buf))
}
