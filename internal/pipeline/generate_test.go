package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"math"
	"math/rand"
	"testing"

	"github.com/linuxmatters/spectrograph/internal/audio"
)

func noise(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = rng.Float64()*2 - 1
	}
	return samples
}

func tone(n, size, cycles int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * float64(cycles) * float64(i) / float64(size))
	}
	return samples
}

func generate(t *testing.T, samples []float64, opts Options) *Result {
	t.Helper()

	result, err := Generate(context.Background(), audio.NewSliceSource(samples), opts)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return result
}

func TestGenerate_Dimensions(t *testing.T) {
	const size = 64

	testCases := []struct {
		length    int
		wantWidth int
	}{
		{0, 0},
		{1, 1},
		{size, 1},
		{size + 1, 2},
		{5*size + 3, 6},
	}

	for _, tc := range testCases {
		result := generate(t, noise(tc.length, 1), Options{WindowSize: size, Workers: 3})

		b := result.Image.Bounds()
		if b.Dx() != tc.wantWidth || b.Dy() != size/2 {
			t.Errorf("length %d: image %dx%d, want %dx%d", tc.length, b.Dx(), b.Dy(), tc.wantWidth, size/2)
		}
		if result.Windows != tc.wantWidth {
			t.Errorf("length %d: Windows = %d, want %d", tc.length, result.Windows, tc.wantWidth)
		}
		if result.Samples != int64(tc.length) {
			t.Errorf("length %d: Samples = %d", tc.length, result.Samples)
		}
	}
}

// TestGenerate_DefaultWindowSize checks the zero Options value gives the
// 4096-sample window and a 2048-row image.
func TestGenerate_DefaultWindowSize(t *testing.T) {
	result := generate(t, noise(10000, 2), Options{})

	b := result.Image.Bounds()
	if b.Dx() != 3 || b.Dy() != 2048 {
		t.Errorf("image %dx%d, want 3x2048", b.Dx(), b.Dy())
	}
}

// TestGenerate_DeterministicAcrossWorkers verifies the encoded output is
// byte-identical whatever the worker count.
func TestGenerate_DeterministicAcrossWorkers(t *testing.T) {
	const size = 256
	samples := noise(size*40+77, 42)

	var reference []byte
	for _, workers := range []int{1, 2, 3, 8} {
		result := generate(t, samples, Options{WindowSize: size, Workers: workers})

		var buf bytes.Buffer
		if err := png.Encode(&buf, result.Image); err != nil {
			t.Fatalf("png.Encode failed: %v", err)
		}

		if reference == nil {
			reference = buf.Bytes()
			continue
		}
		if !bytes.Equal(reference, buf.Bytes()) {
			t.Errorf("workers=%d produced different output from workers=1", workers)
		}
	}
}

// TestGenerate_PureTone checks the brightest pixel of every column sits on
// row N/2-1-k for a tone completing k cycles per window.
func TestGenerate_PureTone(t *testing.T) {
	const (
		size   = 256
		cycles = 16
	)
	result := generate(t, tone(size*4, size, cycles), Options{WindowSize: size, Workers: 2})

	img := result.Image
	wantRow := size/2 - 1 - cycles
	for x := 0; x < 4; x++ {
		brightest, brightestR := -1, -1
		for y := 0; y < size/2; y++ {
			if r := int(img.RGBAAt(x, y).R); r > brightestR {
				brightest, brightestR = y, r
			}
		}
		if brightest != wantRow {
			t.Errorf("column %d: brightest row %d, want %d", x, brightest, wantRow)
		}
		// |X| = N/2 = 128, log10(129) * 100 = 211.06
		if brightestR != 211 {
			t.Errorf("column %d: peak red %d, want 211", x, brightestR)
		}
	}
}

// TestGenerate_PaddingEquivalence compares a stream of N+k samples with the
// same stream explicitly zero-padded to 2N.
func TestGenerate_PaddingEquivalence(t *testing.T) {
	const (
		size = 128
		k    = 37
	)
	samples := noise(size+k, 7)
	padded := append(append([]float64(nil), samples...), make([]float64, size-k)...)

	a := generate(t, samples, Options{WindowSize: size, Workers: 1})
	b := generate(t, padded, Options{WindowSize: size, Workers: 1})

	if !bytes.Equal(a.Image.Pix, b.Image.Pix) {
		t.Error("implicit and explicit padding produced different images")
	}
}

// TestGenerate_TotalWindowsEstimate checks the image is placed directly into
// a canvas sized from the estimate, and that a wrong estimate in either
// direction only changes how often the canvas grows.
func TestGenerate_TotalWindowsEstimate(t *testing.T) {
	const size = 64
	samples := noise(11*size+5, 13)

	reference := generate(t, samples, Options{WindowSize: size, Workers: 3})
	if reference.Windows != 12 {
		t.Fatalf("reference has %d windows, want 12", reference.Windows)
	}

	for _, total := range []int{1, 5, 12, 13, 100} {
		result := generate(t, samples, Options{WindowSize: size, Workers: 3, TotalWindows: total})

		img := result.Image
		if b := img.Bounds(); b.Dx() != 12 || b.Dy() != size/2 {
			t.Fatalf("TotalWindows=%d: image %dx%d, want 12x%d", total, b.Dx(), b.Dy(), size/2)
		}
		if img.Stride != 12*4 {
			t.Errorf("TotalWindows=%d: stride %d, want %d", total, img.Stride, 12*4)
		}
		if !bytes.Equal(img.Pix, reference.Image.Pix) {
			t.Errorf("TotalWindows=%d: image differs from the unestimated run", total)
		}
	}
}

func TestGenerate_Silence(t *testing.T) {
	result := generate(t, make([]float64, 300), Options{WindowSize: 64, Workers: 2})

	for i := 0; i < len(result.Image.Pix); i += 4 {
		p := result.Image.Pix[i : i+4]
		if p[0] != 0 || p[1] != 0 || p[2] != 0 || p[3] != 255 {
			t.Fatalf("silent input produced pixel %v", p)
		}
	}
}

// TestGenerate_BackendsAgree allows one step of difference per channel,
// since rounding can push a value across an integer boundary.
func TestGenerate_BackendsAgree(t *testing.T) {
	const size = 512
	samples := noise(size*6, 11)

	reference := generate(t, samples, Options{WindowSize: size, Backend: audio.BackendGoFFT})
	for _, backend := range []audio.Backend{audio.BackendGonum, audio.BackendGoDSP} {
		result := generate(t, samples, Options{WindowSize: size, Backend: backend})
		for i, v := range result.Image.Pix {
			d := int(v) - int(reference.Image.Pix[i])
			if d < -1 || d > 1 {
				t.Fatalf("%s: byte %d is %d, gofft gave %d", backend, i, v, reference.Image.Pix[i])
			}
		}
	}
}

func TestGenerate_Progress(t *testing.T) {
	const size = 32

	var reports []Progress
	generate(t, noise(size*20, 3), Options{
		WindowSize:   size,
		Workers:      1,
		TotalWindows: 20,
		Progress:     func(p Progress) { reports = append(reports, p) },
	})

	want := []int{8, 16, 20}
	if len(reports) != len(want) {
		t.Fatalf("got %d progress reports, want %d", len(reports), len(want))
	}
	for i, p := range reports {
		if p.Windows != want[i] {
			t.Errorf("report %d: Windows = %d, want %d", i, p.Windows, want[i])
		}
		if p.TotalWindows != 20 {
			t.Errorf("report %d: TotalWindows = %d, want 20", i, p.TotalWindows)
		}
		if len(p.Levels) != size/2 {
			t.Errorf("report %d: %d levels, want %d", i, len(p.Levels), size/2)
		}
	}
}

// TestGenerate_ProgressUnknownTotal never reports a total below the count.
func TestGenerate_ProgressUnknownTotal(t *testing.T) {
	var last Progress
	generate(t, noise(32*9, 4), Options{
		WindowSize: 32,
		Progress: func(p Progress) {
			if p.TotalWindows < p.Windows {
				t.Errorf("TotalWindows %d below Windows %d", p.TotalWindows, p.Windows)
			}
			last = p
		},
	})

	if last.Windows != 9 || last.TotalWindows != 9 {
		t.Errorf("final report %+v, want 9 of 9", last)
	}
}

type brokenSource struct {
	src   *audio.SliceSource
	after int
	read  int
}

var errStream = errors.New("corrupt frame")

func (b *brokenSource) ReadChunk(n int) ([]float64, error) {
	if b.read >= b.after {
		return nil, errStream
	}
	chunk, err := b.src.ReadChunk(n)
	b.read += len(chunk)
	return chunk, err
}

func TestGenerate_SourceError(t *testing.T) {
	src := &brokenSource{src: audio.NewSliceSource(noise(10000, 5)), after: 1000}

	_, err := Generate(context.Background(), src, Options{WindowSize: 64, Workers: 4})
	if !errors.Is(err, errStream) {
		t.Fatalf("error = %v, want %v", err, errStream)
	}
}

// endless produces a tone forever so only cancellation can end a run.
type endless struct{ pos int }

func (e *endless) ReadChunk(n int) ([]float64, error) {
	chunk := make([]float64, n)
	for i := range chunk {
		chunk[i] = math.Sin(float64(e.pos+i) * 0.1)
	}
	e.pos += n
	return chunk, nil
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := Generate(ctx, &endless{}, Options{
		WindowSize: 64,
		Workers:    4,
		Progress:   func(Progress) { cancel() },
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestGenerate_InvalidOptions(t *testing.T) {
	src := audio.NewSliceSource(noise(100, 1))

	if _, err := Generate(context.Background(), src, Options{WindowSize: 100}); err == nil {
		t.Error("expected error for non power-of-two window")
	}
	if _, err := Generate(context.Background(), src, Options{Backend: "fftw"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
