package renderer

import (
	"fmt"
	"image/color"
	"math"
	"math/cmplx"

	"github.com/linuxmatters/spectrograph/internal/config"
)

// Level returns the log-compressed intensity log10(|x|+1) of one bin.
func Level(x complex128) float64 {
	return math.Log10(cmplx.Abs(x) + 1)
}

// ScaleColor maps an intensity to the spectrogram palette:
// red = v*RedScale, green = 0, blue = v*BlueScale, fully opaque.
// Channels saturate at 255 instead of wrapping.
func ScaleColor(v float64) color.RGBA {
	return color.RGBA{
		R: saturate(v * config.RedScale),
		G: 0,
		B: saturate(v * config.BlueScale),
		A: 255,
	}
}

// MapColumn colours the lower half of a spectrum into col, which must hold
// exactly len(spectrum)/2 entries. col[0] is the lowest frequency bin.
// Bins at or above N/2 mirror the lower half for real input and are skipped.
func MapColumn(spectrum []complex128, col []color.RGBA) {
	half := len(spectrum) / 2
	if len(col) != half {
		panic(fmt.Sprintf("renderer: column has %d entries, spectrum of %d needs %d", len(col), len(spectrum), half))
	}

	for y := 0; y < half; y++ {
		col[y] = ScaleColor(Level(spectrum[y]))
	}
}

// Levels writes the intensity of the lower half of spectrum into dst and
// returns the filled slice. It feeds the live terminal preview.
func Levels(spectrum []complex128, dst []float64) []float64 {
	half := len(spectrum) / 2
	if cap(dst) < half {
		dst = make([]float64, half)
	}
	dst = dst[:half]

	for y := range dst {
		dst[y] = Level(spectrum[y])
	}
	return dst
}

// saturate truncates toward zero and clamps to [0, 255]. NaN maps to 0.
func saturate(x float64) uint8 {
	switch {
	case math.IsNaN(x), x <= 0:
		return 0
	case x >= 255:
		return 255
	default:
		return uint8(x)
	}
}
