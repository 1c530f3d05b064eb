// bench-fft is a standalone benchmark for the spectrogram transform backends.
// Designed to be called by hyperfine for statistical analysis.
//
// Usage:
//
//	bench-fft [--iterations N] [--impl gofft|gonum|godsp] [--size N]
//	bench-fft --mode pipeline [--windows N] [--workers N] [--impl ...]
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/linuxmatters/spectrograph/internal/audio"
	"github.com/linuxmatters/spectrograph/internal/config"
	"github.com/linuxmatters/spectrograph/internal/pipeline"
)

// testSignal is a chirp with a little harmonic content, so every bin does
// some work and nothing is trivially zero.
func testSignal(n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / 44100
		samples[i] = 0.6*math.Sin(2*math.Pi*(220+2000*t)*t) + 0.2*math.Sin(2*math.Pi*3520*t)
	}
	return samples
}

func benchTransform(backend audio.Backend, size, iterations int) error {
	tr, err := audio.NewTransformer(backend, size)
	if err != nil {
		return err
	}

	signal := testSignal(size)
	buf := make([]complex128, size)

	start := time.Now()
	for i := 0; i < iterations; i++ {
		for j, s := range signal {
			buf[j] = complex(s, 0)
		}
		tr.Transform(buf)
	}
	elapsed := time.Since(start)

	fmt.Printf("%-6s size=%d iterations=%d  %v/transform\n",
		backend, size, iterations, elapsed/time.Duration(max(iterations, 1)))
	return nil
}

func benchPipeline(backend audio.Backend, windows, workers int) error {
	signal := testSignal(windows * config.WindowSize)

	result, err := pipeline.Generate(context.Background(), audio.NewSliceSource(signal), pipeline.Options{
		Workers: workers,
		Backend: backend,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%-6s windows=%d workers=%d  total %v  (transform %v, mapping %v, assembly %v)\n",
		backend, result.Windows, workers, result.Elapsed,
		result.TransformTime, result.MapTime, result.AssembleTime)
	return nil
}

func main() {
	iterations := flag.Int("iterations", 1000, "number of transforms to perform")
	impl := flag.String("impl", config.DefaultBackend, "implementation: gofft, gonum or godsp")
	size := flag.Int("size", config.WindowSize, "transform length (power of two)")
	mode := flag.String("mode", "transform", "transform: single-window loop; pipeline: full Generate run")
	windows := flag.Int("windows", 2000, "pipeline mode: number of windows to render")
	workers := flag.Int("workers", 0, "pipeline mode: worker count (0 = all CPUs)")
	flag.Parse()

	backend, err := audio.ParseBackend(*impl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	switch *mode {
	case "transform":
		err = benchTransform(backend, *size, *iterations)
	case "pipeline":
		err = benchPipeline(backend, *windows, *workers)
	default:
		err = fmt.Errorf("unknown mode: %s (use 'transform' or 'pipeline')", *mode)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
