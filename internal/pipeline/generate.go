package pipeline

import (
	"context"
	"image"
	"image/color"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linuxmatters/spectrograph/internal/audio"
	"github.com/linuxmatters/spectrograph/internal/config"
	"github.com/linuxmatters/spectrograph/internal/renderer"
	"golang.org/x/sync/errgroup"
)

// Options configures Generate. Zero values select the defaults from config.
type Options struct {
	WindowSize   int
	Workers      int // 0 = runtime.NumCPU(), 1 = sequential
	Backend      audio.Backend
	TotalWindows int            // Expected column count for progress reporting; 0 if unknown
	Progress     func(Progress) // Called on the goroutine running Generate
}

// Progress is reported every config.ProgressInterval columns, plus a final
// report with Windows == TotalWindows unless the last one already was.
type Progress struct {
	Windows      int
	TotalWindows int // Never less than Windows
	Elapsed      time.Duration
	Levels       []float64 // Intensities of a recent column, lowest bin first. Read-only.
}

// Result is the assembled spectrogram plus run statistics.
type Result struct {
	Image   *image.RGBA
	Windows int
	Samples int64
	Peak    float64
	RMS     float64

	DecodeTime    time.Duration // Producer time spent reading and chunking
	TransformTime time.Duration // Summed across workers
	MapTime       time.Duration // Summed across workers
	AssembleTime  time.Duration
	Elapsed       time.Duration
}

type column struct {
	index  int
	pixels []color.RGBA
	levels []float64
}

func (o Options) withDefaults() Options {
	if o.WindowSize == 0 {
		o.WindowSize = config.WindowSize
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Backend == "" {
		o.Backend = audio.Backend(config.DefaultBackend)
	}
	return o
}

// Generate turns src into a spectrogram image of width ceil(L/N) and height
// N/2. Windows are transformed by a pool of workers, each owning its own
// Transformer; the calling goroutine collects the columns and places each
// one at x = window index, so the output does not depend on worker count.
//
// An empty source yields a zero-width image. Source errors are returned
// unchanged; cancelling ctx stops the run with ctx.Err().
func Generate(ctx context.Context, src audio.SampleSource, opts Options) (*Result, error) {
	start := time.Now()
	opts = opts.withDefaults()

	chunker, err := audio.NewChunker(src, opts.WindowSize)
	if err != nil {
		return nil, err
	}

	// Twiddle factors are prepared here, before any worker starts
	transformers := make([]audio.Transformer, opts.Workers)
	for i := range transformers {
		tr, err := audio.NewTransformer(opts.Backend, opts.WindowSize)
		if err != nil {
			return nil, err
		}
		transformers[i] = tr
	}

	height := chunker.Size() / 2
	wantLevels := opts.Progress != nil

	windows := make(chan *audio.Window, opts.Workers*2)
	columns := make(chan column, opts.Workers*2)

	var decodeNanos, transformNanos, mapNanos atomic.Int64

	g, gctx := errgroup.WithContext(ctx)

	// Producer: the chunker is only ever touched from this goroutine,
	// apart from Release which is safe for concurrent use
	g.Go(func() error {
		defer close(windows)
		for {
			t0 := time.Now()
			w, err := chunker.Next()
			decodeNanos.Add(int64(time.Since(t0)))
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}

			select {
			case windows <- w:
			case <-gctx.Done():
				chunker.Release(w)
				return gctx.Err()
			}
		}
	})

	var workers sync.WaitGroup
	for _, tr := range transformers {
		tr := tr // per-iteration copy; go.mod targets go1.21 (pre-1.22 loop semantics)
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()

			for w := range windows {
				if err := gctx.Err(); err != nil {
					chunker.Release(w)
					return err
				}

				t0 := time.Now()
				tr.Transform(w.Samples)
				t1 := time.Now()

				col := column{index: w.Index, pixels: make([]color.RGBA, height)}
				renderer.MapColumn(w.Samples, col.pixels)
				if wantLevels && w.Index%config.ProgressInterval == 0 {
					col.levels = renderer.Levels(w.Samples, nil)
				}
				t2 := time.Now()

				transformNanos.Add(int64(t1.Sub(t0)))
				mapNanos.Add(int64(t2.Sub(t1)))
				chunker.Release(w)

				select {
				case columns <- col:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		workers.Wait()
		close(columns)
	}()

	// Columns arrive in completion order and are written straight to x =
	// window index; the canvas widens as later windows show up
	canvas := renderer.NewCanvas(0, height)
	canvas.Reserve(opts.TotalWindows)
	var assembleNanos int64
	received, reported := 0, 0
	var levels []float64
	for col := range columns {
		t0 := time.Now()
		canvas.Grow(col.index + 1)
		canvas.SetColumn(col.index, col.pixels)
		assembleNanos += int64(time.Since(t0))
		received++

		if col.levels != nil {
			levels = col.levels
		}
		if opts.Progress != nil && received%config.ProgressInterval == 0 {
			reported = received
			opts.Progress(Progress{
				Windows:      received,
				TotalWindows: max(opts.TotalWindows, received),
				Elapsed:      time.Since(start),
				Levels:       levels,
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	width := chunker.Windows()
	canvas.Grow(width)

	if opts.Progress != nil && (reported != width || opts.TotalWindows > width || width == 0) {
		opts.Progress(Progress{
			Windows:      width,
			TotalWindows: width,
			Elapsed:      time.Since(start),
			Levels:       levels,
		})
	}

	return &Result{
		Image:         canvas.Image(),
		Windows:       width,
		Samples:       chunker.Samples(),
		Peak:          chunker.Peak(),
		RMS:           chunker.RMS(),
		DecodeTime:    time.Duration(decodeNanos.Load()),
		TransformTime: time.Duration(transformNanos.Load()),
		MapTime:       time.Duration(mapNanos.Load()),
		AssembleTime:  time.Duration(assembleNanos),
		Elapsed:       time.Since(start),
	}, nil
}
