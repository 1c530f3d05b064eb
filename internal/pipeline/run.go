package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/linuxmatters/spectrograph/internal/audio"
	"github.com/linuxmatters/spectrograph/internal/config"
	"github.com/linuxmatters/spectrograph/internal/renderer"
)

// Source describes the opened input.
type Source struct {
	Format       string
	Tags         audio.Tags
	SampleRate   int
	Channels     int
	TotalWindows int // Estimated from the decoder length; 0 if unknown
}

// Hooks receive events from Run. Both are optional and are called on the
// goroutine running Run.
type Hooks struct {
	Start    func(Source)
	Progress func(Progress)
}

// Summary describes a completed run.
type Summary struct {
	Input      string
	Output     string
	Channel    int
	Backend    audio.Backend
	Workers    int
	WindowSize int

	Source
	*Result

	SaveTime  time.Duration
	FileSize  int64
	TotalTime time.Duration
}

// Duration returns the length of the analysed audio.
func (s *Summary) Duration() time.Duration {
	if s.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(s.Samples) / float64(s.SampleRate) * float64(time.Second))
}

// Run decodes s.Input, renders its spectrogram and writes it to s.Output.
// Failures are returned as *StageError, except invalid settings and
// cancellation which are returned as-is.
func Run(ctx context.Context, s config.Settings, hooks Hooks) (*Summary, error) {
	start := time.Now()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	backend, err := audio.ParseBackend(s.Backend)
	if err != nil {
		return nil, err
	}

	// Reject an unwritable format before spending time on the transform
	if err := renderer.CheckFormat(s.Output); err != nil {
		return nil, stageErr(StageWrite, err)
	}

	dec, err := audio.NewDecoder(s.Input, s.Channel)
	if err != nil {
		if errors.Is(err, audio.ErrInputAccess) {
			return nil, stageErr(StageRead, err)
		}
		return nil, stageErr(StageDecode, err)
	}
	defer dec.Close()

	src := Source{
		Format:     dec.Format(),
		Tags:       audio.ReadTags(s.Input),
		SampleRate: dec.SampleRate(),
		Channels:   dec.NumChannels(),
	}
	if n := dec.NumSamples(); n > 0 {
		src.TotalWindows = int((n + int64(s.WindowSize) - 1) / int64(s.WindowSize))
	}
	if hooks.Start != nil {
		hooks.Start(src)
	}

	result, err := Generate(ctx, dec, Options{
		WindowSize:   s.WindowSize,
		Workers:      s.WorkerCount(),
		Backend:      backend,
		TotalWindows: src.TotalWindows,
		Progress:     hooks.Progress,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, stageErr(StageDecode, err)
	}

	saveStart := time.Now()
	if err := renderer.Save(s.Output, result.Image); err != nil {
		return nil, stageErr(StageWrite, fmt.Errorf("%s: %w", s.Output, err))
	}
	saveTime := time.Since(saveStart)

	var fileSize int64
	if info, err := os.Stat(s.Output); err == nil {
		fileSize = info.Size()
	}

	return &Summary{
		Input:      s.Input,
		Output:     s.Output,
		Source:     src,
		Channel:    s.Channel,
		Backend:    backend,
		Workers:    s.WorkerCount(),
		WindowSize: s.WindowSize,
		Result:     result,
		SaveTime:   saveTime,
		FileSize:   fileSize,
		TotalTime:  time.Since(start),
	}, nil
}
