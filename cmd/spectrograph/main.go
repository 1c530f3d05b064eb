package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/spectrograph/internal/audio"
	"github.com/linuxmatters/spectrograph/internal/cli"
	"github.com/linuxmatters/spectrograph/internal/config"
	"github.com/linuxmatters/spectrograph/internal/pipeline"
	"github.com/linuxmatters/spectrograph/internal/ui"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

// options are the command-line arguments
type options struct {
	Input      string      `arg:"" name:"input" help:"Input audio file"`
	Output     string      `arg:"" name:"output" help:"Output image file" optional:"" default:"${default_output}"`
	Channel    int         `help:"Channel to analyse (0 = left)" default:"${default_channel}" placeholder:"n" group:"analysis"`
	WindowSize int         `help:"Samples per column, a power of two; the image is half as tall" default:"${default_window}" placeholder:"n" group:"analysis"`
	FFT        string      `name:"fft" help:"Transform backend: ${enum}" enum:"${backends}" default:"${default_backend}" placeholder:"name" group:"analysis"`
	Workers    int         `help:"Transform workers (0 = all CPUs)" default:"0" placeholder:"n" group:"analysis"`
	NoProgress bool        `help:"Plain output instead of the interactive progress view" group:"display"`
	NoPreview  bool        `help:"Skip the terminal preview of the finished image" group:"display"`
	Version    versionFlag `help:"Show version information"`
}

// versionFlag prints the version before required arguments are checked
type versionFlag bool

func (versionFlag) BeforeReset(app *kong.Kong) error {
	cli.PrintVersion(version)
	app.Exit(0)
	return nil
}

func newParser(opts *options, extra ...kong.Option) (*kong.Kong, error) {
	return kong.New(opts, append([]kong.Option{
		kong.Name("spectrograph"),
		kong.Description(cli.AppDescription),
		kong.Vars{
			"default_output":  config.DefaultOutput,
			"default_channel": fmt.Sprint(config.DefaultChannel),
			"default_window":  fmt.Sprint(config.WindowSize),
			"default_backend": config.DefaultBackend,
			"backends":        backendList(),
		},
		kong.Groups{
			"analysis": "Analysis:",
			"display":  "Display:",
		},
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	}, extra...)...)
}

func main() {
	var opts options
	parser, err := newParser(&opts)
	if err != nil {
		panic(err)
	}
	_, err = parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	settings := config.Settings{
		Input:      opts.Input,
		Output:     opts.Output,
		Channel:    opts.Channel,
		WindowSize: opts.WindowSize,
		Workers:    opts.Workers,
		Backend:    opts.FFT,
		NoProgress: opts.NoProgress,
	}
	if err := settings.Validate(); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if settings.NoProgress {
		err = runPlain(runCtx, settings)
	} else {
		err = runInteractive(runCtx, stop, settings, opts.NoPreview)
	}
	if err != nil {
		cli.PrintError(describeError(err))
		stop()
		os.Exit(1)
	}
}

func backendList() string {
	names := make([]string, 0, len(audio.Backends()))
	for _, b := range audio.Backends() {
		names = append(names, string(b))
	}
	return strings.Join(names, ",")
}

// describeError prefixes pipeline failures with the stage that failed
func describeError(err error) string {
	if errors.Is(err, context.Canceled) {
		return "interrupted, no image written"
	}
	var se *pipeline.StageError
	if errors.As(err, &se) {
		return fmt.Sprintf("%s stage: %v", se.Stage, se.Err)
	}
	return err.Error()
}

func runPlain(ctx context.Context, settings config.Settings) error {
	cli.PrintBanner()
	cli.PrintInfo("Input", settings.Input)

	summary, err := pipeline.Run(ctx, settings, pipeline.Hooks{
		Start: func(src pipeline.Source) {
			cli.PrintInfo("Audio", fmt.Sprintf("%s, %s %d Hz, channel %d of %d",
				src.Tags, src.Format, src.SampleRate, settings.Channel, src.Channels))
			if src.Channels > 1 {
				cli.PrintWarning(fmt.Sprintf("only channel %d is analysed; channels are not mixed", settings.Channel))
			}
		},
	})
	if err != nil {
		return err
	}

	cli.PrintSuccess(fmt.Sprintf("wrote %s", summary.Output))
	cli.PrintSummary("Spectrogram Complete!", []cli.SummaryLine{
		{Key: "Output", Value: summary.Output},
		{Key: "Image", Value: fmt.Sprintf("%d × %d pixels", summary.Image.Bounds().Dx(), summary.Image.Bounds().Dy())},
		{Key: "Audio", Value: fmt.Sprintf("%d samples, %s", summary.Samples, cli.FormatDuration(summary.Duration()))},
		{Key: "Transform", Value: fmt.Sprintf("%s, %d workers", summary.Backend, summary.Workers)},
		{Key: "Speed", Value: cli.FormatSpeed(summary.Duration(), summary.TotalTime)},
		{Key: "File Size", Value: cli.FormatBytes(summary.FileSize)},
		{Key: "Total", Value: cli.FormatDuration(summary.TotalTime)},
	})
	return nil
}

func runInteractive(ctx context.Context, cancel context.CancelFunc, settings config.Settings, noPreview bool) error {
	model := ui.NewModel(noPreview, cancel)
	p := tea.NewProgram(model)

	showUI := func() error {
		_, err := p.Run()
		return err
	}

	summary, err := awaitRun(showUI, cancel, func() (*pipeline.Summary, error) {
		summary, err := pipeline.Run(ctx, settings, pipeline.Hooks{
			Start: func(src pipeline.Source) {
				p.Send(ui.SourceInfo{
					Title:      src.Tags.String(),
					Format:     src.Format,
					SampleRate: src.SampleRate,
					Channels:   src.Channels,
					Channel:    settings.Channel,
					Backend:    settings.Backend,
					Workers:    settings.WorkerCount(),
					WindowSize: settings.WindowSize,
				})
			},
			Progress: func(pr pipeline.Progress) {
				p.Send(ui.RenderProgress{
					Windows:      pr.Windows,
					TotalWindows: pr.TotalWindows,
					Elapsed:      pr.Elapsed,
					Levels:       pr.Levels,
				})
			},
		})
		if err != nil {
			p.Send(ui.RenderFailed{Err: err})
			return nil, err
		}

		p.Send(ui.RenderComplete{
			OutputFile:    summary.Output,
			FileSize:      summary.FileSize,
			Width:         summary.Image.Bounds().Dx(),
			Height:        summary.Image.Bounds().Dy(),
			Samples:       summary.Samples,
			AudioDuration: summary.Duration(),
			Peak:          summary.Peak,
			RMS:           summary.RMS,
			DecodeTime:    summary.DecodeTime,
			TransformTime: summary.TransformTime,
			MapTime:       summary.MapTime,
			AssembleTime:  summary.AssembleTime,
			SaveTime:      summary.SaveTime,
			TotalTime:     summary.TotalTime,
			Image:         summary.Image,
		})
		return summary, nil
	})
	if err != nil {
		return err
	}

	// Ctrl+C after the transform finished does not stop the save, so the
	// image may exist even though the UI quit early
	if model.Interrupted() {
		cli.PrintWarning(fmt.Sprintf("interrupted, but %s was already written", summary.Output))
	}
	return nil
}

// awaitRun runs work alongside the blocking showUI and returns only once
// work has finished, so the process never exits with a save in flight. A UI
// failure cancels the run.
func awaitRun(showUI func() error, cancel context.CancelFunc, work func() (*pipeline.Summary, error)) (*pipeline.Summary, error) {
	type outcome struct {
		summary *pipeline.Summary
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		summary, err := work()
		done <- outcome{summary, err}
	}()

	uiErr := showUI()
	if uiErr != nil {
		cancel()
	}
	res := <-done
	if uiErr != nil {
		return nil, fmt.Errorf("running UI: %w", uiErr)
	}
	return res.summary, res.err
}
