package ui

import (
	"context"
	"fmt"
	"image"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/spectrograph/internal/cli"
)

// Phase represents the current processing phase
type Phase int

const (
	PhaseRendering Phase = iota
	PhaseComplete
	PhaseFailed
)

// SourceInfo describes the input once the decoder is open
type SourceInfo struct {
	Title      string
	Format     string
	SampleRate int
	Channels   int
	Channel    int
	Backend    string
	Workers    int
	WindowSize int
}

// RenderProgress represents progress updates from the transform workers
type RenderProgress struct {
	Windows      int
	TotalWindows int
	Elapsed      time.Duration
	Levels       []float64 // Intensity per frequency bin, lowest first
}

// RenderComplete signals the image has been written
type RenderComplete struct {
	OutputFile    string
	FileSize      int64
	Width         int
	Height        int
	Samples       int64
	AudioDuration time.Duration
	Peak          float64
	RMS           float64
	DecodeTime    time.Duration
	TransformTime time.Duration // Summed across workers
	MapTime       time.Duration // Summed across workers
	AssembleTime  time.Duration
	SaveTime      time.Duration
	TotalTime     time.Duration
	Image         *image.RGBA
}

// RenderFailed signals the run stopped with an error
type RenderFailed struct {
	Err error
}

// progressQuitMsg is sent when it's time to quit after showing completion
type progressQuitMsg struct{}

// Model implements the Bubbletea model for a spectrogram run
type Model struct {
	progressBar progress.Model
	summaryBar  progress.Model
	phase       Phase
	cancel      context.CancelFunc

	source      *SourceInfo
	renderState RenderProgress
	complete    *RenderComplete
	err         error

	startTime time.Time

	// UI state
	width           int
	noPreview       bool
	cachedPreview   string
	completionDelay time.Duration
	interrupted     bool
}

// NewModel creates a progress UI model. cancel is called when the user
// presses Ctrl+C so the pipeline can stop.
func NewModel(noPreview bool, cancel context.CancelFunc) *Model {
	// Spectrogram gradient: plum → magenta
	p := progress.New(
		progress.WithGradient(string(cli.Plum), string(cli.Magenta)),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	// Smaller progress bar for summary performance charts
	summaryBar := progress.New(
		progress.WithGradient(string(cli.Plum), string(cli.Magenta)),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)

	return &Model{
		progressBar:     p,
		summaryBar:      summaryBar,
		phase:           PhaseRendering,
		cancel:          cancel,
		startTime:       time.Now(),
		completionDelay: 2 * time.Second,
		noPreview:       noPreview,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(10, min(msg.Width-30, 50))
		return m, nil

	case SourceInfo:
		m.source = &msg
		return m, nil

	case RenderProgress:
		m.renderState = msg
		return m, nil

	case RenderComplete:
		m.complete = &msg
		m.phase = PhaseComplete
		if !m.noPreview && msg.Image != nil {
			m.cachedPreview = RenderPreview(msg.Image)
		}

		return m, tea.Tick(m.completionDelay, func(t time.Time) tea.Msg {
			return progressQuitMsg{}
		})

	case RenderFailed:
		m.err = msg.Err
		m.phase = PhaseFailed
		return m, tea.Quit

	case progressQuitMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if m.complete != nil {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+c" {
			m.interrupted = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the UI
func (m *Model) View() string {
	switch m.phase {
	case PhaseComplete:
		return m.renderComplete()
	case PhaseFailed:
		// The error itself is printed by the caller once the program exits
		return ""
	}
	return m.renderProgress()
}

// Interrupted reports whether the user pressed Ctrl+C.
func (m *Model) Interrupted() bool {
	return m.interrupted
}

func (m *Model) renderProgress() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.Magenta).
		Render(cli.AppName)

	s.WriteString(title)
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Foreground(cli.Rose).Render("Rendering spectrogram"))
	s.WriteString("\n\n")

	m.renderSource(&s)
	s.WriteString("\n\n")
	m.renderRenderingProgress(&s)

	if len(m.renderState.Levels) > 0 {
		s.WriteString("\n\n")
		s.WriteString(lipgloss.NewStyle().Foreground(cli.Rose).Render("Live Spectrum:"))
		s.WriteString("\n")

		spectrumWidth := 64
		if m.width > 10 {
			spectrumWidth = min(m.width-10, 64)
		}
		s.WriteString(renderSpectrum(m.renderState.Levels, spectrumWidth))
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(cli.Hot).
		Padding(1, 2).
		Render(s.String())
}

func (m *Model) renderSource(s *strings.Builder) {
	labelStyle := lipgloss.NewStyle().Faint(true)
	headerStyle := lipgloss.NewStyle().Faint(true).Bold(true)

	s.WriteString(headerStyle.Render("Audio"))
	s.WriteString(" │ ")

	if m.source == nil {
		s.WriteString(lipgloss.NewStyle().Faint(true).Italic(true).Render("Opening..."))
		return
	}

	s.WriteString(m.source.Title)
	s.WriteString("  ")
	s.WriteString(labelStyle.Render(fmt.Sprintf("%s %d Hz, channel %d of %d",
		m.source.Format, m.source.SampleRate, m.source.Channel, m.source.Channels)))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render("FFT  "))
	s.WriteString(" │ ")
	s.WriteString(labelStyle.Render(fmt.Sprintf("%s, %d-sample windows, %d workers",
		m.source.Backend, m.source.WindowSize, m.source.Workers)))
}

func (m *Model) renderRenderingProgress(s *strings.Builder) {
	state := m.renderState
	if state.Windows == 0 {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Starting render..."))
		return
	}

	elapsed := state.Elapsed
	if elapsed == 0 {
		elapsed = time.Since(m.startTime)
	}

	if state.TotalWindows == 0 {
		// Length unknown, show window count with elapsed time
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Rendering..."))
		s.WriteString(fmt.Sprintf("  %d windows  │  Elapsed: %s", state.Windows, formatDuration(elapsed)))
		return
	}

	percent := float64(state.Windows) / float64(state.TotalWindows)
	s.WriteString("Progress: ")
	s.WriteString(m.progressBar.ViewAs(percent))
	s.WriteString(fmt.Sprintf("  %d%%", int(percent*100)))
	s.WriteString("\n\n")

	var estimatedTotal, eta time.Duration
	var speed float64
	if percent > 0 {
		estimatedTotal = time.Duration(float64(elapsed) / percent)
		eta = estimatedTotal - elapsed
	}
	if m.source != nil && m.source.SampleRate > 0 && elapsed > 0 {
		audioSoFar := float64(state.Windows*m.source.WindowSize) / float64(m.source.SampleRate)
		speed = audioSoFar / elapsed.Seconds()
	}

	timingInfo := fmt.Sprintf("Time: %s / %s  │  Speed: %.1fx realtime  │  ETA: %s",
		formatDuration(elapsed),
		formatDuration(estimatedTotal),
		speed,
		formatDuration(eta))

	s.WriteString(lipgloss.NewStyle().Faint(true).Render(timingInfo))
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Faint(true).Italic(true).Render(
		fmt.Sprintf("Window %d of %d", state.Windows, state.TotalWindows)))
}

func (m *Model) renderComplete() string {
	var s strings.Builder
	c := m.complete

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.Magenta).
		Render("✓ Spectrogram Complete!")

	s.WriteString(title)
	s.WriteString("\n\n")

	dimLabel := lipgloss.NewStyle().Faint(true)

	s.WriteString(fmt.Sprintf("%s%s\n", dimLabel.Render("Output:   "), c.OutputFile))
	s.WriteString(fmt.Sprintf("%s%d × %d pixels\n", dimLabel.Render("Image:    "), c.Width, c.Height))
	s.WriteString(fmt.Sprintf("%s%d samples, %.1fs\n", dimLabel.Render("Audio:    "), c.Samples, c.AudioDuration.Seconds()))
	s.WriteString(fmt.Sprintf("%s%s peak, %s RMS\n", dimLabel.Render("Levels:   "), formatDB(c.Peak), formatDB(c.RMS)))
	s.WriteString(fmt.Sprintf("%s%s\n\n", dimLabel.Render("Size:     "), formatBytes(c.FileSize)))

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(cli.Rose)
	labelStyle := lipgloss.NewStyle().Faint(true)
	valueStyle := lipgloss.NewStyle()
	highlightValueStyle := lipgloss.NewStyle().Foreground(cli.Hot)

	// Worker stages are summed across goroutines, so the bars are relative
	// to the sum of all stages rather than to wall time
	s.WriteString(headerStyle.Render("Stage Breakdown"))
	s.WriteString("\n")

	stages := []struct {
		label string
		d     time.Duration
	}{
		{"Decoding:", c.DecodeTime},
		{"Transform:", c.TransformTime},
		{"Colour mapping:", c.MapTime},
		{"Assembly:", c.AssembleTime},
		{"Writing:", c.SaveTime},
	}

	var sum time.Duration
	for _, st := range stages {
		sum += st.d
	}
	if sum == 0 {
		sum = 1
	}

	for _, st := range stages {
		ratio := float64(st.d) / float64(sum)
		s.WriteString(fmt.Sprintf("  %s%s (~%2d%%)  %s\n",
			labelStyle.Render(fmt.Sprintf("%-18s", st.label)),
			valueStyle.Render(fmt.Sprintf("~%-6s", formatDuration(st.d))),
			int(ratio*100),
			m.summaryBar.ViewAs(ratio)))
	}

	s.WriteString(fmt.Sprintf("  %s%s", labelStyle.Render(fmt.Sprintf("%-18s", "Total time:")), highlightValueStyle.Render(formatDuration(c.TotalTime))))

	if m.cachedPreview != "" {
		s.WriteString("\n\n")
		s.WriteString(m.cachedPreview)
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(cli.Rose).
		Padding(1, 1).
		Render(s.String()) + "\n"
}

// Helper functions

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatBytes(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}

	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}

// formatDB formats a linear sample level in dBFS
func formatDB(level float64) string {
	if level <= 0 || math.IsNaN(level) {
		return "-inf dB"
	}
	return fmt.Sprintf("%.1f dB", 20*math.Log10(level))
}

// spectrumColors runs along the image palette from low to high intensity
var spectrumColors = []lipgloss.Color{
	lipgloss.Color("#320019"),
	cli.Plum,
	cli.Berry,
	cli.Rose,
	lipgloss.Color("#E10070"),
	cli.Hot,
	lipgloss.Color("#FF00BF"),
	cli.Magenta,
}

// renderSpectrum draws per-bin intensities as a two-row block chart,
// bass on the left. Heights are normalised to the loudest bin shown.
func renderSpectrum(levels []float64, width int) string {
	if len(levels) == 0 || width <= 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	// Sample bins to fit width, keeping the loudest bin of each group
	stride := len(levels) / width
	if stride == 0 {
		stride = 1
	}

	displayHeights := make([]float64, 0, width)
	maxHeight := 0.0
	for i := 0; i < len(levels) && len(displayHeights) < width; i += stride {
		peak := 0.0
		for _, v := range levels[i:min(i+stride, len(levels))] {
			if v > peak {
				peak = v
			}
		}
		displayHeights = append(displayHeights, peak)
		maxHeight = max(maxHeight, peak)
	}
	if maxHeight == 0 {
		maxHeight = 1.0 // Avoid division by zero
	}

	colorFor := func(normalised float64) lipgloss.Color {
		idx := int(normalised * float64(len(spectrumColors)-1))
		return spectrumColors[max(0, min(idx, len(spectrumColors)-1))]
	}

	var result strings.Builder

	// Top row: only bars above half height
	for _, h := range displayHeights {
		normalised := h / maxHeight
		if normalised > 0.5 {
			blockIdx := min(int((normalised-0.5)*2.0*float64(len(blocks)-1)), len(blocks)-1)
			result.WriteString(lipgloss.NewStyle().
				Foreground(colorFor(normalised)).
				Render(string(blocks[blockIdx])))
		} else {
			result.WriteString(" ")
		}
	}

	result.WriteString("\n")

	// Bottom row: full block once the bar reaches the top row
	for _, h := range displayHeights {
		normalised := h / maxHeight
		blockIdx := len(blocks) - 1
		if normalised < 0.5 {
			blockIdx = min(int(normalised*2.0*float64(len(blocks)-1)), len(blocks)-1)
		}
		result.WriteString(lipgloss.NewStyle().
			Foreground(colorFor(normalised)).
			Render(string(blocks[blockIdx])))
	}

	return result.String()
}
