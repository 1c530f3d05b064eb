package ui

import (
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModel_ProgressFlow(t *testing.T) {
	m := NewModel(true, nil)

	m.Update(SourceInfo{Title: "Episode 42", Format: "MP3", SampleRate: 44100, Channels: 2, Backend: "gofft", Workers: 4, WindowSize: 4096})
	if view := m.View(); !strings.Contains(view, "Episode 42") || !strings.Contains(view, "Starting render") {
		t.Errorf("initial view missing source or start message:\n%s", view)
	}

	m.Update(RenderProgress{Windows: 50, TotalWindows: 100, Elapsed: time.Second, Levels: []float64{0.5, 2, 1}})
	view := m.View()
	if !strings.Contains(view, "50%") {
		t.Errorf("progress view missing percentage:\n%s", view)
	}
	if !strings.Contains(view, "Window 50 of 100") {
		t.Errorf("progress view missing window count:\n%s", view)
	}
	if !strings.Contains(view, "Live Spectrum") {
		t.Errorf("progress view missing spectrum:\n%s", view)
	}

	_, cmd := m.Update(RenderComplete{OutputFile: "out.png", Width: 100, Height: 2048, TotalTime: 2 * time.Second})
	if cmd == nil {
		t.Fatal("RenderComplete should schedule a quit")
	}
	if view := m.View(); !strings.Contains(view, "out.png") || !strings.Contains(view, "100 × 2048") {
		t.Errorf("completion view missing output details:\n%s", view)
	}
}

func TestModel_UnknownTotal(t *testing.T) {
	m := NewModel(true, nil)
	m.Update(RenderProgress{Windows: 16, Elapsed: time.Second})

	if view := m.View(); !strings.Contains(view, "16 windows") {
		t.Errorf("view should show the running window count:\n%s", view)
	}
}

func TestModel_CtrlCCancels(t *testing.T) {
	cancelled := false
	m := NewModel(true, func() { cancelled = true })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if !cancelled || !m.Interrupted() {
		t.Error("ctrl+c should cancel the run")
	}
	if m.phase != PhaseRendering {
		t.Errorf("interrupted run phase = %v, want PhaseRendering", m.phase)
	}
}

func TestModel_Failure(t *testing.T) {
	m := NewModel(true, nil)
	_, cmd := m.Update(RenderFailed{Err: errors.New("decode failed")})
	if cmd == nil {
		t.Fatal("RenderFailed should quit")
	}
	if m.View() != "" {
		t.Error("failed view should be empty; the caller prints the error")
	}
}

func TestRenderPreview(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 8))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
		img.Pix[i+3] = 255
	}

	preview := RenderPreview(img)
	lines := strings.Split(preview, "\n")
	// Label, top border, 4 rows of half blocks, bottom border
	if len(lines) != 7 {
		t.Fatalf("preview has %d lines, want 7:\n%s", len(lines), preview)
	}
	if got := strings.Count(lines[2], "▀"); got != 10 {
		t.Errorf("row has %d cells, want 10", got)
	}
	if !strings.Contains(preview, "\x1b[38;2;255;0;0m") {
		t.Error("preview should carry the image colour")
	}

	if RenderPreview(image.NewRGBA(image.Rect(0, 0, 0, 8))) != "" {
		t.Error("empty image should render nothing")
	}
}

func TestRenderSpectrum(t *testing.T) {
	if renderSpectrum(nil, 10) != "" {
		t.Error("no levels should render nothing")
	}

	levels := make([]float64, 128)
	levels[0] = 3
	out := renderSpectrum(levels, 16)
	rows := strings.Split(out, "\n")
	if len(rows) != 2 {
		t.Fatalf("spectrum has %d rows, want 2", len(rows))
	}
	if !strings.Contains(rows[1], "█") {
		t.Error("loudest bin should reach full height")
	}
}

func TestFormatDB(t *testing.T) {
	if got := formatDB(1); got != "0.0 dB" {
		t.Errorf("formatDB(1) = %q", got)
	}
	if got := formatDB(0); got != "-inf dB" {
		t.Errorf("formatDB(0) = %q", got)
	}
	if got := formatDB(0.5); got != "-6.0 dB" {
		t.Errorf("formatDB(0.5) = %q", got)
	}
}
