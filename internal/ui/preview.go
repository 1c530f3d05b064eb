package ui

import (
	"fmt"
	"image"
	"strings"

	"github.com/linuxmatters/spectrograph/internal/config"
	"github.com/linuxmatters/spectrograph/internal/renderer"
)

// RenderPreview scales a spectrogram down to terminal size and draws it with
// ANSI 24-bit colour. Each cell is an upper half block, so one terminal row
// shows two image rows: the top one as foreground, the bottom as background.
func RenderPreview(img *image.RGBA) string {
	thumb := renderer.Thumbnail(img, config.PreviewWidth, config.PreviewHeight*2)
	bounds := thumb.Bounds()
	if bounds.Empty() {
		return ""
	}

	var sb strings.Builder
	border := strings.Repeat("─", bounds.Dx())

	sb.WriteString("  Preview:\n")
	sb.WriteString("  ┌" + border + "┐\n")

	for y := 0; y < bounds.Dy(); y += 2 {
		sb.WriteString("  │")
		for x := 0; x < bounds.Dx(); x++ {
			top := thumb.RGBAAt(x, y)
			if y+1 < bounds.Dy() {
				bottom := thumb.RGBAAt(x, y+1)
				// \x1b[38;2;R;G;Bm sets foreground, \x1b[48;2;R;G;Bm background
				fmt.Fprintf(&sb, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀\x1b[0m",
					top.R, top.G, top.B, bottom.R, bottom.G, bottom.B)
			} else {
				fmt.Fprintf(&sb, "\x1b[38;2;%d;%d;%dm▀\x1b[0m", top.R, top.G, top.B)
			}
		}
		sb.WriteString("│\n")
	}

	sb.WriteString("  └" + border + "┘")

	return sb.String()
}
