package renderer

import (
	"image"

	"golang.org/x/image/draw"
)

// Thumbnail scales img to fit within maxWidth×maxHeight for the terminal
// preview. Images narrower than maxWidth keep their width so short clips are
// not stretched into smeared columns. An empty source yields an empty image.
func Thumbnail(img image.Image, maxWidth, maxHeight int) *image.RGBA {
	bounds := img.Bounds()
	if bounds.Empty() || maxWidth <= 0 || maxHeight <= 0 {
		return image.NewRGBA(image.Rectangle{})
	}

	width := min(bounds.Dx(), maxWidth)
	height := min(bounds.Dy(), maxHeight)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if width == bounds.Dx() && height == bounds.Dy() {
		// Already correct size, just convert to RGBA
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
		return dst
	}

	draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}
