package renderer

import (
	"fmt"
	"image"
	"image/color"
)

// Canvas assembles pixel columns into the spectrogram image.
// Column x is window x; within a column the lowest bin is drawn on the
// bottom row so bass sits at the bottom of the image.
//
// The backing image may be wider than the canvas so it can grow one
// column at a time without copying on every step.
type Canvas struct {
	img    *image.RGBA
	width  int
	height int
}

// NewCanvas allocates a width×height image. A width of zero is valid and
// produces an empty image.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		width:  width,
		height: height,
	}
}

// Reserve makes room for at least columns columns without changing Width.
func (c *Canvas) Reserve(columns int) {
	if columns > c.img.Rect.Dx() {
		c.realloc(columns)
	}
}

// Grow widens the canvas to at least width columns. New columns are zero.
// Spare room doubles when it runs out.
func (c *Canvas) Grow(width int) {
	if width <= c.width {
		return
	}
	if width > c.img.Rect.Dx() {
		c.realloc(max(width, 2*c.img.Rect.Dx()))
	}
	c.width = width
}

func (c *Canvas) realloc(columns int) {
	img := image.NewRGBA(image.Rect(0, 0, columns, c.height))
	rowBytes := c.width * 4
	for y := 0; y < c.height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+rowBytes], c.img.Pix[y*c.img.Stride:])
	}
	c.img = img
}

// SetColumn writes col[y] to row height-1-y of column x.
func (c *Canvas) SetColumn(x int, col []color.RGBA) {
	if x < 0 || x >= c.width {
		panic(fmt.Sprintf("renderer: column %d outside canvas of width %d", x, c.width))
	}
	if len(col) != c.height {
		panic(fmt.Sprintf("renderer: column has %d pixels, canvas height is %d", len(col), c.height))
	}

	// Direct Pix writes; Set() goes through the color.Model conversion
	pix := c.img.Pix
	stride := c.img.Stride
	off := (c.height-1)*stride + x*4
	for y := 0; y < c.height; y++ {
		p := col[y]
		pix[off] = p.R
		pix[off+1] = p.G
		pix[off+2] = p.B
		pix[off+3] = p.A
		off -= stride
	}
}

// Width returns the number of columns.
func (c *Canvas) Width() int { return c.width }

// Height returns the number of rows.
func (c *Canvas) Height() int { return c.height }

// Image returns the assembled width×height image. Spare columns are dropped
// in place, so the result has a tight Stride without a second allocation.
func (c *Canvas) Image() *image.RGBA {
	if c.width != c.img.Rect.Dx() {
		c.compact()
	}
	return c.img
}

// compact packs rows to the current width. Rows only move towards the start
// of Pix, so copying in increasing row order never clobbers unread pixels.
func (c *Canvas) compact() {
	stride := c.width * 4
	for y := 1; y < c.height; y++ {
		copy(c.img.Pix[y*stride:(y+1)*stride], c.img.Pix[y*c.img.Stride:])
	}
	c.img.Pix = c.img.Pix[:c.height*stride]
	c.img.Stride = stride
	c.img.Rect = image.Rect(0, 0, c.width, c.height)
}
