package audio

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/linuxmatters/spectrograph/internal/config"
)

// maxEmptyReads bounds how many consecutive empty reads a source may return
// before the chunker gives up with io.ErrNoProgress.
const maxEmptyReads = 100

// Window is one fixed-length block of samples packed as complex values
// (imaginary parts zero). After Transform the same buffer holds its spectrum.
type Window struct {
	Index   int          // Chronological position, 0-based
	Filled  int          // Real samples copied in; the remainder is zero padding
	Samples []complex128 // Exactly the chunker's window size
}

// Chunker partitions a SampleSource into non-overlapping windows.
// The final partial window is zero-padded; an empty source yields no windows.
type Chunker struct {
	src  SampleSource
	size int
	pool sync.Pool

	index      int
	samples    int64
	peak       float64
	sumSquares float64
	done       bool
}

// NewChunker creates a chunker emitting windows of size samples.
func NewChunker(src SampleSource, size int) (*Chunker, error) {
	if !config.IsPowerOfTwo(size) || size < config.MinWindowSize {
		return nil, fmt.Errorf("window size %d must be a power of two of at least %d", size, config.MinWindowSize)
	}

	c := &Chunker{src: src, size: size}
	c.pool.New = func() interface{} {
		return make([]complex128, size)
	}
	return c, nil
}

// Next returns the next window, or io.EOF once the source is exhausted.
// Source errors other than io.EOF are returned unchanged.
func (c *Chunker) Next() (*Window, error) {
	if c.done {
		return nil, io.EOF
	}

	buf := c.pool.Get().([]complex128)
	filled := 0
	empty := 0

	// Keep reading until the window is full or the source ends
	for filled < c.size {
		chunk, err := c.src.ReadChunk(c.size - filled)
		if len(chunk) > c.size-filled {
			chunk = chunk[:c.size-filled]
		}
		for _, s := range chunk {
			buf[filled] = complex(s, 0)
			filled++
			c.observe(s)
		}

		if err == io.EOF {
			c.done = true
			break
		}
		if err != nil {
			c.pool.Put(buf)
			return nil, err
		}

		if len(chunk) == 0 {
			empty++
			if empty >= maxEmptyReads {
				c.pool.Put(buf)
				return nil, io.ErrNoProgress
			}
		} else {
			empty = 0
		}
	}

	if filled == 0 {
		c.pool.Put(buf)
		return nil, io.EOF
	}

	// Zero-pad the tail; pooled buffers may hold a previous spectrum
	clear(buf[filled:])

	w := &Window{Index: c.index, Filled: filled, Samples: buf}
	c.index++
	c.samples += int64(filled)
	return w, nil
}

// Release returns a window's buffer for reuse. The window must not be used
// afterwards.
func (c *Chunker) Release(w *Window) {
	if w == nil || len(w.Samples) != c.size {
		return
	}
	c.pool.Put(w.Samples)
	w.Samples = nil
}

func (c *Chunker) observe(s float64) {
	if math.IsNaN(s) {
		return
	}
	if a := math.Abs(s); a > c.peak {
		c.peak = a
	}
	c.sumSquares += s * s
}

// Size returns the window length.
func (c *Chunker) Size() int {
	return c.size
}

// Windows returns the number of windows emitted so far.
func (c *Chunker) Windows() int {
	return c.index
}

// Samples returns the number of real samples consumed so far.
func (c *Chunker) Samples() int64 {
	return c.samples
}

// Peak returns the largest absolute sample value seen so far.
func (c *Chunker) Peak() float64 {
	return c.peak
}

// RMS returns the root mean square of the samples seen so far.
func (c *Chunker) RMS() float64 {
	if c.samples == 0 {
		return 0
	}
	return math.Sqrt(c.sumSquares / float64(c.samples))
}
