package audio

import "io"

// SliceSource serves samples from memory. It is used for synthetic signals
// and tests.
type SliceSource struct {
	samples []float64
	pos     int
}

// NewSliceSource wraps samples; the slice must not be modified while in use.
func NewSliceSource(samples []float64) *SliceSource {
	return &SliceSource{samples: samples}
}

// ReadChunk returns the next numSamples samples, or io.EOF when exhausted.
func (s *SliceSource) ReadChunk(numSamples int) ([]float64, error) {
	if s.pos >= len(s.samples) {
		return nil, io.EOF
	}

	end := min(s.pos+numSamples, len(s.samples))
	chunk := s.samples[s.pos:end]
	s.pos = end
	return chunk, nil
}
