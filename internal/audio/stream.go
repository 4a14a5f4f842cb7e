package audio

import (
	"encoding/binary"
	"math"
	"sync"
)

const bytesPerFrame = 2 * 4

// SampleSource fills dst with interleaved stereo frames.
type SampleSource interface {
	Process(dst []float32)
}

// StreamReader is the io.Reader both backends pull from. Each Read renders as many
// whole frames as fit in p and encodes them as float32 little-endian.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	frames []float32
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	n := len(p) / bytesPerFrame
	if n == 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = grow(r.frames, n*2)
	r.source.Process(r.frames)
	for i, v := range r.frames {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return n * bytesPerFrame, nil
}

func grow(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}
