package chipbox

import (
	"math"
	"sync"
)

// ScopeFrames is the number of stereo frames a ScopeBuffer holds.
const ScopeFrames = 512

// ScopeBuffer holds the most recent output frames as interleaved stereo int16. The
// audio goroutine writes it and the UI goroutine takes snapshots.
type ScopeBuffer struct {
	mu      sync.Mutex
	samples [ScopeFrames * 2]int16
}

func NewScopeBuffer() *ScopeBuffer {
	return &ScopeBuffer{}
}

// Write appends interleaved float frames, keeping only the newest ScopeFrames.
func (b *ScopeBuffer) Write(frames []float32) {
	n := len(frames) &^ 1
	if n == 0 {
		return
	}
	if n > len(b.samples) {
		frames = frames[n-len(b.samples) : n]
		n = len(b.samples)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	keep := len(b.samples) - n
	copy(b.samples[:keep], b.samples[n:])
	for i := 0; i < n; i++ {
		b.samples[keep+i] = toInt16(frames[i])
	}
}

// Snapshot copies the buffer into dst, which should hold ScopeFrames*2 samples, and
// returns the number of samples copied.
func (b *ScopeBuffer) Snapshot(dst []int16) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copy(dst, b.samples[:])
}

func (b *ScopeBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.samples[:])
}

func toInt16(v float32) int16 {
	if v >= 1 {
		return math.MaxInt16
	}
	if v <= -1 {
		return -math.MaxInt16
	}
	return int16(v * math.MaxInt16)
}
