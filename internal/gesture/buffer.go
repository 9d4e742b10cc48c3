package gesture

import "sync"

// DefaultBufferSize is the default ring buffer capacity: the sequence path
// scores over at most the last 50 samples.
const DefaultBufferSize = 50

// Buffer is a bounded, ordered, most-recent-N window of gesture samples.
// Safe for concurrent use; Snapshot returns copies so callers never share
// mutable state with the buffer.
type Buffer struct {
	mu    sync.RWMutex
	ring  []*Sample
	start int
	count int
}

// NewBuffer creates a ring buffer holding at most capacity samples.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = DefaultBufferSize
	}
	return &Buffer{ring: make([]*Sample, capacity)}
}

// Push appends a sample, evicting the oldest once full.
func (b *Buffer) Push(s *Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count < len(b.ring) {
		b.ring[(b.start+b.count)%len(b.ring)] = s
		b.count++
		return
	}
	b.ring[b.start] = s
	b.start = (b.start + 1) % len(b.ring)
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Snapshot returns the buffered samples oldest-first. Sample values are
// copied; the returned slice is owned by the caller.
func (b *Buffer) Snapshot() []*Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*Sample, 0, b.count)
	for i := 0; i < b.count; i++ {
		s := *b.ring[(b.start+i)%len(b.ring)]
		if s.Position != nil {
			pos := *s.Position
			s.Position = &pos
		}
		out = append(out, &s)
	}
	return out
}

// Clear drops all buffered samples.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.start, b.count = 0, 0
	for i := range b.ring {
		b.ring[i] = nil
	}
}
