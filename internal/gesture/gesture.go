// Package gesture holds the classified gesture sample model, the bounded
// ring buffer of recent samples, and the fixed-width feature encoding
// consumed by the risk engine's sequence path.
//
// Samples arrive from an external pretrained classifier (or the synthetic
// generator) already resolved to a label from a closed vocabulary plus a
// confidence in [0,1] and a normalized position. This package does not
// validate or retrain that classifier.
package gesture

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Type is a classified gesture label.
type Type string

const (
	TypeStop      Type = "stop"
	TypeProceed   Type = "proceed"
	TypeSlowDown  Type = "slow_down"
	TypeHandover  Type = "handover"
	TypePoint     Type = "point"
	TypeWave      Type = "wave"
	TypeEmergency Type = "emergency"
	TypeUnknown   Type = "unknown"
)

// Vocabulary is the canonical ordered gesture vocabulary used for one-hot
// encoding. TypeUnknown is deliberately absent: it encodes as all-zero.
var Vocabulary = []Type{
	TypeStop, TypeProceed, TypeSlowDown, TypeHandover,
	TypePoint, TypeWave, TypeEmergency,
}

// Position is a point in the classifier's normalized coordinate frame.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sample is one classified gesture observation. Immutable once created.
type Sample struct {
	ID         string    `json:"id"`
	Type       Type      `json:"gesture_type"`
	Confidence float64   `json:"confidence"`
	Position   *Position `json:"position"`
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source"`
}

// Sentinel errors.
var (
	ErrInvalidSample = errors.New("gesture: invalid sample")
	ErrNotFound      = errors.New("gesture: sample not found")
)

// vocabIndex maps each vocabulary label to its one-hot slot.
var vocabIndex = func() map[Type]int {
	m := make(map[Type]int, len(Vocabulary))
	for i, g := range Vocabulary {
		m[g] = i
	}
	return m
}()

// InVocabulary reports whether t is one of the canonical labels.
// TypeUnknown is a valid input label but is not in the vocabulary.
func InVocabulary(t Type) bool {
	_, ok := vocabIndex[t]
	return ok
}

// Validate rejects malformed samples before they reach the buffer or the
// encoder. A missing position is an error: callers that want a default must
// supply an explicit zero position rather than rely on silent coercion.
func (s *Sample) Validate() error {
	if !InVocabulary(s.Type) && s.Type != TypeUnknown {
		return fmt.Errorf("%w: gesture_type %q outside vocabulary", ErrInvalidSample, s.Type)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("%w: confidence %g outside [0,1]", ErrInvalidSample, s.Confidence)
	}
	if s.Position == nil {
		return fmt.Errorf("%w: position is required", ErrInvalidSample)
	}
	return nil
}

// Store persists gesture samples for the live feed and dataset uploads.
type Store interface {
	Record(ctx context.Context, sample *Sample) error
	RecordBatch(ctx context.Context, samples []*Sample) error
	ListRecent(ctx context.Context, limit int) ([]*Sample, error)
	Count(ctx context.Context) (int, error)
}
