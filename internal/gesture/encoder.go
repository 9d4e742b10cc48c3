package gesture

// FeatureWidth is the width of the encoded feature vector per sample:
// 7-wide one-hot over the vocabulary, then confidence, position.x, position.y.
var FeatureWidth = len(Vocabulary) + 3

// Feature slot offsets after the one-hot block.
var (
	confidenceSlot = len(Vocabulary)
	posXSlot       = len(Vocabulary) + 1
	posYSlot       = len(Vocabulary) + 2
)

// Encode converts a sample into its fixed-width feature vector.
// An unknown or unrecognized label encodes as an all-zero one-hot block;
// position.z is dropped. Pure function, no side effects.
func Encode(s *Sample) ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	v := make([]float64, FeatureWidth)
	if idx, ok := vocabIndex[s.Type]; ok {
		v[idx] = 1.0
	}
	v[confidenceSlot] = s.Confidence
	v[posXSlot] = s.Position.X
	v[posYSlot] = s.Position.Y
	return v, nil
}

// EncodeSequence encodes an ordered slice of samples into a feature matrix,
// one row per sample. Fails on the first invalid sample.
func EncodeSequence(samples []*Sample) ([][]float64, error) {
	seq := make([][]float64, 0, len(samples))
	for _, s := range samples {
		v, err := Encode(s)
		if err != nil {
			return nil, err
		}
		seq = append(seq, v)
	}
	return seq, nil
}

// Label recovers the gesture label from an encoded row (argmax over the
// one-hot block). Returns TypeUnknown for an all-zero block.
func Label(row []float64) Type {
	best, bestVal := -1, 0.0
	for i := 0; i < len(Vocabulary); i++ {
		if row[i] > bestVal {
			best, bestVal = i, row[i]
		}
	}
	if best < 0 {
		return TypeUnknown
	}
	return Vocabulary[best]
}
