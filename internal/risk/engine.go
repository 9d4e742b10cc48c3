package risk

// MinSequenceSamples is the default minimum buffer length before the
// sequence path will produce an assessment.
const MinSequenceSamples = 10

// Engine scores scenarios and gesture sequences. The backend supplies the
// sequence path's activation signal; it is constructed once at startup and
// shared read-only, so an Engine is safe for concurrent use.
type Engine struct {
	backend     ScoringBackend
	minSequence int
}

// NewEngine creates a scoring engine over the given backend.
func NewEngine(backend ScoringBackend) *Engine {
	return &Engine{
		backend:     backend,
		minSequence: MinSequenceSamples,
	}
}

// WithMinSequence overrides the minimum sequence length precondition.
func (e *Engine) WithMinSequence(n int) *Engine {
	if n > 0 {
		e.minSequence = n
	}
	return e
}

// Backend returns the engine's scoring backend.
func (e *Engine) Backend() ScoringBackend {
	return e.backend
}
