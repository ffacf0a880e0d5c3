package translate

import "context"

// Backend performs an actual cross-language translation. Implementations are
// only invoked for from != to; the same-language short-circuit lives in
// Service so every backend inherits it.
type Backend interface {
	Name() string
	Translate(ctx context.Context, text, from, to string) (string, error)
}

// Translator is the contract the orchestrator depends on. It never branches
// on which backend is active.
type Translator interface {
	Translate(ctx context.Context, text, from, to string) (string, error)
}

// Service wraps a backend with the same-language no-op rule: translating a
// text to its own language returns it unchanged without a network call.
type Service struct {
	backend Backend
}

func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

func (s *Service) Translate(ctx context.Context, text, from, to string) (string, error) {
	if from == to {
		return text, nil
	}
	return s.backend.Translate(ctx, text, from, to)
}
