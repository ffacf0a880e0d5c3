package history

import (
	"context"
	"sync"
	"time"

	"github.com/agrigenius/core/internal/soil"
	"github.com/agrigenius/core/internal/weather"
)

// Source identifies the channel a turn arrived on. Only "web" is produced by
// the HTTP path; sms and whatsapp are external touchpoints writing the same
// record shape.
type Source string

const (
	SourceWeb      Source = "web"
	SourceSMS      Source = "sms"
	SourceWhatsApp Source = "whatsapp"
)

// Turn is the append-only record of one farmer question and its answer,
// together with the context used to produce it. Written once, never mutated
// or deleted here; retention is an external concern.
type Turn struct {
	ID                 string           `json:"id"`
	CreatedAt          time.Time        `json:"created_at"`
	UserMessage        string           `json:"user_message"`
	TranslatedMessage  string           `json:"translated_message"`
	LLMResponse        string           `json:"llm_response"`
	TranslatedResponse string           `json:"translated_response"`
	Weather            weather.Snapshot `json:"weather"`
	Soil               soil.Snapshot    `json:"soil"`
	Source             Source           `json:"source"`
}

// Store is the contract any history backend must satisfy.
type Store interface {
	Append(ctx context.Context, turn Turn) error
}

// MemoryStore is a concurrency-safe in-memory Store. It backs tests and
// keyless local runs.
type MemoryStore struct {
	mu    sync.RWMutex
	turns []Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append records a turn.
func (s *MemoryStore) Append(ctx context.Context, turn Turn) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	return nil
}

// Turns returns a copy of everything appended so far.
func (s *MemoryStore) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}
