package store

import (
	"context"
	"time"

	"github.com/matzehuels/flametower/pkg/observability"
)

// Instrumented reports hits, misses and writes of an underlying store to
// the registered observability hooks.
type Instrumented struct {
	Store
	backend string
}

// Instrument wraps s so that its operations emit store hooks labelled with
// the backend name.
func Instrument(s Store, backend string) *Instrumented {
	return &Instrumented{Store: s, backend: backend}
}

// Get retrieves a value and records a hit or miss.
func (s *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := s.Store.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Store().OnHit(ctx, s.backend)
		} else {
			observability.Store().OnMiss(ctx, s.backend)
		}
	}
	return data, hit, err
}

// Set stores a value and records the write.
func (s *Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := s.Store.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Store().OnSet(ctx, s.backend, len(data))
	return nil
}

// Backend returns the backend label.
func (s *Instrumented) Backend() string {
	return s.backend
}
