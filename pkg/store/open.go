package store

import (
	"context"

	flameerrors "github.com/matzehuels/flametower/pkg/errors"
)

// Config selects and configures a backend.
type Config struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`

	// Prefix scopes every key so that several deployments can share one
	// backend.
	Prefix string `toml:"prefix"`

	Redis RedisConfig `toml:"redis"`
	Mongo MongoConfig `toml:"mongo"`
}

// Keyer returns the keyer for the configured prefix.
func (c Config) Keyer() Keyer {
	if c.Prefix == "" {
		return NewDefaultKeyer()
	}
	return NewScopedKeyer(NewDefaultKeyer(), c.Prefix)
}

// Open creates the configured backend wrapped with [Instrument].
// An empty backend selects the file store.
func Open(ctx context.Context, cfg Config) (*Instrumented, error) {
	var (
		s   Store
		err error
	)
	backend := cfg.Backend
	if backend == "" {
		backend = BackendFile
	}

	switch backend {
	case BackendFile:
		if cfg.Dir == "" {
			return nil, flameerrors.New(flameerrors.ErrCodeInvalidInput, "file store requires a directory")
		}
		s, err = NewFileStore(cfg.Dir)
	case BackendRedis:
		s, err = NewRedisStore(ctx, cfg.Redis)
	case BackendMongo:
		s, err = NewMongoStore(ctx, cfg.Mongo)
	case BackendNone:
		s = NewNullStore()
	default:
		return nil, flameerrors.New(flameerrors.ErrCodeUnsupported,
			"unknown store backend: %q (must be one of: file, redis, mongo, none)", backend)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(s, backend), nil
}
