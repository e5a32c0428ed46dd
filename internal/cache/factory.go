package cache

import (
	"fmt"

	"github.com/veriscope/veriscope/internal/model"
)

// New creates the cache backend selected by the configuration. A
// disabled cache returns nil; callers treat a nil cache as a miss on
// every lookup.
func New(cfg model.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Backend {
	case "", "memory":
		return NewMemoryCache(cfg.TTL, cfg.TTL/2), nil
	case "disk":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("disk cache requires a directory")
		}
		return NewDiskCache(cfg.Dir, cfg.TTL), nil
	case "layered":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("layered cache requires a directory")
		}
		return NewLayeredCache(cfg.TTL, cfg.Dir, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}
