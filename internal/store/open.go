package store

import (
	"fmt"
	"log/slog"

	"github.com/dshills/redline/internal/config"
)

// Open creates the store described by cfg.
func Open(cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case config.DriverMemory, "":
		s = NewMemoryStore()
	case config.DriverSQLite:
		s, err = OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	if cfg.CacheSize <= 0 {
		logger.Debug("store opened", "driver", cfg.Driver)
		return s, nil
	}
	cached, err := NewCachedStore(s, cfg.CacheSize, logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	logger.Debug("store opened", "driver", cfg.Driver, "cache", cfg.CacheSize)
	return cached, nil
}
