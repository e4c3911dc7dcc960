package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/ev-station-skill/internal/ports"
	"github.com/seu-repo/ev-station-skill/pkg/config"
)

// New builds the cache selected by cfg.Cache.Driver.
func New(cfg *config.Config, log *zap.Logger) (ports.Cache, error) {
	switch cfg.Cache.Driver {
	case "redis":
		return NewRedisCache(cfg.Redis.URL, log)
	case "local", "":
		return NewLocalCache(cfg.Cache.CleanupInterval, cfg.Cache.MaxEntries, log), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}
