package main

import (
	"fmt"
	"io"

	agentgateway "github.com/launchpath/agent-gateway"
	"github.com/launchpath/agent-gateway/internal/cache"
	"github.com/launchpath/agent-gateway/internal/execlog"
	"github.com/launchpath/agent-gateway/internal/ratelimit"
)

// stores bundles the persistence backends selected by config.
type stores struct {
	Cache      cache.Store
	RateLimit  ratelimit.Store
	ExecLog    execlog.Writer
	ExecReader execlog.Reader // nil when the execution log is disabled
	closers    []io.Closer
}

// Close releases every backend in reverse open order.
func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
}

// openStores builds the cache, rate-limit, and execution-log backends for
// the configured driver. The Redis driver still uses SQLite for the
// execution log, which is an audit trail and does not fit Redis expiry.
func openStores(cfg agentgateway.Config) (*stores, error) {
	s := &stores{}

	switch cfg.Store.Driver {
	case "memory":
		s.Cache = cache.NewMemory(cfg.Cache.MemoryEntries)
		s.RateLimit = ratelimit.NewMemoryStore()
		s.ExecLog = execlog.NoopWriter{}
		return s, nil

	case "sqlite":
		cs, err := cache.NewSQLiteStore(cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		s.Cache = cs
		s.closers = append(s.closers, cs)

		rs, err := ratelimit.NewSQLiteStore(cfg.Store.DSN)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.RateLimit = rs
		s.closers = append(s.closers, rs)

		ew, err := execlog.NewSQLiteWriter(cfg.Store.DSN)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.ExecLog = ew
		s.ExecReader = ew
		s.closers = append(s.closers, ew)
		return s, nil

	case "postgres":
		cs, err := cache.NewPostgresStore(cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		s.Cache = cs
		s.closers = append(s.closers, cs)

		rs, err := ratelimit.NewPostgresStore(cfg.Store.DSN)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.RateLimit = rs
		s.closers = append(s.closers, rs)

		ew, err := execlog.NewPostgresWriter(cfg.Store.DSN)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.ExecLog = ew
		s.ExecReader = ew
		s.closers = append(s.closers, ew)
		return s, nil

	case "redis":
		cs, err := cache.NewRedisStore(cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB)
		if err != nil {
			return nil, err
		}
		s.Cache = cs
		s.closers = append(s.closers, cs)

		rs, err := ratelimit.NewRedisStore(cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.RateLimit = rs
		s.closers = append(s.closers, rs)

		// The execution log stays in SQLite; without a DSN it is disabled.
		if cfg.Store.DSN == "" {
			s.ExecLog = execlog.NoopWriter{}
			return s, nil
		}
		ew, err := execlog.NewSQLiteWriter(cfg.Store.DSN)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.ExecLog = ew
		s.ExecReader = ew
		s.closers = append(s.closers, ew)
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.Store.Driver)
	}
}
