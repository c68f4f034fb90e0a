package sessions

import (
	"context"
	"fmt"
	"time"

	"reelops/config"
	"reelops/rdx"
)

// Open builds the session store named by cfg.SessionBackend. The returned
// close function releases whatever connection the backend holds.
func Open(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.SessionBackend {
	case "", "memory":
		store := NewMemoryStore(cfg.SessionTTL)
		if cfg.SessionTTL > 0 {
			go store.Sweep(ctx, time.Minute)
		}
		return store, noop, nil
	case "redis":
		conn, err := rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(conn, cfg.SessionTTL), conn.Close, nil
	case "badger":
		db, err := OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, nil, err
		}
		return NewBadgerStore(db, cfg.SessionTTL), db.Close, nil
	case "jwt", "cookie":
		if cfg.SecretKey == "" || cfg.SecretKey == config.DefaultSecretKey {
			return nil, nil, fmt.Errorf("session backend %q needs a private SECRET_KEY", cfg.SessionBackend)
		}
		return NewJWTStore(cfg.SecretKey, cfg.SessionTTL), noop, nil
	}
	return nil, nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
}
