// Package sessions implements session.Store on process memory, Redis and bbolt.
package sessions

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/session"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBolt   = "bolt"
)

// sweepInterval bounds how often the memory and bolt stores scan for expired sessions.
const sweepInterval = time.Minute

// Store is a session.Store holding resources to release on shutdown.
type Store interface {
	session.Store
	Close() error
}

// New opens the session store selected by conf.Session.Store.
func New(ctx context.Context, conf *core.Config) (Store, error) {
	switch conf.Session.Store {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, errors.Wrap(err, "pinging redis")
		}
		return NewRedisStore(client), nil
	case BackendBolt:
		return OpenBoltStore(conf.Session.BoltPath)
	default:
		return nil, errors.Errorf("unknown session store %q", conf.Session.Store)
	}
}
