package storage

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/riven-blade/smartconnect/config"
	"github.com/riven-blade/smartconnect/pkg/logger"
	"go.uber.org/zap"
)

// NewSessionStore builds the store selected by conf. It returns nil for
// the "none" store.
func NewSessionStore(ctx context.Context, conf *config.SessionConfig) (SessionStore, error) {
	if conf == nil {
		return nil, nil
	}

	switch conf.Store {
	case config.SessionStoreNone, "":
		return nil, nil
	case config.SessionStoreMemory:
		logger.Ctx(ctx).Info("会话存储: memory")
		return NewMemoryStore(), nil
	case config.SessionStoreRedis:
		store, err := NewRedisStore(ctx, conf.Redis)
		if err != nil {
			return nil, err
		}
		logger.Ctx(ctx).Info("会话存储: redis", zap.String("host", conf.Redis.Host))
		return store, nil
	default:
		return nil, errors.Newf("unknown session store %q", conf.Store)
	}
}
