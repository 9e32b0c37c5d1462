package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"
	"github.com/riven-blade/smartconnect/config"
	"github.com/riven-blade/smartconnect/pkg/logger"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisStore Redis 会话存储实现
type RedisStore struct {
	config *config.RedisConfig
	client *redis.Client
	isOpen atomic.Bool
	mu     sync.RWMutex

	// 统计信息
	stats *StoreStats
}

// StoreStats 操作统计
type StoreStats struct {
	Saves    atomic.Int64
	Loads    atomic.Int64
	Misses   atomic.Int64
	Deletes  atomic.Int64
	Failures atomic.Int64
}

// NewRedisStore 创建并连接 Redis 会话存储
func NewRedisStore(ctx context.Context, conf *config.RedisConfig) (*RedisStore, error) {
	if conf == nil {
		conf = config.NewRedisConfig()
	}

	store := &RedisStore{
		config: conf,
		stats:  &StoreStats{},
	}
	if err := store.Connect(ctx); err != nil {
		return nil, ErrConnectionError("failed to initialize Redis session store", err)
	}
	return store, nil
}

// Connect 连接到 Redis
func (r *RedisStore) Connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isOpen.Load() {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%d", r.config.Host, r.config.Port),
		Password:        r.config.Password,
		DB:              r.config.Database,
		DialTimeout:     r.config.ConnectionTimeout,
		ReadTimeout:     r.config.QueryTimeout,
		WriteTimeout:    r.config.QueryTimeout,
		MaxRetries:      3,
		MaxRetryBackoff: time.Second,
		PoolSize:        r.config.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, r.config.ConnectionTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return ErrConnectionError("failed to ping Redis", err)
	}

	r.client = client
	r.isOpen.Store(true)

	logger.Ctx(ctx).Info("Redis连接成功",
		zap.String("host", r.config.Host),
		zap.Int("port", r.config.Port),
		zap.Int("database", r.config.Database))
	return nil
}

// Close 关闭连接
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isOpen.Load() {
		return nil
	}
	r.isOpen.Store(false)

	client := r.client
	r.client = nil
	if client != nil {
		if err := client.Close(); err != nil {
			return ErrConnectionError("failed to close Redis connection", err)
		}
	}

	logger.Ctx(context.Background()).Info("Redis连接已关闭")
	return nil
}

// IsHealthy 检查存储健康状态
func (r *RedisStore) IsHealthy() bool {
	return r.isOpen.Load()
}

// Stats returns the operation counters.
func (r *RedisStore) Stats() *StoreStats {
	return r.stats
}

func (r *RedisStore) key(clientCode string) string {
	return r.config.KeyPrefix + clientCode
}

// withClient runs fn under the read lock so Close waits for in-flight queries.
func (r *RedisStore) withClient(fn func(client *redis.Client) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.client == nil {
		r.stats.Failures.Inc()
		return ErrConnectionClosed
	}
	return fn(r.client)
}

// Save 保存会话，ttl<=0 表示不过期
func (r *RedisStore) Save(ctx context.Context, record *SessionRecord, ttl time.Duration) error {
	if record == nil || record.ClientCode == "" {
		return ErrInvalidData("session record needs a client code")
	}
	if !r.IsHealthy() {
		r.stats.Failures.Inc()
		return ErrStorageNotHealthy
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return ErrInvalidData(err.Error())
	}
	if ttl < 0 {
		ttl = 0
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.QueryTimeout)
	defer cancel()

	return r.withClient(func(client *redis.Client) error {
		if err := client.Set(ctx, r.key(record.ClientCode), payload, ttl).Err(); err != nil {
			r.stats.Failures.Inc()
			return ErrQueryError("failed to save session", err)
		}
		r.stats.Saves.Inc()
		return nil
	})
}

// Load 读取会话
func (r *RedisStore) Load(ctx context.Context, clientCode string) (*SessionRecord, error) {
	if !r.IsHealthy() {
		r.stats.Failures.Inc()
		return nil, ErrStorageNotHealthy
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.QueryTimeout)
	defer cancel()

	var payload []byte
	err := r.withClient(func(client *redis.Client) error {
		var err error
		payload, err = client.Get(ctx, r.key(clientCode)).Bytes()
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, redis.Nil):
			r.stats.Misses.Inc()
			return nil, errors.Wrapf(ErrDataNotFound, "session %s", clientCode)
		case errors.Is(err, ErrConnectionClosed):
			return nil, err
		}
		r.stats.Failures.Inc()
		return nil, ErrQueryError("failed to load session", err)
	}

	var record SessionRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		r.stats.Failures.Inc()
		return nil, ErrInvalidData("corrupt session record: " + err.Error())
	}
	r.stats.Loads.Inc()
	return &record, nil
}

// Delete 删除会话
func (r *RedisStore) Delete(ctx context.Context, clientCode string) error {
	if !r.IsHealthy() {
		r.stats.Failures.Inc()
		return ErrStorageNotHealthy
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.QueryTimeout)
	defer cancel()

	return r.withClient(func(client *redis.Client) error {
		if err := client.Del(ctx, r.key(clientCode)).Err(); err != nil {
			r.stats.Failures.Inc()
			return ErrQueryError("failed to delete session", err)
		}
		r.stats.Deletes.Inc()
		return nil
	})
}
