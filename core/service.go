package core

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/riven-blade/smartconnect/config"
	"github.com/riven-blade/smartconnect/pkg/angelone"
	"github.com/riven-blade/smartconnect/pkg/logger"
	"github.com/riven-blade/smartconnect/storage"
	"go.uber.org/zap"
)

// Service wires the configured account, its session store and the order
// update watcher.
type Service struct {
	config    *config.Config
	conn      *angelone.SmartConnect
	store     storage.SessionStore
	publisher *EventPublisher
	watcher   *OrderWatcher

	mu      sync.Mutex
	running bool
}

// NewService builds the service. cfg must already be validated.
func NewService(ctx context.Context, cfg *config.Config, handlers ...EventHandler) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}

	store, err := storage.NewSessionStore(ctx, cfg.Session)
	if err != nil {
		return nil, errors.Wrap(err, "session store")
	}

	s, err := newService(cfg, store, handlers...)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}
	return s, nil
}

func newService(cfg *config.Config, store storage.SessionStore, handlers ...EventHandler) (*Service, error) {
	var opts []angelone.Option
	if store != nil {
		opts = append(opts, angelone.WithStore(store, cfg.Session.TTL))
	}
	conn, err := angelone.New(cfg.SmartAPI, cfg.Credentials.ClientCode, cfg.Credentials.PIN, opts...)
	if err != nil {
		return nil, err
	}

	s := &Service{
		config:    cfg,
		conn:      conn,
		store:     store,
		publisher: NewEventPublisher(handlers...),
	}
	if cfg.OrderStatus.Enabled {
		s.watcher = NewOrderWatcher(cfg.Credentials.ClientCode, conn, s.publisher, WatcherOptions{
			URL:       cfg.OrderStatus.URL,
			KeepAlive: cfg.OrderStatus.KeepAlive,
			Retry:     cfg.OrderStatus.Retry,
		})
	}
	return s, nil
}

// Conn returns the account session.
func (s *Service) Conn() *angelone.SmartConnect {
	return s.conn
}

// Publisher returns the event fan-out, for registering more handlers.
func (s *Service) Publisher() *EventPublisher {
	return s.publisher
}

// Start establishes the session and starts the watcher.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("service already running")
	}
	if err := s.ensureSession(ctx); err != nil {
		return err
	}

	if user, err := s.conn.User(); err == nil {
		logger.Ctx(ctx).Info("✅ 登录用户",
			zap.String("clientCode", user.ClientCode),
			zap.String("name", user.Name),
			zap.Strings("exchanges", user.Exchanges))
	}

	if s.watcher != nil {
		if err := s.watcher.Start(ctx); err != nil {
			return err
		}
	}
	s.running = true
	return nil
}

// ensureSession reuses a stored session when the broker still accepts it
// and logs in otherwise.
func (s *Service) ensureSession(ctx context.Context) error {
	restored, err := s.conn.Restore(ctx)
	if err != nil {
		logger.Ctx(ctx).Warn("session restore failed, logging in", zap.Error(err))
	}
	if restored {
		return nil
	}

	secret := s.config.Credentials.TOTPSecret
	if secret == "" {
		return errors.New("no stored session and no totp secret configured")
	}
	_, err = s.conn.GenerateSessionTOTP(ctx, secret)
	return err
}

// Stop stops the watcher and releases the store. The session is kept so
// the next start can restore it; pass logout to end it instead.
func (s *Service) Stop(ctx context.Context, logout bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs error
	if s.watcher != nil {
		errs = errors.CombineErrors(errs, s.watcher.Stop(ctx))
	}
	if logout && s.running {
		errs = errors.CombineErrors(errs, s.conn.Logout(ctx))
	}
	if s.store != nil {
		errs = errors.CombineErrors(errs, s.store.Close())
	}
	s.running = false
	return errs
}

// Health 获取健康状态
func (s *Service) Health() Health {
	if s.watcher != nil {
		return s.watcher.Health()
	}
	status := "healthy"
	if _, err := s.conn.Session(); err != nil {
		status = "unhealthy"
	}
	return Health{Status: status, Details: map[string]string{"clientCode": s.conn.ClientCode()}}
}
