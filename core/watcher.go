package core

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riven-blade/smartconnect/pkg/angelone"
	"github.com/riven-blade/smartconnect/pkg/logger"
	"github.com/riven-blade/smartconnect/pkg/smartapi"
	"github.com/riven-blade/smartconnect/pkg/stream"
	"github.com/spf13/cast"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const defaultReconnectDelay = 2 * time.Second

// =============================================================================
// 订单推送监听
// =============================================================================

// WatcherStats 监听统计
type WatcherStats struct {
	Connected  atomic.Bool
	Connects   atomic.Int64
	Messages   atomic.Int64
	Pongs      atomic.Int64
	Errors     atomic.Int64
	LastUpdate atomic.Int64 // unix millis
}

// OrderWatcher keeps one order update stream open, sends the keep-alive
// text on a ticker and publishes every update. A dropped connection is
// reopened until Stop.
type OrderWatcher struct {
	clientCode string
	source     FeedSource
	publisher  Publisher

	url            string
	keepAlive      time.Duration
	retry          smartapi.RetryPolicy
	reconnectDelay time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool

	stats WatcherStats
}

// WatcherOptions configures an OrderWatcher. Zero values take defaults.
type WatcherOptions struct {
	URL            string
	KeepAlive      time.Duration
	Retry          smartapi.RetryPolicy
	ReconnectDelay time.Duration
}

func NewOrderWatcher(clientCode string, source FeedSource, publisher Publisher, opts WatcherOptions) *OrderWatcher {
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = 10 * time.Second
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	return &OrderWatcher{
		clientCode:     clientCode,
		source:         source,
		publisher:      publisher,
		url:            opts.URL,
		keepAlive:      opts.KeepAlive,
		retry:          opts.Retry,
		reconnectDelay: opts.ReconnectDelay,
	}
}

// Start 启动监听
func (w *OrderWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("order watcher already running")
	}
	ctx, w.cancel = context.WithCancel(logger.WithModule(ctx, "order-watcher"))
	w.done = make(chan struct{})
	w.running = true

	go func() {
		defer close(w.done)
		w.run(ctx)
	}()

	logger.Ctx(ctx).Info("Order watcher started", zap.String("clientCode", w.clientCode))
	return nil
}

// Stop 停止监听并等待退出
func (w *OrderWatcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	logger.Ctx(ctx).Info("Order watcher stopped", zap.String("clientCode", w.clientCode))
	return nil
}

// Stats returns the live counters.
func (w *OrderWatcher) Stats() *WatcherStats {
	return &w.stats
}

// Health 获取健康状态
func (w *OrderWatcher) Health() Health {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()

	status := "healthy"
	switch {
	case !running:
		status = "unhealthy"
	case !w.stats.Connected.Load():
		status = "degraded"
	}

	return Health{
		Status: status,
		Details: map[string]string{
			"clientCode": w.clientCode,
			"running":    cast.ToString(running),
			"connected":  cast.ToString(w.stats.Connected.Load()),
			"connects":   cast.ToString(w.stats.Connects.Load()),
			"messages":   cast.ToString(w.stats.Messages.Load()),
			"errors":     cast.ToString(w.stats.Errors.Load()),
		},
		Timestamp: time.Now().UnixMilli(),
	}
}

func (w *OrderWatcher) run(ctx context.Context) {
	log := logger.Ctx(ctx)
	for ctx.Err() == nil {
		s, err := smartapi.RetryResult(ctx, w.retry, w.connect)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.stats.Errors.Inc()
			log.Error("order feed connect failed", zap.Error(err))
		} else {
			w.pump(ctx, s)
		}

		timer := time.NewTimer(w.reconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (w *OrderWatcher) connect(ctx context.Context) (*stream.Stream[angelone.OrderStatus], error) {
	feed, err := w.source.OrderStatusFeed()
	if err != nil {
		return nil, err
	}
	if w.url != "" {
		feed.URL = w.url
	}
	return feed.Connect(ctx)
}

// pump reads one connection until it ends.
func (w *OrderWatcher) pump(ctx context.Context, s *stream.Stream[angelone.OrderStatus]) {
	log := logger.Ctx(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.Close()

	w.stats.Connects.Inc()
	w.stats.Connected.Store(true)
	defer w.stats.Connected.Store(false)
	w.publish(ctx, Event{Type: EventFeedConnected})

	go w.keepAliveLoop(ctx, s)

	for {
		msg, err := s.Next(ctx)
		switch {
		case err == nil:
			w.stats.Messages.Inc()
			w.stats.LastUpdate.Store(time.Now().UnixMilli())
			update := msg
			w.publish(ctx, Event{Type: EventOrderUpdate, Update: &update})
		case errors.Is(err, stream.ErrPongReceived):
			w.stats.Pongs.Inc()
		case errors.Is(err, smartapi.ErrDecode):
			w.stats.Errors.Inc()
			log.RatedWarn(1, "undecodable order update", zap.Error(err))
		default:
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Warn("order feed ended", zap.Error(err))
			}
			w.publish(ctx, Event{Type: EventFeedClosed})
			return
		}
	}
}

func (w *OrderWatcher) keepAliveLoop(ctx context.Context, s *stream.Stream[angelone.OrderStatus]) {
	ticker := time.NewTicker(w.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SendText("ping"); err != nil {
				logger.Ctx(ctx).Debug("keep-alive failed", zap.Error(err))
				return
			}
		}
	}
}

func (w *OrderWatcher) publish(ctx context.Context, event Event) {
	if w.publisher == nil {
		return
	}
	event.ClientCode = w.clientCode
	event.Timestamp = time.Now().UnixMilli()
	if err := w.publisher.Publish(ctx, event); err != nil {
		logger.Ctx(ctx).Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}
