package core

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/riven-blade/smartconnect/pkg/logger"
	"go.uber.org/zap"
)

// EventPublisher fans events out to registered handlers in registration
// order. A failing handler does not stop the others.
type EventPublisher struct {
	mu       sync.RWMutex
	handlers []EventHandler
}

// NewEventPublisher 创建事件发布器
func NewEventPublisher(handlers ...EventHandler) *EventPublisher {
	return &EventPublisher{handlers: handlers}
}

// Register adds a handler.
func (p *EventPublisher) Register(h EventHandler) {
	p.mu.Lock()
	p.handlers = append(p.handlers, h)
	p.mu.Unlock()
}

// Publish 发布事件 - 实现Publisher接口
func (p *EventPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.RLock()
	handlers := append([]EventHandler(nil), p.handlers...)
	p.mu.RUnlock()

	var errs error
	for _, h := range handlers {
		if err := h.Handle(ctx, event); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
	}
	return errs
}

// LogHandler writes every event to the context logger.
type LogHandler struct{}

func (LogHandler) Handle(ctx context.Context, event Event) error {
	log := logger.Ctx(ctx)
	if event.Type != EventOrderUpdate || event.Update == nil {
		log.Info("订单推送状态", zap.String("event", string(event.Type)), zap.String("clientCode", event.ClientCode))
		return nil
	}

	u := event.Update
	fields := []zap.Field{
		zap.String("orderStatus", string(u.OrderStatus)),
		zap.String("description", u.OrderStatus.Description()),
		zap.String("statusCode", u.StatusCode),
	}
	if u.OrderData != nil {
		fields = append(fields,
			zap.String("orderID", u.OrderData.OrderID),
			zap.String("symbol", u.OrderData.TradingSymbol),
			zap.String("status", u.OrderData.Status))
	}
	if u.ErrorMessage != "" {
		fields = append(fields, zap.String("error", u.ErrorMessage))
	}
	log.Info("订单更新", fields...)
	return nil
}
