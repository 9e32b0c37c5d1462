package core

import (
	"context"

	"github.com/riven-blade/smartconnect/pkg/angelone"
)

// =============================================================================
// 核心业务接口
// =============================================================================

// Publisher 事件发布者接口
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// EventHandler 事件处理器接口
type EventHandler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }

// FeedSource yields the order update handshake of the current session.
// *angelone.SmartConnect implements it.
type FeedSource interface {
	OrderStatusFeed() (*angelone.OrderStatusFeed, error)
}

// =============================================================================
// 核心数据结构
// =============================================================================

// Event 统一事件结构
type Event struct {
	Type       EventType             `json:"type"`
	ClientCode string                `json:"client_code"`
	Update     *angelone.OrderStatus `json:"update,omitempty"` // EventOrderUpdate only
	Timestamp  int64                 `json:"timestamp"`
}

// EventType 事件类型枚举
type EventType string

const (
	EventFeedConnected EventType = "feed_connected"
	EventOrderUpdate   EventType = "order_update"
	EventFeedClosed    EventType = "feed_closed"
)

// Health 健康状态
type Health struct {
	Status    string            `json:"status"`  // healthy, unhealthy, degraded
	Details   map[string]string `json:"details"` // 详细信息
	Timestamp int64             `json:"timestamp"`
}
