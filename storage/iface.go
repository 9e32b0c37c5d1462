package storage

import (
	"context"
	"time"
)

// SessionRecord is a persisted set of session tokens.
type SessionRecord struct {
	ClientCode   string    `json:"clientCode"`
	JwtToken     string    `json:"jwtToken"`
	RefreshToken string    `json:"refreshToken"`
	FeedToken    string    `json:"feedToken"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SessionStore persists session tokens keyed by client code. Load returns
// ErrDataNotFound when nothing is stored or the record expired.
type SessionStore interface {
	Save(ctx context.Context, record *SessionRecord, ttl time.Duration) error
	Load(ctx context.Context, clientCode string) (*SessionRecord, error)
	Delete(ctx context.Context, clientCode string) error
	Close() error
}
