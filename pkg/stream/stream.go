package stream

import (
	"context"
	"io"
	"iter"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	"github.com/riven-blade/smartconnect/pkg/logger"
	"github.com/riven-blade/smartconnect/pkg/smartapi"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	handshakeTimeout = 10 * time.Second
	controlTimeout   = time.Second
)

// ========== 连接请求 ==========

// Request describes one websocket connection.
type Request struct {
	URL    string
	Header http.Header
}

// NewRequest creates a request with no headers.
func NewRequest(url string) *Request {
	return &Request{URL: url, Header: make(http.Header)}
}

// WithHeader sets a handshake header.
func (r *Request) WithHeader(key, value string) *Request {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set(key, value)
	return r
}

// ========== 类型化消息流 ==========

// Stream is a single-consumer sequence of messages decoded from one
// connection. It is not restartable; Connect again to resume.
type Stream[M any] struct {
	conn *websocket.Conn
	log  *logger.MLogger

	writeMu   sync.Mutex
	done      atomic.Bool
	closeOnce sync.Once
}

// Connect dials req and returns a stream decoding messages as M.
func Connect[M any](ctx context.Context, req *Request) (*Stream[M], error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, req.URL, req.Header)
	if err != nil {
		if resp != nil {
			if resp.StatusCode == http.StatusForbidden {
				return nil, errors.Wrapf(smartapi.ErrRateLimitExceeded, "dial %s", req.URL)
			}
			err = errors.Wrapf(err, "handshake status %d", resp.StatusCode)
		}
		return nil, smartapi.WithClass(errors.Wrapf(err, "dial %s", req.URL), smartapi.ErrTransport)
	}

	s := &Stream[M]{
		conn: conn,
		log:  logger.Ctx(logger.WithModule(ctx, "stream")).With(zap.String("url", req.URL)),
	}
	conn.SetPingHandler(s.handlePing)
	conn.SetPongHandler(func(appData string) error {
		s.log.Debug("pong frame", zap.Int("bytes", len(appData)))
		return nil
	})

	s.log.Info("websocket connected")
	return s, nil
}

func (s *Stream[M]) handlePing(appData string) error {
	s.log.Debug("ping frame", zap.Int("bytes", len(appData)))
	err := s.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(controlTimeout))
	if err == websocket.ErrCloseSent {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return nil
	}
	return err
}

// Subscribe sends msg as a JSON text frame.
func (s *Stream[M]) Subscribe(msg interface{}) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return smartapi.WithClass(errors.Wrap(err, "encode subscription"), smartapi.ErrEncode)
	}
	return s.write(websocket.TextMessage, payload)
}

// SendText sends a raw text frame, e.g. a keep-alive "ping".
func (s *Stream[M]) SendText(text string) error {
	return s.write(websocket.TextMessage, []byte(text))
}

func (s *Stream[M]) write(messageType int, payload []byte) error {
	if s.done.Load() {
		return smartapi.WithClass(errors.New("stream closed"), smartapi.ErrTransport)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(messageType, payload); err != nil {
		return smartapi.WithClass(errors.Wrap(err, "write frame"), smartapi.ErrTransport)
	}
	return nil
}

// Next blocks until one item is available. It returns io.EOF once the
// connection has ended. Cancelling ctx tears the connection down.
func (s *Stream[M]) Next(ctx context.Context) (M, error) {
	var zero M
	if s.done.Load() {
		return zero, io.EOF
	}

	defer s.watchContext(ctx)()

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			return zero, s.readFailed(ctx, err)
		}

		frame := Frame{Kind: FrameRaw, Data: data}
		switch messageType {
		case websocket.TextMessage:
			frame.Kind = FrameText
		case websocket.BinaryMessage:
			frame.Kind = FrameBinary
		}

		if item, ok := Classify[M](frame); ok {
			if item.Err != nil {
				s.log.RatedDebug(1, "frame error", zap.Stringer("kind", frame.Kind), zap.Error(item.Err))
			}
			return item.Msg, item.Err
		}
	}
}

// watchContext interrupts a blocked read once ctx is done. The returned
// release func clears the deadline again if the interrupt already fired.
func (s *Stream[M]) watchContext(ctx context.Context) func() {
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		_ = s.conn.SetReadDeadline(time.Now())
	})
	return func() {
		if stop() {
			return
		}
		<-fired
		_ = s.conn.SetReadDeadline(time.Time{})
	}
}

// readFailed ends the stream and returns its final item.
func (s *Stream[M]) readFailed(ctx context.Context, err error) error {
	s.done.Store(true)

	if ctxErr := ctx.Err(); ctxErr != nil {
		s.Close()
		return ctxErr
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		s.log.Info("websocket closed by peer", zap.Int("code", closeErr.Code), zap.String("reason", closeErr.Text))
		item, _ := Classify[M](Frame{Kind: FrameClose, CloseCode: closeErr.Code, CloseText: closeErr.Text})
		s.Close()
		return item.Err
	}

	s.Close()
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return io.EOF
	}
	s.log.Warn("websocket read failed", zap.Error(err))
	return smartapi.WithClass(errors.Wrap(err, "read frame"), smartapi.ErrTransport)
}

// All adapts the stream to a range-over-func sequence.
func (s *Stream[M]) All(ctx context.Context) iter.Seq2[M, error] {
	return func(yield func(M, error) bool) {
		for {
			msg, err := s.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(msg, err) {
				return
			}
		}
	}
}

// Close sends a normal close frame and releases the connection.
func (s *Stream[M]) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.done.Store(true)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(controlTimeout))
		err = s.conn.Close()
		s.log.Debug("websocket released")
	})
	return err
}
