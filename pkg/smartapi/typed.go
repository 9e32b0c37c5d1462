package smartapi

import (
	"context"
	"net/http"

	"github.com/riven-blade/smartconnect/pkg/logger"
	"go.uber.org/zap"
)

// Routed is implemented by payload types bound to one endpoint. Implement it
// on the value receiver so the zero value can be asked for its route.
type Routed interface {
	Endpoint() Endpoint
}

// Do sends one call and returns the envelope of a successful response.
// A status=false envelope becomes *FailedRequestError.
func Do[R any](ctx context.Context, c *Client, method string, ep Endpoint, body interface{}) (*Envelope[R], error) {
	raw, err := c.roundTrip(ctx, method, ep, body)
	if err != nil {
		return nil, err
	}
	env, err := DecodeEnvelope[R](raw)
	if err != nil {
		logger.Ctx(ctx).Error("smartapi decode failed", zap.Stringer("endpoint", ep), zap.Error(err))
		return nil, err
	}
	if !env.Status {
		logger.Ctx(ctx).Warn("smartapi request rejected",
			zap.Stringer("endpoint", ep),
			zap.String("message", env.Message),
			zap.String("errorcode", string(env.ErrorCode)))
		return nil, &FailedRequestError{Message: env.Message, Code: env.ErrorCode, Endpoint: ep.String()}
	}
	return env, nil
}

// ========== GET ==========

// Fetch issues a GET to T's endpoint with body as the query.
func Fetch[T Routed](ctx context.Context, c *Client, body interface{}) (*Envelope[T], error) {
	var zero T
	return Do[T](ctx, c, http.MethodGet, zero.Endpoint(), body)
}

// FetchData is Fetch followed by IntoData.
func FetchData[T Routed](ctx context.Context, c *Client, body interface{}) (T, error) {
	env, err := Fetch[T](ctx, c, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return env.IntoData()
}

// FetchCollection is a GET whose data is a list of T. Absent data is empty.
func FetchCollection[T Routed](ctx context.Context, c *Client, body interface{}) ([]T, error) {
	var zero T
	env, err := Do[[]T](ctx, c, http.MethodGet, zero.Endpoint(), body)
	if err != nil {
		return nil, err
	}
	return IntoCollection(env), nil
}

// ========== POST ==========

// Send posts req to its own endpoint and decodes the data as R.
func Send[R any, S Routed](ctx context.Context, c *Client, req S) (*Envelope[R], error) {
	return Do[R](ctx, c, http.MethodPost, req.Endpoint(), req)
}

// SendData is Send followed by IntoData.
func SendData[R any, S Routed](ctx context.Context, c *Client, req S) (R, error) {
	env, err := Send[R](ctx, c, req)
	if err != nil {
		var zero R
		return zero, err
	}
	return env.IntoData()
}

// SendCollection posts req and returns the rows of the response.
func SendCollection[R any, S Routed](ctx context.Context, c *Client, req S) ([]R, error) {
	env, err := Do[[]R](ctx, c, http.MethodPost, req.Endpoint(), req)
	if err != nil {
		return nil, err
	}
	return IntoCollection(env), nil
}
