package smartapi

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ========== 错误分类 ==========

// Class errors. Wrapped causes are marked with one of these so callers can
// classify with errors.Is and still reach the cause.
var (
	ErrTransport         = errors.New("transport error")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrDecode            = errors.New("decode error")
	ErrEncode            = errors.New("encode error")
	ErrMissingData       = errors.New("missing data in API response")

	ErrSessionNotEstablished = errors.New("unable to establish the session")

	ErrInvalidSubscriptionParams   = errors.New("params required for the subscription request")
	ErrInvalidSubscriptionToken    = errors.New("token required for the token list")
	ErrInvalidSubscriptionExchange = errors.New("invalid subscription exchange")
	ErrInvalidSubscriptionMode     = errors.New("invalid subscription mode")
)

// FailedRequestError is a response the server marked status=false.
type FailedRequestError struct {
	Message  string
	Code     ErrorCode
	Endpoint string
}

func (e *FailedRequestError) Error() string {
	if e.Code.IsNone() {
		return fmt.Sprintf("failed request from server: %s", e.Message)
	}
	return fmt.Sprintf("failed request from server: %s [%s]", e.Message, string(e.Code))
}

// classError attaches a failure class to a cause. Both the class and the
// cause are reachable through Unwrap, so errors.Is matches either.
type classError struct {
	class error
	cause error
}

func (e *classError) Error() string   { return e.cause.Error() }
func (e *classError) Unwrap() []error { return []error{e.class, e.cause} }

// WithClass returns cause tagged with one of the sentinel classes above.
func WithClass(cause, class error) error {
	if cause == nil {
		return nil
	}
	return &classError{class: class, cause: cause}
}

func newTransportError(cause error, format string, args ...interface{}) error {
	return WithClass(errors.Wrapf(cause, format, args...), ErrTransport)
}

func newDecodeError(cause error, format string, args ...interface{}) error {
	return WithClass(errors.Wrapf(cause, format, args...), ErrDecode)
}

func newEncodeError(cause error, format string, args ...interface{}) error {
	return WithClass(errors.Wrapf(cause, format, args...), ErrEncode)
}

// IsRetryable reports failures a caller may sensibly retry after a pause.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrRateLimitExceeded)
}

// IsRateLimit reports an HTTP 403 from the broker.
func IsRateLimit(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded)
}

// IsFailedRequest reports a server-side status=false response.
func IsFailedRequest(err error) bool {
	var fr *FailedRequestError
	return errors.As(err, &fr)
}

// FailedMessage returns the server message of a failed request.
func FailedMessage(err error) (string, bool) {
	var fr *FailedRequestError
	if errors.As(err, &fr) {
		return fr.Message, true
	}
	return "", false
}

// FailedCode returns the errorcode of a failed request.
func FailedCode(err error) (ErrorCode, bool) {
	var fr *FailedRequestError
	if errors.As(err, &fr) {
		return fr.Code, true
	}
	return NoError, false
}
