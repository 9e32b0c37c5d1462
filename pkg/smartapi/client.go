package smartapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/riven-blade/smartconnect/pkg/logger"
	"github.com/spf13/cast"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// ========== HTTP 请求管道 ==========

// Client sends authenticated calls to the broker and unwraps the envelope.
// Token installation is not synchronised against in-flight session changes;
// callers serialise login and logout themselves.
type Client struct {
	config     *Config
	httpClient *http.Client
	limiter    *RateLimiter

	token atomic.String
	seq   atomic.Int64
}

// NewClient builds a pipeline from cfg. The config is cloned.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid smartapi config")
	}
	cfg = cfg.Clone()
	if cfg.BaseURL == "" {
		cfg.BaseURL = RootURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return nil
			},
		},
	}
	if cfg.EnableRateLimit {
		c.limiter = NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	}
	return c, nil
}

// Config returns a copy of the pipeline configuration.
func (c *Client) Config() *Config {
	return c.config.Clone()
}

// SetToken installs the bearer token attached to subsequent calls.
func (c *Client) SetToken(token string) {
	c.token.Store(token)
}

// ClearToken removes the bearer token.
func (c *Client) ClearToken() {
	c.token.Store("")
}

// HasToken reports whether a bearer token is installed.
func (c *Client) HasToken() bool {
	return c.token.Load() != ""
}

// BearerToken returns the installed token, empty when none.
func (c *Client) BearerToken() string {
	return c.token.Load()
}

// roundTrip performs one call and returns the raw body of a non-403 response.
func (c *Client) roundTrip(ctx context.Context, method string, ep Endpoint, body interface{}) ([]byte, error) {
	reqURL := c.config.BaseURL + ep.Path()
	req, err := c.newRequest(ctx, method, reqURL, body)
	if err != nil {
		return nil, err
	}

	reqID := c.seq.Inc()
	ctx = logger.WithReqID(ctx, reqID)
	log := logger.Ctx(ctx)
	log.Debug("smartapi request",
		zap.String("method", method),
		zap.Stringer("endpoint", ep),
		zap.Bool("auth", req.Header.Get("Authorization") != ""))

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, newTransportError(err, "rate limiter wait for %s", ep)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("smartapi request failed", zap.Stringer("endpoint", ep), zap.Error(err))
		return nil, newTransportError(err, "%s %s", method, ep)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		log.Warn("smartapi rate limited", zap.Stringer("endpoint", ep))
		return nil, errors.Wrapf(ErrRateLimitExceeded, "%s %s", method, ep)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newTransportError(err, "read body of %s", ep)
	}
	log.Debug("smartapi response",
		zap.Stringer("endpoint", ep),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)))
	return raw, nil
}

func (c *Client) newRequest(ctx context.Context, method, reqURL string, body interface{}) (*http.Request, error) {
	var (
		req *http.Request
		err error
	)
	switch method {
	case http.MethodGet:
		query, qerr := encodeQuery(body)
		if qerr != nil {
			return nil, newEncodeError(qerr, "encode query")
		}
		if len(query) > 0 {
			reqURL += "?" + query.Encode()
		}
		req, err = http.NewRequestWithContext(ctx, method, reqURL, nil)
	case http.MethodPost:
		var payload []byte
		if body != nil {
			payload, err = json.Marshal(body)
			if err != nil {
				return nil, newEncodeError(err, "encode body")
			}
		}
		req, err = http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(payload))
	default:
		panic(errors.AssertionFailedf("unsupported HTTP method %q", method))
	}
	if err != nil {
		return nil, newTransportError(err, "build request")
	}

	c.applyHeaders(req.Header)
	return req, nil
}

func (c *Client) applyHeaders(h http.Header) {
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set("X-UserType", "USER")
	h.Set("X-SourceID", "WEB")
	h.Set("X-ClientLocalIP", c.config.LocalIP)
	h.Set("X-ClientPublicIP", c.config.PublicIP)
	h.Set("X-MACAddress", c.config.MACAddress)
	h.Set("X-PrivateKey", c.config.APIKey)
	if c.config.UserAgent != "" {
		h.Set("User-Agent", c.config.UserAgent)
	}
	for k, v := range c.config.Headers {
		h.Set(k, v)
	}
	if token := c.token.Load(); token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
}

// encodeQuery flattens a GET body into query parameters. Structs go through
// their JSON field names; nested values are rejected.
func encodeQuery(body interface{}) (url.Values, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return b, nil
	case map[string]string:
		values := make(url.Values, len(b))
		for k, v := range b {
			values.Set(k, v)
		}
		return values, nil
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Wrap(err, "query body must be a JSON object")
	}
	values := make(url.Values, len(fields))
	for k, v := range fields {
		if v == nil {
			continue
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, errors.Wrapf(err, "query field %q", k)
		}
		values.Set(k, s)
	}
	return values, nil
}

// GetJSON downloads a plain JSON document without envelope or credentials.
func GetJSON[R any](ctx context.Context, c *Client, rawURL string) (R, error) {
	var out R
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return out, newTransportError(err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	logger.Ctx(ctx).Debug("smartapi download", zap.String("url", rawURL))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, newTransportError(err, "GET %s", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return out, errors.Wrapf(ErrRateLimitExceeded, "GET %s", rawURL)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, newDecodeError(err, "decode %s", rawURL)
	}
	return out, nil
}
