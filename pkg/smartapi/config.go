package smartapi

import (
	"time"

	"github.com/cockroachdb/errors"
)

// ========== 客户端配置 ==========

// Config configures the HTTP request pipeline.
type Config struct {
	// API 认证
	APIKey string `yaml:"api_key" json:"apiKey" mapstructure:"api_key"`

	// 网络配置
	BaseURL   string        `yaml:"base_url" json:"baseUrl" mapstructure:"base_url"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"` // 0 = transport default
	UserAgent string        `yaml:"user_agent" json:"userAgent" mapstructure:"user_agent"`

	// 客户端标识头
	LocalIP    string `yaml:"local_ip" json:"localIp" mapstructure:"local_ip"`
	PublicIP   string `yaml:"public_ip" json:"publicIp" mapstructure:"public_ip"`
	MACAddress string `yaml:"mac_address" json:"macAddress" mapstructure:"mac_address"`

	Headers map[string]string `yaml:"headers" json:"headers" mapstructure:"headers"`

	// 本地限速（默认关闭）
	EnableRateLimit bool    `yaml:"enable_rate_limit" json:"enableRateLimit" mapstructure:"enable_rate_limit"`
	RateLimit       float64 `yaml:"rate_limit" json:"rateLimit" mapstructure:"rate_limit"` // requests per second
	RateBurst       int     `yaml:"rate_burst" json:"rateBurst" mapstructure:"rate_burst"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    RootURL,
		UserAgent:  "smartconnect-go/1.0",
		LocalIP:    "127.0.0.1",
		PublicIP:   "127.0.0.1",
		MACAddress: "00:00:00:00:00:00",
		Headers:    make(map[string]string),
		RateLimit:  10,
		RateBurst:  10,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("api key is required")
	}
	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	if c.EnableRateLimit && (c.RateLimit <= 0 || c.RateBurst <= 0) {
		return errors.Newf("invalid rate limit %.2f/s burst %d", c.RateLimit, c.RateBurst)
	}
	return nil
}

// Clone deep-copies the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Headers = make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		clone.Headers[k] = v
	}
	return &clone
}

// WithAPIKey sets the private API key.
func (c *Config) WithAPIKey(apiKey string) *Config {
	c.APIKey = apiKey
	return c
}

// WithBaseURL points the pipeline at another root.
func (c *Config) WithBaseURL(baseURL string) *Config {
	c.BaseURL = baseURL
	return c
}

// WithTimeout sets a whole-request timeout on the transport.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithClientIdentity sets the identity headers the broker expects.
func (c *Config) WithClientIdentity(localIP, publicIP, macAddress string) *Config {
	c.LocalIP = localIP
	c.PublicIP = publicIP
	c.MACAddress = macAddress
	return c
}

// WithRateLimit enables client-side pacing.
func (c *Config) WithRateLimit(perSecond float64, burst int) *Config {
	c.EnableRateLimit = true
	c.RateLimit = perSecond
	c.RateBurst = burst
	return c
}
