package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riven-blade/smartconnect/pkg/logger"
	"github.com/riven-blade/smartconnect/pkg/smartapi"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// 常量定义
// =============================================================================

const (
	DefaultAppName = "smartconnect"

	// 会话存储
	SessionStoreNone   = "none"
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"

	DefaultSessionTTL = 12 * time.Hour

	// 订单推送保活
	DefaultKeepAlive = 10 * time.Second
)

// =============================================================================
// 核心配置
// =============================================================================

// Config is the configuration of the smartconnect binary. Library packages
// never read it; they take their own config structs.
type Config struct {
	Name string `yaml:"name" json:"name"`

	Log         *logger.Config     `yaml:"log" json:"log"`
	SmartAPI    *smartapi.Config   `yaml:"smartapi" json:"smartapi"`
	Credentials *Credentials       `yaml:"credentials" json:"credentials"`
	Session     *SessionConfig     `yaml:"session" json:"session"`
	OrderStatus *OrderStatusConfig `yaml:"order_status" json:"order_status"`
}

// Credentials identify the trading account.
type Credentials struct {
	ClientCode string `yaml:"client_code" json:"client_code" mapstructure:"client_code"`
	PIN        string `yaml:"pin" json:"pin" mapstructure:"pin"`
	TOTPSecret string `yaml:"totp_secret" json:"totp_secret" mapstructure:"totp_secret"` // base32
}

// SessionConfig selects where session tokens are persisted between runs.
type SessionConfig struct {
	Store string        `yaml:"store" json:"store" mapstructure:"store"`
	TTL   time.Duration `yaml:"ttl" json:"ttl" mapstructure:"ttl"`
	Redis *RedisConfig  `yaml:"redis" json:"redis"`
}

// OrderStatusConfig configures the order update stream of the binary.
type OrderStatusConfig struct {
	Enabled   bool                 `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	URL       string               `yaml:"url" json:"url" mapstructure:"url"`
	KeepAlive time.Duration        `yaml:"keep_alive" json:"keep_alive" mapstructure:"keep_alive"`
	Retry     smartapi.RetryPolicy `yaml:"retry" json:"retry"`
}

// =============================================================================
// 默认配置和构造函数
// =============================================================================

// DefaultConfig returns the defaults every loaded file is merged over.
func DefaultConfig() *Config {
	return &Config{
		Name:        DefaultAppName,
		Log:         logger.DefaultConfig(),
		SmartAPI:    smartapi.DefaultConfig(),
		Credentials: &Credentials{},
		Session: &SessionConfig{
			Store: SessionStoreMemory,
			TTL:   DefaultSessionTTL,
			Redis: NewRedisConfig(),
		},
		OrderStatus: &OrderStatusConfig{
			Enabled:   true,
			KeepAlive: DefaultKeepAlive,
			Retry:     smartapi.DefaultRetryPolicy(),
		},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	cfg.fillDefaults()
	return cfg, nil
}

// =============================================================================
// 配置验证和工具方法
// =============================================================================

// fillDefaults restores sections a file explicitly nulled out.
func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.Log == nil {
		c.Log = def.Log
	}
	if c.SmartAPI == nil {
		c.SmartAPI = def.SmartAPI
	}
	if c.Credentials == nil {
		c.Credentials = def.Credentials
	}
	if c.Session == nil {
		c.Session = def.Session
	}
	if c.Session.Redis == nil {
		c.Session.Redis = def.Session.Redis
	}
	if c.OrderStatus == nil {
		c.OrderStatus = def.OrderStatus
	}
}

// Validate checks the settings the binary cannot run without.
func (c *Config) Validate() error {
	c.fillDefaults()

	if err := c.SmartAPI.Validate(); err != nil {
		return errors.Wrap(err, "smartapi")
	}
	if c.Credentials.ClientCode == "" || c.Credentials.PIN == "" {
		return errors.New("credentials: client_code and pin are required")
	}
	switch c.Session.Store {
	case SessionStoreNone, SessionStoreMemory, SessionStoreRedis:
	case "":
		c.Session.Store = SessionStoreNone
	default:
		return errors.Newf("session: unknown store %q", c.Session.Store)
	}
	if c.Session.TTL < 0 {
		return errors.New("session: ttl cannot be negative")
	}
	if c.OrderStatus.KeepAlive <= 0 {
		c.OrderStatus.KeepAlive = DefaultKeepAlive
	}
	return nil
}
