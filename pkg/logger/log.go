package logger

import (
	"os"
	"strings"

	"github.com/uber/jaeger-client-go/utils"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FieldNameModule is the field key used by WithModule.
const FieldNameModule = "module"

const (
	defaultRateCredits = 1.0
	defaultRateBalance = 60.0
)

// Config describes where and how logs are written.
type Config struct {
	Level  string     `yaml:"level" json:"level"`
	Format string     `yaml:"format" json:"format"` // json or console
	File   FileConfig `yaml:"file" json:"file"`

	// 限速日志：每秒补充的额度与上限
	RateCredits float64 `yaml:"rate_credits" json:"rate_credits"`
	RateBalance float64 `yaml:"rate_balance" json:"rate_balance"`
}

// FileConfig enables rotated file output when Filename is set.
type FileConfig struct {
	Filename   string `yaml:"filename" json:"filename"`
	MaxSize    int    `yaml:"max_size" json:"max_size"` // MB
	MaxDays    int    `yaml:"max_days" json:"max_days"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
}

// DefaultConfig logs info and above to stdout as console text.
func DefaultConfig() *Config {
	return &Config{
		Level:       "info",
		Format:      "console",
		RateCredits: defaultRateCredits,
		RateBalance: defaultRateBalance,
	}
}

// ZapProperties records the pieces a logger was built from.
type ZapProperties struct {
	Core   zapcore.Core
	Syncer zapcore.WriteSyncer
	Level  zap.AtomicLevel
}

// MLogger is a zap logger with rate-limited helpers.
type MLogger struct {
	*zap.Logger
}

// With returns a child MLogger carrying fields.
func (l *MLogger) With(fields ...zap.Field) *MLogger {
	return &MLogger{Logger: l.Logger.With(fields...)}
}

// RatedDebug logs at debug level when the global rate limiter has credit.
func (l *MLogger) RatedDebug(cost float64, msg string, fields ...zap.Field) bool {
	if R().CheckCredit(cost) {
		l.Debug(msg, fields...)
		return true
	}
	return false
}

// RatedInfo logs at info level when the global rate limiter has credit.
func (l *MLogger) RatedInfo(cost float64, msg string, fields ...zap.Field) bool {
	if R().CheckCredit(cost) {
		l.Info(msg, fields...)
		return true
	}
	return false
}

// RatedWarn logs at warn level when the global rate limiter has credit.
func (l *MLogger) RatedWarn(cost float64, msg string, fields ...zap.Field) bool {
	if R().CheckCredit(cost) {
		l.Warn(msg, fields...)
		return true
	}
	return false
}

var (
	_globalL atomic.Pointer[zap.Logger]
	_globalP atomic.Pointer[ZapProperties]
	_globalR atomic.Pointer[utils.ReconfigurableRateLimiter]
)

func init() {
	l, p, err := InitLogger(DefaultConfig())
	if err != nil {
		panic(err)
	}
	ReplaceGlobals(l, p)
	_globalR.Store(utils.NewRateLimiter(defaultRateCredits, defaultRateBalance))
}

// Init builds a logger from cfg and installs it globally.
func Init(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	l, p, err := InitLogger(cfg)
	if err != nil {
		return err
	}
	ReplaceGlobals(l, p)

	credits, balance := cfg.RateCredits, cfg.RateBalance
	if credits <= 0 {
		credits = defaultRateCredits
	}
	if balance <= 0 {
		balance = defaultRateBalance
	}
	_globalR.Store(utils.NewRateLimiter(credits, balance))
	return nil
}

// InitLogger builds a zap logger without installing it.
func InitLogger(cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
		return nil, nil, err
	}

	var syncer zapcore.WriteSyncer
	if cfg.File.Filename != "" {
		syncer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File.Filename,
			MaxSize:    cfg.File.MaxSize,
			MaxAge:     cfg.File.MaxDays,
			MaxBackups: cfg.File.MaxBackups,
			LocalTime:  true,
		})
	} else {
		syncer = zapcore.Lock(os.Stdout)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, syncer, level)
	opts = append(opts, zap.AddCaller(), zap.ErrorOutput(syncer))
	return zap.New(core, opts...), &ZapProperties{Core: core, Syncer: syncer, Level: level}, nil
}

// ReplaceGlobals swaps the global logger and its properties.
func ReplaceGlobals(l *zap.Logger, p *ZapProperties) {
	_globalL.Store(l)
	_globalP.Store(p)
}

// L returns the global logger.
func L() *zap.Logger {
	return _globalL.Load()
}

// R returns the limiter behind the Rated* helpers.
func R() *utils.ReconfigurableRateLimiter {
	return _globalR.Load()
}

// Sync flushes the global logger.
func Sync() error {
	return L().Sync()
}
