package config

import "time"

// RedisConfig Redis连接配置
type RedisConfig struct {
	Host              string        `yaml:"host" json:"host" mapstructure:"host"`                                           // 主机地址
	Port              int           `yaml:"port" json:"port" mapstructure:"port"`                                           // 端口
	Password          string        `yaml:"password" json:"password" mapstructure:"password"`                               // 密码 (可选)
	Database          int           `yaml:"database" json:"database" mapstructure:"database"`                               // 数据库编号 (0-15)
	KeyPrefix         string        `yaml:"key_prefix" json:"key_prefix" mapstructure:"key_prefix"`                         // 会话键前缀
	PoolSize          int           `yaml:"pool_size" json:"pool_size" mapstructure:"pool_size"`                            // 连接池大小
	ConnectionTimeout time.Duration `yaml:"connection_timeout" json:"connection_timeout" mapstructure:"connection_timeout"` // 连接超时
	QueryTimeout      time.Duration `yaml:"query_timeout" json:"query_timeout" mapstructure:"query_timeout"`                // 查询超时
}

// NewRedisConfig 创建默认Redis配置
func NewRedisConfig() *RedisConfig {
	return &RedisConfig{
		Host:              "localhost",
		Port:              6379,
		Database:          0,
		KeyPrefix:         "smartconnect:session:",
		PoolSize:          4,
		ConnectionTimeout: 5 * time.Second,
		QueryTimeout:      3 * time.Second,
	}
}
