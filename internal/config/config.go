package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig 应用基础信息
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// ClientConfig 协议客户端配置
type ClientConfig struct {
	Server         string        `mapstructure:"server"` // host:port
	Token          string        `mapstructure:"token"`
	ConnectTimeout time.Duration `mapstructure:"connectTimeout"`
	PingInterval   time.Duration `mapstructure:"pingInterval"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	ReadBufferSize int           `mapstructure:"readBufferSize"`
	MaxBodyLen     int           `mapstructure:"maxBodyLen"` // 0 表示不额外限制
}

// RelayConfig UDP 转发配置
type RelayConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Addr       string `mapstructure:"addr"`
	RatePerSec int    `mapstructure:"ratePerSec"`
	Burst      int    `mapstructure:"burst"`
	PinMapPath string `mapstructure:"pinMapPath"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Enable       bool          `mapstructure:"enable"`
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

// APIAuthConfig 控制接口的 API Key 认证
type APIAuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	APIKeys []string `mapstructure:"apiKeys"`
}

// APIConfig 控制接口配置
type APIConfig struct {
	Auth APIAuthConfig `mapstructure:"auth"`
}

// LumberjackConfig 日志滚动（lumberjack）配置
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig 日志级别与输出配置
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig Prometheus 指标暴露配置
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

// RedisConfig 引脚值缓存使用的 Redis 配置
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"poolSize"`
	MinIdleConns int           `mapstructure:"minIdleConns"`
	DialTimeout  time.Duration `mapstructure:"dialTimeout"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	KeyPrefix    string        `mapstructure:"keyPrefix"`
}

// Config 顶层配置结构
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Client  ClientConfig  `mapstructure:"client"`
	Relay   RelayConfig   `mapstructure:"relay"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	API     APIConfig     `mapstructure:"api"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// Load 从 YAML/TOML/JSON 文件与环境变量加载配置。
// 若 path 为空，则尝试从环境变量 PINLINK_CONFIG 读取；否则回退到 configs/example.yaml。
func Load(path string) (*Config, error) {
	v := viper.New()

	// 环境变量覆盖：前缀 PINLINK_，并将点号替换为下划线
	v.SetEnvPrefix("PINLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("example")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 允许缺少配置文件，依赖默认值与环境变量
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate 校验启动所需的关键配置
func (c *Config) Validate() error {
	if c.Client.Server == "" {
		return errors.New("client.server is required")
	}
	if c.Client.Token == "" {
		return errors.New("client.token is required")
	}
	if c.Client.ConnectTimeout <= 0 {
		return fmt.Errorf("client.connectTimeout must be positive, got %s", c.Client.ConnectTimeout)
	}
	if c.Client.PingInterval <= 0 {
		return fmt.Errorf("client.pingInterval must be positive, got %s", c.Client.PingInterval)
	}
	if c.API.Auth.Enabled && len(c.API.Auth.APIKeys) == 0 {
		return errors.New("api.auth.apiKeys is required when api auth is enabled")
	}
	if c.Relay.Enable && c.Relay.Addr == "" {
		return errors.New("relay.addr is required when relay is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "pinlink")
	v.SetDefault("app.env", "dev")

	v.SetDefault("client.server", "blynk-cloud.com:80")
	v.SetDefault("client.token", "")
	v.SetDefault("client.connectTimeout", "1s")
	v.SetDefault("client.pingInterval", "5s")
	v.SetDefault("client.writeTimeout", "5s")
	v.SetDefault("client.readBufferSize", 1024)
	v.SetDefault("client.maxBodyLen", 0)

	v.SetDefault("relay.enable", false)
	v.SetDefault("relay.addr", ":9050")
	v.SetDefault("relay.ratePerSec", 50)
	v.SetDefault("relay.burst", 100)
	v.SetDefault("relay.pinMapPath", "")

	v.SetDefault("http.enable", true)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "10s")

	v.SetDefault("api.auth.enabled", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 100)
	v.SetDefault("logging.file.maxBackups", 7)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.minIdleConns", 2)
	v.SetDefault("redis.dialTimeout", "3s")
	v.SetDefault("redis.readTimeout", "2s")
	v.SetDefault("redis.writeTimeout", "2s")
	v.SetDefault("redis.keyPrefix", "pinlink")
}
