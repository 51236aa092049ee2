package conf

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// 配置加载（API密钥、数据库、券商、策略等）

type WebhookConfig struct {
	// 非空时校验 X-Signature (hex hmac-sha256)
	Secret string `yaml:"secret"`
}

type Db struct {
	Driver   string `yaml:"driver"` // mysql / postgres
	DbName   string `yaml:"dbname"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	FileName   string `yaml:"file-name"`
	TimeFormat string `yaml:"time-format"`
	MaxSize    int    `yaml:"max-size"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAge     int    `yaml:"max-age"`
	Compress   bool   `yaml:"compress"`
	LocalTime  bool   `yaml:"local-time"`
	Console    bool   `yaml:"console"`
}

// RedisConfig is used to configure redis
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"address"`
	Password     string        `yaml:"password"`
	Db           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool-size"`
	MinIdleConns int           `yaml:"min-idle-conns"`
	IdleTimeout  int           `yaml:"idle-timeout"`
	DedupTTL     time.Duration `yaml:"dedup-ttl"` // 相同告警的去重窗口
}

type KafkaConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Broker          string `yaml:"broker"`
	AlertTopic      string `yaml:"alert-topic"`
	DeadLetterTopic string `yaml:"dead-letter-topic"`
	GroupID         string `yaml:"group-id"`
}

type AlpacaConfig struct {
	KeyID     string `yaml:"key-id"`
	SecretKey string `yaml:"secret-key"`
	BaseURL   string `yaml:"base-url"`
	Simulated bool   `yaml:"simulated"`
}

type PipelineConfig struct {
	// 关闭时等待在途信号的最长时间
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout"`
	// 单个信号(含重试)的总时限，0 表示不限制
	SignalTimeout time.Duration `yaml:"signal-timeout"`
	// snowflake 节点号
	WorkerID int64 `yaml:"worker-id"`
	// 非空时把每个信号结果追加写入该 JSON lines 文件
	Journal string `yaml:"journal"`
}

type StrategyConfig struct {
	ID              string  `yaml:"id"`
	Name            string  `yaml:"name"`
	Enabled         bool    `yaml:"enabled"`
	Broker          string  `yaml:"broker"`
	CurrencyType    string  `yaml:"currency_type"`
	MaxOrderRetries uint8   `yaml:"max_order_retries"`
	OrderRetryDelay float64 `yaml:"order_retry_delay"` // 秒
	OrderQty        string  `yaml:"order_qty"`
}

type Config struct {
	AppName      string `yaml:"app_name"`
	Listen       string `yaml:"listen"`
	Mode         string `yaml:"mode"`
	Language     string `yaml:"language"`
	MaxPingCount int    `yaml:"max-ping-count"`
	ApiKey       string `yaml:"api_key"`

	Webhook    WebhookConfig    `yaml:"webhook"`
	Db         `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Alpaca     AlpacaConfig     `yaml:"alpaca"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Strategies []StrategyConfig `yaml:"strategies"`
}

var AppConfig Config

// LoadConfig 读取yaml配置，随后用 .env / 环境变量覆盖敏感字段
func LoadConfig(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	AppConfig = *cfg
	return nil
}

// Load 读取并返回配置，不修改全局 AppConfig
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Read config file error %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("Unmarshal config yaml error: %w", err)
	}
	// .env 不存在时忽略
	_ = godotenv.Load()
	cfg.applyEnv()
	return cfg, nil
}

// Default 默认配置
func Default() *Config {
	return &Config{
		AppName:      "alertflow",
		Listen:       ":8080",
		Mode:         "release",
		Language:     "en",
		MaxPingCount: 10,
		Db:           Db{Driver: "postgres"},
		Log:          LogConfig{Level: "info", Console: true, MaxSize: 100, MaxBackups: 7, MaxAge: 30},
		Redis:        RedisConfig{DedupTTL: time.Minute, PoolSize: 10},
		Kafka: KafkaConfig{
			AlertTopic:      "alertflow_alerts",
			DeadLetterTopic: "alertflow_dead_letter",
			GroupID:         "alertflow",
		},
		Alpaca:   AlpacaConfig{BaseURL: "https://paper-api.alpaca.markets"},
		Pipeline: PipelineConfig{ShutdownTimeout: 30 * time.Second, WorkerID: 1},
	}
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString(&c.ApiKey, "API_KEY")
	setString(&c.Webhook.Secret, "WEBHOOK_SECRET")

	setString(&c.Db.Driver, "DB_DRIVER")
	setString(&c.Db.Username, "DB_USER")
	setString(&c.Db.Password, "DB_PASSWORD")
	setString(&c.Db.Host, "DB_HOST")
	setString(&c.Db.Port, "DB_PORT")
	setString(&c.Db.DbName, "DB_NAME")

	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	if v, ok := os.LookupEnv("REDIS_DB"); ok {
		c.Redis.Db = cast.ToInt(v)
	}

	setString(&c.Kafka.Broker, "KAFKA_BROKER")

	setString(&c.Alpaca.KeyID, "APCA_API_KEY_ID")
	setString(&c.Alpaca.SecretKey, "APCA_API_SECRET_KEY")
	setString(&c.Alpaca.BaseURL, "APCA_API_BASE_URL")
	if v, ok := os.LookupEnv("APCA_SIMULATED"); ok {
		c.Alpaca.Simulated = cast.ToBool(v)
	}
}

// Validate 启动前检查必填项
func (c *Config) Validate() error {
	var err error
	if c.Listen == "" {
		err = multierr.Append(err, errors.New("listen is required"))
	}
	if c.ApiKey == "" {
		err = multierr.Append(err, errors.New("api_key is required"))
	}
	switch c.Db.Driver {
	case "mysql", "postgres":
	default:
		err = multierr.Append(err, fmt.Errorf("unsupported database driver %q", c.Db.Driver))
	}
	if !c.Alpaca.Simulated && (c.Alpaca.KeyID == "" || c.Alpaca.SecretKey == "") {
		err = multierr.Append(err, errors.New("alpaca key-id and secret-key are required unless simulated"))
	}
	if c.Kafka.Enabled && c.Kafka.Broker == "" {
		err = multierr.Append(err, errors.New("kafka broker is required when kafka is enabled"))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		err = multierr.Append(err, errors.New("redis address is required when redis is enabled"))
	}
	if c.Pipeline.ShutdownTimeout < 0 || c.Pipeline.SignalTimeout < 0 {
		err = multierr.Append(err, errors.New("pipeline timeouts must not be negative"))
	}
	if len(c.Strategies) == 0 {
		err = multierr.Append(err, errors.New("at least one strategy is required"))
	}
	for i, s := range c.Strategies {
		if s.OrderRetryDelay < 0 {
			err = multierr.Append(err, fmt.Errorf("strategies[%d] %s: order_retry_delay must be >= 0", i, s.Name))
		}
	}
	return err
}
