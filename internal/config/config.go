package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig Postgres 连接配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 构建数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT 配置（读数接入）
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
	Topic    string // readings subscription topic
}

// SimulationConfig 模拟数据开关与概率
type SimulationConfig struct {
	Enabled          bool
	RandomAlertProb  float64 // chance per tick of one synthetic alert
	RandomReportProb float64 // chance per tick of one synthetic report
}

// AgingConfig 上报状态老化策略参数
type AgingConfig struct {
	PendingAfter    time.Duration
	InProgressAfter time.Duration
	AdvanceProb     float64 // pending -> in_progress
	ResolveProb     float64 // in_progress -> resolved
	RejectProb      float64 // in_progress -> rejected
}

// Config citysense 服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	HTTP struct {
		Addr string
	}

	// Scheduler intervals; each loop runs independently.
	Scheduler struct {
		EvaluateInterval time.Duration // threshold evaluation pass
		ReadingInterval  time.Duration // simulated reading ingestion
		ReportInterval   time.Duration // simulated/feed report production
		AgingInterval    time.Duration // report status aging pass
	}

	// Simulation switches and the external report feed.
	Simulation SimulationConfig

	ReportFeed struct {
		URL     string // empty disables the resty poller
		Timeout time.Duration
	}

	// Aging policy cutoffs and probabilities (simulation defaults,
	// overridable so real deployments can pin them to 0/1).
	Aging AgingConfig

	Cache struct {
		RealtimeKeyPrefix string        // latest reading cache, e.g. "citysense:sensor:"
		RealtimeTTL       time.Duration
		SuppressKeyPrefix string        // per-sensor alert suppression mark
		SuppressTTL       time.Duration
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置（带默认值）
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "citysense")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "citysense-ingest")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 1
	cfg.MQTT.Topic = getEnv("MQTT_READINGS_TOPIC", "citysense/readings/+")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Scheduler.EvaluateInterval = getEnvDuration("EVALUATE_INTERVAL", 2*time.Minute)
	cfg.Scheduler.ReadingInterval = getEnvDuration("READING_INTERVAL", 5*time.Minute)
	cfg.Scheduler.ReportInterval = getEnvDuration("REPORT_INTERVAL", 15*time.Minute)
	cfg.Scheduler.AgingInterval = getEnvDuration("AGING_INTERVAL", 10*time.Minute)

	cfg.Simulation.Enabled = getEnv("SIMULATION_ENABLED", "true") == "true"
	cfg.Simulation.RandomAlertProb = getEnvFloat("RANDOM_ALERT_PROB", 0.3)
	cfg.Simulation.RandomReportProb = getEnvFloat("RANDOM_REPORT_PROB", 0.4)

	cfg.ReportFeed.URL = getEnv("REPORT_FEED_URL", "")
	cfg.ReportFeed.Timeout = getEnvDuration("REPORT_FEED_TIMEOUT", 10*time.Second)

	cfg.Aging.PendingAfter = getEnvDuration("AGING_PENDING_AFTER", time.Hour)
	cfg.Aging.InProgressAfter = getEnvDuration("AGING_IN_PROGRESS_AFTER", 2*time.Hour)
	cfg.Aging.AdvanceProb = getEnvFloat("AGING_ADVANCE_PROB", 0.6)
	cfg.Aging.ResolveProb = getEnvFloat("AGING_RESOLVE_PROB", 0.4)
	cfg.Aging.RejectProb = getEnvFloat("AGING_REJECT_PROB", 0.1)

	cfg.Cache.RealtimeKeyPrefix = getEnv("CACHE_REALTIME_PREFIX", "citysense:sensor:")
	cfg.Cache.RealtimeTTL = getEnvDuration("CACHE_REALTIME_TTL", 10*time.Minute)
	cfg.Cache.SuppressKeyPrefix = getEnv("CACHE_SUPPRESS_PREFIX", "citysense:alert:suppress:")
	cfg.Cache.SuppressTTL = getEnvDuration("CACHE_SUPPRESS_TTL", 24*time.Hour)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if cfg.Aging.ResolveProb+cfg.Aging.RejectProb > 1 {
		return nil, fmt.Errorf("aging resolve+reject probability must not exceed 1")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
