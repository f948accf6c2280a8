// Package config 提供配置加载功能
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// placeholderRe 匹配 ${VAR} 与 ${VAR:default} 两种占位符
var placeholderRe = regexp.MustCompile(`\${(\w+)(:([^}]*))?}`)

// Load 加载配置
// 叠加顺序：基础配置文件 -> 环境配置文件 -> 环境变量，后者覆盖前者。
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := mergeConfigFile(v, "configs/config.yaml", false); err != nil {
		return nil, err
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := mergeConfigFile(v, fmt.Sprintf("configs/config.%s.yaml", env), true); err != nil {
		return nil, err
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// MustLoad 加载配置，失败时 panic
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}
	return cfg
}

// mergeConfigFile 读取文件、展开占位符后叠加到 viper。
// optional 为真时允许文件不存在。
func mergeConfigFile(v *viper.Viper, path string, optional bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	reader := strings.NewReader(expandEnv(string(raw)))
	if v.ConfigFileUsed() != "" {
		if err := v.MergeConfig(reader); err != nil {
			return fmt.Errorf("merge config file %s: %w", path, err)
		}
		return nil
	}

	if err := v.ReadConfig(reader); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	// 标记首个已加载文件，后续走 MergeConfig 分支
	v.SetConfigFile(path)
	return nil
}

// expandEnv 用环境变量替换占位符。变量未定义时取默认值，
// 没有默认值则保留原文，便于排查缺失的变量。
func expandEnv(s string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		groups := placeholderRe.FindStringSubmatch(match)
		name, withDefault, fallback := groups[1], groups[2] != "", groups[3]

		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		if withDefault {
			return fallback
		}
		return match
	})
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	// 应用默认值
	v.SetDefault("app.name", "neura-deck-api")
	v.SetDefault("app.version", "v0.0.0")
	v.SetDefault("app.env", "development")

	// HTTP 服务器默认值
	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.read_timeout", "30s")
	v.SetDefault("server.http.write_timeout", "60s")
	v.SetDefault("server.http.idle_timeout", "120s")

	// 数据库默认值
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.database", "neura_deck")
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.max_open_conns", 50)
	v.SetDefault("database.postgres.max_idle_conns", 10)
	v.SetDefault("database.postgres.conn_max_lifetime", "30m")
	v.SetDefault("database.postgres.conn_max_idle_time", "5m")

	// Redis 默认值
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.pool_size", 100)
	v.SetDefault("cache.redis.min_idle_conns", 10)
	v.SetDefault("cache.redis.dial_timeout", "5s")
	v.SetDefault("cache.redis.read_timeout", "3s")
	v.SetDefault("cache.redis.write_timeout", "3s")

	// 检索默认值
	v.SetDefault("research.tavily.base_url", "https://api.tavily.com")
	v.SetDefault("research.tavily.max_results", 10)
	v.SetDefault("research.tavily.timeout", "20s")

	// 大纲启发式默认值
	v.SetDefault("outline.placeholder_min_chars", 60)
	v.SetDefault("outline.degenerate_ratio", 0.5)
	v.SetDefault("outline.enforce_topic_fit", false)
	v.SetDefault("outline.max_slides", 19)
	v.SetDefault("outline.min_slides", 6)
	v.SetDefault("outline.charts_extra_slides", 4)

	// 消息队列默认值
	v.SetDefault("messaging.redis_stream.max_len", 100000)
	v.SetDefault("messaging.redis_stream.block_timeout", "5s")
	v.SetDefault("messaging.redis_stream.claim_interval", "30s")
	v.SetDefault("messaging.redis_stream.retry_limit", 3)
	v.SetDefault("messaging.redis_stream.retry_backoff.initial", "1s")
	v.SetDefault("messaging.redis_stream.retry_backoff.max", "1m")
	v.SetDefault("messaging.redis_stream.retry_backoff.multiplier", 2)

	// 可观测性默认值
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.logging.output", "stdout")
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.exporter", "otlp")
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")
	v.SetDefault("observability.tracing.sample_rate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.port", 9464)
	v.SetDefault("observability.metrics.path", "/metrics")

	// 安全默认值
	v.SetDefault("security.rate_limit.enabled", true)
	v.SetDefault("security.rate_limit.requests_per_minute", 30)
}
