package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/LJTian/NewsHarvest/internal/logger"
	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	PostgresDSN string
	RedisAddr   string

	// 调度：与原 DAG 一致，默认每天一次，失败重试 1 次、间隔 5 分钟
	CronSpec       string
	RunOnStart     bool
	TaskRetries    int
	TaskRetryDelay time.Duration

	// 采集
	DataDir       string
	FeedsFile     string
	UserAgent     string
	FetchInterval time.Duration
	FetchTimeout  time.Duration
	FetchWorkers  int

	// 快照（dvc add / git commit / dvc push）
	SnapshotEnabled bool
	SnapshotDir     string
	SnapshotMessage string

	BasicAuthUser string
	BasicAuthPass string

	LogLevel string
}

func Load() *Config {
	// .env 不存在时忽略
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:         getEnv("APP_PORT", "9000"),
		PostgresDSN:     getEnv("POSTGRES_DSN", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		CronSpec:        getEnv("CRON_SPEC", "@daily"),
		RunOnStart:      getEnvBool("RUN_ON_START", false),
		TaskRetries:     getEnvInt("TASK_RETRIES", 1),
		TaskRetryDelay:  getEnvDuration("TASK_RETRY_DELAY", 5*time.Minute),
		DataDir:         getEnv("DATA_DIR", "data"),
		FeedsFile:       getEnv("FEEDS_FILE", ""),
		UserAgent:       getEnv("USER_AGENT", "NewsHarvestBot/1.0"),
		FetchInterval:   getEnvDuration("FETCH_INTERVAL", time.Second),
		FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		FetchWorkers:    getEnvInt("FETCH_WORKERS", 1),
		SnapshotEnabled: getEnvBool("SNAPSHOT_ENABLED", false),
		SnapshotDir:     getEnv("SNAPSHOT_DIR", "."),
		SnapshotMessage: getEnv("SNAPSHOT_MESSAGE", "Update datasets"),
		BasicAuthUser:   getEnv("APP_BASIC_USER", ""),
		BasicAuthPass:   getEnv("APP_BASIC_PASS", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
	if cfg.FetchWorkers < 1 {
		cfg.FetchWorkers = 1
	}
	if cfg.TaskRetries < 0 {
		cfg.TaskRetries = 0
	}

	logger.Infof("config loaded: port=%s cron=%s data=%s workers=%d interval=%s",
		cfg.AppPort, cfg.CronSpec, cfg.DataDir, cfg.FetchWorkers, cfg.FetchInterval)
	return cfg
}

// RawPath 某个源的原始表路径
func (c *Config) RawPath(source string) string {
	return filepath.Join(c.DataDir, source+"_news_data.csv")
}

// CleanPath 某个源的规范化表路径，与原始表分开存放
func (c *Config) CleanPath(source string) string {
	return filepath.Join(c.DataDir, "cleaned", "cleaned_"+source+"_news_data.csv")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warnf("config: invalid %s=%q, use default %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warnf("config: invalid %s=%q, use default %t", key, v, def)
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warnf("config: invalid %s=%q, use default %s", key, v, def)
		return def
	}
	return d
}
