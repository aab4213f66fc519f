package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvWithDefault(t *testing.T) {
	const key = "TEST_APP_PORT"

	// 环境变量未设置时，应该返回默认值
	_ = os.Unsetenv(key)
	if got := getEnv(key, "9000"); got != "9000" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "9000")
	}

	// 环境变量设置后，应优先返回环境变量
	t.Setenv(key, "8080")
	if got := getEnv(key, "9000"); got != "8080" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "8080")
	}
}

func TestTypedEnvFallsBackOnGarbage(t *testing.T) {
	t.Setenv("TEST_WORKERS", "many")
	if got := getEnvInt("TEST_WORKERS", 3); got != 3 {
		t.Fatalf("getEnvInt = %d, want 3", got)
	}
	t.Setenv("TEST_INTERVAL", "250ms")
	if got := getEnvDuration("TEST_INTERVAL", time.Second); got != 250*time.Millisecond {
		t.Fatalf("getEnvDuration = %s, want 250ms", got)
	}
	t.Setenv("TEST_FLAG", "yes please")
	if got := getEnvBool("TEST_FLAG", true); !got {
		t.Fatalf("getEnvBool should keep default on invalid value")
	}
}

func TestLoadDefaultsMatchDailySchedule(t *testing.T) {
	for _, k := range []string{"CRON_SPEC", "TASK_RETRIES", "TASK_RETRY_DELAY", "FETCH_INTERVAL", "FETCH_WORKERS"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.CronSpec != "@daily" {
		t.Fatalf("CronSpec = %q, want @daily", cfg.CronSpec)
	}
	if cfg.TaskRetries != 1 || cfg.TaskRetryDelay != 5*time.Minute {
		t.Fatalf("retry policy = %d/%s, want 1/5m", cfg.TaskRetries, cfg.TaskRetryDelay)
	}
	if cfg.FetchInterval != time.Second || cfg.FetchWorkers != 1 {
		t.Fatalf("fetch defaults = %s/%d, want 1s/1", cfg.FetchInterval, cfg.FetchWorkers)
	}
}

func TestLoadReadsAuthAndPorts(t *testing.T) {
	t.Setenv("APP_PORT", "1234")
	t.Setenv("APP_BASIC_USER", "user")
	t.Setenv("APP_BASIC_PASS", "pass")
	t.Setenv("FETCH_WORKERS", "0")

	cfg := Load()
	if cfg.AppPort != "1234" {
		t.Fatalf("AppPort = %q, want %q", cfg.AppPort, "1234")
	}
	if cfg.BasicAuthUser != "user" || cfg.BasicAuthPass != "pass" {
		t.Fatalf("BasicAuthUser/Pass not loaded correctly: %+v", cfg)
	}
	if cfg.FetchWorkers != 1 {
		t.Fatalf("FetchWorkers = %d, want clamp to 1", cfg.FetchWorkers)
	}
}

func TestRawAndCleanPathsAreDistinct(t *testing.T) {
	cfg := &Config{DataDir: "out"}
	raw := cfg.RawPath("dawn")
	clean := cfg.CleanPath("dawn")
	if raw != filepath.Join("out", "dawn_news_data.csv") {
		t.Fatalf("RawPath = %q", raw)
	}
	if clean != filepath.Join("out", "cleaned", "cleaned_dawn_news_data.csv") {
		t.Fatalf("CleanPath = %q", clean)
	}
}

func TestParseFeeds(t *testing.T) {
	data := []byte(`
feeds:
  - name: dawn_feed
    url: " https://www.dawn.com/feeds/home "
  - name: geo
    url: https://www.geo.tv/rss/1/1
`)
	feeds, err := parseFeeds(data)
	if err != nil {
		t.Fatalf("parseFeeds error: %v", err)
	}
	if len(feeds) != 2 {
		t.Fatalf("expected 2 feeds, got %d", len(feeds))
	}
	if feeds[0].URL != "https://www.dawn.com/feeds/home" {
		t.Fatalf("feed url not trimmed: %q", feeds[0].URL)
	}

	cases := []struct {
		name string
		data string
	}{
		{"bad name", "feeds:\n  - name: Dawn Feed\n    url: http://x\n"},
		{"missing url", "feeds:\n  - name: x\n"},
		{"duplicate", "feeds:\n  - name: x\n    url: http://a\n  - name: x\n    url: http://b\n"},
		{"not yaml", "feeds: [\n"},
	}
	for _, c := range cases {
		if _, err := parseFeeds([]byte(c.data)); err == nil {
			t.Fatalf("%s: expected error", c.name)
		}
	}
}

func TestLoadFeedsEmptyPath(t *testing.T) {
	feeds, err := LoadFeeds("")
	if err != nil || feeds != nil {
		t.Fatalf("LoadFeeds(\"\") = %v, %v; want nil, nil", feeds, err)
	}
	if _, err := LoadFeeds(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
