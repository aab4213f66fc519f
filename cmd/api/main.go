package main

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/LJTian/NewsHarvest/internal/api"
	"github.com/LJTian/NewsHarvest/internal/config"
	"github.com/LJTian/NewsHarvest/internal/logger"
	"github.com/LJTian/NewsHarvest/internal/scheduler"
	"github.com/LJTian/NewsHarvest/internal/storage"
	"github.com/LJTian/NewsHarvest/internal/tasks"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(cfg.LogLevel); err != nil {
		panic(err)
	}
	defer logger.Sync()

	store, err := openStore(cfg)
	if err != nil {
		logger.Fatalf("init store failed: %v", err)
	}

	runner, err := tasks.NewRunnerFromConfig(cfg, tasks.WithMirror(store))
	if err != nil {
		logger.Fatalf("init tasks failed: %v", err)
	}

	// 整条任务链按 CRON_SPEC 串行执行，失败任务按 TASK_RETRIES 重试
	s, err := scheduler.New(cfg.CronSpec, runner.Tasks(), cfg.TaskRetries, cfg.TaskRetryDelay)
	if err != nil {
		logger.Fatalf("init scheduler failed: %v", err)
	}
	s.Start(cfg.RunOnStart)
	defer s.Stop()

	// API
	r := gin.Default()
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	apiServer := api.NewServer(store)
	apiServer.RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	logger.Infof("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		logger.Errorf("server exit: %v", err)
	}
}

// openStore API 只读查询依赖数据库，POSTGRES_DSN 为空时直接报错（cmd/harvest 可不配数据库）
func openStore(cfg *config.Config) (*storage.Store, error) {
	if cfg.PostgresDSN == "" {
		return nil, errors.New("POSTGRES_DSN required for api")
	}
	return storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
}

// basicAuthMiddleware 为整个站点增加一个简单的 Basic Auth 访问密码。
// 仅当配置了 APP_BASIC_USER / APP_BASIC_PASS 时启用。
// /health 不做认证，便于健康检查。
func basicAuthMiddleware(user, pass string) gin.HandlerFunc {
	const realm = "Restricted"
	uBytes := []byte(user)
	pBytes := []byte(pass)

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		u, p, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), uBytes) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), pBytes) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="`+realm+`"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
