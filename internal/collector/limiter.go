package collector

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter 控制对目标站点的请求节奏；同一次运行中的所有 worker 共享一个实例
type Limiter interface {
	Wait(ctx context.Context) error
}

// IntervalLimiter 两次请求之间至少间隔 interval，不允许突发
type IntervalLimiter struct {
	limiter *rate.Limiter
}

// NewIntervalLimiter interval <= 0 时不限速
func NewIntervalLimiter(interval time.Duration) *IntervalLimiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &IntervalLimiter{limiter: rate.NewLimiter(limit, 1)}
}

func (l *IntervalLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

type noLimit struct{}

func (noLimit) Wait(ctx context.Context) error {
	return ctx.Err()
}

// NoLimit 零延迟实现，用于测试
var NoLimit Limiter = noLimit{}
