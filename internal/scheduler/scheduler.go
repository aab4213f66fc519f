package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/LJTian/NewsHarvest/internal/logger"
	"github.com/LJTian/NewsHarvest/internal/metrics"
	"github.com/LJTian/NewsHarvest/internal/tasks"
	"github.com/robfig/cron/v3"
)

// ErrChainRunning 上一轮任务链尚未结束
var ErrChainRunning = errors.New("scheduler: chain already running")

type Scheduler struct {
	cron       *cron.Cron
	chain      []tasks.Task
	retries    int
	retryDelay time.Duration

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New 任务按给定顺序串行执行，前一个任务最终失败时后续任务不再运行
func New(spec string, chain []tasks.Task, retries int, retryDelay time.Duration) (*Scheduler, error) {
	if retries < 0 {
		retries = 0
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger.PrintfLogger{}))))
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cron:       c,
		chain:      chain,
		retries:    retries,
		retryDelay: retryDelay,
		ctx:        ctx,
		cancel:     cancel,
	}

	_, err := c.AddFunc(spec, s.runScheduled)
	if err != nil {
		cancel()
		return nil, err
	}
	return s, nil
}

// Start runOnStart 为 true 时立即在后台跑一轮
func (s *Scheduler) Start(runOnStart bool) {
	s.cron.Start()
	if runOnStart {
		go s.runScheduled()
	}
}

// Stop 取消进行中的任务并等待 cron 退出
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runScheduled() {
	if err := s.RunOnce(s.ctx); err != nil {
		logger.Errorf("scheduler: chain failed: %v", err)
	}
}

// RunOnce 手动执行一轮完整任务链
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrChainRunning
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	logger.Infof("scheduler: chain start (%d tasks)", len(s.chain))
	start := time.Now()
	for _, t := range s.chain {
		if err := s.runTask(ctx, t); err != nil {
			return fmt.Errorf("task %s: %w", t.Name, err)
		}
	}
	logger.Infof("scheduler: chain done in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

func (s *Scheduler) runTask(ctx context.Context, t tasks.Task) error {
	var err error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			logger.Warnf("scheduler: retry %s in %s (attempt %d/%d)", t.Name, s.retryDelay, attempt+1, s.retries+1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logger.Infof("scheduler: run %s", t.Name)
		err = t.Run(ctx)
		if err == nil {
			metrics.TaskRuns.WithLabelValues(t.Name, "success").Inc()
			return nil
		}
		metrics.TaskRuns.WithLabelValues(t.Name, "failure").Inc()
		logger.Errorf("scheduler: %s failed: %v", t.Name, err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}
	return err
}
