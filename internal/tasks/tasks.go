// Package tasks 把流水线暴露为按名称调用的任务：每个源一个抓取任务，随后是规范化与快照。
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LJTian/NewsHarvest/internal/collector"
	"github.com/LJTian/NewsHarvest/internal/config"
	"github.com/LJTian/NewsHarvest/internal/dataset"
	"github.com/LJTian/NewsHarvest/internal/logger"
	"github.com/LJTian/NewsHarvest/internal/pipeline"
	"github.com/LJTian/NewsHarvest/internal/processor"
	"github.com/LJTian/NewsHarvest/internal/snapshot"
)

const (
	TaskNormalize = "preprocess_data"
	TaskSnapshot  = "dvc_add"
)

// ErrUnknownTask 任务名不存在
var ErrUnknownTask = errors.New("tasks: unknown task")

// ScrapeTaskName 源对应的抓取任务名，例如 scrape_dawn
func ScrapeTaskName(source string) string {
	return "scrape_" + source
}

// Task 调度器看到的最小单元；重试与依赖由调度器负责
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Mirror 规范化结果与运行记录的可选镜像（Postgres）
type Mirror interface {
	SaveArticles(source string, t dataset.Table) error
	SaveRun(r *pipeline.Report) error
}

// Publisher 快照发布
type Publisher interface {
	Publish(ctx context.Context, files []string) error
}

type Runner struct {
	cfg        *config.Config
	sources    []collector.Source
	loader     collector.PageLoader
	newLimiter func() collector.Limiter
	normalizer *processor.Normalizer
	mirror     Mirror
	publisher  Publisher

	mu      sync.Mutex
	reports map[string]*pipeline.Report
}

type Option func(*Runner)

func WithMirror(m Mirror) Option {
	return func(r *Runner) { r.mirror = m }
}

func WithPublisher(p Publisher) Option {
	return func(r *Runner) { r.publisher = p }
}

func WithLoader(l collector.PageLoader) Option {
	return func(r *Runner) { r.loader = l }
}

// WithLimiterFactory 每次源运行调用一次，保证源与源之间不共享限速状态
func WithLimiterFactory(f func() collector.Limiter) Option {
	return func(r *Runner) { r.newLimiter = f }
}

func NewRunner(cfg *config.Config, sources []collector.Source, opts ...Option) (*Runner, error) {
	seen := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		if _, ok := seen[s.Name()]; ok {
			return nil, fmt.Errorf("tasks: duplicate source %q", s.Name())
		}
		seen[s.Name()] = struct{}{}
	}

	r := &Runner{
		cfg:        cfg,
		sources:    sources,
		normalizer: processor.NewNormalizer(),
		reports:    make(map[string]*pipeline.Report),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.loader == nil {
		r.loader = collector.NewCollyLoader(cfg.UserAgent, cfg.FetchTimeout)
	}
	if r.newLimiter == nil {
		interval := cfg.FetchInterval
		r.newLimiter = func() collector.Limiter { return collector.NewIntervalLimiter(interval) }
	}
	return r, nil
}

// NewRunnerFromConfig 内置源 + FEEDS_FILE 中的 RSS 源；快照按 SNAPSHOT_ENABLED 启用
func NewRunnerFromConfig(cfg *config.Config, opts ...Option) (*Runner, error) {
	feeds, err := config.LoadFeeds(cfg.FeedsFile)
	if err != nil {
		return nil, err
	}
	sources := collector.DefaultSources()
	for _, f := range feeds {
		sources = append(sources, collector.NewFeedSource(f.Name, f.URL))
	}

	if cfg.SnapshotEnabled {
		opts = append([]Option{WithPublisher(snapshot.New(cfg.SnapshotDir, cfg.SnapshotMessage, nil))}, opts...)
	}
	return NewRunner(cfg, sources, opts...)
}

// Tasks 按依赖顺序返回全部任务
func (r *Runner) Tasks() []Task {
	out := make([]Task, 0, len(r.sources)+2)
	for _, s := range r.sources {
		src := s
		out = append(out, Task{
			Name: ScrapeTaskName(src.Name()),
			Run:  func(ctx context.Context) error { return r.scrape(ctx, src) },
		})
	}
	out = append(out,
		Task{Name: TaskNormalize, Run: r.normalize},
		Task{Name: TaskSnapshot, Run: r.snapshot},
	)
	return out
}

// Run 按名称执行单个任务
func (r *Runner) Run(ctx context.Context, name string) error {
	for _, t := range r.Tasks() {
		if t.Name == name {
			return t.Run(ctx)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownTask, name)
}

// Reports 最近一次各源运行的统计，按源顺序
func (r *Runner) Reports() []*pipeline.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*pipeline.Report, 0, len(r.reports))
	for _, s := range r.sources {
		if rep, ok := r.reports[s.Name()]; ok {
			out = append(out, rep)
		}
	}
	return out
}

// Files 原始表与规范化表的全部路径，即快照的输入
func (r *Runner) Files() []string {
	files := make([]string, 0, 2*len(r.sources))
	for _, s := range r.sources {
		files = append(files, r.cfg.RawPath(s.Name()))
	}
	for _, s := range r.sources {
		files = append(files, r.cfg.CleanPath(s.Name()))
	}
	return files
}

func (r *Runner) pairs() []processor.FilePair {
	pairs := make([]processor.FilePair, 0, len(r.sources))
	for _, s := range r.sources {
		pairs = append(pairs, processor.FilePair{
			Source: s.Name(),
			Input:  r.cfg.RawPath(s.Name()),
			Output: r.cfg.CleanPath(s.Name()),
		})
	}
	return pairs
}

func (r *Runner) scrape(ctx context.Context, src collector.Source) error {
	p := pipeline.New(src, r.loader, r.newLimiter(), pipeline.Options{
		Workers:    r.cfg.FetchWorkers,
		OutputPath: r.cfg.RawPath(src.Name()),
	})
	_, report, err := p.Run(ctx)

	if report != nil {
		r.mu.Lock()
		r.reports[src.Name()] = report
		r.mu.Unlock()
		if r.mirror != nil {
			if merr := r.mirror.SaveRun(report); merr != nil {
				logger.Warnf("%s: save run report failed: %v", src.Name(), merr)
			}
		}
	}
	return err
}

// normalize 所有对都会处理；任一对失败时任务整体返回错误，交给调度器重试
func (r *Runner) normalize(ctx context.Context) error {
	results := r.normalizer.NormalizeAll(r.pairs())

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, res.Err)
			continue
		}
		if r.mirror == nil {
			continue
		}
		clean, err := dataset.Read(res.Pair.Output)
		if err != nil {
			logger.Warnf("%s: reload canonical table failed: %v", res.Pair.Source, err)
			continue
		}
		if err := r.mirror.SaveArticles(res.Pair.Source, clean); err != nil {
			logger.Warnf("%s: mirror canonical table failed: %v", res.Pair.Source, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) snapshot(ctx context.Context) error {
	if r.publisher == nil {
		logger.Infof("snapshot: disabled, skip")
		return nil
	}
	return r.publisher.Publish(ctx, r.Files())
}
