// Package pipeline 驱动单个新闻源的抽取流程：列表页 → 链接 → 并发抓取正文 → 原始表。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/LJTian/NewsHarvest/internal/collector"
	"github.com/LJTian/NewsHarvest/internal/dataset"
	"github.com/LJTian/NewsHarvest/internal/logger"
	"github.com/LJTian/NewsHarvest/internal/metrics"
)

// ErrListingFetch 列表页拉取失败，本次运行整体失败
var ErrListingFetch = errors.New("pipeline: listing fetch failed")

// Fetcher 抓取单篇文章正文
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Options struct {
	// Workers 并发抓取数，<=1 时与参考实现一样逐篇串行
	Workers int
	// OutputPath 原始表输出路径，为空则不落盘
	OutputPath string
	// Fetcher 为空时使用 collector.ArticleFetcher（与列表页共用 loader 和 limiter）
	Fetcher Fetcher
}

type Pipeline struct {
	source  collector.Source
	loader  collector.PageLoader
	limiter collector.Limiter
	fetcher Fetcher
	workers int
	output  string
}

// New 每次运行应使用独立的 limiter，源与源之间不共享可变状态
func New(source collector.Source, loader collector.PageLoader, limiter collector.Limiter, opts Options) *Pipeline {
	if limiter == nil {
		limiter = collector.NoLimit
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = collector.NewArticleFetcher(loader, limiter)
	}
	return &Pipeline{
		source:  source,
		loader:  loader,
		limiter: limiter,
		fetcher: fetcher,
		workers: workers,
		output:  opts.OutputPath,
	}
}

type result struct {
	text string
	err  error
	done bool
}

// Run 执行一次完整抽取。单篇失败或正文为空只记录并跳过；
// 只有列表页失败、被取消或落盘失败才返回 error。
// 输出顺序始终等于发现顺序：每个 worker 写入按下标预留的槽位。
func (p *Pipeline) Run(ctx context.Context) (dataset.Table, *Report, error) {
	name := p.source.Name()
	report := newReport(name)
	defer func() {
		metrics.RunDuration.WithLabelValues(name).Observe(time.Since(report.StartedAt).Seconds())
	}()

	listingURL := p.source.ListingURL()
	logger.Infof("fetch %s listing %s...", name, listingURL)

	page, err := p.loadListing(ctx, listingURL)
	if err != nil {
		metrics.ListingFailures.WithLabelValues(name).Inc()
		report.finish()
		return nil, report, fmt.Errorf("%w: %s: %w", ErrListingFetch, name, err)
	}

	links := p.source.Discover(page)
	report.Discovered = len(links)
	if len(links) == 0 {
		logger.Warnf("%s: listing has no article links", name)
	}

	results, cancelErr := p.fetchAll(ctx, links)
	if cancelErr == nil {
		cancelErr = ctx.Err()
	}

	table := make(dataset.Table, 0, len(links))
	for i, link := range links {
		r := results[i]
		switch {
		case !r.done:
			// 取消后未派发的链接
		case cancelErr != nil && isCancellation(r.err):
			// 已派发但被取消打断，不计为失败
		case r.err != nil:
			report.addFailure(link.URL, r.err)
			metrics.Articles.WithLabelValues(name, metrics.OutcomeFailed).Inc()
			logger.Warnf("%s: article %s skipped: %v", name, link.URL, r.err)
		case strings.TrimSpace(r.text) == "":
			report.Empty++
			metrics.Articles.WithLabelValues(name, metrics.OutcomeEmpty).Inc()
			logger.Infof("%s: article %s skipped: empty extraction", name, link.URL)
		default:
			report.Saved++
			metrics.Articles.WithLabelValues(name, metrics.OutcomeSaved).Inc()
			table = append(table, dataset.Record{Title: link.Title, URL: link.URL, Text: r.text})
		}
	}
	report.finish()

	if cancelErr != nil {
		logger.Warnf("%s: run cancelled after %d/%d links", name, report.attempted(), len(links))
		return nil, report, fmt.Errorf("pipeline: %s: %w", name, cancelErr)
	}

	if p.output != "" {
		if err := dataset.Write(p.output, table); err != nil {
			return nil, report, fmt.Errorf("pipeline: %s: %w", name, err)
		}
	}

	logger.Infof("%s done, discovered=%d saved=%d failed=%d empty=%d in %s",
		name, report.Discovered, report.Saved, report.Failed, report.Empty, report.Duration().Round(time.Millisecond))
	return table, report, nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (p *Pipeline) loadListing(ctx context.Context, listingURL string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.loader.Load(ctx, listingURL)
}

// fetchAll 有界并发抓取；每次派发前检查取消，已派发的抓取不打断
func (p *Pipeline) fetchAll(ctx context.Context, links []collector.ArticleLink) ([]result, error) {
	results := make([]result, len(links))

	var (
		wg        sync.WaitGroup
		sem       = make(chan struct{}, p.workers)
		cancelErr error
	)

dispatch:
	for i, link := range links {
		select {
		case <-ctx.Done():
			cancelErr = ctx.Err()
			break dispatch
		case sem <- struct{}{}:
		}
		// sem 与 Done 同时就绪时 select 随机选择，这里再确认一次
		if err := ctx.Err(); err != nil {
			<-sem
			cancelErr = err
			break dispatch
		}

		wg.Add(1)
		go func(idx int, url string) {
			defer wg.Done()
			defer func() { <-sem }()

			text, err := p.fetcher.Fetch(ctx, url)
			results[idx] = result{text: text, err: err, done: true}
		}(i, link.URL)
	}
	wg.Wait()

	return results, cancelErr
}
