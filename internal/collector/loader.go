package collector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

const maxPageBytes = 8 << 20 // 8MB，防止超大页面占满内存

// PageLoader 拉取一个页面的原始字节；非 2xx 视为失败
type PageLoader interface {
	Load(ctx context.Context, pageURL string) ([]byte, error)
}

// CollyLoader 基于 colly 的页面加载器。每次 Load 克隆一个 collector，
// 回调互不干扰，底层 http.Client 共享以复用连接。
type CollyLoader struct {
	base *colly.Collector
}

func NewCollyLoader(userAgent string, timeout time.Duration) *CollyLoader {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(maxPageBytes),
		colly.ParseHTTPErrorResponse(),
	)
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}
	return &CollyLoader{base: c}
}

// Load 只在发起请求前检查取消；已发出的请求由超时兜底，不强行中断
func (l *CollyLoader) Load(ctx context.Context, pageURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := l.base.Clone()
	c.ParseHTTPErrorResponse = true
	var (
		body   []byte
		status int
	)
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", pageURL, err)
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("visit %s: unexpected status %d %s", pageURL, status, http.StatusText(status))
	}
	return body, nil
}
