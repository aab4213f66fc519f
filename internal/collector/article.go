package collector

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FetchError 单篇文章抓取失败，可恢复：调用方记录日志后跳过该链接
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch article %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ArticleFetcher 先等待限速器，再拉取页面并抽取所有段落文本
type ArticleFetcher struct {
	loader  PageLoader
	limiter Limiter
}

func NewArticleFetcher(loader PageLoader, limiter Limiter) *ArticleFetcher {
	if limiter == nil {
		limiter = NoLimit
	}
	return &ArticleFetcher{loader: loader, limiter: limiter}
}

// Fetch 成功时返回段落文本；页面没有段落时返回空串，这不是错误
func (f *ArticleFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	page, err := f.loader.Load(ctx, url)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	text, err := ExtractParagraphs(page)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	return text, nil
}

// ExtractParagraphs 取文档中每个 p 元素的可见文本，以单个空格拼接
func ExtractParagraphs(page []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	parts := make([]string, 0, 16)
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, s.Text())
	})
	return strings.Join(parts, " "), nil
}
