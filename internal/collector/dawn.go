package collector

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const dawnListingURL = "https://www.dawn.com"

// DawnSource 解析 Dawn 首页：每个 article.story 下的 h2.story__title 标题及其链接
type DawnSource struct {
	// URL 覆盖默认列表页地址（测试或镜像站使用）
	URL string
}

func (d *DawnSource) Name() string {
	return "dawn"
}

func (d *DawnSource) ListingURL() string {
	if d.URL != "" {
		return d.URL
	}
	return dawnListingURL
}

func (d *DawnSource) Discover(listingPage []byte) []ArticleLink {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(listingPage))
	if err != nil {
		return nil
	}

	base := d.ListingURL()
	links := make([]ArticleLink, 0, 32)
	doc.Find("article.story").Each(func(_ int, story *goquery.Selection) {
		heading := story.Find("h2.story__title").First()
		if heading.Length() == 0 {
			return
		}
		href, ok := heading.Find("a").First().Attr("href")
		if !ok {
			return
		}
		link := resolveURL(base, href)
		if link == "" {
			return
		}
		links = append(links, ArticleLink{
			Title: strings.TrimSpace(heading.Text()),
			URL:   link,
		})
	})
	return links
}
