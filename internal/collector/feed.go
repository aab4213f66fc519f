package collector

import (
	"bytes"
	"strings"

	"github.com/mmcdole/gofeed"
)

// FeedSource 以 RSS/Atom 作为列表页的通用新闻源，由 FEEDS_FILE 配置
type FeedSource struct {
	name string
	url  string
}

func NewFeedSource(name, feedURL string) *FeedSource {
	return &FeedSource{name: name, url: feedURL}
}

func (f *FeedSource) Name() string {
	return f.name
}

func (f *FeedSource) ListingURL() string {
	return f.url
}

func (f *FeedSource) Discover(listingPage []byte) []ArticleLink {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(listingPage))
	if err != nil || feed == nil {
		return nil
	}

	links := make([]ArticleLink, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		link := resolveURL(f.url, item.Link)
		if link == "" {
			continue
		}
		links = append(links, ArticleLink{
			Title: strings.TrimSpace(item.Title),
			URL:   link,
		})
	}
	return links
}
