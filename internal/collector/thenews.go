package collector

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

const theNewsListingURL = "https://www.thenews.com.pk/"

// TheNewsSource 解析 The News 首页 div.main_story_left 内各个列表项的链接。
// 标题取自 a 的 title 属性且原样保留（可能为空或带多余空白），由规范化阶段统一清洗。
type TheNewsSource struct {
	URL string
}

func (n *TheNewsSource) Name() string {
	return "thenews"
}

func (n *TheNewsSource) ListingURL() string {
	if n.URL != "" {
		return n.URL
	}
	return theNewsListingURL
}

func (n *TheNewsSource) Discover(listingPage []byte) []ArticleLink {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(listingPage))
	if err != nil {
		return nil
	}

	container := doc.Find("div.main_story_left").First()
	if container.Length() == 0 {
		return nil
	}

	base := n.ListingURL()
	links := make([]ArticleLink, 0, 32)
	// 嵌套的 ul 会让同一个 li 被访问多次，重复链接按约定保留
	container.Find("ul").Each(func(_ int, ul *goquery.Selection) {
		ul.Find("li").Each(func(_ int, li *goquery.Selection) {
			a := li.Find("a").First()
			href, _ := a.Attr("href")
			link := resolveURL(base, href)
			if link == "" {
				return
			}
			title, _ := a.Attr("title")
			links = append(links, ArticleLink{Title: title, URL: link})
		})
	})
	return links
}
