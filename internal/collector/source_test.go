package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dawnListing = `<html><body>
<article class="story">
  <h2 class="story__title"><a href="https://www.dawn.com/news/1">  First story </a></h2>
</article>
<article class="story">
  <h2 class="story__title">No link here</h2>
</article>
<article class="story">
  <h3 class="story__title"><a href="https://www.dawn.com/news/ignored">wrong heading</a></h3>
</article>
<article class="story">
  <h2 class="story__title"><a>anchor without href</a></h2>
</article>
<div class="story">
  <h2 class="story__title"><a href="https://www.dawn.com/news/not-an-article">div, not article</a></h2>
</div>
<article class="story featured">
  <h2 class="story__title"><a href="/news/2">Second <span>story</span></a></h2>
</article>
</body></html>`

func TestDawnDiscoverInDocumentOrder(t *testing.T) {
	src := &DawnSource{}
	links := src.Discover([]byte(dawnListing))

	require.Len(t, links, 2)
	assert.Equal(t, ArticleLink{Title: "First story", URL: "https://www.dawn.com/news/1"}, links[0])
	assert.Equal(t, ArticleLink{Title: "Second story", URL: "https://www.dawn.com/news/2"}, links[1])
}

const theNewsListing = `<html><body>
<div class="main_story_left">
  <ul>
    <li><a href="http://x/a" title=" Breaking   News ">Breaking</a></li>
    <li><span>no anchor</span></li>
    <li><a title="empty href" href="">x</a></li>
    <li><a href="/latest/2">untitled</a></li>
  </ul>
  <ul>
    <li><a href="javascript:void(0)" title="script">x</a></li>
    <li><a href="http://x/c" title="Third">c</a></li>
  </ul>
</div>
<div class="sidebar"><ul><li><a href="http://x/outside" title="outside">o</a></li></ul></div>
</body></html>`

func TestTheNewsDiscoverKeepsRawTitles(t *testing.T) {
	src := &TheNewsSource{}
	links := src.Discover([]byte(theNewsListing))

	want := []ArticleLink{
		{Title: " Breaking   News ", URL: "http://x/a"},
		{Title: "", URL: "https://www.thenews.com.pk/latest/2"},
		{Title: "Third", URL: "http://x/c"},
	}
	assert.Equal(t, want, links)
}

func TestDiscoverWithoutMarkersReturnsEmpty(t *testing.T) {
	pages := [][]byte{
		nil,
		[]byte(""),
		[]byte("<html><body><p>nothing to see</p></body></html>"),
		[]byte("\x00\xff not html at all <<<"),
		[]byte(`<?xml version="1.0"?><rss><channel></channel></rss>`),
	}
	sources := []Source{&DawnSource{}, &TheNewsSource{}, NewFeedSource("feed", "https://example.com/rss")}

	for _, src := range sources {
		for _, page := range pages {
			assert.Empty(t, src.Discover(page), "%s on %q", src.Name(), page)
		}
	}
}

const rssListing = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
  <title>Example</title>
  <item><title> One </title><link>https://example.com/one</link></item>
  <item><title>No link</title></item>
  <item><title>Relative</title><link>/two</link></item>
</channel></rss>`

func TestFeedDiscover(t *testing.T) {
	src := NewFeedSource("example", "https://example.com/rss")
	links := src.Discover([]byte(rssListing))

	assert.Equal(t, []ArticleLink{
		{Title: "One", URL: "https://example.com/one"},
		{Title: "Relative", URL: "https://example.com/two"},
	}, links)
	assert.Equal(t, "example", src.Name())
	assert.Equal(t, "https://example.com/rss", src.ListingURL())
}

func TestListingURLOverride(t *testing.T) {
	assert.Equal(t, "https://www.dawn.com", (&DawnSource{}).ListingURL())
	assert.Equal(t, "http://127.0.0.1:1/", (&DawnSource{URL: "http://127.0.0.1:1/"}).ListingURL())
	assert.Equal(t, "https://www.thenews.com.pk/", (&TheNewsSource{}).ListingURL())
}

func TestDefaultSourcesHaveDistinctNames(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range DefaultSources() {
		assert.False(t, seen[s.Name()], "duplicate source %s", s.Name())
		seen[s.Name()] = true
	}
	assert.Equal(t, map[string]bool{"dawn": true, "thenews": true}, seen)
}

func TestResolveURL(t *testing.T) {
	cases := []struct {
		base, href, want string
	}{
		{"https://www.dawn.com", "https://www.dawn.com/news/1", "https://www.dawn.com/news/1"},
		{"https://www.dawn.com", "/news/1", "https://www.dawn.com/news/1"},
		{"https://www.thenews.com.pk/", "latest/9", "https://www.thenews.com.pk/latest/9"},
		{"https://www.dawn.com", "  http://x/a  ", "http://x/a"},
		{"https://www.dawn.com", "", ""},
		{"https://www.dawn.com", "#top", ""},
		{"https://www.dawn.com", "mailto:desk@dawn.com", ""},
		{"https://www.dawn.com", "javascript:void(0)", ""},
		{"not a base", "/relative", ""},
		{"https://www.dawn.com", "http://[::1", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, resolveURL(c.base, c.href), "resolveURL(%q, %q)", c.base, c.href)
	}
}
