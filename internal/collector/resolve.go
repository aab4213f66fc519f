package collector

import (
	"net/url"
	"strings"
)

// resolveURL 将列表页中的 href 解析为绝对 http(s) 地址；无法解析时返回空串
func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if !ref.IsAbs() {
		b, err := url.Parse(base)
		if err != nil || !b.IsAbs() {
			return ""
		}
		ref = b.ResolveReference(ref)
	}

	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	if ref.Host == "" {
		return ""
	}
	return ref.String()
}
