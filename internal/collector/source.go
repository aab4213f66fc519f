package collector

// ArticleLink 从列表页发现的一条候选文章，URL 已解析为绝对地址
type ArticleLink struct {
	Title string
	URL   string
}

// Source 抽象每一个新闻源：只负责从列表页字节中解析出文章链接
//
// Discover 必须是纯解析：找不到预期结构时返回空序列而不是报错，
// 缺少可用链接的条目直接跳过。新增新闻源只需要新增一个实现。
type Source interface {
	Name() string
	ListingURL() string
	Discover(listingPage []byte) []ArticleLink
}

// DefaultSources 内置的两个新闻源，顺序即调度顺序
func DefaultSources() []Source {
	return []Source{
		&DawnSource{},
		&TheNewsSource{},
	}
}
