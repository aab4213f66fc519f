package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Report 一次源抽取运行的统计，失败链接附带错误信息便于排查
type Report struct {
	RunID      string
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time
	Discovered int
	Saved      int
	Failed     int
	Empty      int
	Failures   map[string]string
}

func newReport(source string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Source:    source,
		StartedAt: time.Now(),
		Failures:  make(map[string]string),
	}
}

func (r *Report) addFailure(url string, err error) {
	r.Failed++
	r.Failures[url] = err.Error()
}

func (r *Report) finish() {
	r.FinishedAt = time.Now()
}

func (r *Report) attempted() int {
	return r.Saved + r.Failed + r.Empty
}

// Duration 运行耗时；未结束时返回 0
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
