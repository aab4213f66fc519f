package processor

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/LJTian/NewsHarvest/internal/dataset"
	"github.com/LJTian/NewsHarvest/internal/logger"
)

// ErrNormalizationInput 输入表缺失或格式错误，只影响当前这一对文件
var ErrNormalizationInput = errors.New("processor: normalization input")

// FilePair 一个源的原始表与规范化表路径
type FilePair struct {
	Source string
	Input  string
	Output string
}

// PairResult 单对文件的处理结果；Err 非空时该对的输出未写入
type PairResult struct {
	Pair FilePair
	Rows int
	Err  error
}

// Normalizer 将原始表转换为规范化表：title/text 去首尾空白、转小写、合并连续空白；url 不变
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeText 幂等：NormalizeText(NormalizeText(s)) == NormalizeText(s)
func NormalizeText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// Process 返回新表，不修改入参
func (p *Normalizer) Process(t dataset.Table) dataset.Table {
	out := make(dataset.Table, 0, len(t))
	for _, r := range t {
		out = append(out, dataset.Record{
			Title: NormalizeText(r.Title),
			URL:   r.URL,
			Text:  NormalizeText(r.Text),
		})
	}
	return out
}

// NormalizeFile 读取原始表、规范化后写出；读失败包装为 ErrNormalizationInput，写失败为 dataset.ErrPersistence
func (p *Normalizer) NormalizeFile(pair FilePair) (int, error) {
	raw, err := dataset.Read(pair.Input)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrNormalizationInput, pair.Input, err)
	}

	clean := p.Process(raw)
	if err := dataset.Write(pair.Output, clean); err != nil {
		return 0, err
	}
	return len(clean), nil
}

// NormalizeAll 逐对处理，某一对失败不影响其它对
func (p *Normalizer) NormalizeAll(pairs []FilePair) []PairResult {
	results := make([]PairResult, 0, len(pairs))
	for _, pair := range pairs {
		rows, err := p.NormalizeFile(pair)
		if err != nil {
			logger.Errorf("normalize %s error: %v", pair.Source, err)
		} else {
			logger.Infof("normalize %s done, rows=%d -> %s", pair.Source, rows, pair.Output)
		}
		results = append(results, PairResult{Pair: pair, Rows: rows, Err: err})
	}
	return results
}

// ArticleID 以 URL 的 sha1 作为存储层主键
func ArticleID(url string) string {
	return hashURL(url)
}

func hashURL(url string) string {
	h := sha1.New()
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}
