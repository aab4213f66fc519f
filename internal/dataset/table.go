// Package dataset 负责原始表/规范化表的 CSV 持久化（列顺序固定为 title,url,text）。
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Header 持久化文件的表头
var Header = []string{"title", "url", "text"}

var (
	// ErrPersistence 写盘失败（磁盘满、无权限等），对整次运行是致命的
	ErrPersistence = errors.New("dataset: persistence failed")
	// ErrMalformed 表结构不符合约定（缺表头、缺列、行宽不一致）
	ErrMalformed = errors.New("dataset: malformed table")
)

// Record 一篇成功抽取的文章
type Record struct {
	Title string
	URL   string
	Text  string
}

// Table 单个源的一批记录，保持写入顺序，不做去重
type Table []Record

// Write 整体覆盖写入：先写同目录临时文件再 rename，避免下游读到半截文件
func Write(path string, t Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", ErrPersistence, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %v", ErrPersistence, path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // rename 成功后为 no-op

	if err := Encode(tmp, t); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrPersistence, path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: chmod %s: %v", ErrPersistence, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: rename %s: %v", ErrPersistence, path, err)
	}
	return nil
}

// Encode 写出表头与所有行
func Encode(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range t {
		if err := cw.Write([]string{r.Title, r.URL, r.Text}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read 读取整张表；文件不存在时返回的错误满足 errors.Is(err, os.ErrNotExist)
func Read(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	return t, nil
}

// Decode 按表头名定位列，允许列顺序不同，但三列必须齐全
func Decode(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	cols := make([]int, len(Header))
	for i, name := range Header {
		pos, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformed, name)
		}
		cols[i] = pos
	}

	t := make(Table, 0)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		t = append(t, Record{
			Title: row[cols[0]],
			URL:   row[cols[1]],
			Text:  row[cols[2]],
		})
	}
	return t, nil
}
