package processor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/quick"

	"github.com/LJTian/NewsHarvest/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashURLDeterministicAndDistinct(t *testing.T) {
	url1 := "https://example.com/a"
	url2 := "https://example.com/b"

	h1a := hashURL(url1)
	h1b := hashURL(url1)
	h2 := hashURL(url2)

	if h1a != h1b {
		t.Fatalf("hashURL not deterministic: %q vs %q", h1a, h1b)
	}
	if h1a == h2 {
		t.Fatalf("hashURL should differ for different URLs: %q", h1a)
	}
	if len(ArticleID(url1)) != 40 {
		t.Fatalf("ArticleID should be a 40-char sha1 hex: %q", ArticleID(url1))
	}
}

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{" Breaking   News ", "breaking news"},
		{"Hello World", "hello world"},
		{"\tTabs\tand\nNew\r\nLines  ", "tabs and new lines"},
		{"", ""},
		{"   ", ""},
		{"ÄÖÜ Ünïcode", "äöü ünïcode"},
		{"already clean", "already clean"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeText(c.in), "NormalizeText(%q)", c.in)
	}
}

func TestNormalizeTextIdempotent(t *testing.T) {
	f := func(s string) bool {
		once := NormalizeText(s)
		return NormalizeText(once) == once
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 2000}))
}

func TestProcessPreservesRowsAndURLs(t *testing.T) {
	p := NewNormalizer()
	raw := dataset.Table{
		{Title: " Breaking   News ", URL: "http://x/a", Text: "Hello World"},
		{Title: "", URL: "  http://x/B  ", Text: "  MIXED   Case "},
		{Title: "dup", URL: "http://x/a", Text: "dup"},
	}

	once := p.Process(raw)
	require.Len(t, once, len(raw))
	for i := range raw {
		assert.Equal(t, raw[i].URL, once[i].URL, "url must be untouched")
	}
	assert.Equal(t, dataset.Record{Title: "breaking news", URL: "http://x/a", Text: "hello world"}, once[0])
	assert.Equal(t, "mixed case", once[1].Text)

	assert.Equal(t, once, p.Process(once), "normalize(normalize(T)) == normalize(T)")
	assert.Equal(t, " Breaking   News ", raw[0].Title, "input must not be mutated")
}

func TestNormalizeFileIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "raw.csv")
	require.NoError(t, dataset.Write(in, dataset.Table{
		{Title: " Breaking   News ", URL: "http://x/a", Text: "Hello World"},
	}))

	p := NewNormalizer()
	out1 := filepath.Join(dir, "clean1.csv")
	out2 := filepath.Join(dir, "clean2.csv")
	rows, err := p.NormalizeFile(FilePair{Source: "x", Input: in, Output: out1})
	require.NoError(t, err)
	assert.Equal(t, 1, rows)
	_, err = p.NormalizeFile(FilePair{Source: "x", Input: in, Output: out2})
	require.NoError(t, err)

	b1, err := os.ReadFile(out1)
	require.NoError(t, err)
	b2, err := os.ReadFile(out2)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
	assert.Equal(t, "title,url,text\nbreaking news,http://x/a,hello world\n", string(b1))

	// 对规范化表再跑一次，字节不变
	out3 := filepath.Join(dir, "clean3.csv")
	_, err = p.NormalizeFile(FilePair{Source: "x", Input: out1, Output: out3})
	require.NoError(t, err)
	b3, err := os.ReadFile(out3)
	require.NoError(t, err)
	assert.Equal(t, b1, b3)
}

func TestNormalizeAllIsolatesFailingPairs(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	require.NoError(t, dataset.Write(good, dataset.Table{{Title: "A", URL: "u", Text: "B"}}))
	malformed := filepath.Join(dir, "malformed.csv")
	require.NoError(t, os.WriteFile(malformed, []byte("title,url\nx,y\n"), 0o644))

	pairs := []FilePair{
		{Source: "missing", Input: filepath.Join(dir, "missing.csv"), Output: filepath.Join(dir, "out_missing.csv")},
		{Source: "malformed", Input: malformed, Output: filepath.Join(dir, "out_malformed.csv")},
		{Source: "good", Input: good, Output: filepath.Join(dir, "out_good.csv")},
	}

	results := NewNormalizer().NormalizeAll(pairs)
	require.Len(t, results, 3)

	assert.True(t, errors.Is(results[0].Err, ErrNormalizationInput))
	assert.True(t, errors.Is(results[0].Err, os.ErrNotExist))
	assert.True(t, errors.Is(results[1].Err, ErrNormalizationInput))
	assert.True(t, errors.Is(results[1].Err, dataset.ErrMalformed))
	require.NoError(t, results[2].Err)
	assert.Equal(t, 1, results[2].Rows)

	_, err := os.Stat(pairs[0].Output)
	assert.True(t, os.IsNotExist(err), "failed pair must not produce output")

	clean, err := dataset.Read(pairs[2].Output)
	require.NoError(t, err)
	assert.Equal(t, dataset.Table{{Title: "a", URL: "u", Text: "b"}}, clean)
}
